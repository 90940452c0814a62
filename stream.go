package letta

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net/url"

	"github.com/hashicorp/go-hclog"
)

// sseReader splits a text/event-stream body into events.
type sseReader struct {
	r *bufio.Reader
}

func newSSEReader(r io.Reader) *sseReader {
	return &sseReader{r: bufio.NewReader(r)}
}

// readEvent returns the data of the next event, joining multi-line data
// fields with newlines. Comment lines and non-data fields are ignored.
// Returns io.EOF when the stream ends.
func (s *sseReader) readEvent() ([]byte, error) {
	var dataLines [][]byte
	for {
		line, err := s.r.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				if len(dataLines) > 0 {
					return bytes.Join(dataLines, []byte("\n")), nil
				}
				return nil, io.EOF
			}
			return nil, err
		}
		line = bytes.TrimRight(line, "\r\n")

		// Blank line ends the current event.
		if len(line) == 0 {
			if len(dataLines) > 0 {
				return bytes.Join(dataLines, []byte("\n")), nil
			}
			continue
		}
		if bytes.HasPrefix(line, []byte(":")) {
			continue
		}
		if bytes.HasPrefix(line, []byte("data:")) {
			data := bytes.TrimPrefix(line, []byte("data:"))
			data = bytes.TrimPrefix(data, []byte(" "))
			dataLines = append(dataLines, data)
		}
		// Other fields (event:, id:, retry:) carry nothing we use.
	}
}

// MessageStream is an iterator over streaming events from an agent run.
// It holds the HTTP connection open until closed or exhausted.
// Usage:
//
//	stream, err := client.Messages.Stream(ctx, agentID, req, false)
//	if err != nil {
//	    // handle error
//	}
//	defer stream.Close()
//	for stream.Next() {
//	    event := stream.Current()
//	    // handle event
//	}
//	if err := stream.Err(); err != nil {
//	    // handle error
//	}
type MessageStream struct {
	body    io.ReadCloser
	reader  *sseReader
	logger  hclog.Logger
	current StreamingEvent
	err     error
	done    bool
}

func newMessageStream(body io.ReadCloser, logger hclog.Logger) *MessageStream {
	return &MessageStream{
		body:   body,
		reader: newSSEReader(body),
		logger: logger,
	}
}

// Next advances to the next event. Returns false when the stream is exhausted
// or a read error has occurred. Events that cannot be decoded are skipped;
// empty frames and the [DONE] sentinel are ignored.
func (s *MessageStream) Next() bool {
	if s.done {
		return false
	}
	for {
		data, err := s.reader.readEvent()
		if err != nil {
			s.done = true
			if err != io.EOF {
				s.err = &StreamingError{Message: "read event stream", Err: err}
			}
			return false
		}
		if len(data) == 0 || bytes.Equal(data, []byte("[DONE]")) {
			continue
		}
		event, err := decodeStreamingEvent(data)
		if err != nil {
			s.logger.Debug("skipping unparsable streaming event", "error", err)
			continue
		}
		s.current = event
		return true
	}
}

// Current returns the most recent event returned by Next.
func (s *MessageStream) Current() StreamingEvent {
	return s.current
}

// Err returns the first error encountered during iteration, if any.
func (s *MessageStream) Err() error {
	return s.err
}

// Close releases the underlying connection. It is safe to call more than once
// and after the stream is exhausted.
func (s *MessageStream) Close() error {
	s.done = true
	return s.body.Close()
}

// Stream sends messages to an agent and streams the response as server-sent
// events. When streamTokens is true the server streams individual tokens
// instead of complete messages. The request is not retried: a partially
// consumed stream cannot be replayed. Callers must Close the returned stream.
func (s *MessageService) Stream(ctx context.Context, agentID ID, req CreateMessagesRequest, streamTokens bool) (*MessageStream, error) {
	var query url.Values
	if streamTokens {
		query = url.Values{"stream_tokens": []string{"true"}}
	}
	resp, err := s.client.stream(ctx, "v1/agents/"+agentID.String()+"/messages/stream", query, req)
	if err != nil {
		return nil, err
	}
	return newMessageStream(resp.Body, s.client.logger), nil
}
