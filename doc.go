// Package letta is a Go client for the Letta agent server REST API.
//
// The client wraps every request in typed error classification, retry with
// exponential backoff, cursor pagination, and server-sent event streaming.
// The main entry point is [Client], created with [New], [NewCloud],
// [NewLocal], or [NewFromEnv]; operations hang off its service fields.
//
// # Quick Start
//
//	client, err := letta.NewCloud(os.Getenv("LETTA_API_KEY"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	agent, err := client.Agents.Create(ctx, letta.CreateAgentRequest{
//	    Name:         "assistant",
//	    MemoryBlocks: []letta.Block{letta.HumanBlock("The human's name is not yet known.")},
//	    Model:        "openai/gpt-4o",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	resp, err := client.Messages.Create(ctx, agent.ID, letta.CreateMessagesRequest{
//	    Messages: []letta.MessageCreate{{
//	        Role:    letta.MessageRoleUser,
//	        Content: letta.TextContent("Hello!"),
//	    }},
//	})
//
// # Errors
//
// Every failure is a typed error: [APIError], [AuthError], [NotFoundError],
// [RateLimitError], [ValidationError], [TimeoutError], [TransportError], and
// friends. Match them with errors.As:
//
//	var notFound *letta.NotFoundError
//	if errors.As(err, &notFound) {
//	    // handle missing resource
//	}
//
// # Streaming
//
// [MessageService.Stream] returns a [MessageStream] that yields typed events
// as the agent works. [AgentService.Paginated] and friends return a
// [PaginatedStream] that fetches pages lazily.
package letta
