package letta

import (
	"os"
	"strings"
)

// authEnvVars are checked in order by NewFromEnv and tokenFromEnv.
var authEnvVars = []string{"LETTA_API_KEY", "LETTA_TOKEN", "LETTA_AUTH_TOKEN"}

// validateToken checks that a bearer token is usable as a header value.
func validateToken(token string) error {
	if strings.TrimSpace(token) == "" {
		return &AuthError{Message: "bearer token cannot be empty"}
	}
	if strings.ContainsAny(token, "\r\n") {
		return &AuthError{Message: "bearer token cannot contain newlines"}
	}
	if len(token) > 1024 {
		return &AuthError{Message: "bearer token is too long (max 1024 characters)"}
	}
	return nil
}

// tokenFromEnv returns the first non-empty bearer token found in the
// environment.
func tokenFromEnv() (string, bool) {
	for _, name := range authEnvVars {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v, true
		}
	}
	return "", false
}
