package letta

import "fmt"

// Environment selects which API deployment a client talks to.
type Environment string

const (
	// EnvironmentCloud is the hosted API at https://api.letta.com.
	// It requires bearer token authentication.
	EnvironmentCloud Environment = "cloud"
	// EnvironmentSelfHosted is a local or self-hosted server at
	// http://localhost:8283. It typically runs without authentication.
	EnvironmentSelfHosted Environment = "self_hosted"
)

// ParseEnvironment maps the names "cloud" and "self_hosted" to an
// Environment.
func ParseEnvironment(s string) (Environment, error) {
	switch Environment(s) {
	case EnvironmentCloud, EnvironmentSelfHosted:
		return Environment(s), nil
	}
	return "", &ConfigError{Message: fmt.Sprintf("unknown environment %q", s)}
}

// BaseURL returns the default base URL for the environment.
func (e Environment) BaseURL() string {
	if e == EnvironmentSelfHosted {
		return "http://localhost:8283"
	}
	return "https://api.letta.com"
}

// RequiresAuth reports whether the environment normally needs a token.
func (e Environment) RequiresAuth() bool {
	return e == EnvironmentCloud
}
