// Package appconf holds application-level configuration shared across the
// server, middleware, and debug surfaces.
package appconf

import "strings"

// Environment controls environment-specific behavior such as the debug UI.
type Environment int

const (
	Test Environment = iota
	Development
	Production
)

// EnvFlagToEnvironment maps a -env flag value to an Environment.
// Unrecognized values fall back to Development.
func EnvFlagToEnvironment(env string) Environment {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "test":
		return Test
	case "production", "prod":
		return Production
	default:
		return Development
	}
}

func (e Environment) String() string {
	switch e {
	case Test:
		return "test"
	case Production:
		return "production"
	default:
		return "development"
	}
}

// Config holds the server-level settings supplied via flags or environment.
type Config struct {
	Port      int
	Env       Environment
	ApiKeys   []string
	RateLimit int
	Verbose   bool
}
