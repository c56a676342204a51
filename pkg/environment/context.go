package environment

import (
	"context"
	"strings"
)

// Environment is the deployment environment name.
type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
	Staging     Environment = "staging"
)

// Parse normalizes an environment name. Short aliases (dev, stage, prod) are
// accepted; anything else is returned lowercased as-is.
func Parse(s string) Environment {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case "prod", string(Production):
		return Production
	case "stage", string(Staging):
		return Staging
	case "dev", "", string(Development):
		return Development
	default:
		return Environment(v)
	}
}

type contextKey struct{}

// WithContext adds environment to context
func WithContext(ctx context.Context, env Environment) context.Context {
	return context.WithValue(ctx, contextKey{}, env)
}

// FromContext retrieves environment from context
func FromContext(ctx context.Context) Environment {
	if ctx == nil {
		return ""
	}
	env, _ := ctx.Value(contextKey{}).(Environment)
	return env
}

func IsProduction(ctx context.Context) bool {
	return is(ctx, Production)
}

func IsDevelopment(ctx context.Context) bool {
	return is(ctx, Development)
}

func IsStaging(ctx context.Context) bool {
	return is(ctx, Staging)
}

// is treats a missing value as no environment at all, not development.
func is(ctx context.Context, want Environment) bool {
	env := FromContext(ctx)
	return env != "" && Parse(string(env)) == want
}
