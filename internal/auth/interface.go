package auth

import "context"

type Verifier interface {
	// Verify checks a raw bearer token and returns its claims.
	Verify(ctx context.Context, raw string) (map[string]any, error)
}
