package port

import "context"

// TokenSource supplies the session's bearer token. An empty token means
// the session is not authenticated.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}
