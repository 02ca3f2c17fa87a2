// Package reqctx carries the request-scoped values (session credential,
// request id, logger) that the cart and checkout services read instead of
// cookies or globals.
package reqctx

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var ErrNoScope = errors.New("request scope missing from context")

// Scope is attached once per request by the session middleware
type Scope struct {
	SessionID string
	RequestID string
	// FreshSession is true when the credential was issued on this request
	FreshSession bool
	Logger       zerolog.Logger
}

type scopeKey struct{}

func With(ctx context.Context, scope *Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, scope)
}

func From(ctx context.Context) (*Scope, error) {
	scope, ok := ctx.Value(scopeKey{}).(*Scope)
	if !ok || scope == nil || scope.SessionID == "" {
		return nil, ErrNoScope
	}
	return scope, nil
}

// SessionID is a shorthand for From(ctx).SessionID
func SessionID(ctx context.Context) (string, error) {
	scope, err := From(ctx)
	if err != nil {
		return "", err
	}
	return scope.SessionID, nil
}

// Logger returns the scoped logger, falling back to the global one
func Logger(ctx context.Context) *zerolog.Logger {
	if scope, ok := ctx.Value(scopeKey{}).(*Scope); ok && scope != nil {
		return &scope.Logger
	}
	return &log.Logger
}
