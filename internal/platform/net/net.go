// Package net provides small helpers for working with request-scoped context
package net

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// RequestID returns chi's request id from ctx if present, else empty
func RequestID(ctx context.Context) string {
	return chimw.GetReqID(ctx)
}
