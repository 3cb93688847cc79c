package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

const (
	HeaderCorrelationID = "X-Correlation-Id"
	HeaderCausationID   = "X-Causation-Id"
)

type ctxKey int

const (
	ctxCorrelationID ctxKey = iota
	ctxCausationID
)

// CorrelationID reads or mints the request's correlation id and echoes it
// back. A causation id is only carried when the caller sent one.
func CorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cid := r.Header.Get(HeaderCorrelationID)
		if cid == "" {
			cid = uuid.NewString()
		}
		w.Header().Set(HeaderCorrelationID, cid)

		ctx := context.WithValue(r.Context(), ctxCorrelationID, cid)
		if causation := r.Header.Get(HeaderCausationID); causation != "" {
			ctx = context.WithValue(ctx, ctxCausationID, causation)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetCorrelationID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxCorrelationID).(string); ok {
		return v
	}
	return ""
}

func GetCausationID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxCausationID).(string); ok {
		return v
	}
	return ""
}
