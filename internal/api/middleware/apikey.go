package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/cachefleet/cachefleet/internal/domain"
	"github.com/cachefleet/cachefleet/internal/store"
)

// APIKeyHeader carries the credential an agent was issued at creation.
const APIKeyHeader = "X-Api-Key"

const agentContextKey contextKey = "agent"

func AgentFromContext(ctx context.Context) *domain.Agent {
	a, _ := ctx.Value(agentContextKey).(*domain.Agent)
	return a
}

// APIKeyAuth gates the callback routes that agents (not humans) call. The key
// is resolved against the agent collection; only active agents match, so a
// rotated or deactivated key fails on the next request. A store failure is a
// 500, not a 401: the caller's key might be perfectly valid.
func APIKeyAuth(agents domain.AgentStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(APIKeyHeader)
			if key == "" {
				writeError(w, http.StatusUnauthorized, "missing api key")
				return
			}

			agent, err := agents.GetByAPIKey(r.Context(), key)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					writeError(w, http.StatusUnauthorized, "invalid api key")
					return
				}
				writeError(w, http.StatusInternalServerError, "failed to validate api key")
				return
			}

			ctx := context.WithValue(r.Context(), agentContextKey, agent)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
