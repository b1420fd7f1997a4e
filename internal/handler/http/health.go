package http

import (
	"context"
	"net/http"
	"time"

	"github.com/moyuu-az/attendance-system/internal/handler/http/response"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// HealthHandler serves GET /health. A nil db reports the in-memory store.
func HealthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db == nil {
			response.Success(w, HealthResponse{Status: "ok", Database: "memory"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			response.JSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "degraded", Database: "unreachable"})
			return
		}
		response.Success(w, HealthResponse{Status: "ok", Database: "connected"})
	}
}
