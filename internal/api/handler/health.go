package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/logan/usecasehub/internal/api/response"
)

// Pinger checks a dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health returns a health check handler. A nil db is reported as absent.
func Health(db Pinger, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]string{"status": "ok", "version": version}
		status := http.StatusOK

		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				body["status"] = "degraded"
				body["db"] = "error"
				status = http.StatusServiceUnavailable
			} else {
				body["db"] = "ok"
			}
		}

		response.JSON(w, status, body)
	}
}
