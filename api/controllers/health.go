package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/trailquest/trailquest-backend/api/responses"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// HealthController serves liveness and readiness probes. Liveness is
// unconditional; readiness checks the datastores.
type HealthController struct {
	db    pinger
	redis pinger
}

func NewHealthController(db, redis pinger) *HealthController {
	return &HealthController{db: db, redis: redis}
}

func (c *HealthController) Live(w http.ResponseWriter, r *http.Request) {
	responses.WriteSuccess(w, http.StatusOK, map[string]string{"status": "alive"})
}

func (c *HealthController) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if c.db != nil {
		if err := c.db.Ping(ctx); err != nil {
			checks["database"] = "down"
			healthy = false
		} else {
			checks["database"] = "up"
		}
	}
	if c.redis != nil {
		if err := c.redis.Ping(ctx); err != nil {
			checks["redis"] = "down"
			healthy = false
		} else {
			checks["redis"] = "up"
		}
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	responses.WriteSuccess(w, status, checks)
}
