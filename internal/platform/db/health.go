package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

const pingTimeout = 3 * time.Second

// ConnStats is the pool snapshot reported by the health endpoint.
type ConnStats struct {
	Total        int32  `json:"total"`
	Idle         int32  `json:"idle"`
	InUse        int32  `json:"in_use"`
	Max          int32  `json:"max"`
	WaitCount    int64  `json:"wait_count"`
	WaitDuration string `json:"wait_duration"`
}

// Status is the health endpoint response body.
type Status struct {
	Service  string    `json:"service"`
	Status   string    `json:"status"`
	Error    string    `json:"error,omitempty"`
	Database ConnStats `json:"database"`
}

func snapshot(pool *pgxpool.Pool) ConnStats {
	s := pool.Stat()
	return ConnStats{
		Total:        s.TotalConns(),
		Idle:         s.IdleConns(),
		InUse:        s.AcquiredConns(),
		Max:          s.MaxConns(),
		WaitCount:    s.EmptyAcquireCount(),
		WaitDuration: s.AcquireDuration().String(),
	}
}

func statusFor(pingErr error, conns ConnStats) *Status {
	st := &Status{Service: "registry", Status: "ok", Database: conns}
	if pingErr != nil {
		st.Status = "unavailable"
		st.Error = pingErr.Error()
	}
	return st
}

// HealthHandler reports database reachability and pool utilization.
func HealthHandler(pool *pgxpool.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), pingTimeout)
		defer cancel()

		st := statusFor(pool.Ping(ctx), snapshot(pool))
		if st.Error != "" {
			return c.JSON(http.StatusServiceUnavailable, st)
		}
		return c.JSON(http.StatusOK, st)
	}
}
