package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

const healthcheckTimeout = 2 * time.Second

// Pinger é qualquer dependência que sabe responder se está de pé (banco, redis)
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapta uma função ao Pinger
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

func HealthcheckHandler(checks map[string]Pinger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthcheckTimeout)
		defer cancel()

		status := http.StatusOK
		dependencies := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check.Ping(ctx); err != nil {
				logrus.WithError(err).WithField("dependency", name).Warn("Dependência indisponível no healthcheck")
				dependencies[name] = "down"
				status = http.StatusServiceUnavailable
				continue
			}
			dependencies[name] = "up"
		}

		writeJSON(w, r, status, map[string]any{
			"time":         time.Now().Format(time.RFC3339),
			"dependencies": dependencies,
		})
	})
}
