package handler

import (
	"context"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vfg2006/inventory-analytics-api/internal/domain"
	"github.com/vfg2006/inventory-analytics-api/internal/usecases/dashboarding"
	"github.com/vfg2006/inventory-analytics-api/pkg/apiErrors"
	"github.com/vfg2006/inventory-analytics-api/pkg/log"
)

const (
	streamPingInterval = 30 * time.Second
	streamWriteTimeout = 10 * time.Second
	streamPongTimeout  = 2 * streamPingInterval
)

// StreamHub entrega a instância de métricas compartilhada do escopo
type StreamHub interface {
	Acquire(ctx context.Context, scope domain.Scope, filters domain.DashboardFilters) (*dashboarding.MetricsInstance, func(), error)
}

// DashboardStream abre um websocket que envia o estado atual e depois cada atualização
func DashboardStream(hub StreamHub, allowedOrigins []string) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return originAllowed(r, allowedOrigins)
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		scope, ok := scopeFromRequest(r)
		if !ok {
			writeUnauthenticated(w)
			return
		}

		filters, err := parseDateFilters(r)
		if err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, err.Error(), nil)
			return
		}

		instance, release, err := hub.Acquire(r.Context(), scope, filters)
		if err != nil {
			writeDashboardError(w, r, err)
			return
		}
		defer release()

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.ForScope(r.Context(), scope).WithError(err).Warn("Erro no upgrade do websocket")
			return
		}
		defer conn.Close()

		subscriberID, updates, stop := instance.Watch()
		defer stop()

		logger := log.ForScope(r.Context(), scope).WithField("subscriber_id", subscriberID)
		logger.Info("Stream do dashboard conectado")
		defer logger.Info("Stream do dashboard encerrado")

		closed := readUntilClosed(conn)

		if err := writeUpdate(conn, instance.Snapshot()); err != nil {
			return
		}

		ticker := time.NewTicker(streamPingInterval)
		defer ticker.Stop()

		for {
			select {
			case <-closed:
				return

			case <-r.Context().Done():
				return

			case update, ok := <-updates:
				if !ok {
					_ = conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseGoingAway, "instância encerrada"),
						time.Now().Add(streamWriteTimeout))
					return
				}
				if err := writeUpdate(conn, update); err != nil {
					logger.WithError(err).Debug("Erro ao enviar atualização pelo websocket")
					return
				}

			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteTimeout)); err != nil {
					return
				}
			}
		}
	}
}

func writeUpdate(conn *websocket.Conn, update dashboarding.DashboardUpdate) error {
	payload, err := json.Marshal(update)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
	return conn.WriteMessage(websocket.TextMessage, payload)
}

// readUntilClosed consome as mensagens do cliente (necessário para processar pong e close)
func readUntilClosed(conn *websocket.Conn) <-chan struct{} {
	closed := make(chan struct{})

	_ = conn.SetReadDeadline(time.Now().Add(streamPongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongTimeout))
	})

	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	return closed
}

// originAllowed aceita requisições sem Origin (clientes fora do navegador) e as origens configuradas
func originAllowed(r *http.Request, allowedOrigins []string) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || slices.Contains(allowedOrigins, "*") {
		return true
	}

	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Host == r.Host {
		return true
	}
	return slices.Contains(allowedOrigins, origin)
}
