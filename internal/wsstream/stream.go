// Package wsstream upgrades GET /sites/:domain/audit/status/:execution_id/stream
// to a websocket and pushes AuditOrchestrator status snapshots as they
// change, grounded on the teacher's internal/api/websocket_handler.go
// (gorilla/websocket Upgrader + CheckOrigin idiom), generalized from
// DomainFlow's session-authenticated hub/broadcaster to a single
// poll-and-push connection per audit execution — there is no persistent
// hub here since each stream is scoped to one execution, not a shared feed.
package wsstream

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/agenceeditorial/auditengine/internal/audit"
	"github.com/agenceeditorial/auditengine/internal/logging"
	"github.com/agenceeditorial/auditengine/internal/middleware"
)

// pollInterval is how often the handler re-checks the execution's status
// between pushes; spec.md doesn't require push-on-write, so short polling
// against the store is the simplest faithful approximation.
const pollInterval = 2 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // same-origin requests carry no Origin header
		}
		return middleware.OriginAllowed(origin)
	},
}

// Handler streams audit.Orchestrator.Status snapshots over a websocket
// connection until the execution reaches a terminal state or the client
// disconnects.
type Handler struct {
	Audit *audit.Orchestrator
	Log   *logging.Logger
}

// New constructs a Handler.
func New(orchestrator *audit.Orchestrator, log *logging.Logger) *Handler {
	return &Handler{Audit: orchestrator, Log: log}
}

// Stream is a gin.HandlerFunc suitable for wiring into httpapi.Handler's
// StreamHandler field.
func (h *Handler) Stream(c *gin.Context) {
	domain := c.Param("domain")
	executionID := c.Param("execution_id")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Log.Warn("wsstream", "upgrade_failed", err.Error(), map[string]any{"domain": domain})
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	var lastStatus string
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			done, err := h.pushStatus(ctx, conn, domain, executionID, &lastStatus)
			if err != nil {
				h.Log.Warn("wsstream", "push_failed", err.Error(), map[string]any{
					"domain": domain, "execution_id": executionID,
				})
				return
			}
			if done {
				return
			}
		}
	}
}

// pushStatus fetches the current status and writes it if it changed since
// the last push, reporting whether the execution has reached a terminal
// state (in which case the caller should close the connection).
func (h *Handler) pushStatus(ctx context.Context, conn *websocket.Conn, domain, executionID string, lastStatus *string) (bool, error) {
	status, err := h.Audit.Status(ctx, domain, executionID)
	if err != nil {
		_ = conn.WriteJSON(map[string]any{"error": err.Error()})
		return true, nil
	}

	current := string(status.OverallStatus)
	if current != *lastStatus {
		*lastStatus = current
		if err := conn.WriteJSON(status); err != nil {
			return false, err
		}
	}
	return isTerminalStatus(current), nil
}

func isTerminalStatus(status string) bool {
	return status == "completed" || status == "failed"
}
