package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/spec-kit/portal-gateway/internal/api/dto"
	"github.com/spec-kit/portal-gateway/internal/auth"
	"github.com/spec-kit/portal-gateway/internal/selection"
	"github.com/spec-kit/portal-gateway/internal/service"
	apperrors "github.com/spec-kit/portal-gateway/pkg/util/errorutil"
)

// NavItems is the portal sidebar.
var NavItems = []dto.NavItem{
	{Label: "Dashboard", Path: "/portal/dashboard"},
	{Label: "Orders & Quotes", Path: "/portal/orders"},
	{Label: "Shop", Path: "/portal/shop"},
	{Label: "Cart", Path: "/portal/cart"},
	{Label: "Support", Path: "/portal/support"},
	{Label: "RMA", Path: "/portal/rma"},
	{Label: "Settings", Path: "/portal/settings"},
}

const streamBuffer = 16

// PortalHandler serves the guarded portal API.
type PortalHandler struct {
	dashboard *service.DashboardService
	selection *selection.State
	logger    *zap.Logger
	heartbeat time.Duration
}

// NewPortalHandler constructs handler. heartbeat is the keep-alive interval
// of selection streams.
func NewPortalHandler(dashboard *service.DashboardService, state *selection.State, logger *zap.Logger, heartbeat time.Duration) *PortalHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if heartbeat <= 0 {
		heartbeat = 15 * time.Second
	}
	return &PortalHandler{dashboard: dashboard, selection: state, logger: logger, heartbeat: heartbeat}
}

func principalOf(c *fiber.Ctx) (*auth.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return principal, nil
}

// Nav handles GET /api/portal/nav.
func (h *PortalHandler) Nav(c *fiber.Ctx) error {
	principal, err := principalOf(c)
	if err != nil {
		return err
	}
	current, view, err := h.dashboard.Chrome(c.UserContext(), principal)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NavResponse{
		Items:       NavItems,
		DisplayName: current.DisplayName,
		Selection:   current,
		Selector:    view,
	}})
}

// Dashboard handles GET /api/portal/dashboard.
func (h *PortalHandler) Dashboard(c *fiber.Ctx) error {
	principal, err := principalOf(c)
	if err != nil {
		return err
	}
	dash, err := h.dashboard.Load(c.UserContext(), principal)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dash})
}

// GetSelection handles GET /api/portal/selection.
func (h *PortalHandler) GetSelection(c *fiber.Ctx) error {
	principal, err := principalOf(c)
	if err != nil {
		return err
	}
	current, err := h.selection.Get(c.UserContext(), principal.SessionID)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	return c.JSON(fiber.Map{"data": current})
}

// PutSelection handles PUT /api/portal/selection.
func (h *PortalHandler) PutSelection(c *fiber.Ctx) error {
	principal, err := principalOf(c)
	if err != nil {
		return err
	}
	var req dto.SelectAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	result, err := h.dashboard.SelectAccount(c.UserContext(), principal, req.Label)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": result})
}

// Stream handles GET /api/portal/selection/stream. Every tab of a session
// holds one stream; it receives the current selection first and then every
// change until the session ends or the client goes away.
func (h *PortalHandler) Stream(c *fiber.Ctx) error {
	principal, err := principalOf(c)
	if err != nil {
		return err
	}
	sid := principal.SessionID

	initial, err := h.selection.Get(c.UserContext(), sid)
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	updates := make(chan selection.Update, streamBuffer)
	unsubscribe := h.selection.Subscribe(sid, func(u selection.Update) {
		select {
		case updates <- u:
		default:
			h.logger.Warn("selection stream lagging; update dropped", zap.String("session_id", sid))
		}
	})

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	heartbeat := h.heartbeat
	logger := h.logger
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer unsubscribe()
		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()

		if err := writeEvent(w, "selection", initial); err != nil {
			return
		}
		for {
			select {
			case u := <-updates:
				if u.Ended {
					_ = writeEvent(w, "session_ended", fiber.Map{})
					return
				}
				if err := writeEvent(w, "selection", u.Selection); err != nil {
					logger.Debug("selection stream closed", zap.String("session_id", sid), zap.Error(err))
					return
				}
			case <-ticker.C:
				if _, err := w.WriteString(": ping\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	}))
	return nil
}

func writeEvent(w *bufio.Writer, name string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data); err != nil {
		return err
	}
	return w.Flush()
}
