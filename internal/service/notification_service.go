package service

import (
	"go.uber.org/zap"

	"github.com/spec-kit/portal-gateway/internal/domain"
	"github.com/spec-kit/portal-gateway/internal/notify"
)

// NotificationService raises toasts for user-visible outcomes of portal
// operations.
type NotificationService struct {
	center notify.Notifier
	logger *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(center notify.Notifier, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{center: center, logger: logger}
}

// Success shows a success toast at the default position.
func (n *NotificationService) Success(sid, text string) string {
	return n.show(sid, notify.Request{Kind: domain.ToastSuccess, Text: text})
}

// Error shows an error toast at the default position.
func (n *NotificationService) Error(sid, text string) string {
	return n.show(sid, notify.Request{Kind: domain.ToastError, Text: text})
}

// ShowAt shows a toast of the given kind at pos.
func (n *NotificationService) ShowAt(sid string, kind domain.ToastKind, text string, pos domain.Position) string {
	return n.show(sid, notify.Request{Kind: kind, Text: text, Position: pos})
}

func (n *NotificationService) show(sid string, req notify.Request) string {
	if n == nil || n.center == nil || sid == "" {
		return ""
	}
	id := n.center.Show(sid, req)
	n.logger.Debug("toast",
		zap.String("session_id", sid),
		zap.String("kind", string(req.Kind)),
		zap.String("toast_id", id))
	return id
}
