package ws

import (
	"encoding/json"
	"log/slog"
	"time"
)

const (
	ChannelUserNotifications = "user:notifications"
	ChannelAdminApplications = "admin:applications"
)

const (
	EventApplicationSubmitted = "application_submitted"
	EventStatusChanged        = "status_changed"
	EventLoanDisbursed        = "loan_disbursed"
	EventEMIPaid              = "emi_paid"
)

func UserTopic(userID string) string {
	return ChannelUserNotifications + ":" + userID
}

// Event is one notification as the bell renders it.
type Event struct {
	Type          string    `json:"event"`
	ApplicationID string    `json:"applicationId,omitempty"`
	Status        string    `json:"status,omitempty"`
	Message       string    `json:"message"`
	At            time.Time `json:"at"`
}

// Notifier publishes portal events. A nil *Notifier is valid and drops everything, which is
// how the portal runs with WS_ENABLED=false.
type Notifier struct {
	hub    *Hub
	logger *slog.Logger
	now    func() time.Time
}

func NewNotifier(hub *Hub, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{hub: hub, logger: logger, now: time.Now}
}

// Notify sends ev to one applicant's notification channel.
func (n *Notifier) Notify(userID string, ev Event) {
	if n == nil || userID == "" {
		return
	}
	n.publish(UserTopic(userID), ev)
}

// NotifyAdmins sends ev to every admin watching new applications.
func (n *Notifier) NotifyAdmins(ev Event) {
	if n == nil {
		return
	}
	n.publish(ChannelAdminApplications, ev)
}

func (n *Notifier) publish(topic string, ev Event) {
	if ev.At.IsZero() {
		ev.At = n.now().UTC()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		n.logger.Warn("ws encode failed", "event", ev.Type, "err", err)
		return
	}
	delivered := n.hub.Publish(topic, payload)
	n.logger.Debug("ws event published", "event", ev.Type, "topic", topic, "subscribers", delivered)
}
