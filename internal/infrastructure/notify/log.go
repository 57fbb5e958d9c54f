// Package notify delivers user notifications.
package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/aidattendance/portal/internal/core/domain"
	"github.com/aidattendance/portal/internal/core/ports"
)

// LogNotifier writes notifications to the log instead of sending them.
type LogNotifier struct {
	log zerolog.Logger
}

var _ ports.Notifier = LogNotifier{}

func NewLogNotifier(log zerolog.Logger) LogNotifier {
	return LogNotifier{log: log}
}

func (n LogNotifier) Notify(_ context.Context, msg domain.Notification) error {
	n.log.Info().
		Str("channel", string(msg.Channel)).
		Str("recipient", msg.Recipient).
		Str("subject", msg.Subject).
		Str("body", msg.Body).
		Msg("notification")
	return nil
}
