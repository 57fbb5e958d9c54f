package notify

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/aidattendance/portal/internal/core/domain"
	"github.com/aidattendance/portal/internal/core/ports"
)

// messageCreator is the part of the Twilio API used for SMS.
type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioNotifier sends SMS notifications through Twilio. Other channels go to
// the fallback notifier.
type TwilioNotifier struct {
	api        messageCreator
	fromNumber string
	fallback   ports.Notifier
}

var _ ports.Notifier = (*TwilioNotifier)(nil)

func NewTwilioNotifier(accountSID, authToken, fromNumber string, fallback ports.Notifier) *TwilioNotifier {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioNotifier{api: client.Api, fromNumber: fromNumber, fallback: fallback}
}

func (t *TwilioNotifier) Notify(ctx context.Context, msg domain.Notification) error {
	if msg.Channel != domain.ChannelSMS {
		return t.fallback.Notify(ctx, msg)
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(msg.Recipient)
	params.SetFrom(t.fromNumber)
	params.SetBody(msg.Body)

	if _, err := t.api.CreateMessage(params); err != nil {
		return fmt.Errorf("send sms: %w", err)
	}
	return nil
}
