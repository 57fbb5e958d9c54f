package memory

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/aidattendance/portal/internal/core/ports"
)

// AcceptAnyOtp is the development challenger: nothing is delivered and any
// well-formed code is accepted.
type AcceptAnyOtp struct {
	log zerolog.Logger
}

var _ ports.OtpChallenger = AcceptAnyOtp{}

func NewAcceptAnyOtp(log zerolog.Logger) AcceptAnyOtp {
	return AcceptAnyOtp{log: log}
}

func (o AcceptAnyOtp) Issue(_ context.Context, challengeID, recipient string) error {
	o.log.Debug().Str("flow_id", challengeID).Str("recipient", recipient).Msg("mock otp issued; any 6-digit code is accepted")
	return nil
}

func (AcceptAnyOtp) Verify(context.Context, string, string) error { return nil }

func (AcceptAnyOtp) Discard(context.Context, string) error { return nil }
