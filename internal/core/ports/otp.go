package ports

import "context"

// OtpChallenger issues and checks one-time passcodes for a login flow.
type OtpChallenger interface {
	// Issue creates (or replaces) the challenge for challengeID and delivers
	// the code to recipient.
	Issue(ctx context.Context, challengeID, recipient string) error
	// Verify returns nil when code is accepted. Rejections wrap
	// domain.ErrInvalidOtp; any other error is an infrastructure failure.
	// An accepted code is not consumed.
	Verify(ctx context.Context, challengeID, code string) error
	// Discard removes the challenge. Callers discard once the login it
	// guarded has been recorded, or when the flow leaves the OTP stage.
	Discard(ctx context.Context, challengeID string) error
}
