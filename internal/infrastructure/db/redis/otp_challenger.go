package redis

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aidattendance/portal/internal/core/domain"
	"github.com/aidattendance/portal/internal/core/ports"
)

// OtpConfig tunes the Redis challenger.
type OtpConfig struct {
	Length      int
	TTL         time.Duration
	MaxAttempts int
	// Channel selects email or SMS delivery. SMS needs Phones to map the
	// login email to a number.
	Channel domain.Channel
}

// OtpChallenger stores random codes in Redis and delivers them through a
// Notifier.
// Key format: otp:<flow_id> holds the code, otp:att:<flow_id> the attempts.
type OtpChallenger struct {
	client   *redis.Client
	notifier ports.Notifier
	phones   ports.IdentityResolver
	cfg      OtpConfig
}

var _ ports.OtpChallenger = (*OtpChallenger)(nil)

func NewOtpChallenger(client *redis.Client, notifier ports.Notifier, phones ports.IdentityResolver, cfg OtpConfig) *OtpChallenger {
	if cfg.Length <= 0 {
		cfg.Length = 6
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 2 * time.Minute
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.Channel == "" {
		cfg.Channel = domain.ChannelEmail
	}
	return &OtpChallenger{client: client, notifier: notifier, phones: phones, cfg: cfg}
}

func codeKey(id string) string     { return "otp:" + id }
func attemptsKey(id string) string { return "otp:att:" + id }

func (o *OtpChallenger) Issue(ctx context.Context, challengeID, recipient string) error {
	code, err := o.generateCode()
	if err != nil {
		return err
	}

	n, err := o.message(ctx, recipient, code)
	if err != nil {
		return err
	}

	pipe := o.client.TxPipeline()
	pipe.Set(ctx, codeKey(challengeID), code, o.cfg.TTL)
	pipe.Set(ctx, attemptsKey(challengeID), 0, o.cfg.TTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}

	if err := o.notifier.Notify(ctx, n); err != nil {
		o.client.Del(ctx, codeKey(challengeID), attemptsKey(challengeID))
		return fmt.Errorf("deliver otp: %w", err)
	}
	return nil
}

func (o *OtpChallenger) Verify(ctx context.Context, challengeID, code string) error {
	attempts, err := o.client.Incr(ctx, attemptsKey(challengeID)).Result()
	if err != nil {
		return fmt.Errorf("count otp attempt: %w", err)
	}
	if attempts > int64(o.cfg.MaxAttempts) {
		o.client.Del(ctx, codeKey(challengeID), attemptsKey(challengeID))
		return domain.ErrOtpAttemptsExceeded
	}

	stored, err := o.client.Get(ctx, codeKey(challengeID)).Result()
	if errors.Is(err, redis.Nil) {
		o.client.Del(ctx, attemptsKey(challengeID))
		return domain.ErrOtpExpired
	}
	if err != nil {
		return fmt.Errorf("load otp: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return domain.ErrInvalidOtp
	}

	// The code itself stays until Discard so a login whose session could not
	// be stored can be confirmed again.
	o.client.Del(ctx, attemptsKey(challengeID))
	return nil
}

func (o *OtpChallenger) Discard(ctx context.Context, challengeID string) error {
	if err := o.client.Del(ctx, codeKey(challengeID), attemptsKey(challengeID)).Err(); err != nil {
		return fmt.Errorf("discard otp: %w", err)
	}
	return nil
}

func (o *OtpChallenger) message(ctx context.Context, email, code string) (domain.Notification, error) {
	minutes := int(o.cfg.TTL.Minutes())
	if minutes < 1 {
		minutes = 1
	}
	body := fmt.Sprintf("Your verification code is: %s. Valid for %d minutes.", code, minutes)

	n := domain.Notification{
		Channel:   domain.ChannelEmail,
		Recipient: email,
		Subject:   "Your verification code",
		Body:      body,
	}
	if o.cfg.Channel != domain.ChannelSMS || o.phones == nil {
		return n, nil
	}

	id, err := o.phones.Resolve(ctx, email)
	if err != nil {
		return domain.Notification{}, fmt.Errorf("resolve phone: %w", err)
	}
	if id.Phone == "" {
		return n, nil
	}
	n.Channel = domain.ChannelSMS
	n.Recipient = id.Phone
	n.Subject = ""
	return n, nil
}

func (o *OtpChallenger) generateCode() (string, error) {
	digits := make([]byte, o.cfg.Length)
	for i := range digits {
		num, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("generate otp: %w", err)
		}
		digits[i] = byte('0' + num.Int64())
	}
	return string(digits), nil
}
