package redis

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidattendance/portal/internal/core/domain"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, msg domain.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, msg)
	return nil
}

func (n *recordingNotifier) lastCode(t *testing.T) string {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	require.NotEmpty(t, n.sent)
	body := n.sent[len(n.sent)-1].Body
	i := strings.Index(body, ": ")
	require.GreaterOrEqual(t, i, 0)
	return body[i+2 : i+8]
}

type phoneBook map[string]string

func (p phoneBook) Resolve(_ context.Context, email string) (domain.Identity, error) {
	return domain.Identity{Email: email, Role: domain.RoleUser, Phone: p[email]}, nil
}

func TestSessionStore(t *testing.T) {
	mr, client := setupTestRedis(t)
	store := NewSessionStore(client, time.Hour)
	ctx := context.Background()

	raw, err := store.Load(ctx, "flow-1")
	require.NoError(t, err)
	assert.Nil(t, raw)

	require.NoError(t, store.Save(ctx, "flow-1", []byte(`{"email":"a@b.c"}`)))
	assert.True(t, mr.Exists("session:flow-1"))
	assert.Equal(t, time.Hour, mr.TTL("session:flow-1"))

	raw, err = store.Load(ctx, "flow-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"email":"a@b.c"}`, string(raw))

	require.NoError(t, store.Delete(ctx, "flow-1"))
	assert.False(t, mr.Exists("session:flow-1"))
}

func TestSessionStore_ConnectionError(t *testing.T) {
	mr, client := setupTestRedis(t)
	store := NewSessionStore(client, 0)
	mr.Close()

	_, err := store.Load(context.Background(), "flow-1")
	assert.Error(t, err)
}

func TestOtpChallenger_IssueAndVerify(t *testing.T) {
	mr, client := setupTestRedis(t)
	notifier := &recordingNotifier{}
	otp := NewOtpChallenger(client, notifier, nil, OtpConfig{TTL: 2 * time.Minute, MaxAttempts: 3})
	ctx := context.Background()

	require.NoError(t, otp.Issue(ctx, "flow-1", "a@b.c"))
	assert.Equal(t, domain.ChannelEmail, notifier.sent[0].Channel)
	assert.Equal(t, "a@b.c", notifier.sent[0].Recipient)

	code := notifier.lastCode(t)
	assert.Len(t, code, 6)
	stored, err := mr.Get("otp:flow-1")
	require.NoError(t, err)
	assert.Equal(t, code, stored)
	assert.Equal(t, 2*time.Minute, mr.TTL("otp:flow-1"))

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	err = otp.Verify(ctx, "flow-1", wrong)
	assert.ErrorIs(t, err, domain.ErrInvalidOtp)

	require.NoError(t, otp.Verify(ctx, "flow-1", code))
	assert.True(t, mr.Exists("otp:flow-1"))
	assert.False(t, mr.Exists("otp:att:flow-1"))
}

func TestOtpChallenger_AcceptedCodeSurvivesUntilDiscard(t *testing.T) {
	mr, client := setupTestRedis(t)
	notifier := &recordingNotifier{}
	otp := NewOtpChallenger(client, notifier, nil, OtpConfig{TTL: time.Minute, MaxAttempts: 1})
	ctx := context.Background()

	require.NoError(t, otp.Issue(ctx, "flow-1", "a@b.c"))
	code := notifier.lastCode(t)

	require.NoError(t, otp.Verify(ctx, "flow-1", code))
	require.NoError(t, otp.Verify(ctx, "flow-1", code))

	require.NoError(t, otp.Discard(ctx, "flow-1"))
	assert.False(t, mr.Exists("otp:flow-1"))
	assert.False(t, mr.Exists("otp:att:flow-1"))
	assert.ErrorIs(t, otp.Verify(ctx, "flow-1", code), domain.ErrOtpExpired)
}

func TestOtpChallenger_Expired(t *testing.T) {
	mr, client := setupTestRedis(t)
	notifier := &recordingNotifier{}
	otp := NewOtpChallenger(client, notifier, nil, OtpConfig{TTL: time.Minute})
	ctx := context.Background()

	require.NoError(t, otp.Issue(ctx, "flow-1", "a@b.c"))
	code := notifier.lastCode(t)
	mr.FastForward(2 * time.Minute)

	err := otp.Verify(ctx, "flow-1", code)
	assert.ErrorIs(t, err, domain.ErrOtpExpired)
	assert.ErrorIs(t, err, domain.ErrInvalidOtp)
}

func TestOtpChallenger_MaxAttempts(t *testing.T) {
	_, client := setupTestRedis(t)
	notifier := &recordingNotifier{}
	otp := NewOtpChallenger(client, notifier, nil, OtpConfig{MaxAttempts: 2})
	ctx := context.Background()

	require.NoError(t, otp.Issue(ctx, "flow-1", "a@b.c"))
	code := notifier.lastCode(t)
	wrong := "999999"
	if code == wrong {
		wrong = "888888"
	}

	assert.ErrorIs(t, otp.Verify(ctx, "flow-1", wrong), domain.ErrInvalidOtp)
	assert.ErrorIs(t, otp.Verify(ctx, "flow-1", wrong), domain.ErrInvalidOtp)
	assert.ErrorIs(t, otp.Verify(ctx, "flow-1", code), domain.ErrOtpAttemptsExceeded)
}

func TestOtpChallenger_ReissueReplacesCode(t *testing.T) {
	mr, client := setupTestRedis(t)
	notifier := &recordingNotifier{}
	otp := NewOtpChallenger(client, notifier, nil, OtpConfig{})
	ctx := context.Background()

	require.NoError(t, otp.Issue(ctx, "flow-1", "a@b.c"))
	require.NoError(t, otp.Issue(ctx, "flow-1", "a@b.c"))
	stored, err := mr.Get("otp:flow-1")
	require.NoError(t, err)
	assert.Equal(t, notifier.lastCode(t), stored)

	require.NoError(t, otp.Discard(ctx, "flow-1"))
	assert.False(t, mr.Exists("otp:flow-1"))
}

func TestOtpChallenger_SMSChannel(t *testing.T) {
	_, client := setupTestRedis(t)
	notifier := &recordingNotifier{}
	phones := phoneBook{"a@b.c": "+15550001111"}
	otp := NewOtpChallenger(client, notifier, phones, OtpConfig{Channel: domain.ChannelSMS})
	ctx := context.Background()

	require.NoError(t, otp.Issue(ctx, "flow-1", "a@b.c"))
	require.NoError(t, otp.Issue(ctx, "flow-2", "nophone@b.c"))

	assert.Equal(t, domain.ChannelSMS, notifier.sent[0].Channel)
	assert.Equal(t, "+15550001111", notifier.sent[0].Recipient)
	assert.Equal(t, domain.ChannelEmail, notifier.sent[1].Channel)
}

func TestOtpChallenger_DeliveryFailureClearsCode(t *testing.T) {
	mr, client := setupTestRedis(t)
	notifier := &recordingNotifier{err: errors.New("smtp down")}
	otp := NewOtpChallenger(client, notifier, nil, OtpConfig{})

	err := otp.Issue(context.Background(), "flow-1", "a@b.c")
	assert.Error(t, err)
	assert.False(t, mr.Exists("otp:flow-1"))
}

func TestResetTokenStore(t *testing.T) {
	mr, client := setupTestRedis(t)
	store := NewResetTokenStore(client)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "tok", "a@b.c", 30*time.Minute))
	assert.Equal(t, 30*time.Minute, mr.TTL("reset:tok"))

	email, err := store.Consume(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", email)

	_, err = store.Consume(ctx, "tok")
	assert.ErrorIs(t, err, domain.ErrResetTokenInvalid)

	require.NoError(t, store.Save(ctx, "old", "a@b.c", time.Minute))
	mr.FastForward(2 * time.Minute)
	_, err = store.Consume(ctx, "old")
	assert.ErrorIs(t, err, domain.ErrResetTokenInvalid)
}
