package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-site/internal/model"
	"portfolio-site/internal/store/memory"
)

// captureSender records the last code instead of delivering it.
type captureSender struct {
	phone   string
	code    string
	channel model.DeliveryChannel
	sent    int
}

func (c *captureSender) Send(_ context.Context, phone, code string, channel model.DeliveryChannel) error {
	c.phone = phone
	c.code = code
	c.channel = channel
	c.sent++
	return nil
}

func newTestService(t *testing.T) (*Service, *memory.Store, *captureSender) {
	t.Helper()
	st := memory.NewStore()
	sender := &captureSender{}
	svc := NewService(st, sender, Options{
		SessionHours:       1,
		CodeTTLMinutes:     5,
		CodeMaxAttempts:    3,
		MaxRequestsPerHour: 2,
	})
	return svc, st, sender
}

func TestRequestCode(t *testing.T) {
	svc, _, sender := newTestService(t)
	ctx := context.Background()

	result, err := svc.RequestCode(ctx, "010-1234-5678", model.ChannelKakao, "1.2.3.4", "test-agent")
	require.NoError(t, err)

	assert.Equal(t, "***5678", result.MaskedPhoneNumber)
	assert.Equal(t, model.ChannelKakao, result.Channel)
	assert.Equal(t, 3, result.MaxAttempts)
	assert.True(t, result.CodeExpiresAt.After(time.Now()))

	assert.Equal(t, 1, sender.sent)
	assert.Equal(t, "+821012345678", sender.phone)
	assert.Len(t, sender.code, 6)
}

func TestRequestCodeInvalidInput(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.RequestCode(ctx, "", model.ChannelKakao, "", "")
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = svc.RequestCode(ctx, "01012345678", "SMS", "", "")
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestRequestCodeRateLimit(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := svc.RequestCode(ctx, "01012345678", model.ChannelKakao, "", "")
		require.NoError(t, err)
	}
	_, err := svc.RequestCode(ctx, "01012345678", model.ChannelKakao, "", "")
	assert.ErrorIs(t, err, ErrRateLimited)

	// Another phone is unaffected.
	_, err = svc.RequestCode(ctx, "01099990000", model.ChannelKakao, "", "")
	assert.NoError(t, err)

	attempts, err := st.ListRecentAttempts(ctx, 10)
	require.NoError(t, err)
	var limited int
	for _, a := range attempts {
		if a.Reason == "RATE_LIMITED" {
			limited++
		}
	}
	assert.Equal(t, 1, limited)
}

func TestVerifyCodeRoundTrip(t *testing.T) {
	svc, _, sender := newTestService(t)
	ctx := context.Background()

	_, err := svc.RequestCode(ctx, "01012345678", model.ChannelKakao, "", "")
	require.NoError(t, err)

	result, err := svc.VerifyCode(ctx, "01012345678", model.ChannelKakao, sender.code, "1.2.3.4", "test-agent")
	require.NoError(t, err)
	assert.NotEmpty(t, result.SessionToken)
	assert.True(t, result.SessionExpiresAt.After(time.Now()))

	status := svc.SessionStatus(ctx, result.SessionToken)
	assert.True(t, status.Authenticated)
	require.NotNil(t, status.SessionExpiresAt)

	// The code is single use.
	_, err = svc.VerifyCode(ctx, "01012345678", model.ChannelKakao, sender.code, "", "")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestVerifyCodeWrongCode(t *testing.T) {
	svc, _, sender := newTestService(t)
	ctx := context.Background()

	_, err := svc.RequestCode(ctx, "01012345678", model.ChannelKakao, "", "")
	require.NoError(t, err)

	wrong := "000000"
	if sender.code == wrong {
		wrong = "000001"
	}

	// Burn through the attempt limit.
	for i := 0; i < 3; i++ {
		_, err = svc.VerifyCode(ctx, "01012345678", model.ChannelKakao, wrong, "", "")
		assert.ErrorIs(t, err, ErrUnauthorized)
	}

	// Even the right code is refused once the code is locked.
	_, err = svc.VerifyCode(ctx, "01012345678", model.ChannelKakao, sender.code, "", "")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestVerifyCodeNoActiveCode(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.VerifyCode(context.Background(), "01012345678", model.ChannelKakao, "123456", "", "")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestRevokeSession(t *testing.T) {
	svc, _, sender := newTestService(t)
	ctx := context.Background()

	_, err := svc.RequestCode(ctx, "01012345678", model.ChannelKakao, "", "")
	require.NoError(t, err)
	result, err := svc.VerifyCode(ctx, "01012345678", model.ChannelKakao, sender.code, "", "")
	require.NoError(t, err)

	svc.RevokeSession(ctx, result.SessionToken)
	assert.False(t, svc.SessionStatus(ctx, result.SessionToken).Authenticated)
}

func TestIssueCode(t *testing.T) {
	svc, _, sender := newTestService(t)
	ctx := context.Background()

	issued, err := svc.IssueCode(ctx, "01012345678", model.ChannelPass, 30, 10, false)
	require.NoError(t, err)
	assert.Len(t, issued.PlainCode, 6)
	assert.Equal(t, 10, issued.Code.MaxAttempts)
	assert.Equal(t, model.ChannelPass, issued.Code.Channel)
	assert.Equal(t, 0, sender.sent, "send=false must not deliver")

	// Issued codes verify like requested ones.
	result, err := svc.VerifyCode(ctx, "01012345678", model.ChannelPass, issued.PlainCode, "", "")
	require.NoError(t, err)
	assert.NotEmpty(t, result.SessionToken)
}
