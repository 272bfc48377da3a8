package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"

	pay "storefront/internal/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "whsec_test"

func sign(payload []byte, secret string) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d.%s", ts, payload)))
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func newTestProvider() *StripeProvider {
	return NewStripeProvider("sk_test_x", testSecret, zap.NewNop())
}

func TestParseWebhook_InvalidSignature(t *testing.T) {
	p := newTestProvider()
	payload := []byte(`{"id":"evt_1","type":"charge.refunded","data":{"object":{}}}`)

	_, err := p.ParseWebhook(payload, sign(payload, "whsec_other"))
	assert.ErrorIs(t, err, pay.ErrInvalidSignature)

	_, err = p.ParseWebhook(payload, "")
	assert.ErrorIs(t, err, pay.ErrInvalidSignature)
}

func TestParseWebhook_ChargeRefunded(t *testing.T) {
	p := newTestProvider()
	payload := []byte(`{"id":"evt_2","object":"event","type":"charge.refunded","data":{"object":{"id":"ch_1","object":"charge","amount":5900,"amount_refunded":5900,"payment_intent":"pi_123"}}}`)

	ev, err := p.ParseWebhook(payload, sign(payload, testSecret))
	require.NoError(t, err)
	assert.Equal(t, pay.EventChargeRefunded, ev.Type)
	assert.Equal(t, "pi_123", ev.PaymentIntentID)
	assert.Equal(t, int64(5900), ev.Amount)
	assert.True(t, ev.FullyRefunded())
}

func TestParseWebhook_CheckoutCompleted(t *testing.T) {
	p := newTestProvider()
	payload := []byte(`{"id":"evt_3","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_test_1","object":"checkout.session","payment_intent":"pi_9","payment_status":"paid"}}}`)

	ev, err := p.ParseWebhook(payload, sign(payload, testSecret))
	require.NoError(t, err)
	assert.Equal(t, pay.EventCheckoutCompleted, ev.Type)
	assert.Equal(t, "cs_test_1", ev.SessionID)
	assert.Equal(t, "pi_9", ev.PaymentIntentID)
}

func TestParseWebhook_PaymentFailed(t *testing.T) {
	p := newTestProvider()
	payload := []byte(`{"id":"evt_4","object":"event","type":"payment_intent.payment_failed","data":{"object":{"id":"pi_7","object":"payment_intent","last_payment_error":{"message":"Your card was declined."}}}}`)

	ev, err := p.ParseWebhook(payload, sign(payload, testSecret))
	require.NoError(t, err)
	assert.Equal(t, "pi_7", ev.PaymentIntentID)
	assert.Equal(t, "Your card was declined.", ev.FailureMessage)
}

func TestParseWebhook_UnknownTypePassesThrough(t *testing.T) {
	p := newTestProvider()
	payload := []byte(`{"id":"evt_5","object":"event","type":"customer.created","data":{"object":{"id":"cus_1"}}}`)

	ev, err := p.ParseWebhook(payload, sign(payload, testSecret))
	require.NoError(t, err)
	assert.Equal(t, pay.EventType("customer.created"), ev.Type)
	assert.Empty(t, ev.PaymentIntentID)
}

func TestCall_OpenBreakerIsUnavailable(t *testing.T) {
	cb := newBreaker("test", zap.NewNop())
	boom := errors.New("connection reset")

	for i := 0; i < 5; i++ {
		_, err := call(cb, func() (string, error) { return "", boom })
		require.ErrorIs(t, err, boom)
	}

	_, err := call(cb, func() (string, error) { return "ok", nil })
	assert.ErrorIs(t, err, pay.ErrUnavailable)
}

func TestCall_PassesValue(t *testing.T) {
	cb := newBreaker("test", zap.NewNop())
	v, err := call(cb, func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}
