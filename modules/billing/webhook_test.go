package billing_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorhub/tutorhub/modules/billing"
	"github.com/tutorhub/tutorhub/pkg/jwt"
	"github.com/tutorhub/tutorhub/pkg/payment"
	"github.com/tutorhub/tutorhub/pkg/profile"
	"github.com/tutorhub/tutorhub/pkg/tier"
	billingsvc "github.com/tutorhub/tutorhub/svc/billing"
)

const webhookSecret = "whsec_module_test"

func sign(payload []byte, secret string, at time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = fmt.Fprintf(mac, "%d.%s", at.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

// newStripeServer wires the real Stripe verifier and billing service. Only
// events that never reach the Stripe API are sent through it.
func newStripeServer(t *testing.T) *httptest.Server {
	t.Helper()

	processor, err := payment.NewStripe(payment.StripeConfig{
		SecretKey:     "sk_test_module",
		WebhookSecret: webhookSecret,
	})
	require.NoError(t, err)

	catalog, err := tier.NewCatalog(tier.MapSource{
		{Tier: tier.Lessons, Interval: tier.Monthly}:   "price_lessons_m",
		{Tier: tier.LessonsAI, Interval: tier.Monthly}: "price_ai_m",
	})
	require.NoError(t, err)

	store := profile.NewStore(profile.NewMemoryDirectory())
	svc := billingsvc.NewService(catalog, processor, store)

	sessions, err := jwt.New([]byte(sessionSecret))
	require.NoError(t, err)

	srv := httptest.NewServer(billing.New(svc, sessions).Handle())
	t.Cleanup(srv.Close)
	return srv
}

func TestWebhook_SignedEvent(t *testing.T) {
	t.Parallel()

	srv := newStripeServer(t)
	payload := []byte(`{"id":"evt_1","object":"event","type":"invoice.paid","data":{"object":{"id":"in_1","object":"invoice"}}}`)

	tests := []struct {
		name       string
		signature  string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "valid signature is acknowledged",
			signature:  sign(payload, webhookSecret, time.Now()),
			wantStatus: http.StatusOK,
			wantBody:   "ok",
		},
		{
			name:       "forged signature",
			signature:  sign(payload, "whsec_attacker", time.Now()),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "stale timestamp",
			signature:  sign(payload, webhookSecret, time.Now().Add(-time.Hour)),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing signature",
			wantStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			status, body := postWebhook(t, srv.URL, payload, tt.signature)
			assert.Equal(t, tt.wantStatus, status)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, body)
			} else {
				assert.Contains(t, body, `"invalid_webhook"`)
			}
		})
	}
}
