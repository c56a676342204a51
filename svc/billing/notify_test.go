package billing_test

import (
	"context"
	"errors"
	"html"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tutorhub/tutorhub/pkg/email"
	"github.com/tutorhub/tutorhub/pkg/tier"
	"github.com/tutorhub/tutorhub/svc/billing"
)

func TestFormatAmount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		minor    int64
		currency string
		want     string
	}{
		{1999, "usd", "19.99 USD"},
		{500, "EUR", "5.00 EUR"},
		{0, "usd", "0.00 USD"},
		{1200, "jpy", "1200 JPY"},
		{-250, "gbp", "-2.50 GBP"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, billing.FormatAmount(tt.minor, tt.currency))
	}
}

func TestEmailNotifier(t *testing.T) {
	t.Parallel()

	t.Run("downgrade scheduled", func(t *testing.T) {
		t.Parallel()

		var sent email.SendEmailParams
		sender := &mockEmailSender{}
		sender.On("SendEmail", mock.Anything, mock.AnythingOfType("email.SendEmailParams")).
			Run(func(args mock.Arguments) { sent = args.Get(1).(email.SendEmailParams) }).
			Return(nil).Once()

		err := billing.NewEmailNotifier(sender).Notify(context.Background(), billing.Notice{
			Kind:          billing.NoticeDowngradeScheduled,
			Email:         "ada@example.com",
			Name:          "Ada Lovelace",
			Tier:          tier.LessonsAI,
			PendingTier:   tier.Lessons,
			EffectiveDate: time.Date(2026, time.October, 14, 9, 30, 0, 0, time.UTC),
		})
		require.NoError(t, err)
		sender.AssertExpectations(t)

		assert.Equal(t, "ada@example.com", sent.SendTo)
		assert.Equal(t, "downgrade_scheduled", sent.Tag)
		// html/template escapes "+" as &#43;.
		assert.Contains(t, sent.BodyHTML, "Lessons &#43; AI")
		body := html.UnescapeString(sent.BodyHTML)
		assert.Contains(t, body, "Lessons + AI")
		assert.Contains(t, body, "October 14, 2026")
	})

	t.Run("payment required", func(t *testing.T) {
		t.Parallel()

		sender := &mockEmailSender{}
		sender.On("SendEmail", mock.Anything, mock.MatchedBy(func(p email.SendEmailParams) bool {
			return p.Tag == "payment_required" && assert.Contains(t, p.BodyHTML, "19.99 USD")
		})).Return(nil).Once()

		err := billing.NewEmailNotifier(sender).Notify(context.Background(), billing.Notice{
			Kind:      billing.NoticePaymentRequired,
			Email:     "ada@example.com",
			Tier:      tier.LessonsAI,
			AmountDue: 1999,
			Currency:  "usd",
		})
		require.NoError(t, err)
		sender.AssertExpectations(t)
	})

	t.Run("sender failure", func(t *testing.T) {
		t.Parallel()

		sender := &mockEmailSender{}
		sender.On("SendEmail", mock.Anything, mock.Anything).Return(errors.New("smtp down"))

		err := billing.NewEmailNotifier(sender).Notify(context.Background(), billing.Notice{
			Kind: billing.NoticePaymentRequired, Email: "ada@example.com",
		})
		assert.Error(t, err)
	})

	t.Run("unknown kind", func(t *testing.T) {
		t.Parallel()

		err := billing.NewEmailNotifier(&mockEmailSender{}).Notify(context.Background(), billing.Notice{Kind: "welcome"})
		assert.Error(t, err)
	})

	assert.Panics(t, func() { billing.NewEmailNotifier(nil) })
}
