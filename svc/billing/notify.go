package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tutorhub/tutorhub/pkg/email"
	"github.com/tutorhub/tutorhub/pkg/email/templates"
	"github.com/tutorhub/tutorhub/pkg/logger"
	"github.com/tutorhub/tutorhub/pkg/profile"
	"github.com/tutorhub/tutorhub/pkg/tier"
)

// NoticeKind names a billing notice.
type NoticeKind string

const (
	NoticeDowngradeScheduled NoticeKind = "downgrade_scheduled"
	NoticePaymentRequired    NoticeKind = "payment_required"
)

// Notice is sent to a user after a billing change they should know about.
type Notice struct {
	Kind          NoticeKind
	Email         string
	Name          string
	Tier          tier.Tier
	PendingTier   tier.Tier
	EffectiveDate time.Time
	AmountDue     int64
	Currency      string
}

// Notifier delivers notices. Delivery is best effort; errors are only logged.
type Notifier interface {
	Notify(ctx context.Context, n Notice) error
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, Notice) error { return nil }

func noticeFromResult(kind NoticeKind, res *TransitionResult) Notice {
	n := Notice{
		Kind:        kind,
		Tier:        res.Tier,
		PendingTier: res.PendingTier,
		AmountDue:   res.AmountDue,
		Currency:    res.Currency,
	}
	if res.EffectiveDate != nil {
		n.EffectiveDate = *res.EffectiveDate
	}
	return n
}

func (s *service) notify(ctx context.Context, p *profile.Profile, n Notice) {
	if p.Email == "" {
		return
	}
	n.Email = p.Email
	n.Name = p.DisplayName()
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.log.WarnContext(ctx, "failed to send billing notice",
			logger.UserID(p.UserID),
			logger.Event(string(n.Kind)),
			logger.Error(err),
		)
	}
}

// EmailNotifier renders notices with the bundled templates and sends them through
// an email.EmailSender.
type EmailNotifier struct {
	sender email.EmailSender
}

func NewEmailNotifier(sender email.EmailSender) *EmailNotifier {
	if sender == nil {
		panic("billing: email sender is required")
	}
	return &EmailNotifier{sender: sender}
}

func (e *EmailNotifier) Notify(ctx context.Context, n Notice) error {
	var subject, tpl string
	switch n.Kind {
	case NoticeDowngradeScheduled:
		subject, tpl = "Your plan change is scheduled", templates.DowngradeScheduled
	case NoticePaymentRequired:
		subject, tpl = "Please confirm your payment", templates.PaymentRequired
	default:
		return fmt.Errorf("unknown notice kind %q", n.Kind)
	}

	data := map[string]any{
		"Subject":     subject,
		"Name":        n.Name,
		"Tier":        tierLabel(n.Tier),
		"PendingTier": tierLabel(n.PendingTier),
		"Amount":      FormatAmount(n.AmountDue, n.Currency),
	}
	if !n.EffectiveDate.IsZero() {
		data["EffectiveDate"] = n.EffectiveDate.UTC().Format("January 2, 2006")
	}

	body, err := templates.Render(ctx, tpl, data)
	if err != nil {
		return err
	}
	return e.sender.SendEmail(ctx, email.SendEmailParams{
		SendTo:   n.Email,
		Subject:  subject,
		BodyHTML: body,
		Tag:      string(n.Kind),
	})
}

// zeroDecimal lists currencies whose minor unit is the major unit.
var zeroDecimal = map[string]bool{
	"bif": true, "clp": true, "djf": true, "gnf": true, "jpy": true, "kmf": true,
	"krw": true, "mga": true, "pyg": true, "rwf": true, "ugx": true, "vnd": true,
	"vuv": true, "xaf": true, "xof": true, "xpf": true,
}

// FormatAmount renders minor currency units for people, e.g. 1999 usd -> "19.99 USD".
func FormatAmount(minor int64, currency string) string {
	cur := strings.ToLower(currency)
	exp := int32(-2)
	if zeroDecimal[cur] {
		exp = 0
	}
	return decimal.New(minor, exp).StringFixed(-exp) + " " + strings.ToUpper(cur)
}

func tierLabel(t tier.Tier) string {
	switch t {
	case tier.Free:
		return "Free"
	case tier.Lessons:
		return "Lessons"
	case tier.LessonsAI:
		return "Lessons + AI"
	default:
		return string(t)
	}
}
