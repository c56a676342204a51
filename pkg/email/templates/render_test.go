package templates_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorhub/tutorhub/pkg/email/templates"
)

func TestRender(t *testing.T) {
	t.Parallel()

	body, err := templates.Render(context.Background(), templates.PaymentRequired, map[string]any{
		"Subject": "Confirm your payment",
		"Name":    "<Ada>",
		"Tier":    "lessons_ai",
		"Amount":  "19.99 USD",
	})
	require.NoError(t, err)
	assert.Contains(t, body, "19.99 USD")
	assert.Contains(t, body, "&lt;Ada&gt;", "user input is escaped")
	assert.Contains(t, body, "The Tutorhub team")
}

func TestRender_Unknown(t *testing.T) {
	t.Parallel()

	_, err := templates.Render(context.Background(), "missing.html", nil)
	assert.ErrorIs(t, err, templates.ErrUnknownTemplate)
}

func TestRender_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := templates.Render(ctx, templates.DowngradeScheduled, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
