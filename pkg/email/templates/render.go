// Package templates renders the transactional email bodies shipped with the binary.
package templates

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"strings"
)

//go:embed *.html
var files embed.FS

var (
	ErrUnknownTemplate = errors.New("unknown email template")

	parsed = template.Must(template.ParseFS(files, "*.html"))
)

// Template names.
const (
	DowngradeScheduled = "downgrade_scheduled.html"
	PaymentRequired    = "payment_required.html"
)

// Render executes the named template with data. ctx is checked before rendering.
func Render(ctx context.Context, name string, data any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	tpl := parsed.Lookup(name)
	if tpl == nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownTemplate, name)
	}
	var sb strings.Builder
	if err := tpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return sb.String(), nil
}
