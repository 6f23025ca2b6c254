// Package templates holds the HTML fragments returned to HTMX clients.
package templates

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// ResultView is the data rendered by ValidationResult.
type ResultView struct {
	OK       bool
	Source   string
	Message  string
	Code     string
	Row      int
	Column   string
	Position int
}

// ValidationResult renders the outcome of a validation run as an alert box.
func ValidationResult(v ResultView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		class := "result result-ok"
		if !v.OK {
			class = "result result-fail"
		}

		var b strings.Builder
		fmt.Fprintf(&b, `<div class="%s" role="status" data-ok="%t">`, class, v.OK)
		if v.Source != "" {
			fmt.Fprintf(&b, `<p class="result-source">%s</p>`, templ.EscapeString(v.Source))
		}
		fmt.Fprintf(&b, `<p class="result-message">%s</p>`, templ.EscapeString(v.Message))

		if !v.OK {
			b.WriteString(`<dl class="result-details">`)
			if v.Row > 0 {
				fmt.Fprintf(&b, `<dt>Row</dt><dd>%d</dd>`, v.Row)
			}
			if v.Column != "" {
				fmt.Fprintf(&b, `<dt>Column</dt><dd>%s</dd>`, templ.EscapeString(v.Column))
			}
			if v.Position > 0 {
				fmt.Fprintf(&b, `<dt>Position</dt><dd>%d</dd>`, v.Position)
			}
			if v.Code != "" {
				fmt.Fprintf(&b, `<dt>Code</dt><dd>%s</dd>`, templ.EscapeString(v.Code))
			}
			b.WriteString(`</dl>`)
		}
		b.WriteString(`</div>`)

		_, err := io.WriteString(w, b.String())
		return err
	})
}

// ErrorAlert renders a request-level error (busy, rate limited, bad form).
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<div class="alert alert-error" role="alert">`)
		fmt.Fprintf(&b, `<p class="alert-message">%s</p>`, templ.EscapeString(message))
		if action != "" {
			fmt.Fprintf(&b, `<p class="alert-action">%s</p>`, templ.EscapeString(action))
		}
		if code != "" {
			fmt.Fprintf(&b, `<p class="alert-code">Code: %s</p>`, templ.EscapeString(code))
		}
		b.WriteString(`</div>`)

		_, err := io.WriteString(w, b.String())
		return err
	})
}
