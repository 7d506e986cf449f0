// Package invoice renders printable invoice HTML.
//
// There is a single template; the four built-in looks are Theme values
// decoded from themes.toml. Every user supplied string goes through
// html/template escaping.
package invoice

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"strings"
	"sync"

	"freelancedesk/internal/core"
)

// ErrUnknownTemplate is returned for a theme id that is not registered.
var ErrUnknownTemplate = errors.New("unknown invoice template")

// DefaultTemplate is used when no template id is given.
const DefaultTemplate = "classic"

//go:embed templates/*.tmpl
var templateFS embed.FS

// Renderer turns invoice data into HTML.
type Renderer struct {
	themes map[string]Theme
	order  []string
	tmpl   *template.Template
	symbol string
}

// view is what the template sees.
type view struct {
	Theme   Theme
	Data    Data
	Profile core.UserProfile
	Issuer  issuer
}

type issuer struct {
	Name    string
	Email   string
	Phone   string
	Address string
	TaxID   string
	Website string
}

// NewRenderer builds a renderer over the built-in themes.
func NewRenderer(currencySymbol string) (*Renderer, error) {
	themes, err := LoadThemes(builtinThemes)
	if err != nil {
		return nil, err
	}
	return NewRendererWithThemes(currencySymbol, themes)
}

// NewRendererWithThemes builds a renderer over custom themes.
func NewRendererWithThemes(currencySymbol string, themes []Theme) (*Renderer, error) {
	r := &Renderer{
		themes: make(map[string]Theme, len(themes)),
		symbol: currencySymbol,
	}
	for _, t := range themes {
		r.themes[t.ID] = t
		r.order = append(r.order, t.ID)
	}
	funcs := template.FuncMap{
		"money": func(m core.Money) string { return FormatAmount(r.symbol, m) },
		"date":  func(d core.Date) string { return FormatDate(d.Time) },
		"css":   func(s string) template.CSS { return template.CSS(s) },
		"label": paymentTypeLabel,
	}
	tmpl, err := template.New("invoice.html.tmpl").Funcs(funcs).ParseFS(templateFS, "templates/invoice.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse invoice template: %w", err)
	}
	r.tmpl = tmpl
	return r, nil
}

// Themes lists registered themes in declaration order.
func (r *Renderer) Themes() []Theme {
	out := make([]Theme, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.themes[id])
	}
	return out
}

// Theme looks up a theme by id. An empty id selects DefaultTemplate.
func (r *Renderer) Theme(id string) (Theme, error) {
	if id == "" {
		id = DefaultTemplate
	}
	t, ok := r.themes[strings.ToLower(id)]
	if !ok {
		return Theme{}, fmt.Errorf("%w: %q", ErrUnknownTemplate, id)
	}
	return t, nil
}

// Render writes the invoice HTML for data issued by profile using templateID.
func (r *Renderer) Render(w io.Writer, data Data, profile core.UserProfile, templateID string) error {
	theme, err := r.Theme(templateID)
	if err != nil {
		return err
	}
	v := view{Theme: theme, Data: data, Profile: profile, Issuer: issuerFor(profile)}
	if err := r.tmpl.Execute(w, v); err != nil {
		return fmt.Errorf("render invoice %s: %w", data.Number, err)
	}
	return nil
}

// RenderString is Render into a string.
func (r *Renderer) RenderString(data Data, profile core.UserProfile, templateID string) (string, error) {
	var buf bytes.Buffer
	if err := r.Render(&buf, data, profile, templateID); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var defaultRenderer = sync.OnceValues(func() (*Renderer, error) {
	return NewRenderer("$")
})

// Render renders with the built-in themes and a "$" currency symbol.
func Render(data Data, profile core.UserProfile, templateID string) (string, error) {
	r, err := defaultRenderer()
	if err != nil {
		return "", err
	}
	return r.RenderString(data, profile, templateID)
}

func issuerFor(p core.UserProfile) issuer {
	is := issuer{
		Name:    p.DisplayName(),
		Email:   p.Email,
		Phone:   p.Phone,
		Address: p.Location,
		TaxID:   p.TaxID,
		Website: p.Website,
	}
	if p.IsAgency() {
		if p.AgencyEmail != "" {
			is.Email = p.AgencyEmail
		}
		if p.AgencyPhone != "" {
			is.Phone = p.AgencyPhone
		}
		if p.AgencyAddress != "" {
			is.Address = p.AgencyAddress
		}
	}
	return is
}

func paymentTypeLabel(t core.PaymentType) string {
	switch t {
	case core.PaymentAdvance:
		return "Advance"
	case core.PaymentPartial:
		return "Partial"
	case core.PaymentFinal:
		return "Final"
	}
	return ""
}
