package invoice

import (
	_ "embed"
	"fmt"

	"github.com/BurntSushi/toml"
)

// Header layouts understood by the template.
const (
	LayoutSplit    = "split"
	LayoutStacked  = "stacked"
	LayoutBanner   = "banner"
	LayoutCentered = "centered"
)

// Theme is the styling of one invoice template.
type Theme struct {
	ID                    string `toml:"id"`
	Name                  string `toml:"name"`
	FontFamily            string `toml:"font_family"`
	HeadingFont           string `toml:"heading_font"`
	TextColor             string `toml:"text_color"`
	MutedColor            string `toml:"muted_color"`
	AccentColor           string `toml:"accent_color"`
	HeaderBackground      string `toml:"header_background"`
	HeaderText            string `toml:"header_text"`
	TableHeaderBackground string `toml:"table_header_background"`
	TableHeaderText       string `toml:"table_header_text"`
	BorderColor           string `toml:"border_color"`
	HeaderLayout          string `toml:"header_layout"`
	TitleSize             string `toml:"title_size"`
	UppercaseHeadings     bool   `toml:"uppercase_headings"`
	StripedRows           bool   `toml:"striped_rows"`
	HeaderRule            bool   `toml:"header_rule"`
	TotalsBoxed           bool   `toml:"totals_boxed"`
	ShowItemDates         bool   `toml:"show_item_dates"`
	ShowPaymentType       bool   `toml:"show_payment_type"`
	FooterText            string `toml:"footer_text"`
}

type themeFile struct {
	Themes []Theme `toml:"theme"`
}

//go:embed themes.toml
var builtinThemes string

// LoadThemes decodes a themes document. Theme ids must be unique and every
// theme needs a known header layout.
func LoadThemes(doc string) ([]Theme, error) {
	var f themeFile
	if _, err := toml.Decode(doc, &f); err != nil {
		return nil, fmt.Errorf("decode themes: %w", err)
	}
	if len(f.Themes) == 0 {
		return nil, fmt.Errorf("no themes defined")
	}
	seen := make(map[string]bool, len(f.Themes))
	for _, t := range f.Themes {
		if t.ID == "" {
			return nil, fmt.Errorf("theme %q has no id", t.Name)
		}
		if seen[t.ID] {
			return nil, fmt.Errorf("duplicate theme id %q", t.ID)
		}
		seen[t.ID] = true
		switch t.HeaderLayout {
		case LayoutSplit, LayoutStacked, LayoutBanner, LayoutCentered:
		default:
			return nil, fmt.Errorf("theme %q: unknown header layout %q", t.ID, t.HeaderLayout)
		}
	}
	return f.Themes, nil
}
