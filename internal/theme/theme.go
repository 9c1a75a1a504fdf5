package theme

import "github.com/charmbracelet/lipgloss"

// Color names one of the row palettes.
type Color int

const (
	ColorNormal Color = iota
	ColorHighlighted
	ColorHighlightedActive
	ColorError
)

// Attr is the text weight applied to a row.
type Attr int

const (
	AttrNormal Attr = iota
	AttrBold
)

// Styles describes reusable Lip Gloss styles shared across the UI.
type Styles struct {
	Normal            *lipgloss.Style
	Highlighted       *lipgloss.Style
	HighlightedActive *lipgloss.Style
	Error             *lipgloss.Style
	Border            *lipgloss.Style
	Header            *lipgloss.Style
	Message           *lipgloss.Style
	Prompt            *lipgloss.Style
	Cursor            *lipgloss.Style
	Welcome           *lipgloss.Style
}

var defaultStyles = Styles{
	Normal: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("249")),
	),
	Highlighted: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Background(lipgloss.Color("238")),
	),
	HighlightedActive: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("33")),
	),
	Error: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	),
	Border: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	),
	Header: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true),
	),
	Message: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("249")),
	),
	Prompt: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("34")).Bold(true),
	),
	Cursor: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("33")).Blink(true),
	),
	Welcome: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
	),
}

// Default exposes the standard style set used across the application.
func Default() *Styles {
	return &defaultStyles
}

// Row returns the style for a list row painted with the given weight and
// palette.
func (s *Styles) Row(attr Attr, color Color) lipgloss.Style {
	var base lipgloss.Style
	switch color {
	case ColorHighlighted:
		base = *s.Highlighted
	case ColorHighlightedActive:
		base = *s.HighlightedActive
	case ColorError:
		base = *s.Error
	default:
		base = *s.Normal
	}
	return base.Bold(attr == AttrBold)
}

func ptr(style lipgloss.Style) *lipgloss.Style {
	return &style
}
