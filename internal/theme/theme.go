// Package theme maps the light/dark signal to the colors used by the chart
// and page chrome. Resolution is total: anything unrecognized is light.
package theme

import "strings"

// Signal is the externally supplied theme selector.
type Signal string

const (
	Light Signal = "light"
	Dark  Signal = "dark"
)

// Parse converts raw input to a Signal, falling back to Light.
func Parse(s string) Signal {
	if strings.EqualFold(strings.TrimSpace(s), string(Dark)) {
		return Dark
	}
	return Light
}

// Toggle returns the opposite signal.
func (s Signal) Toggle() Signal {
	if s == Dark {
		return Light
	}
	return Dark
}

// Colors is the palette consumed by the chart renderer.
type Colors struct {
	Text              string `json:"text"`
	Grid              string `json:"grid"`
	TooltipBackground string `json:"tooltipBackground"`
	TooltipBorder     string `json:"tooltipBorder"`
}

var (
	lightColors = Colors{
		Text:              "#374151",
		Grid:              "#e5e7eb",
		TooltipBackground: "rgba(255,255,255,0.9)",
		TooltipBorder:     "#d1d5db",
	}
	darkColors = Colors{
		Text:              "#d1d5db",
		Grid:              "#374151",
		TooltipBackground: "rgba(31,41,55,0.9)",
		TooltipBorder:     "#4b5563",
	}
)

// Resolve returns the palette for s.
func Resolve(s Signal) Colors {
	if s == Dark {
		return darkColors
	}
	return lightColors
}

// Series colors are fixed regardless of theme.
const (
	ColorMAP50     = "#3b82f6"
	ColorMAP50_95  = "#60a5fa"
	ColorPrecision = "#82ca9d"
	ColorRecall    = "#fbbf24"
)

// Page holds the page chrome colors: backgrounds, zebra rows and emphasis.
type Page struct {
	Background string `json:"background"`
	Card       string `json:"card"`
	Border     string `json:"border"`
	Text       string `json:"text"`
	Muted      string `json:"muted"`
	HeaderRow  string `json:"headerRow"`
	RowEven    string `json:"rowEven"`
	RowOdd     string `json:"rowOdd"`
	Emphasis   string `json:"emphasis"`
	Accent     string `json:"accent"`
}

// PagePalette returns the page chrome for s.
func PagePalette(s Signal) Page {
	if s == Dark {
		return Page{
			Background: "#111827",
			Card:       "#1f2937",
			Border:     "#374151",
			Text:       "#f3f4f6",
			Muted:      "#9ca3af",
			HeaderRow:  "#374151",
			RowEven:    "#1f2937",
			RowOdd:     "#374151",
			Emphasis:   "#4ade80",
			Accent:     "#60a5fa",
		}
	}
	return Page{
		Background: "#f9fafb",
		Card:       "#ffffff",
		Border:     "#e5e7eb",
		Text:       "#111827",
		Muted:      "#6b7280",
		HeaderRow:  "#f8fafc",
		RowEven:    "#ffffff",
		RowOdd:     "#f1f5f9",
		Emphasis:   "#16a34a",
		Accent:     "#2563eb",
	}
}
