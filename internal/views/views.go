package views

import (
	"strings"

	"fde-dashboard/internal/roster"
)

// ChartPoint is the chart projection of a ModelEntry. Loss fields are omitted.
type ChartPoint struct {
	Name      string  `json:"name"`
	MAP50     float64 `json:"mAP50"`
	MAP50_95  float64 `json:"mAP50_95"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
}

// RowStyle carries the two independent styling rules of a table row.
type RowStyle struct {
	Index    int  `json:"index"`
	Proposed bool `json:"proposed"`
}

// Odd reports whether the zero-indexed row has odd parity.
func (s RowStyle) Odd() bool { return s.Index%2 == 1 }

// Classes returns the CSS classes for the row. The zebra class is always
// present and the emphasis class is layered on top of it.
func (s RowStyle) Classes() string {
	cls := "row-even"
	if s.Odd() {
		cls = "row-odd"
	}
	if s.Proposed {
		cls += " row-proposed"
	}
	return cls
}

// PerformanceRow is one formatted row of the performance table.
type PerformanceRow struct {
	Style     RowStyle `json:"style"`
	Name      string   `json:"name"`
	Params    string   `json:"params"`
	FLOPs     string   `json:"flops"`
	Precision string   `json:"precision"`
	Recall    string   `json:"recall"`
	MAP50     string   `json:"mAP50"`
	MAP50_95  string   `json:"mAP50_95"`
}

// LossRow is one formatted row of the loss table.
type LossRow struct {
	Style   RowStyle `json:"style"`
	Name    string   `json:"name"`
	BoxLoss string   `json:"boxLoss"`
	ClsLoss string   `json:"clsLoss"`
	DFLLoss string   `json:"dflLoss"`
}

// Conclusion holds the proposed-model summary strings.
type Conclusion struct {
	Found    bool   `json:"found"`
	Name     string `json:"name"`
	MAP50    string `json:"mAP50"`
	MAP50_95 string `json:"mAP50_95"`
	Params   string `json:"params"`
	FLOPs    string `json:"flops"`
}

// IsProposed reports whether name carries the marker substring.
func IsProposed(name, marker string) bool {
	return marker != "" && strings.Contains(name, marker)
}

// Project maps models to chart points in input order.
func Project(models []roster.ModelEntry) []ChartPoint {
	out := make([]ChartPoint, len(models))
	for i, m := range models {
		out[i] = ChartPoint{
			Name:      m.Name,
			MAP50:     m.MAP50,
			MAP50_95:  m.MAP50_95,
			Precision: m.Precision,
			Recall:    m.Recall,
		}
	}
	return out
}

// FindProposed returns the first model whose name contains marker.
func FindProposed(models []roster.ModelEntry, marker string) (roster.ModelEntry, bool) {
	for _, m := range models {
		if IsProposed(m.Name, marker) {
			return m, true
		}
	}
	return roster.ModelEntry{}, false
}

// Conclude builds the summary for the proposed model. Without a match every
// field is Placeholder.
func Conclude(models []roster.ModelEntry, marker string) Conclusion {
	m, ok := FindProposed(models, marker)
	if !ok {
		return Conclusion{
			Name:     Placeholder,
			MAP50:    Placeholder,
			MAP50_95: Placeholder,
			Params:   Placeholder,
			FLOPs:    Placeholder,
		}
	}
	return Conclusion{
		Found:    true,
		Name:     m.Name,
		MAP50:    Percent(m.MAP50),
		MAP50_95: Percent(m.MAP50_95),
		Params:   FormatNumber(m.Params) + "M",
		FLOPs:    FormatNumber(m.FLOPs) + " GFLOPs",
	}
}

// PerformanceRows formats the performance table in input order.
func PerformanceRows(models []roster.ModelEntry, marker string) []PerformanceRow {
	rows := make([]PerformanceRow, len(models))
	for i, m := range models {
		rows[i] = PerformanceRow{
			Style:     RowStyle{Index: i, Proposed: IsProposed(m.Name, marker)},
			Name:      m.Name,
			Params:    FormatNumber(m.Params),
			FLOPs:     FormatNumber(m.FLOPs),
			Precision: Percent(m.Precision),
			Recall:    Percent(m.Recall),
			MAP50:     Percent(m.MAP50),
			MAP50_95:  Percent(m.MAP50_95),
		}
	}
	return rows
}

// LossRows formats the loss table in input order.
func LossRows(models []roster.ModelEntry, marker string) []LossRow {
	rows := make([]LossRow, len(models))
	for i, m := range models {
		rows[i] = LossRow{
			Style:   RowStyle{Index: i, Proposed: IsProposed(m.Name, marker)},
			Name:    m.Name,
			BoxLoss: FormatLoss(m.BoxLoss),
			ClsLoss: FormatLoss(m.ClsLoss),
			DFLLoss: FormatLoss(m.DFLLoss),
		}
	}
	return rows
}

// Snapshot is every derived view computed from one roster read.
// Renderers only ever consume a complete Snapshot.
type Snapshot struct {
	Marker      string                    `json:"marker"`
	Models      []roster.ModelEntry       `json:"models"`
	Performance []PerformanceRow          `json:"performance"`
	Losses      []LossRow                 `json:"losses"`
	Chart       []ChartPoint              `json:"chart"`
	Conclusion  Conclusion                `json:"conclusion"`
	Modules     []roster.ModuleDescriptor `json:"modules"`
}

// Build computes a Snapshot from r.
func Build(r *roster.Roster, marker string) Snapshot {
	models := r.Models()
	return Snapshot{
		Marker:      marker,
		Models:      models,
		Performance: PerformanceRows(models, marker),
		Losses:      LossRows(models, marker),
		Chart:       Project(models),
		Conclusion:  Conclude(models, marker),
		Modules:     r.Modules(),
	}
}
