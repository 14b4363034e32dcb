// Package table renders the performance and loss tables, as HTML fragments
// for the dashboard and as styled text for the terminal.
package table

import (
	"bytes"
	"fmt"
	"html/template"
	"io"

	"fde-dashboard/internal/views"
)

// Column headers, shared by the HTML and terminal renderers.
var (
	PerformanceHeaders = []string{"Model", "Parameters (M)", "GFLOPs", "Precision", "Recall", "mAP@50", "mAP@50-95"}
	LossHeaders        = []string{"Model", "Box Loss", "Cls Loss", "DFL Loss"}
)

const tablesTemplate = `
{{define "performance"}}<table class="metrics" id="performance-table">
  <thead><tr>{{range $i, $h := .Headers}}<th{{if $i}} class="num"{{end}}>{{$h}}</th>{{end}}</tr></thead>
  <tbody>
{{- range .Rows}}
    <tr class="{{.Style.Classes}}" data-index="{{.Style.Index}}">
      <td>{{.Name}}</td><td class="num">{{.Params}}</td><td class="num">{{.FLOPs}}</td><td class="num">{{.Precision}}</td><td class="num">{{.Recall}}</td><td class="num">{{.MAP50}}</td><td class="num">{{.MAP50_95}}</td>
    </tr>
{{- end}}
  </tbody>
</table>{{end}}
{{define "loss"}}<table class="metrics" id="loss-table">
  <thead><tr>{{range $i, $h := .Headers}}<th{{if $i}} class="num"{{end}}>{{$h}}</th>{{end}}</tr></thead>
  <tbody>
{{- range .Rows}}
    <tr class="{{.Style.Classes}}" data-index="{{.Style.Index}}">
      <td>{{.Name}}</td><td class="num">{{.BoxLoss}}</td><td class="num">{{.ClsLoss}}</td><td class="num">{{.DFLLoss}}</td>
    </tr>
{{- end}}
  </tbody>
</table>{{end}}
`

var tmpl = template.Must(template.New("tables").Parse(tablesTemplate))

// WritePerformance writes the performance table as HTML.
func WritePerformance(w io.Writer, rows []views.PerformanceRow) error {
	data := struct {
		Headers []string
		Rows    []views.PerformanceRow
	}{PerformanceHeaders, rows}
	if err := tmpl.ExecuteTemplate(w, "performance", data); err != nil {
		return fmt.Errorf("render performance table: %w", err)
	}
	return nil
}

// WriteLoss writes the loss table as HTML.
func WriteLoss(w io.Writer, rows []views.LossRow) error {
	data := struct {
		Headers []string
		Rows    []views.LossRow
	}{LossHeaders, rows}
	if err := tmpl.ExecuteTemplate(w, "loss", data); err != nil {
		return fmt.Errorf("render loss table: %w", err)
	}
	return nil
}

// PerformanceHTML returns the performance table as a trusted fragment.
func PerformanceHTML(rows []views.PerformanceRow) (template.HTML, error) {
	var buf bytes.Buffer
	if err := WritePerformance(&buf, rows); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// LossHTML returns the loss table as a trusted fragment.
func LossHTML(rows []views.LossRow) (template.HTML, error) {
	var buf bytes.Buffer
	if err := WriteLoss(&buf, rows); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
