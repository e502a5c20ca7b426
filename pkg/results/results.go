// Package results presents a simulation result in the terminal: one tab per
// figure followed by the printed text panels.
package results

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/picogrid/vectorial-cli/pkg/logger"
	"github.com/picogrid/vectorial-cli/pkg/simulator"
)

// ReportFile is the report written next to the figures of a run.
const ReportFile = "report.txt"

const reportTemplate = `{{ printf "%s run %s" (.Backend | upper) .ID }}
{{ repeat 60 "=" }}
Configuration: {{ .ConfigPath | default "(saved result)" }}
Output:        {{ .OutputDir | default "-" }}
{{- if .Figures }}

Figures
{{ repeat 60 "-" }}
{{- range .Figures }}
{{ printf "%-34s" .Title }} {{ base .Path }}
{{- end }}
{{- end }}
{{- range .Panels }}

{{ .Title }}
{{ repeat 60 "-" }}
{{ .Text | trimSuffix "\n" }}
{{- end }}
`

// Tab is one figure shown in the results view, in tab order.
type Tab struct {
	Title string
	Path  string
}

// Tabs returns the figures of res in tab order. Kinds the backend did not
// produce or the run switched off are skipped.
func Tabs(res *simulator.Result) []Tab {
	var tabs []Tab
	for _, kind := range simulator.PlotKinds {
		if !res.Shows(kind.Toggle()) {
			continue
		}
		if fig, ok := res.Figure(kind); ok {
			tabs = append(tabs, Tab{Title: fig.Title, Path: fig.Path})
		}
	}
	return tabs
}

// Panels returns the enabled text panels of res in display order, the
// configuration summary last.
func Panels(res *simulator.Result) []simulator.Panel {
	kinds := append([]simulator.PanelKind{}, simulator.PanelKinds...)
	kinds = append(kinds, simulator.PanelConfiguration)

	var panels []simulator.Panel
	for _, kind := range kinds {
		if !res.Shows(kind.Toggle()) {
			continue
		}
		if p, ok := res.Panel(kind); ok {
			panels = append(panels, p)
		}
	}
	return panels
}

// Show prints res through the logger.
func Show(res *simulator.Result) {
	title := "Results"
	if res.Saved {
		title = "Saved Results"
	}
	logger.LogSection(fmt.Sprintf("%s %s %s", logger.IconRocket, title, res.ID))

	tabs := Tabs(res)
	if len(tabs) > 0 {
		table := logger.NewTable("TAB", "FIGURE")
		for _, tab := range tabs {
			table.AddRow(tab.Title, tab.Path)
		}
		table.Print()
	}

	for _, p := range Panels(res) {
		logger.LogSubSection(p.Title)
		logger.LogText(p.Text)
	}
}

// Render renders the plain-text report for res.
func Render(res *simulator.Result) (string, error) {
	tmpl, err := template.New("report").Funcs(sprig.TxtFuncMap()).Parse(reportTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse report template: %w", err)
	}

	data := struct {
		*simulator.Result
		Figures []Tab
		Panels  []simulator.Panel
	}{res, Tabs(res), Panels(res)}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute report template: %w", err)
	}
	return buf.String(), nil
}

// WriteReport renders the report into the run's output directory and
// returns its path. Results without an output directory get no report.
func WriteReport(res *simulator.Result) (string, error) {
	if res.OutputDir == "" {
		return "", nil
	}

	report, err := Render(res)
	if err != nil {
		return "", err
	}

	path := filepath.Join(res.OutputDir, ReportFile)
	if err := os.WriteFile(path, []byte(report), 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}
