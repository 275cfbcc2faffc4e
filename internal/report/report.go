// Package report renders stored runs as markdown or HTML summaries.
package report

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"gounc/domain/run"
	"gounc/domain/uncertainty"
)

// Options control number formatting
type Options struct {
	// SigDigits rounds every reported number; 0 keeps all digits
	SigDigits int
	// Monetary scales distribution values to K, M, Bn or Tn per metric
	Monetary bool
}

// DefaultOptions reports three significant digits in monetary units
func DefaultOptions() Options {
	return Options{SigDigits: 3, Monetary: true}
}

// Markdown renders rec as a markdown document
func Markdown(rec *run.Record, opts Options) string {
	var b strings.Builder
	m := rec.Manifest

	fmt.Fprintf(&b, "# Uncertainty run %s\n\n", m.RunID)
	b.WriteString("| Field | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Model | %s |\n", m.Model)
	fmt.Fprintf(&b, "| Scheme | %s |\n", m.Design.Scheme)
	fmt.Fprintf(&b, "| Base samples | %d |\n", m.Design.NBase)
	fmt.Fprintf(&b, "| Rows | %d |\n", m.Rows)
	fmt.Fprintf(&b, "| Parameters | %s |\n", strings.Join(m.Params, ", "))
	fmt.Fprintf(&b, "| Seed | %d |\n", m.Design.Seed)
	fmt.Fprintf(&b, "| Fingerprint | `%s` |\n", m.Fingerprint.Short())
	fmt.Fprintf(&b, "| Created | %s |\n\n", m.CreatedAt)

	writeFailures(&b, rec.Failures)
	writeDistribution(&b, rec.Distribution, opts)
	writeSensitivity(&b, rec.Sensitivity, opts)
	return b.String()
}

// HTML renders rec as an HTML fragment
func HTML(rec *run.Record, opts Options) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	r := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.ToHTML([]byte(Markdown(rec, opts)), p, r)
}

func writeFailures(b *strings.Builder, f uncertainty.FailureSummary) {
	b.WriteString("## Failures\n\n")
	if f.Count == 0 {
		b.WriteString("No failed rows.\n\n")
		return
	}
	fmt.Fprintf(b, "%d failed rows.\n\n", f.Count)
	b.WriteString("| Reason | Rows | Last row | Last error |\n|---|---|---|---|\n")
	for _, r := range f.Reasons {
		fmt.Fprintf(b, "| %s | %d | %d | %s |\n", cell(r.Reason), r.Count, r.LastRow, cell(r.LastErr))
	}
	b.WriteString("\n")
}

func writeDistribution(b *strings.Builder, dists []uncertainty.OutputDistribution, opts Options) {
	if len(dists) == 0 {
		return
	}
	b.WriteString("## Output distribution\n\n")

	header := []string{"Metric", "Unit", "Count", "Mean", "Std"}
	for _, pc := range dists[0].Percentiles {
		header = append(header, "P"+strconv.FormatFloat(pc.P, 'g', -1, 64))
	}
	writeHeader(b, header)

	units := metricUnits(dists, opts)
	for _, d := range dists {
		u := units[d.Component.Metric]
		row := []string{d.Component.Name(), u.name, strconv.Itoa(d.Count), num(d.Mean/u.scale, opts), num(d.StdDev/u.scale, opts)}
		for _, pc := range d.Percentiles {
			row = append(row, num(pc.Value/u.scale, opts))
		}
		writeRow(b, row)
	}
	b.WriteString("\n")
}

// metricUnits picks one monetary unit per metric from its finite means
func metricUnits(dists []uncertainty.OutputDistribution, opts Options) map[string]unit {
	means := make(map[string][]float64)
	for _, d := range dists {
		vals := means[d.Component.Metric]
		if !math.IsNaN(d.Mean) && !math.IsInf(d.Mean, 0) {
			vals = append(vals, d.Mean)
		}
		means[d.Component.Metric] = vals
	}
	out := make(map[string]unit, len(means))
	for metric, vals := range means {
		out[metric] = units[0]
		if opts.Monetary {
			out[metric] = monetaryUnit(vals)
		}
	}
	return out
}

func writeSensitivity(b *strings.Builder, s *uncertainty.Sensitivity, opts Options) {
	if s == nil {
		return
	}
	b.WriteString("## Sensitivity\n\n")
	writeHeader(b, []string{"Output", "Parameter", "S1", "S1 conf", "ST", "ST conf"})
	for _, c := range s.Components {
		for _, idx := range c.Indices {
			writeRow(b, []string{c.Component.Name(), idx.Param, num(idx.S1, opts), num(idx.S1Conf, opts), num(idx.ST, opts), num(idx.STConf, opts)})
		}
	}
	b.WriteString("\n")

	b.WriteString("### Most influential parameters\n\n")
	for _, c := range s.Components {
		ranked := append([]uncertainty.Index(nil), c.Indices...)
		sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].ST > ranked[j].ST })
		if len(ranked) > 0 {
			fmt.Fprintf(b, "- **%s**: %s (ST %s, %d blocks)\n", c.Component.Name(), ranked[0].Param, num(ranked[0].ST, opts), c.Blocks)
		}
	}
	b.WriteString("\n")

	if s.SecondOrder {
		b.WriteString("### Second order\n\n")
		writeHeader(b, []string{"Output", "Parameters", "S2", "S2 conf"})
		for _, c := range s.Components {
			if c.S2 == nil {
				continue
			}
			for i := range s.Params {
				for j := i + 1; j < len(s.Params); j++ {
					writeRow(b, []string{c.Component.Name(), s.Params[i] + ", " + s.Params[j], num(c.S2[i][j], opts), num(c.S2Conf[i][j], opts)})
				}
			}
		}
		b.WriteString("\n")
	}

	if len(s.Skipped) > 0 {
		b.WriteString("### Skipped outputs\n\n")
		for _, sk := range s.Skipped {
			fmt.Fprintf(b, "- %s: %s\n", sk.Component.Name(), sk.Reason)
		}
		b.WriteString("\n")
	}
}

func writeHeader(b *strings.Builder, cols []string) {
	writeRow(b, cols)
	b.WriteString("|")
	for range cols {
		b.WriteString("---|")
	}
	b.WriteString("\n")
}

func writeRow(b *strings.Builder, cells []string) {
	b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
}

// num formats x rounded to the configured significant digits
func num(x float64, opts Options) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return "n/a"
	}
	return strconv.FormatFloat(SigDig(x, opts.SigDigits), 'g', -1, 64)
}

// cell escapes table separators in free text
func cell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", `\|`), "\n", " ")
}
