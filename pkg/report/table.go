package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Score bands used to colour the summary mean.
const (
	scoreThresholdHigh   = 0.8
	scoreThresholdMedium = 0.6
	cellPrecision        = 6
)

type tableRenderer struct {
	noColor bool
}

// Render writes every section as a go-pretty table followed by a coloured summary.
func (r *tableRenderer) Render(w io.Writer, rep Report) error {
	if len(rep.Sections) == 0 {
		return ErrNoSections
	}

	for _, s := range rep.Sections {
		fmt.Fprintln(w, sectionHeading(s))

		tbl := table.NewWriter()
		tbl.SetOutputMirror(w)
		tbl.SetStyle(table.StyleLight)
		tbl.Style().Options.SeparateRows = false
		tbl.Style().Format.Header = text.FormatDefault
		tbl.Style().Format.Footer = text.FormatDefault

		labels := s.Matrix.Labels()

		header := make(table.Row, 0, len(labels)+1)
		header = append(header, "")

		for _, label := range labels {
			header = append(header, label)
		}

		tbl.AppendHeader(header)

		for i, values := range s.Matrix.Rows() {
			row := make(table.Row, 0, len(values)+1)
			row = append(row, labels[i])

			for _, v := range values {
				row = append(row, strconv.FormatFloat(v, 'f', cellPrecision, 64))
			}

			tbl.AppendRow(row)
		}

		tbl.AppendFooter(table.Row{fmt.Sprintf("Pairs: %d", s.Stats.Pairs)})
		tbl.Render()

		r.writeSummary(w, s)
	}

	return nil
}

func (r *tableRenderer) writeSummary(w io.Writer, s Section) {
	mean := color.New(scoreColor(s.Stats.Mean))
	if r.noColor {
		mean.DisableColor()
	}

	mean.Fprintf(w, "Total mean         = %f\n", s.Stats.Mean)
	fmt.Fprintf(w, "Standard deviation = %f\n\n", s.Stats.StdDev)
}

func scoreColor(score float64) color.Attribute {
	switch {
	case score >= scoreThresholdHigh:
		return color.FgGreen
	case score >= scoreThresholdMedium:
		return color.FgYellow
	default:
		return color.FgRed
	}
}
