package report

import (
	"bufio"
	"fmt"
	"io"
)

const summaryRule = "---------------------------------------"

// renderText writes the classic plain-text layout: a banner, the matrix rows
// and the mean / standard deviation summary, once per section.
func renderText(w io.Writer, rep Report) error {
	bw := bufio.NewWriter(w)

	for _, s := range rep.Sections {
		fmt.Fprintln(bw, s.Index.Title())

		err := s.Matrix.WriteText(bw)
		if err != nil {
			return err
		}

		fmt.Fprintln(bw, summaryRule)
		fmt.Fprintf(bw, "Total mean         = %f\n", s.Stats.Mean)
		fmt.Fprintf(bw, "Standard deviation = %f\n", s.Stats.StdDev)
		fmt.Fprintf(bw, "%s\n\n", summaryRule)
	}

	err := bw.Flush()
	if err != nil {
		return fmt.Errorf("write text report: %w", err)
	}

	return nil
}
