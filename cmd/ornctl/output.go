package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	ornprog "github.com/fmhr12/ORN-Prognosis/pkg/sdk"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v) //nolint:wrapcheck // terminal output
}

func newTab(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func printExplanation(w io.Writer, e ornprog.Explanation) error {
	fmt.Fprintf(w, "Time point %s (t=%g months), cause %d\n", e.TimePoint, e.Time, e.Cause)
	tw := newTab(w)
	fmt.Fprintf(tw, "baseline (%s)\t%.4f\n", e.BaselineCurve, e.Baseline)
	for _, c := range e.Contributions {
		fmt.Fprintf(tw, "%s\t%+.4f\n", c.Feature, c.Value)
	}
	fmt.Fprintf(tw, "prediction\t%.4f\n", e.Prediction)
	return tw.Flush() //nolint:wrapcheck // terminal output
}

func printRows(w io.Writer, rows []ornprog.Row) error {
	tw := newTab(w)
	fmt.Fprintln(tw, "TIME\tCIF\tPERCENT")
	for _, r := range rows {
		fmt.Fprintf(tw, "%g\t%s\t%s\n", r.Time, r.Display, r.Percent)
	}
	return tw.Flush() //nolint:wrapcheck // terminal output
}

func printPoints(w io.Writer, pts []ornprog.Point) error {
	tw := newTab(w)
	fmt.Fprintln(tw, "TIME\tCIF")
	for _, p := range pts {
		fmt.Fprintf(tw, "%g\t%.6f\n", p.Time, p.Value)
	}
	return tw.Flush() //nolint:wrapcheck // terminal output
}

func printSchema(w io.Writer, s ornprog.SchemaInfo) error {
	fmt.Fprintf(w, "Artifact version: %s\n\n", s.Version)

	tw := newTab(w)
	fmt.Fprintln(tw, "FEATURE\tKIND\tDOMAIN")
	for _, f := range s.Features {
		dom := strings.Join(f.Levels, " | ")
		if f.Kind == "numeric" {
			dom = fmt.Sprintf("%g .. %g", f.Min, f.Max)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", f.Name, f.Kind, dom)
	}
	if err := tw.Flush(); err != nil {
		return err //nolint:wrapcheck // terminal output
	}

	causes := make([]int, 0, len(s.Causes))
	for c := range s.Causes {
		causes = append(causes, c)
	}
	sort.Ints(causes)
	labels := make([]string, len(causes))
	for i, c := range causes {
		labels[i] = fmt.Sprintf("%d=%s", c, s.Causes[c])
	}

	fmt.Fprintf(w, "\nTime points: %s\n", strings.Join(s.TimePoints, ", "))
	fmt.Fprintf(w, "Curves:      %s\n", strings.Join(s.Curves, ", "))
	fmt.Fprintf(w, "Causes:      %s\n", strings.Join(labels, ", "))
	return nil
}
