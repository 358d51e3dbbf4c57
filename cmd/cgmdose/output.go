package main

import (
	"fmt"
	"io"
	"math"
	"path/filepath"

	"github.com/olekukonko/tablewriter"

	"cgmdose/internal/dosing"
	"cgmdose/internal/services"
	"cgmdose/pkg/contracts/domain"
)

func printFiles(w io.Writer, files []services.FileResult) {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Source", "Records", "Output"})
	for _, f := range files {
		table.Append([]string{
			filepath.Base(f.Source),
			fmt.Sprintf("%d", f.Records),
			f.Output,
		})
	}
	table.Render()
}

func printReport(w io.Writer, report dosing.Report) {
	fmt.Fprintf(w, "Records: %d (%s to %s)\n",
		report.Table.Len(),
		report.First.Format(domain.TimestampLayout),
		report.Last.Format(domain.TimestampLayout))
	fmt.Fprintf(w, "TDD: %s u   ISF: %s mg/dL per u   Target: %s mg/dL\n",
		number(report.TDD), number(report.ISF), number(report.Target))

	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	table.SetHeader([]string{
		"Group", "Hours", "Events", "Carb\nEvents", "Mean\nGlucose",
		"Bolus\nRatio", "New\nRatio", "Bolus\n(u)", "Basal\n(u)",
	})
	for _, g := range report.Groups {
		table.Append([]string{
			fmt.Sprintf("%d", g.Group),
			g.Label,
			fmt.Sprintf("%d", g.Events),
			fmt.Sprintf("%d", g.CarbEvents),
			number(g.MeanGlucose),
			number(g.MeanBolusRatio),
			number(g.MeanNewRatio),
			number(g.TotalBolus),
			number(g.TotalBasal),
		})
	}
	table.Render()
}

func number(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", f)
}
