// Package exporter writes normalized record tables and analysis reports.
//
// CSVWriter emits a table as CSV: the canonical columns followed by any
// materialized derived columns, timestamps in domain.TimestampLayout. An
// optional UTF-8 BOM keeps Excel from misreading the encoding.
//
// ReportWriter renders a dosing.Report as an XLSX workbook with three
// sheets: a summary of TDD, ISF and target, the per hour group breakdown,
// and the enriched records.
//
// Example usage:
//
//	csvWriter := exporter.NewCSVWriter(logger, false)
//	err := csvWriter.WriteTableFile("out/clarity.csv", table)
//
//	reportWriter := exporter.NewReportWriter(logger)
//	err = reportWriter.WriteFile("out/report.xlsx", report)
package exporter
