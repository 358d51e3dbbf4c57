// Package services coordinates the batch workflows of cgmdose.
//
// IngestService turns a directory of CGM exports into one normalized table
// and persists it:
//
//	validate input dir -> discover exports -> transform (errgroup, N workers)
//	    -> optional per-file CSV -> merge newest-first -> Gateway.InsertRecords
//
// AnalysisService reads a window of stored records, runs the dosing
// analytics and optionally exports the enriched table (CSV) and the hour
// group report (XLSX).
//
// Both services take their collaborators through constructors and log with
// the injected *slog.Logger. Storage is any storage.Gateway, so tests and
// dry runs use the in-memory gateway.
package services
