// Package dataprocessing normalizes CGM and insulin-pump exports into the
// canonical record table.
//
// # Architecture
//
// A Pipeline runs a fixed sequence of steps for every source file. The
// format-specific parts are supplied by an Adapter:
//
//  1. Read: parse the source into a RawFrame (Adapter.Read)
//  2. Select: keep only Adapter.RequiredColumns, skipping absent ones
//  3. Rename: map source names to canonical names (Adapter.Rename)
//  4. Datetime: type the datetime column, dropping unparsable rows
//  5. Hours: derive hour and hour_group from the timestamp
//  6. Finish: adapter-specific columns, zero-fill, canonical order (Adapter.Finish)
//
// # Usage
//
//	pipeline := dataprocessing.NewPipeline(clarity.New(),
//	    dataprocessing.WithLogger(logger))
//	table, err := pipeline.TransformFile(ctx, "Clarity_Export.csv")
//
// # Error Handling
//
// A source that cannot be parsed as a table, or that lacks the adapter's
// timestamp column, fails with a FORMAT error. A required field holding an
// uninterpretable value fails with a PARSE error. Neither produces partial
// output.
//
// # Concurrency
//
// A Pipeline holds no mutable state, so one instance may transform many
// sources concurrently; the hour grouping table is read-only.
package dataprocessing
