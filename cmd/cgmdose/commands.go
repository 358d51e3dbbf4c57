package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"cgmdose/internal/app"
	apperrors "cgmdose/internal/errors"
	"cgmdose/internal/services"
)

func newTransformCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transform",
		Short: "Normalize every export in a directory into CSV files",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := cmd.Flags().GetString("in")
			if err != nil {
				return fmt.Errorf("failed to get in flag: %w", err)
			}
			out, err := cmd.Flags().GetString("out")
			if err != nil {
				return fmt.Errorf("failed to get out flag: %w", err)
			}

			return runWithApplication(cmd, func(ctx context.Context, a *app.Application) error {
				in, out = orDefault(in, a.Config.Ingest.InputDir), orDefault(out, a.Config.Ingest.OutputDir)
				svc, err := a.IngestService(nil, out)
				if err != nil {
					return err
				}
				result, err := svc.Transform(ctx, in)
				if err != nil {
					return err
				}
				printFiles(cmd.OutOrStdout(), result.Files)
				return nil
			})
		},
	}
	cmd.Flags().String("in", "", "input directory of CSV/XLSX exports (default from config)")
	cmd.Flags().String("out", "", "output directory for normalized CSV files (default from config)")
	return cmd
}

func newIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Transform every export in a directory and store the records",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := cmd.Flags().GetString("in")
			if err != nil {
				return fmt.Errorf("failed to get in flag: %w", err)
			}
			out, err := cmd.Flags().GetString("out")
			if err != nil {
				return fmt.Errorf("failed to get out flag: %w", err)
			}
			dryRun, err := cmd.Flags().GetBool("dry-run")
			if err != nil {
				return fmt.Errorf("failed to get dry-run flag: %w", err)
			}

			return runWithApplication(cmd, func(ctx context.Context, a *app.Application) error {
				gateway, err := a.OpenGateway(ctx, dryRun)
				if err != nil {
					return err
				}
				defer gateway.Close()

				svc, err := a.IngestService(gateway, out)
				if err != nil {
					return err
				}
				result, err := svc.Ingest(ctx, orDefault(in, a.Config.Ingest.InputDir))
				if err != nil {
					return err
				}
				printFiles(cmd.OutOrStdout(), result.Files)
				fmt.Fprintf(cmd.OutOrStdout(), "Records: %d, inserted: %d\n", result.Table.Len(), result.Inserted)
				return nil
			})
		},
	}
	cmd.Flags().String("in", "", "input directory of CSV/XLSX exports (default from config)")
	cmd.Flags().String("out", "", "also write normalized CSV files to this directory")
	cmd.Flags().Bool("dry-run", false, "transform and deduplicate in memory without a database")
	return cmd
}

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Compute TDD, ISF and per hour group bolus ratios from stored records",
		RunE: func(cmd *cobra.Command, args []string) error {
			days, err := cmd.Flags().GetInt("days")
			if err != nil {
				return fmt.Errorf("failed to get days flag: %w", err)
			}
			all, err := cmd.Flags().GetBool("all")
			if err != nil {
				return fmt.Errorf("failed to get all flag: %w", err)
			}
			csvPath, err := cmd.Flags().GetString("out")
			if err != nil {
				return fmt.Errorf("failed to get out flag: %w", err)
			}
			xlsxPath, err := cmd.Flags().GetString("xlsx")
			if err != nil {
				return fmt.Errorf("failed to get xlsx flag: %w", err)
			}

			return runWithApplication(cmd, func(ctx context.Context, a *app.Application) error {
				if !cmd.Flags().Changed("days") {
					days = a.Config.Analytics.Days
				}

				gateway, err := a.OpenGateway(ctx, false)
				if err != nil {
					return err
				}
				defer gateway.Close()

				report, err := a.AnalysisService(gateway).Analyze(ctx, services.AnalysisRequest{
					Days:     days,
					All:      all,
					CSVPath:  csvPath,
					XLSXPath: xlsxPath,
				})
				if report.Table.Len() > 0 {
					printReport(cmd.OutOrStdout(), report)
				}
				if apperrors.IsDomainError(err) && report.Table.Len() > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "Warning: %v\n", err)
					return nil
				}
				return err
			})
		},
	}
	cmd.Flags().Int("days", 0, "analyze records since midnight this many days ago (default from config)")
	cmd.Flags().Bool("all", false, "analyze every stored record")
	cmd.Flags().String("out", "", "write the enriched records to this CSV file")
	cmd.Flags().String("xlsx", "", "write the analysis workbook to this XLSX file")
	return cmd
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
