package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/brightloom/icebridge/server/catalogfs"
	"github.com/brightloom/icebridge/server/config"
	"github.com/brightloom/icebridge/server/parquetio"
	"github.com/brightloom/icebridge/server/reader"
	"github.com/brightloom/icebridge/server/relational"
	syncpkg "github.com/brightloom/icebridge/server/sync"
	"github.com/brightloom/icebridge/server/tablewriter"
	"github.com/brightloom/icebridge/server/transfer"
	"github.com/brightloom/icebridge/server/watermark"
)

func newTransferCommand(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Validate or run a transfer configuration document",
	}
	cmd.AddCommand(newTransferValidateCommand(), newTransferRunCommand(cfg, logger))
	return cmd
}

func newTransferValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config.yaml>",
		Short: "Parse and validate a transfer configuration without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			tcfg, err := transfer.Parse(doc)
			if err != nil {
				pterm.Error.Printfln("invalid transfer configuration: %v", err)
				return err
			}
			pterm.Success.Printfln("%s is valid (%s)", args[0], tcfg.TransferType)
			return nil
		},
	}
}

func newTransferRunCommand(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "run <config.yaml>",
		Short: "Execute a transfer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			tcfg, err := transfer.Parse(doc)
			if err != nil {
				pterm.Error.Printfln("invalid transfer configuration: %v", err)
				return err
			}

			spinner, _ := pterm.DefaultSpinner.Start(fmt.Sprintf("running %s", tcfg.TransferType))
			start := time.Now()

			summary, err := runTransfer(cmd.Context(), cfg, logger, tcfg)
			if err != nil {
				spinner.Fail(err.Error())
				return err
			}
			spinner.Success(fmt.Sprintf("%s complete in %s", tcfg.TransferType, time.Since(start).Round(time.Millisecond)))

			renderSummary(summary)
			return nil
		},
	}
}

// transferSummary is the result table printed after a run, regardless of
// which transfer type produced it.
type transferSummary struct {
	RowsExtracted int
	Inserted      int
	Updated       int
	NewSnapshotID *int64
}

func renderSummary(s transferSummary) {
	snapshot := "-"
	if s.NewSnapshotID != nil {
		snapshot = fmt.Sprintf("%d", *s.NewSnapshotID)
	}
	table := pterm.TableData{
		{"rows extracted", "inserted", "updated", "new snapshot"},
		{fmt.Sprintf("%d", s.RowsExtracted), fmt.Sprintf("%d", s.Inserted), fmt.Sprintf("%d", s.Updated), snapshot},
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(table).Render()
}

func runTransfer(ctx context.Context, cfg *config.Config, logger zerolog.Logger, tcfg *transfer.Config) (transferSummary, error) {
	switch tcfg.TransferType {
	case transfer.SQLToSQL:
		return runSQLToSQL(ctx, tcfg)
	case transfer.SQLToParquet:
		return runSQLToParquet(ctx, tcfg)
	case transfer.ParquetToSQL:
		return runParquetToSQL(ctx, tcfg)
	case transfer.SQLToIceberg:
		return runSQLToIceberg(ctx, cfg, logger, tcfg)
	case transfer.IcebergToSQL:
		return runIcebergToSQL(ctx, cfg, logger, tcfg)
	case transfer.SQLToIcebergIncremental:
		return runSQLToIcebergIncremental(ctx, cfg, logger, tcfg)
	default:
		return transferSummary{}, fmt.Errorf("unsupported transfer type %q", tcfg.TransferType)
	}
}

func runSQLToSQL(ctx context.Context, tcfg *transfer.Config) (transferSummary, error) {
	src, err := relational.Open(tcfg.Source.Connection)
	if err != nil {
		return transferSummary{}, err
	}
	defer src.Close()
	dst, err := relational.Open(tcfg.Destination.Connection)
	if err != nil {
		return transferSummary{}, err
	}
	defer dst.Close()

	rows, err := relational.Extract(ctx, src, tcfg.Source.Table, tcfg.WhereClause)
	if err != nil {
		return transferSummary{}, err
	}
	n, err := relational.Load(ctx, dst, tcfg.Destination.Table, rows)
	if err != nil {
		return transferSummary{}, err
	}
	return transferSummary{RowsExtracted: len(rows), Inserted: n}, nil
}

func runSQLToParquet(ctx context.Context, tcfg *transfer.Config) (transferSummary, error) {
	src, err := relational.Open(tcfg.Source.Connection)
	if err != nil {
		return transferSummary{}, err
	}
	defer src.Close()

	schema, err := relational.InferSchema(ctx, src, tcfg.Source.Table)
	if err != nil {
		return transferSummary{}, err
	}
	rows, err := relational.Extract(ctx, src, tcfg.Source.Table, tcfg.WhereClause)
	if err != nil {
		return transferSummary{}, err
	}
	pw, err := parquetio.NewWriter(tcfg.Destination.ParquetPath, schema)
	if err != nil {
		return transferSummary{}, err
	}
	for _, row := range rows {
		if err := pw.WriteRow(row); err != nil {
			return transferSummary{}, err
		}
	}
	if _, err := pw.Close(); err != nil {
		return transferSummary{}, err
	}
	return transferSummary{RowsExtracted: len(rows), Inserted: len(rows)}, nil
}

// runParquetToSQL reads the Parquet file back using the destination
// table's own column types as the field-ID decoding schema — the
// destination must already have the matching columns in declaration
// order, the same order-based field-ID contract the writer and
// parquetio.ReadRows use throughout.
func runParquetToSQL(ctx context.Context, tcfg *transfer.Config) (transferSummary, error) {
	dst, err := relational.Open(tcfg.Destination.Connection)
	if err != nil {
		return transferSummary{}, err
	}
	defer dst.Close()

	schema, err := relational.InferSchema(ctx, dst, tcfg.Destination.Table)
	if err != nil {
		return transferSummary{}, err
	}
	rows, err := parquetio.ReadRows(tcfg.Source.ParquetPath, schema)
	if err != nil {
		return transferSummary{}, err
	}
	n, err := relational.Load(ctx, dst, tcfg.Destination.Table, rows)
	if err != nil {
		return transferSummary{}, err
	}
	return transferSummary{RowsExtracted: len(rows), Inserted: n}, nil
}

func runSQLToIceberg(ctx context.Context, cfg *config.Config, logger zerolog.Logger, tcfg *transfer.Config) (transferSummary, error) {
	src, err := relational.Open(tcfg.Source.Connection)
	if err != nil {
		return transferSummary{}, err
	}
	defer src.Close()

	schema, err := relational.InferSchema(ctx, src, tcfg.Source.Table)
	if err != nil {
		return transferSummary{}, err
	}
	rows, err := relational.Extract(ctx, src, tcfg.Source.Table, tcfg.WhereClause)
	if err != nil {
		return transferSummary{}, err
	}

	catalog := catalogfs.New(cfg.Warehouse.RootPath, config.ComponentLogger(logger, "catalogfs"))
	writer := tablewriter.New(catalog, config.ComponentLogger(logger, "tablewriter"))

	var res tablewriter.AppendResult
	if catalog.Exists(tcfg.Destination.IcebergName) {
		res, err = writer.Append(tcfg.Destination.IcebergName, rows)
	} else {
		res, err = writer.WriteTable(tcfg.Destination.IcebergName, schema, rows)
	}
	if err != nil {
		return transferSummary{}, err
	}
	snapshot := res.NewSnapshotID
	return transferSummary{RowsExtracted: len(rows), Inserted: res.RowsAppended, NewSnapshotID: &snapshot}, nil
}

func runIcebergToSQL(ctx context.Context, cfg *config.Config, logger zerolog.Logger, tcfg *transfer.Config) (transferSummary, error) {
	catalog := catalogfs.New(cfg.Warehouse.RootPath, config.ComponentLogger(logger, "catalogfs"))
	r := reader.New(catalog, config.ComponentLogger(logger, "reader"))

	rows, err := r.ReadTable(tcfg.Source.IcebergName)
	if err != nil {
		return transferSummary{}, err
	}
	dst, err := relational.Open(tcfg.Destination.Connection)
	if err != nil {
		return transferSummary{}, err
	}
	defer dst.Close()
	n, err := relational.Load(ctx, dst, tcfg.Destination.Table, rows)
	if err != nil {
		return transferSummary{}, err
	}
	return transferSummary{RowsExtracted: len(rows), Inserted: n}, nil
}

func runSQLToIcebergIncremental(ctx context.Context, cfg *config.Config, logger zerolog.Logger, tcfg *transfer.Config) (transferSummary, error) {
	if tcfg.Destination.Incremental == nil {
		return transferSummary{}, fmt.Errorf("destination.iceberg.incremental is required for %s", tcfg.TransferType)
	}

	src, err := relational.Open(tcfg.Source.Connection)
	if err != nil {
		return transferSummary{}, err
	}
	defer src.Close()

	var dst *relational.Connection
	if tcfg.Destination.Connection != "" {
		dst, err = relational.Open(tcfg.Destination.Connection)
		if err != nil {
			return transferSummary{}, err
		}
		defer dst.Close()
	}

	catalog := catalogfs.New(cfg.Warehouse.RootPath, config.ComponentLogger(logger, "catalogfs"))
	writer := tablewriter.New(catalog, config.ComponentLogger(logger, "tablewriter"))

	store, err := watermark.New(cfg.Watermark.Dir)
	if err != nil {
		return transferSummary{}, err
	}

	if !catalog.Exists(tcfg.Destination.IcebergName) {
		return transferSummary{}, fmt.Errorf("iceberg table %q must be initialized with a full load before incremental sync", tcfg.Destination.IcebergName)
	}

	coordinator := syncpkg.New(writer, store, src, dst, config.ComponentLogger(logger, "sync"))
	result, err := coordinator.Run(ctx, tcfg.Destination.IcebergName, *tcfg.Destination.Incremental)
	if err != nil {
		return transferSummary{}, err
	}
	return transferSummary{
		RowsExtracted: result.RowsExtracted,
		Inserted:      result.Inserted,
		Updated:       result.Updated,
		NewSnapshotID: result.NewSnapshotID,
	}, nil
}
