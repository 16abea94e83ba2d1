package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/brightloom/icebridge/server/catalogfs"
	"github.com/brightloom/icebridge/server/config"
	"github.com/brightloom/icebridge/server/parquetio"
	"github.com/brightloom/icebridge/server/reader"
)

func newTableCommand(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Inspect tables in the local warehouse",
	}
	cmd.AddCommand(newTableReadCommand(cfg, logger))
	return cmd
}

func newTableReadCommand(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	var snapshotID int64
	var hasSnapshot bool

	cmd := &cobra.Command{
		Use:   "read <table>",
		Short: "Read a table's current (or a past) snapshot and print the rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog := catalogfs.New(cfg.Warehouse.RootPath, config.ComponentLogger(logger, "catalogfs"))
			r := reader.New(catalog, config.ComponentLogger(logger, "reader"))

			var rows []parquetio.Row
			var err error
			if hasSnapshot {
				rows, err = r.ReadSnapshot(args[0], snapshotID)
			} else {
				rows, err = r.ReadTable(args[0])
			}
			if err != nil {
				pterm.Error.Printfln("failed to read %s: %v", args[0], err)
				return err
			}

			renderRows(rows)
			pterm.Info.Printfln("%d rows", len(rows))
			return nil
		},
	}

	cmd.Flags().Int64Var(&snapshotID, "snapshot", 0, "read a specific past snapshot instead of the current one")
	cmd.PreRun = func(cmd *cobra.Command, args []string) {
		hasSnapshot = cmd.Flags().Changed("snapshot")
	}
	return cmd
}

func renderRows(rows []parquetio.Row) {
	if len(rows) == 0 {
		return
	}

	headers := make([]string, 0, len(rows[0]))
	for name := range rows[0] {
		headers = append(headers, name)
	}
	sort.Strings(headers)

	table := make(pterm.TableData, 0, len(rows)+1)
	table = append(table, headers)
	for _, row := range rows {
		record := make([]string, len(headers))
		for i, name := range headers {
			record[i] = formatCell(row[name])
		}
		table = append(table, record)
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(table).Render()
}

func formatCell(v any) string {
	if v == nil {
		return ""
	}
	switch t := v.(type) {
	case []byte:
		return strconv.Quote(string(t))
	default:
		return fmt.Sprintf("%v", t)
	}
}
