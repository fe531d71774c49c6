package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/KotFed0t/nse_market_client/config"
	"github.com/KotFed0t/nse_market_client/internal/externalApi/nseApi"
	"github.com/KotFed0t/nse_market_client/internal/reportGenerator/xslsxGenerator"
	"github.com/KotFed0t/nse_market_client/internal/service"
	"github.com/KotFed0t/nse_market_client/internal/service/marketService"
	"github.com/KotFed0t/nse_market_client/utils"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func main() {
	cfg := config.MustLoad()

	setupLogger(cfg)

	slog.Debug("config", slog.Any("cfg", cfg))

	api, err := nseApi.New(cfg)
	if err != nil {
		slog.Error("can't create NseApi client", slog.String("err", err.Error()))
		os.Exit(1)
	}

	reportGenerator := xslsxGenerator.New()

	marketSrv := marketService.New(api, reportGenerator)

	if err := newRootCmd(marketSrv).Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogger(cfg *config.Config) {
	var logLevel slog.Level

	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warning":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	log := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(log)
}

func newRootCmd(srv *marketService.MarketService) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "nsemarket",
		Short:         "Query NSE India market data",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(
		newIndicesCmd(srv),
		newStocksCmd(srv),
		newSnapshotCmd(srv),
		newQuoteCmd(srv),
		newHistoryCmd(srv),
	)

	return rootCmd
}

func newIndicesCmd(srv *marketService.MarketService) *cobra.Command {
	return &cobra.Command{
		Use:   "indices",
		Short: "List all index symbols",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := utils.CreateCtxWithRqID(context.Background())

			indices, err := srv.GetIndices(ctx)
			if err != nil {
				return err
			}

			for _, index := range indices {
				fmt.Fprintln(cmd.OutOrStdout(), index)
			}

			return nil
		},
	}
}

func newStocksCmd(srv *marketService.MarketService) *cobra.Command {
	return &cobra.Command{
		Use:   "stocks <index>",
		Short: "List the constituents of an index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := utils.CreateCtxWithRqID(context.Background())

			constituents, err := srv.GetConstituents(ctx, args[0])
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"SYMBOL", "COMPANY"})
			for _, constituent := range constituents {
				t.AppendRow(table.Row{constituent.StockSymbol, constituent.CompanyName})
			}
			t.Render()

			return nil
		},
	}
}

func newSnapshotCmd(srv *marketService.MarketService) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot <index>",
		Short: "Show a per-constituent price snapshot of an index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := utils.CreateCtxWithRqID(context.Background())

			quotes, err := srv.GetIndexSnapshot(ctx, args[0])
			if err != nil {
				if errors.Is(err, service.ErrNoData) {
					fmt.Fprintln(cmd.OutOrStdout(), "no data")
					return nil
				}
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"SYMBOL", "COMPANY", "OPEN", "HIGH", "LOW", "LAST", "PREV CLOSE", "CHG", "%CHG", "52W H", "52W L", "VOLUME", "VALUE"})
			for _, q := range quotes {
				t.AppendRow(table.Row{
					q.Symbol, q.CompanyName,
					q.Open.String(), q.DayHigh.String(), q.DayLow.String(),
					q.LastPrice.String(), q.PreviousClose.String(),
					q.Change.String(), q.PChange.String(),
					q.YearHigh.String(), q.YearLow.String(),
					q.TotalTradedVolume.String(), q.TotalTradedValue.String(),
				})
			}
			t.Render()

			return nil
		},
	}
}

func newQuoteCmd(srv *marketService.MarketService) *cobra.Command {
	return &cobra.Command{
		Use:   "quote <symbol>",
		Short: "Show the quote for a single stock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := utils.CreateCtxWithRqID(context.Background())

			quote, err := srv.GetStockQuote(ctx, args[0])
			if err != nil {
				if errors.Is(err, service.ErrNoData) {
					fmt.Fprintln(cmd.OutOrStdout(), "no data")
					return nil
				}
				return err
			}

			out, err := json.MarshalIndent(quote, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))

			return nil
		},
	}
}

func newHistoryCmd(srv *marketService.MarketService) *cobra.Command {
	var fromStr, toStr, outFile string

	cmd := &cobra.Command{
		Use:   "history <symbol>",
		Short: "Fetch the daily historical series for a stock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := time.Parse(time.DateOnly, fromStr)
			if err != nil {
				return fmt.Errorf("can't parse --from date: %w", err)
			}
			to, err := time.Parse(time.DateOnly, toStr)
			if err != nil {
				return fmt.Errorf("can't parse --to date: %w", err)
			}

			ctx := utils.CreateCtxWithRqID(context.Background())

			if outFile != "" {
				fileBytes, _, err := srv.BuildHistoricalReport(ctx, args[0], from, to)
				if err != nil {
					if errors.Is(err, service.ErrNoData) {
						fmt.Fprintln(cmd.OutOrStdout(), "no data")
						return nil
					}
					return err
				}
				if err := os.WriteFile(outFile, fileBytes, 0o644); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "report written to %s\n", outFile)
				return nil
			}

			rows, err := srv.GetHistoricalSeries(ctx, args[0], from, to)
			if err != nil {
				if errors.Is(err, service.ErrNoData) {
					fmt.Fprintln(cmd.OutOrStdout(), "no data")
					return nil
				}
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"SYMBOL", "DATE", "SERIES", "OPEN", "HIGH", "LOW", "PREV CLOSE", "LTP", "CLOSE", "VWAP", "52W H", "52W L", "VOLUME", "VALUE", "TRADES"})
			for _, row := range rows {
				t.AppendRow(table.Row{
					row.Symbol, row.Date.Format(time.DateOnly), row.Series,
					nullDecimalString(row.Open), nullDecimalString(row.High), nullDecimalString(row.Low),
					nullDecimalString(row.PrevClose), nullDecimalString(row.LTP), nullDecimalString(row.Close),
					nullDecimalString(row.VWAP), nullDecimalString(row.YearHigh), nullDecimalString(row.YearLow),
					nullDecimalString(row.Volume), nullDecimalString(row.Value), nullDecimalString(row.Trades),
				})
			}
			t.Render()

			return nil
		},
	}

	cmd.Flags().StringVar(&fromStr, "from", "", "range start, YYYY-MM-DD")
	cmd.Flags().StringVar(&toStr, "to", "", "range end, YYYY-MM-DD")
	cmd.Flags().StringVar(&outFile, "out", "", "write an xlsx report to this path instead of printing")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func nullDecimalString(d decimal.NullDecimal) string {
	if !d.Valid {
		return "-"
	}
	return d.Decimal.String()
}
