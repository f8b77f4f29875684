package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"stockdash/internal/dashboard"
	"stockdash/internal/domain"
	"stockdash/pkg/stockdash"
)

func newSymbolsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "symbols",
		Short: "List every symbol the API knows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			symbols, err := a.client.ListSymbols(cmd.Context())
			if err != nil {
				return err
			}
			if len(symbols) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "no stocks available")
				return nil
			}
			out := cmd.OutOrStdout()
			for _, s := range symbols {
				fmt.Fprintln(out, s)
			}
			return nil
		},
	}
}

func newPricesCmd(a *app) *cobra.Command {
	var skip, limit int
	c := &cobra.Command{
		Use:   "prices SYMBOL",
		Short: "Show a page of a symbol's price history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbol := args[0]
			series, err := a.client.GetPriceSeries(cmd.Context(), symbol, skip, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(series.Data) == 0 {
				fmt.Fprintf(out, "No price data for %s\n", symbol)
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(tw, "Date\tClose\tVolume\t")
			for _, p := range series.Data {
				fmt.Fprintf(tw, "%s\t%s\t%s\t\n", dashboard.FormatDate(p.AsOf), dashboard.FormatCurrency(p.CloseUSD), dashboard.FormatVolume(p.Volume))
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			st := dashboard.ComputeChart(series.Data)
			fmt.Fprintf(out, "\n%d of %d points for %s\n", len(series.Data), series.Total, symbol)
			fmt.Fprintf(out, "Current %s  Low %s  High %s  Change %s (%s)\n",
				dashboard.FormatCurrency(st.Current),
				dashboard.FormatCurrency(st.Min),
				dashboard.FormatCurrency(st.Max),
				dashboard.FormatChange(st.PriceChange),
				dashboard.FormatPercent(st.PercentChange),
			)
			return nil
		},
	}
	c.Flags().IntVar(&skip, "skip", 0, "points to skip")
	c.Flags().IntVar(&limit, "limit", stockdash.DefaultLimit, "points to return")
	return c
}

func newPriceAtCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "price-at SYMBOL YYYY-MM-DD",
		Short: "Show the price on one date",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbol := args[0]
			d, err := domain.ParseDate(args[1])
			if err != nil {
				return err
			}
			p, err := a.client.GetPriceAtDate(cmd.Context(), symbol, d.Time)
			if err != nil {
				return fmt.Errorf("%s: %w", dashboard.MsgPointFailed, err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Price on %s: %s\n", dashboard.FormatDate(p.AsOf), dashboard.FormatCurrency(p.CloseUSD))
			fmt.Fprintf(out, "Volume: %s\n", dashboard.FormatInt(p.Volume))
			return nil
		},
	}
}

func newReturnsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "returns SYMBOL START END",
		Short: "Show the cumulative return between two dates",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := domain.ReturnQuery{
				Symbol:    args[0],
				StartDate: strings.TrimSpace(args[1]),
				EndDate:   strings.TrimSpace(args[2]),
			}
			r, err := a.client.CalculateReturn(cmd.Context(), q.Symbol, q)
			if err != nil {
				return fmt.Errorf("%s: %w", dashboard.MsgRangeFailed, err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Cumulative Returns")
			fmt.Fprintf(out, "Start Price: %s (%s)\n", dashboard.FormatCurrency(r.StartPrice), dashboard.FormatDate(r.StartDate))
			fmt.Fprintf(out, "End Price: %s (%s)\n", dashboard.FormatCurrency(r.EndPrice), dashboard.FormatDate(r.EndDate))
			fmt.Fprintf(out, "Cumulative Return: %.2f%%\n", r.CumulativeReturn)
			return nil
		},
	}
}

// compareConcurrency bounds in-flight return requests.
const compareConcurrency = 4

func newCompareCmd(a *app) *cobra.Command {
	var start, end string
	c := &cobra.Command{
		Use:   "compare SYMBOL...",
		Short: "Cumulative returns for several symbols side by side",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			type row struct {
				result *domain.ReturnResult
				err    error
			}
			rows := make([]row, len(args))

			g, gctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(compareConcurrency)
			for i, sym := range args {
				g.Go(func() error {
					q := domain.ReturnQuery{Symbol: sym, StartDate: start, EndDate: end}
					r, err := a.client.CalculateReturn(gctx, sym, q)
					// A failed symbol is reported in its row, not as a run error.
					rows[i] = row{result: r, err: err}
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "Symbol\tStart\tEnd\tReturn")
			for i, r := range rows {
				if r.err != nil {
					fmt.Fprintf(tw, "%s\t-\t-\t%s\n", args[i], dashboard.MsgRangeFailed)
					a.log.Debug("compare failed", "stock", args[i], "error", r.err)
					continue
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", args[i],
					dashboard.FormatCurrency(r.result.StartPrice),
					dashboard.FormatCurrency(r.result.EndPrice),
					dashboard.FormatPercent(r.result.CumulativeReturn),
				)
			}
			return tw.Flush()
		},
	}
	c.Flags().StringVar(&start, "start", "", "start date YYYY-MM-DD")
	c.Flags().StringVar(&end, "end", "", "end date YYYY-MM-DD")
	_ = c.MarkFlagRequired("start")
	_ = c.MarkFlagRequired("end")
	return c
}
