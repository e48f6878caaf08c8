// dtctl is the command-line companion to the signal server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/spf13/cobra"

	"github.com/abhay-codes07/dream-trade-bot/internal/indicator"
	"github.com/abhay-codes07/dream-trade-bot/internal/overlay"
	sqlitestore "github.com/abhay-codes07/dream-trade-bot/internal/store/sqlite"
)

var (
	version   = "0.1.0"
	serverURL string
	timeout   time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "dtctl",
		Short:        "Inspect and operate a DreamTrade signal server",
		SilenceUsage: true,
	}

	defaultServer := os.Getenv("SERVER_URL")
	if defaultServer == "" {
		defaultServer = "http://localhost:3000"
	}
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", defaultServer, "Signal server base URL")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(rsiCmd())
	rootCmd.AddCommand(momentumCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(newsCmd())
	rootCmd.AddCommand(liquidateCmd())
	rootCmd.AddCommand(resetDailyCmd())
	rootCmd.AddCommand(journalCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("dtctl version %s\n", version)
		},
	}
}

func rsiCmd() *cobra.Command {
	var period int
	cmd := &cobra.Command{
		Use:   "rsi <close>...",
		Short: "Compute Wilder RSI over closing prices",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			closes, err := parseCloses(args)
			if err != nil {
				return err
			}
			v, ok := indicator.ComputeRSI(closes, period)
			if !ok {
				return fmt.Errorf("need at least %d finite closes, got %d", period+1, len(closes))
			}
			fmt.Printf("RSI(%d) = %.2f\n", period, v)
			return nil
		},
	}
	cmd.Flags().IntVarP(&period, "period", "p", indicator.DefaultRSIPeriod, "RSI lookback")
	return cmd
}

func momentumCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "momentum <close>...",
		Short: "Classify momentum over a price window",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			closes, err := parseCloses(args)
			if err != nil {
				return err
			}
			m := indicator.ComputeMomentum(closes)
			fmt.Printf("%s strength=%d volatility=%.6f\n", m.Label, m.Strength, m.Volatility)
			return nil
		},
	}
}

func historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Print the account document",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext()
			defer cancel()
			acct, err := client().History(ctx)
			if err != nil {
				return err
			}
			return printJSON(acct)
		},
	}
}

func newsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "news <symbol>",
		Short: "Print scored headlines and mood for a symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext()
			defer cancel()
			report, err := client().Report(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(report)
		},
	}
}

func liquidateCmd() *cobra.Command {
	var (
		price  float64
		prices map[string]string
		code   string
		secret string
	)
	cmd := &cobra.Command{
		Use:   "liquidate",
		Short: "Sell every open position",
		RunE: func(cmd *cobra.Command, args []string) error {
			if code == "" && secret != "" {
				c, err := totp.GenerateCode(secret, time.Now())
				if err != nil {
					return fmt.Errorf("generate code: %w", err)
				}
				code = c
			}
			quoted := make(map[string]float64, len(prices))
			for sym, raw := range prices {
				v, err := strconv.ParseFloat(raw, 64)
				if err != nil {
					return fmt.Errorf("invalid price for %s: %w", sym, err)
				}
				quoted[sym] = v
			}
			ctx, cancel := requestContext()
			defer cancel()
			reply, err := client().Liquidate(ctx, price, quoted, code)
			if err != nil {
				return err
			}
			return printJSON(reply)
		},
	}
	cmd.Flags().Float64Var(&price, "price", 0, "Price applied to every position")
	cmd.Flags().StringToStringVar(&prices, "prices", nil, "Per-symbol prices, e.g. AAPL=190.5,MSFT=410")
	cmd.Flags().StringVar(&code, "code", "", "TOTP code")
	cmd.Flags().StringVar(&secret, "totp-secret", os.Getenv("LIQUIDATE_TOTP_SECRET"), "Generate the TOTP code from this secret")
	return cmd
}

func resetDailyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-daily",
		Short: "Reset the daily loss breaker",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext()
			defer cancel()
			snap, err := client().ResetDaily(ctx)
			if err != nil {
				return err
			}
			return printJSON(snap)
		},
	}
}

func journalCmd() *cobra.Command {
	var (
		path  string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Read the local trade journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := sqlitestore.Open(path)
			if err != nil {
				return err
			}
			defer j.Close()

			ctx, cancel := requestContext()
			defer cancel()
			entries, err := j.Recent(ctx, limit)
			if err != nil {
				return err
			}
			realized, err := j.RealizedBySymbol(ctx)
			if err != nil {
				return err
			}
			return printJSON(map[string]any{"entries": entries, "realizedBySymbol": realized})
		},
	}
	cmd.Flags().StringVar(&path, "path", "data/journal.db", "Journal database path")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Entries to show")
	return cmd
}

func client() *overlay.Client { return overlay.NewClient(serverURL, timeout) }

func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func parseCloses(args []string) ([]float64, error) {
	out := make([]float64, 0, len(args))
	for _, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid close %q: %w", a, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
