package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/simaogato/wealthsim-backend/internal/app"
	"github.com/simaogato/wealthsim-backend/internal/config"
	"github.com/simaogato/wealthsim-backend/internal/domain"
	"github.com/simaogato/wealthsim-backend/internal/platform/logging"
	"github.com/simaogato/wealthsim-backend/internal/usecase/refresh"
)

func main() {
	var verbose bool

	root := &cobra.Command{
		Use:          "wealthctl",
		Short:        "Inspect and drive a local wealth simulation",
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log component activity to stderr")

	root.AddCommand(
		newNetWorthCmd(&verbose),
		newAddCmd(&verbose),
		newRemoveCmd(&verbose),
		newPriceCmd(&verbose),
		newCashCmd(&verbose),
		newRefreshCmd(&verbose),
		newResetCmd(&verbose),
		newOwnershipCmd(&verbose),
		newAdvanceCmd(&verbose),
		newHistoryCmd(&verbose),
	)

	if err := root.Execute(); err != nil {
		printError(fmt.Sprintf("error: %v", err))
		os.Exit(1)
	}
}

// withApp opens the configured store, starts the simulation and runs fn
func withApp(ctx context.Context, verbose bool, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	var w io.Writer = io.Discard
	if verbose {
		w = os.Stderr
	}

	store, closer, err := app.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	opts, err := app.OptionsFromConfig(cfg, store)
	if err != nil {
		return err
	}
	opts.Logger = logging.New(w, logging.FormatText, level)

	a := app.New(opts)
	defer a.Close()
	a.Start(ctx)
	return fn(ctx, a)
}

// settle forces a refresh so the next invocation reads fresh totals
func settle(ctx context.Context, a *app.App) refresh.Result {
	return a.Refresh.TriggerRefresh(ctx, refresh.Request{Source: "cli", Force: true})
}

func parseDecimal(name, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q", name, s)
	}
	return d, nil
}

func newNetWorthCmd(verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "networth",
		Short: "Show the net worth breakdown",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), *verbose, func(ctx context.Context, a *app.App) error {
				d, err := a.Dashboard.GetDashboard(ctx)
				if err != nil {
					return err
				}
				printDashboard(cmd.OutOrStdout(), d)
				return nil
			})
		},
	}
}

func newAddCmd(verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:     "add <category> <json>",
		Short:   "Add or merge an asset record",
		Example: `  wealthctl add stocks '{"id":"AAPL","symbol":"AAPL","shares":"10","purchasePrice":"150","currentPrice":"190"}'`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			category, err := domain.ParseCategory(args[0])
			if err != nil {
				return err
			}
			record, err := domain.DecodeRecord(category, []byte(args[1]))
			if domain.Coerced(record, err) {
				printWarn(err.Error())
			} else if err != nil {
				return err
			}
			return withApp(cmd.Context(), *verbose, func(ctx context.Context, a *app.App) error {
				id, err := a.Ledger.AddRecord(ctx, record)
				if err != nil {
					return err
				}
				res := settle(ctx, a)
				printSuccess(fmt.Sprintf("Stored %s/%s. Net worth %s", category, id, formatMoney(res.Snapshot.TotalNetWorth)))
				return nil
			})
		},
	}
}

func newRemoveCmd(verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <category> <id>",
		Short: "Remove an asset record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			category, err := domain.ParseCategory(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), *verbose, func(ctx context.Context, a *app.App) error {
				if err := a.Ledger.RemoveRecord(ctx, category, args[1]); err != nil {
					return err
				}
				settle(ctx, a)
				printSuccess(fmt.Sprintf("Removed %s/%s", category, args[1]))
				return nil
			})
		},
	}
}

func newPriceCmd(verbose *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "price",
		Short: "Read or move asset prices",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Show the current price of an asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), *verbose, func(ctx context.Context, a *app.App) error {
				price := a.Ledger.AssetPrice(ctx, args[0])
				if price.IsZero() {
					printWarn(fmt.Sprintf("%s has no known price", args[0]))
					return nil
				}
				printInfo(fmt.Sprintf("%s %s", accent.Sprint(strings.ToUpper(args[0])), formatMoney(price)))
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <stocks|crypto> <id> <quantity> <price>",
		Short: "Update the quantity and price of a stock or crypto holding",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := parseDecimal("quantity", args[2])
			if err != nil {
				return err
			}
			price, err := parseDecimal("price", args[3])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), *verbose, func(ctx context.Context, a *app.App) error {
				switch domain.Category(args[0]) {
				case domain.CategoryStocks:
					err = a.Ledger.UpdateStockPrice(ctx, args[1], qty, price)
				case domain.CategoryCrypto:
					err = a.Ledger.UpdateCryptoPrice(ctx, args[1], qty, price)
				default:
					return fmt.Errorf("prices move only for stocks or crypto, got %q", args[0])
				}
				if err != nil {
					return err
				}
				settle(ctx, a)
				printSuccess(fmt.Sprintf("Updated %s", args[1]))
				return nil
			})
		},
	})
	return cmd
}

func newCashCmd(verbose *bool) *cobra.Command {
	var set bool
	cmd := &cobra.Command{
		Use:   "cash <amount>",
		Short: "Add to the character's cash, or replace it with --set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseDecimal("amount", args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), *verbose, func(ctx context.Context, a *app.App) error {
				if set {
					a.Character.SetWealth(ctx, amount)
				} else {
					a.Character.UpdateCash(ctx, amount)
				}
				settle(ctx, a)
				printSuccess(fmt.Sprintf("Cash is now %s", formatMoney(a.Character.Wealth())))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&set, "set", false, "replace the balance instead of adding to it")
	return cmd
}

func newRefreshCmd(verbose *bool) *cobra.Command {
	var view string
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Run the refresh pipeline now",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), *verbose, func(ctx context.Context, a *app.App) error {
				res := a.Refresh.TriggerRefresh(ctx, refresh.Request{Source: "cli", View: view, Force: true})
				printRefresh(res)
				return res.Err
			})
		},
	}
	cmd.Flags().StringVar(&view, "view", "", "view requesting the refresh")
	return cmd
}

func newResetCmd(verbose *bool) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset every store to a new game",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("reset erases the saved game, pass --yes to confirm")
			}
			return withApp(cmd.Context(), *verbose, func(ctx context.Context, a *app.App) error {
				report := a.PerformCompleteReset(ctx)
				printReset(report)
				if !report.Clean() {
					return fmt.Errorf("%d phases failed verification", len(report.Failures))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	return cmd
}

func newOwnershipCmd(verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "ownership",
		Short: "Show the value of teams and horses",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), *verbose, func(ctx context.Context, a *app.App) error {
				printOwnership(cmd.OutOrStdout(), a.Ownership.OwnershipBreakdown(ctx))
				return nil
			})
		},
	}
}

func newAdvanceCmd(verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "advance [days]",
		Short: "Advance the game clock",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			days := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n <= 0 {
					return fmt.Errorf("days must be a positive integer")
				}
				days = n
			}
			return withApp(cmd.Context(), *verbose, func(ctx context.Context, a *app.App) error {
				day, err := a.Clock.Advance(ctx, days)
				if err != nil {
					return err
				}
				settle(ctx, a)
				printSuccess(fmt.Sprintf("Day %d (%s)", day, a.Clock.Date().Format("2006-01-02")))
				return nil
			})
		},
	}
}

func newHistoryCmd(verbose *bool) *cobra.Command {
	var limit int
	var events bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded net worth points or the activity journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), *verbose, func(ctx context.Context, a *app.App) error {
				if events {
					printEvents(cmd.OutOrStdout(), a.Journal.Recent(limit))
					return nil
				}
				printHistory(cmd.OutOrStdout(), lastPoints(a.Ledger.History(), limit))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of entries, 0 for all")
	cmd.Flags().BoolVar(&events, "events", false, "show the activity journal instead")
	return cmd
}
