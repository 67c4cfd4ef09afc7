package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"finledger/internal/calendar"
	"finledger/internal/server"
	"finledger/internal/services"
)

func parseDay(flag, raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	day, err := calendar.Parse(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: %w", flag, err)
	}
	return day, nil
}

func newProcessDueCommand(open Backend) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "process-due",
		Short: "Fire every recurring schedule due on a day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			day, err := parseDay("date", date)
			if err != nil {
				return err
			}
			return withServices(open, func(svc *server.Services) error {
				result, err := svc.Recurring.ProcessDue(cmd.Context(), day)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), result)
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "day to process as YYYY-MM-DD (default today)")

	return cmd
}

func newEstimateCommand(open Backend) *cobra.Command {
	var (
		horizon    string
		currency   string
		categories []string
		today      string
	)

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Project spending for the current week or month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			day, err := parseDay("today", today)
			if err != nil {
				return err
			}
			var ids []string
			for _, c := range categories {
				if c = strings.TrimSpace(c); c != "" {
					ids = append(ids, c)
				}
			}
			return withServices(open, func(svc *server.Services) error {
				estimate, err := svc.Estimates.Estimate(cmd.Context(), services.EstimateRequest{
					Horizon:     services.Horizon(horizon),
					Currency:    currency,
					CategoryIDs: ids,
					Today:       day,
				})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), estimate)
			})
		},
	}

	cmd.Flags().StringVar(&horizon, "horizon", string(services.HorizonMonth), "week or month")
	cmd.Flags().StringVar(&currency, "currency", "", "report currency (default configured)")
	cmd.Flags().StringSliceVar(&categories, "category", nil, "restrict to these category ids")
	cmd.Flags().StringVar(&today, "today", "", "evaluate as of YYYY-MM-DD")

	return cmd
}

func newReconcileCommand(open Backend) *cobra.Command {
	var fix bool

	cmd := &cobra.Command{
		Use:   "reconcile <account-id>",
		Short: "Compare a stored balance with the sum of its movements",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(open, func(svc *server.Services) error {
				result, err := svc.Ledger.ReconcileBalance(cmd.Context(), args[0], fix)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), result)
			})
		},
	}

	cmd.Flags().BoolVar(&fix, "fix", false, "overwrite the stored balance when it drifted")

	return cmd
}
