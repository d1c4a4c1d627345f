package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/iho/bankbook/internal/infrastructure/retry"
)

type cliOptions struct {
	baseURL      string
	timeout      time.Duration
	jsonOutput   bool
	retries      int
	retryBackoff time.Duration
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &cliOptions{}
	var c *client

	rootCmd := &cobra.Command{
		Use:           "bankbook-cli",
		Short:         "Bankbook CLI tool",
		Long:          `A command line interface for interacting with the bankbook API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			c = newClient(opts.baseURL, opts.timeout, retry.New(
				retry.WithMaxAttempts(opts.retries),
				retry.WithInitialInterval(opts.retryBackoff),
			))
		},
	}
	rootCmd.SetOut(out)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.baseURL, "url", "http://localhost:8080", "Base URL of the bankbook API")
	flags.DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")
	flags.BoolVar(&opts.jsonOutput, "json", false, "Print raw JSON responses")
	flags.IntVar(&opts.retries, "retries", 3, "Connection attempts before giving up")
	flags.DurationVar(&opts.retryBackoff, "retry-interval", 2*time.Second, "Delay before the first connection retry")

	api := func() *client { return c }

	rootCmd.AddCommand(
		accountsCmd(out, opts, api),
		amountCmd(out, opts, api, "deposit", "Deposit money into an account"),
		amountCmd(out, opts, api, "withdraw", "Withdraw money from an account"),
		feeCmd(out, opts, api),
		historyCmd(out, opts, api),
		nicknameCmd(out, opts, api),
		settingsCmd(out, opts, api),
	)

	return rootCmd
}

func accountsCmd(out io.Writer, opts *cliOptions, api func() *client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Account operations",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List account ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				Accounts []int `json:"accounts"`
			}
			if err := api().do(cmd.Context(), http.MethodGet, "/api/v1/accounts", nil, &resp); err != nil {
				return err
			}
			if opts.jsonOutput {
				return printJSON(out, resp)
			}
			if len(resp.Accounts) == 0 {
				fmt.Fprintln(out, "No accounts")
				return nil
			}
			for _, id := range resp.Accounts {
				fmt.Fprintln(out, id)
			}
			return nil
		},
	}

	var nickname string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var body any
			if nickname != "" {
				body = map[string]string{"nickname": nickname}
			}
			var acc accountView
			if err := api().do(cmd.Context(), http.MethodPost, "/api/v1/accounts", body, &acc); err != nil {
				return err
			}
			return printAccount(out, opts, &acc)
		},
	}
	create.Flags().StringVar(&nickname, "nickname", "", "Display name for the account")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var acc accountView
			if err := api().do(cmd.Context(), http.MethodGet, accountPath(id), nil, &acc); err != nil {
				return err
			}
			return printAccount(out, opts, &acc)
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := api().do(cmd.Context(), http.MethodDelete, accountPath(id), nil, nil); err != nil {
				return err
			}
			fmt.Fprintf(out, "Account %d deleted\n", id)
			return nil
		},
	}

	cmd.AddCommand(list, create, get, del)
	return cmd
}

func amountCmd(out io.Writer, opts *cliOptions, api func() *client, action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <id> <amount>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			amount, err := decimal.NewFromString(args[1])
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[1], err)
			}
			if !amount.IsPositive() {
				return fmt.Errorf("amount must be greater than zero")
			}

			var outcome outcomeView
			err = api().do(cmd.Context(), http.MethodPost, accountPath(id)+"/"+action, map[string]decimal.Decimal{"amount": amount}, &outcome)
			return printOutcome(out, opts, &outcome, err)
		},
	}
}

func feeCmd(out io.Writer, opts *cliOptions, api func() *client) *cobra.Command {
	return &cobra.Command{
		Use:   "fee <id>",
		Short: "Charge the monthly management fee",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var outcome outcomeView
			err = api().do(cmd.Context(), http.MethodPost, accountPath(id)+"/fees/management", nil, &outcome)
			return printOutcome(out, opts, &outcome, err)
		},
	}
}

func historyCmd(out io.Writer, opts *cliOptions, api func() *client) *cobra.Command {
	return &cobra.Command{
		Use:   "history <id>",
		Short: "Show the transaction history of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var history historyView
			if err := api().do(cmd.Context(), http.MethodGet, accountPath(id)+"/transactions", nil, &history); err != nil {
				return err
			}
			if opts.jsonOutput {
				return printJSON(out, history)
			}
			if len(history.Transactions) == 0 {
				fmt.Fprintf(out, "No transactions for account %d\n", id)
				return nil
			}
			for _, tx := range history.Transactions {
				fmt.Fprintf(out, "%s  %-14s %12s\n", tx.Date.Format(time.DateTime), truncate(tx.Type, 14), money(tx.Amount))
			}
			return nil
		},
	}
}

func nicknameCmd(out io.Writer, opts *cliOptions, api func() *client) *cobra.Command {
	return &cobra.Command{
		Use:   "nickname <id> <name>",
		Short: "Rename an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var acc accountView
			if err := api().do(cmd.Context(), http.MethodPut, accountPath(id)+"/nickname", map[string]string{"nickname": args[1]}, &acc); err != nil {
				return err
			}
			return printAccount(out, opts, &acc)
		},
	}
}

func settingsCmd(out io.Writer, opts *cliOptions, api func() *client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Fee settings",
	}

	defaults := &cobra.Command{
		Use:   "default",
		Short: "Show the settings new accounts start with",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var settings settingsView
			if err := api().do(cmd.Context(), http.MethodGet, "/api/v1/settings/default", nil, &settings); err != nil {
				return err
			}
			if opts.jsonOutput {
				return printJSON(out, settings)
			}
			printSettings(out, settings)
			return nil
		},
	}

	set := &cobra.Command{
		Use:   "set <id> <overdraft-fee> <management-fee>",
		Short: "Change the fees of an account",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			overdraft, err := decimal.NewFromString(args[1])
			if err != nil {
				return fmt.Errorf("invalid overdraft fee %q: %w", args[1], err)
			}
			management, err := decimal.NewFromString(args[2])
			if err != nil {
				return fmt.Errorf("invalid management fee %q: %w", args[2], err)
			}

			var acc accountView
			body := settingsView{OverdraftFee: overdraft, ManagementFee: management}
			if err := api().do(cmd.Context(), http.MethodPut, accountPath(id)+"/settings", body, &acc); err != nil {
				return err
			}
			return printAccount(out, opts, &acc)
		},
	}

	cmd.AddCommand(defaults, set)
	return cmd
}

func parseID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid account id %q", raw)
	}
	return id, nil
}

func accountPath(id int) string {
	return "/api/v1/accounts/" + strconv.Itoa(id)
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func printAccount(out io.Writer, opts *cliOptions, acc *accountView) error {
	if opts.jsonOutput {
		return printJSON(out, acc)
	}

	nickname := acc.Nickname
	if nickname == "" {
		nickname = "-"
	}
	fmt.Fprintf(out, "Account %d (%s)\n", acc.ID, truncate(nickname, 32))
	fmt.Fprintf(out, "Balance:      %s\n", money(acc.Balance))
	fmt.Fprintf(out, "Transactions: %d\n", acc.TransactionCount)
	printSettings(out, acc.Settings)
	return nil
}

func printSettings(out io.Writer, s settingsView) {
	fmt.Fprintf(out, "Overdraft fee:  %s\n", money(s.OverdraftFee))
	fmt.Fprintf(out, "Management fee: %s\n", money(s.ManagementFee))
}

// printOutcome reports a transaction. A rejection still shows the balance,
// which includes any overdraft fee the attempt cost.
func printOutcome(out io.Writer, opts *cliOptions, outcome *outcomeView, err error) error {
	if rejection, ok := asRejection(err); ok {
		if opts.jsonOutput {
			printJSON(out, rejection)
		} else if rejection.Account != nil {
			fmt.Fprintf(out, "Rejected (%s). Balance: %s\n", rejection.Result, money(rejection.Account.Balance))
		}
		return fmt.Errorf("transaction rejected: %s", rejection.Result)
	}
	if err != nil {
		return err
	}

	if opts.jsonOutput {
		return printJSON(out, outcome)
	}
	fmt.Fprintf(out, "OK. Balance: %s\n", money(outcome.Account.Balance))
	return nil
}

func printJSON(out io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

// truncate shortens s to n runes, marking the cut with "...".
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}
