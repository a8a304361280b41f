package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/iho/gobank/internal/adapter/http/dto"
	"github.com/iho/gobank/internal/adapter/http/middleware"
	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/auth"
	"github.com/iho/gobank/internal/infrastructure/postgres"
)

var errLedgerInconsistent = errors.New("ledger is inconsistent")

type rootOptions struct {
	baseURL string
	token   string
	timeout time.Duration
}

func (o *rootOptions) client() *apiClient {
	return newAPIClient(o.baseURL, o.token, o.timeout)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "gobank",
		Short:         "GoBank CLI tool",
		Long:          `A command line interface for operating the GoBank API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "url", envOr("GOBANK_URL", "http://localhost:8080"), "Base URL of the GoBank API")
	rootCmd.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("GOBANK_TOKEN"), "Bearer token for the API")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(
		newLedgerCmd(opts),
		newAccountsCmd(opts),
		newPaymentsCmd(opts),
		newTokenCmd(),
		newMigrateCmd(),
	)

	return rootCmd
}

func newLedgerCmd(opts *rootOptions) *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	ledgerCmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Check ledger consistency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var report dto.ConsistencyResponse
			if _, err := opts.client().do(cmd.Context(), http.MethodGet, "/api/v1/ledger/consistency", nil, nil, &report, http.StatusConflict); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Total balance:         %s\n", report.TotalBalance.StringFixed(2))
			fmt.Fprintf(out, "Total opening balance: %s\n", report.TotalOpeningBalance.StringFixed(2))
			fmt.Fprintf(out, "Difference:            %s\n", report.Difference.StringFixed(2))
			if !report.Consistent {
				fmt.Fprintln(out, "Consistency check FAILED")
				return errLedgerInconsistent
			}
			fmt.Fprintln(out, "Consistency check PASSED")
			return nil
		},
	})

	ledgerCmd.AddCommand(&cobra.Command{
		Use:   "reconcile",
		Short: "Reconcile every account against its payment history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var report dto.ReconciliationReportResponse
			if _, err := opts.client().do(cmd.Context(), http.MethodGet, "/api/v1/ledger/reconciliation", nil, nil, &report, http.StatusConflict); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Accounts reconciled: %d/%d\n", report.ReconciledAccounts, report.TotalAccounts)
			for _, d := range report.Discrepancies {
				fmt.Fprintf(out, "  %s recorded=%s calculated=%s difference=%s\n",
					d.AccountID, d.RecordedBalance.StringFixed(2), d.CalculatedBalance.StringFixed(2), d.Difference.StringFixed(2))
			}
			if len(report.Discrepancies) > 0 || !report.LedgerConsistent {
				return errLedgerInconsistent
			}
			return nil
		},
	})

	return ledgerCmd
}

func newAccountsCmd(opts *rootOptions) *cobra.Command {
	accountsCmd := &cobra.Command{
		Use:   "accounts",
		Short: "Account operations",
	}

	accountsCmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Show an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var account dto.AccountResponse
			if _, err := opts.client().do(cmd.Context(), http.MethodGet, "/api/v1/accounts/"+url.PathEscape(args[0]), nil, nil, &account); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:      %s\n", account.AccountID)
			fmt.Fprintf(out, "Number:  %s\n", account.AccountNumber)
			fmt.Fprintf(out, "User:    %s\n", account.UserID)
			fmt.Fprintf(out, "Balance: %s\n", account.Balance.StringFixed(2))
			fmt.Fprintf(out, "Status:  %s\n", account.Status)
			return nil
		},
	})

	accountsCmd.AddCommand(&cobra.Command{
		Use:   "reconcile <id>",
		Short: "Reconcile one account against its payment history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result dto.ReconciliationResponse
			if _, err := opts.client().do(cmd.Context(), http.MethodGet, "/api/v1/accounts/"+url.PathEscape(args[0])+"/reconcile", nil, nil, &result); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Recorded:   %s\n", result.RecordedBalance.StringFixed(2))
			fmt.Fprintf(out, "Calculated: %s\n", result.CalculatedBalance.StringFixed(2))
			if !result.Reconciled {
				fmt.Fprintf(out, "Account %s is NOT reconciled (difference %s)\n", result.AccountID, result.Difference.StringFixed(2))
				return errLedgerInconsistent
			}
			fmt.Fprintf(out, "Account %s is reconciled\n", result.AccountID)
			return nil
		},
	})

	return accountsCmd
}

func newPaymentsCmd(opts *rootOptions) *cobra.Command {
	paymentsCmd := &cobra.Command{
		Use:   "payments",
		Short: "Payment operations",
	}

	var (
		from, to, amount, idempotencyKey string
	)
	sendCmd := &cobra.Command{
		Use:   "send",
		Short: "Transfer money between two accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", amount, err)
			}

			headers := map[string]string{}
			if idempotencyKey != "" {
				headers[middleware.IdempotencyKeyHeader] = idempotencyKey
			}

			var receipt dto.TransferResponse
			req := dto.CreatePaymentRequest{Amount: value, FromAccount: from, ToAccount: to}
			if _, err := opts.client().do(cmd.Context(), http.MethodPost, "/api/v1/payments", headers, req, &receipt); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Payment %s %s at %s\n",
				receipt.PaymentID, receipt.Status, receipt.TransactionDate.Format(time.RFC3339))
			return nil
		},
	}
	sendCmd.Flags().StringVar(&from, "from", "", "Source account ID")
	sendCmd.Flags().StringVar(&to, "to", "", "Destination account ID")
	sendCmd.Flags().StringVar(&amount, "amount", "", "Amount to transfer, e.g. 12.50")
	sendCmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "Idempotency key for safe retries")
	for _, name := range []string{"from", "to", "amount"} {
		_ = sendCmd.MarkFlagRequired(name)
	}

	paymentsCmd.AddCommand(sendCmd)
	return paymentsCmd
}

func newTokenCmd() *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "API token operations",
	}

	var (
		subject, role, secret string
		ttl                   time.Duration
	)
	issueCmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a signed API token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return errors.New("a signing secret is required (--secret or JWT_SECRET)")
			}
			r := domain.Role(role)
			if !r.IsValid() {
				return fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, role)
			}

			token, err := auth.NewJWTManager(secret, ttl).Generate(subject, r)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	issueCmd.Flags().StringVar(&subject, "subject", "", "Token subject")
	issueCmd.Flags().StringVar(&role, "role", string(domain.RoleViewer), "Role: admin, operator or viewer")
	issueCmd.Flags().StringVar(&secret, "secret", os.Getenv("JWT_SECRET"), "HMAC signing secret")
	issueCmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	_ = issueCmd.MarkFlagRequired("subject")

	tokenCmd.AddCommand(issueCmd)
	return tokenCmd
}

func newMigrateCmd() *cobra.Command {
	var databaseURL, migrationsPath string

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database schema migrations",
	}
	migrateCmd.PersistentFlags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection URL")
	migrateCmd.PersistentFlags().StringVar(&migrationsPath, "path", envOr("MIGRATIONS_PATH", "internal/infrastructure/postgres/migrations"), "Migrations directory")

	migrator := func(out io.Writer) (*postgres.Migrator, error) {
		if databaseURL == "" {
			return nil, errors.New("a database URL is required (--database-url or DATABASE_URL)")
		}
		logger := zerolog.New(zerolog.ConsoleWriter{Out: out, NoColor: true})
		return postgres.NewMigrator(databaseURL, migrationsPath, logger), nil
	}

	migrateCmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := migrator(cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				return m.Up()
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the last migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := migrator(cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				return m.Down()
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := migrator(cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				version, dirty, err := m.Version()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %v)\n", version, dirty)
				return nil
			},
		},
	)

	return migrateCmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
