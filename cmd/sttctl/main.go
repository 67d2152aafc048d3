// Package main provides the operator CLI for speechcheck.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"speechcheck/internal/config"
	"speechcheck/internal/database"
	"speechcheck/internal/repository"
	"speechcheck/internal/security"
	"speechcheck/internal/seed"
	"speechcheck/internal/service"
	"speechcheck/internal/validation"
)

var (
	seedIfEmpty bool

	statsGroupBy string

	exportType  string
	exportOut   string
	exportEmail string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "sttctl",
		Short:        "Manage a speechcheck database",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newSeedCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newHashPasswordCmd())
	rootCmd.AddCommand(newTokenCmd())

	return rootCmd
}

// app bundles what the database-backed commands need
type app struct {
	cfg     *config.Config
	db      *database.DB
	catalog *service.CatalogService
	stats   *service.StatsService
	export  *service.ExportService
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	if err := db.RunMigrations(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	recognitionRepo := repository.NewRecognitionRepository(db)
	stats := service.NewStatsService(repository.NewStatsRepository(db))
	return &app{
		cfg:     cfg,
		db:      db,
		catalog: service.NewCatalogService(repository.NewUserRepository(db), repository.NewTargetRepository(db)),
		stats:   stats,
		export:  service.NewExportService(recognitionRepo, stats),
	}, nil
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to close db: %v\n", err)
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "migrations applied (%s)\n", a.cfg.DatabaseType)
			return nil
		},
	}
}

func newSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed <file.toml>",
		Short: "Load target items from a TOML item bank",
		Args:  cobra.ExactArgs(1),
		RunE:  runSeedCmd,
	}
	cmd.Flags().BoolVar(&seedIfEmpty, "if-empty", false, "only seed when the catalog has no items")
	return cmd
}

func runSeedCmd(cmd *cobra.Command, args []string) error {
	bank, err := seed.LoadFile(args[0])
	if err != nil {
		return err
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.catalog.SeedBank(cmd.Context(), bank, seedIfEmpty)
	if err != nil {
		return err
	}
	if n == 0 && seedIfEmpty {
		fmt.Fprintln(cmd.OutOrStdout(), "catalog already has items, nothing seeded")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d items\n", n)
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print accuracy statistics",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsGroupBy, "group-by", "sentence", "sentence, user or hour")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	stats, err := a.stats.GetStats(cmd.Context(), statsGroupBy)
	if err != nil {
		return err
	}
	renderStats(cmd.OutOrStdout(), stats)
	return nil
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export results or stats as CSV",
		Args:  cobra.NoArgs,
		RunE:  runExportCmd,
	}
	cmd.Flags().StringVar(&exportType, "type", service.ExportResults, "results or stats")
	cmd.Flags().StringVar(&exportOut, "out", "", "output file (default: stdout, or the export filename with --email)")
	cmd.Flags().StringVar(&exportEmail, "email", "", "email the export to this address via SES")
	return cmd
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	if exportEmail != "" {
		if err := validation.ValidateEmail(exportEmail); err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	data, err := a.export.ExportCSV(ctx, exportType)
	if err != nil {
		return err
	}
	filename := service.ExportFilename(exportType, time.Now())

	if exportEmail != "" {
		if err := emailExport(ctx, a.cfg, filename, data); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "sent %s to %s\n", filename, exportEmail)
	}

	switch {
	case exportOut != "":
		if err := os.WriteFile(exportOut, data, 0o644); err != nil {
			return fmt.Errorf("failed to write export: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", exportOut)
	case exportEmail == "":
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	return nil
}

func emailExport(ctx context.Context, cfg *config.Config, filename string, data []byte) error {
	emailService, err := service.NewEmailService(ctx, cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, !cfg.IsProduction())
	if err != nil {
		return err
	}
	if !emailService.IsEnabled() {
		return errors.New("SES_FROM_EMAIL must be set to email exports")
	}
	return emailService.SendReport(ctx, service.Report{
		To:             strings.TrimSpace(exportEmail),
		Subject:        "Speech recognition export: " + filename,
		Body:           fmt.Sprintf("Attached is the %s export generated at %s.", exportType, time.Now().UTC().Format(time.RFC1123)),
		AttachmentName: filename,
		Attachment:     data,
	})
}

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password",
		Short: "Read a password from stdin and print its bcrypt hash for OPERATOR_PASSWORD_HASH",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := readLine(cmd.InOrStdin())
			if err != nil {
				return err
			}
			if err := validation.ValidatePassword(password); err != nil {
				return err
			}
			hash, err := security.HashPassword(password)
			if err != nil {
				return fmt.Errorf("failed to hash password: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func newTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Issue an operator token for scripted API access",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			authService, err := service.NewAuthService(cfg.OperatorPasswordHash, cfg.OperatorTokenSecret, cfg.TokenTTL)
			if err != nil {
				return err
			}
			token, expiresAt, err := authService.IssueToken()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", expiresAt.UTC().Format(time.RFC3339))
			return nil
		},
	}
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
