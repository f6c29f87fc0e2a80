package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/nconklindev/workerimport/internal/config"
	"github.com/nconklindev/workerimport/internal/importer"
	"github.com/nconklindev/workerimport/internal/logging"
	"github.com/nconklindev/workerimport/internal/server"
	"github.com/nconklindev/workerimport/internal/store"
	"github.com/nconklindev/workerimport/internal/template"
	"github.com/nconklindev/workerimport/internal/types"
	"github.com/nconklindev/workerimport/internal/ui"
)

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openStore returns the worker repository and a release func. The in-memory
// store is used when memory is set or no DATABASE_URL is configured.
func openStore(ctx context.Context, cfg *config.Config, memory bool, logger zerolog.Logger) (importer.Creator, func(), error) {
	if memory || cfg.DatabaseURL == "" {
		logger.Warn().Msg("using in-memory worker store; nothing will be persisted")
		return store.NewMemoryRepository(), func() {}, nil
	}

	pool, err := store.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, nil, err
	}
	logger.Info().Msg("connected to database")
	return store.NewPostgresRepository(pool), pool.Close, nil
}

func newImporter(cfg *config.Config, creator importer.Creator, logger zerolog.Logger) *importer.Importer {
	return importer.New(creator, importer.Config{
		Concurrency:   cfg.ImportConcurrency,
		CreateTimeout: cfg.CreateTimeout,
		OnComplete: func(success int) {
			logger.Info().Int("created", success).Msg("workers created")
		},
	}, logger)
}

func target(cfg *config.Config) importer.Target {
	return importer.Target{OrganizationID: cfg.Organization(), SiteID: cfg.Site()}
}

func tuiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Pick, review and import a roster interactively (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI()
		},
	}
}

func runTUI() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// The alt screen owns stdout, so logs go to LOG_FILE or nowhere.
	logger, closeLog, err := logging.ForTUI(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	creator, release, err := openStore(context.Background(), cfg, false, logger)
	if err != nil {
		return err
	}
	defer release()

	model := ui.InitialModel(ui.Options{
		Importer:    newImporter(cfg, creator, logger),
		Target:      target(cfg),
		PreviewRows: cfg.PreviewRows,
		Logger:      logger,
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func importCmd() *cobra.Command {
	var (
		yes    bool
		dryRun bool
		memory bool
	)

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Validate a roster file and create its workers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := logging.New(cfg, os.Stderr)

			session, err := importer.Load(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printPreview(out, session, cfg.PreviewRows)

			if dryRun {
				return nil
			}
			if session.Summary().Valid == 0 {
				return importer.ErrNothingToImport
			}
			tgt := target(cfg)
			if err := tgt.Validate(); err != nil {
				return fmt.Errorf("%w: set ORGANIZATION_ID", err)
			}
			if !yes && !confirm(cmd.InOrStdin(), out, session.Summary().Valid) {
				fmt.Fprintln(out, "Import aborted.")
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			creator, release, err := openStore(ctx, cfg, memory, logger)
			if err != nil {
				return err
			}
			defer release()

			bar := progress.New(progress.WithDefaultGradient(), progress.WithWidth(40))
			errOut := cmd.ErrOrStderr()
			result, err := session.Commit(ctx, newImporter(cfg, creator, logger), tgt, func(p int) {
				fmt.Fprintf(errOut, "\r%s", bar.ViewAs(float64(p)/100))
			})
			fmt.Fprintln(errOut)

			printResult(out, result)
			return err
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Import without asking for confirmation")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Stop after the preview")
	cmd.Flags().BoolVar(&memory, "memory", false, "Use an in-memory store instead of DATABASE_URL")
	return cmd
}

func printPreview(w io.Writer, session *importer.Session, n int) {
	sum := session.Summary()
	fmt.Fprintf(w, "File: %s\n", session.FileName)
	fmt.Fprintf(w, "Rows: %d  Valid: %d  With errors: %d\n", sum.Total, sum.Valid, sum.Invalid)
	if ignored := session.IgnoredHeaders(); len(ignored) > 0 {
		fmt.Fprintf(w, "Ignored columns: %s\n", strings.Join(ignored, ", "))
	}
	fmt.Fprintln(w)

	for _, r := range session.Preview(n) {
		status := "ok"
		if !r.IsValid {
			status = strings.Join(r.Errors, "; ")
		}
		fmt.Fprintf(w, "  %4d  %-30s  %-18s  %s\n", r.Row, r.FullName(), r.Puesto, status)
	}
	if shown := len(session.Preview(n)); shown < sum.Total {
		fmt.Fprintf(w, "  ... %d more rows\n", sum.Total-shown)
	}
	fmt.Fprintln(w)
}

func confirm(in io.Reader, out io.Writer, valid int) bool {
	fmt.Fprintf(out, "Import %d valid workers? [y/N] ", valid)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func printResult(w io.Writer, result types.ImportResult) {
	fmt.Fprintf(w, "Created: %d  Failed: %d", result.Success, result.Failed)
	if result.Skipped > 0 {
		fmt.Fprintf(w, "  Not attempted: %d", result.Skipped)
	}
	fmt.Fprintln(w)
	for _, f := range result.Failures {
		fmt.Fprintf(w, "  row %d: %s\n", f.Row, f.Reason)
	}
}

func templateCmd() *cobra.Command {
	var (
		xlsx bool
		dir  string
	)

	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write the blank roster template",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := template.Save(dir, xlsx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Template written to %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&xlsx, "xlsx", false, "Write an Excel workbook instead of CSV")
	cmd.Flags().StringVarP(&dir, "output", "o", ".", "Directory to write the template into")
	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the import HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := logging.New(cfg, os.Stdout)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			creator, release, err := openStore(ctx, cfg, false, logger)
			if err != nil {
				logger.Error().Err(err).Msg("failed to connect to database")
				return err
			}
			defer release()

			handler := server.NewImportHandler(newImporter(cfg, creator, logger), target(cfg), cfg.PreviewRows, logger)
			e := server.New(handler, server.Options{JWTSecret: []byte(cfg.JWTSecret), Logger: logger})
			if cfg.JWTSecret == "" {
				logger.Warn().Msg("JWT_SECRET not set; /api routes are unauthenticated")
			}

			return server.Run(ctx, e, ":"+cfg.Port, logger)
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the worker table in DATABASE_URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return errors.New("DATABASE_URL is required")
			}
			logger := logging.New(cfg, os.Stdout)

			ctx := cmd.Context()
			pool, err := store.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := store.Migrate(ctx, pool); err != nil {
				return err
			}
			logger.Info().Msg("migrations applied")
			return nil
		},
	}
}
