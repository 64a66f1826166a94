package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"givehub/portal-backend/internal/app"
	"givehub/portal-backend/internal/config"
	"givehub/portal-backend/internal/database"
	"givehub/portal-backend/internal/logger"
	"givehub/portal-backend/internal/matching"
)

func (cli *CLI) load() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig(cli.Config)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger.New(cli.LogLevel), nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// withApp wires the full application for commands that need services
func (cli *CLI) withApp(fn func(ctx context.Context, a *app.App) error) error {
	cfg, log, err := cli.load()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, cancel := signalContext()
	defer cancel()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}

type MigrateCmd struct{}

func (cmd *MigrateCmd) Run(env *Environment, cli *CLI) error {
	cfg, log, err := cli.load()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, cancel := signalContext()
	defer cancel()

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(ctx, db, log); err != nil {
		return err
	}
	fmt.Fprintln(env.Stdout, "migrations applied")
	return nil
}

type CreateAdminCmd struct {
	Name     string `required:"" help:"Display name."`
	Email    string `required:"" help:"Login email."`
	Password string `required:"" env:"PORTAL_ADMIN_PASSWORD" help:"Initial password (at least 8 characters)."`
}

func (cmd *CreateAdminCmd) Run(env *Environment, cli *CLI) error {
	return cli.withApp(func(ctx context.Context, a *app.App) error {
		user, err := a.Auth.CreateAdmin(ctx, cmd.Name, cmd.Email, cmd.Password)
		if err != nil {
			return err
		}
		fmt.Fprintf(env.Stdout, "created admin %s (%s)\n", user.Email, user.ID)
		return nil
	})
}

type IssueCertificatesCmd struct {
	Match string `help:"Issue for this match id only."`
	Limit int    `default:"100" help:"Maximum number of matches to process."`
}

func (cmd *IssueCertificatesCmd) Run(env *Environment, cli *CLI) error {
	var matchID uuid.UUID
	if cmd.Match != "" {
		id, err := uuid.Parse(cmd.Match)
		if err != nil {
			return fmt.Errorf("invalid match id %q: %w", cmd.Match, err)
		}
		matchID = id
	}

	return cli.withApp(func(ctx context.Context, a *app.App) error {
		if matchID != uuid.Nil {
			cert, err := a.Certificates.Issue(ctx, matchID)
			if err != nil {
				return err
			}
			fmt.Fprintf(env.Stdout, "certificate %s\n", cert.CertificateNumber)
			return nil
		}

		issued, err := a.Certificates.Backfill(ctx, cmd.Limit)
		if err != nil {
			return err
		}
		fmt.Fprintf(env.Stdout, "issued %d certificates\n", issued)
		return nil
	})
}

type ExportMatchesCmd struct {
	Format string `default:"xlsx" enum:"xlsx,csv" help:"Output format (xlsx, csv)."`
	Status string `help:"Only matches in this status."`
	Search string `help:"Substring filter on item, donor or receiver."`
	Out    string `short:"o" help:"Output file. Defaults to matches.<format>." type:"path"`
}

func (cmd *ExportMatchesCmd) Run(env *Environment, cli *CLI) error {
	out := cmd.Out
	if out == "" {
		out = "matches." + cmd.Format
	}

	return cli.withApp(func(ctx context.Context, a *app.App) error {
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		defer f.Close()

		filter := matching.Filter{Status: strings.ToLower(cmd.Status), Search: cmd.Search}
		if err := matching.Export(ctx, a.Matching, f, filter, cmd.Format); err != nil {
			return err
		}
		fmt.Fprintf(env.Stdout, "wrote %s\n", out)
		return nil
	})
}
