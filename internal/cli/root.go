package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/s1natex/smart-tasks/internal/config"
	"github.com/s1natex/smart-tasks/internal/insights"
	"github.com/s1natex/smart-tasks/internal/tasks"
)

// NewRootCmd builds the smart-tasks command tree.
func NewRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "smart-tasks",
		Short:        "Task manager with AI-assisted insights",
		Long:         `Smart Tasks keeps a prioritized task list and asks a text-generation model for insights, categories, titles and duration estimates.`,
		Version:      "0.1.0",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")

	load := func(cmd *cobra.Command, logOut io.Writer) (*app, error) {
		return newApp(cmd.Context(), configPath, logOut)
	}

	root.AddCommand(
		newServeCmd(load),
		newListCmd(load),
		newAddCmd(load),
		newUpdateCmd(load),
		newToggleCmd(load),
		newRemoveCmd(load),
		newStatsCmd(load),
		newInsightsCmd(load),
		newCategorizeCmd(load),
		newSuggestTitleCmd(load),
		newEstimateCmd(load),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().ExecuteContext(context.Background())
}

type loader func(cmd *cobra.Command, logOut io.Writer) (*app, error)

// app is the state shared by every subcommand: configuration, the
// logger and the opened task store.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	persister *tasks.SQLitePersister
	store     *tasks.Store
}

func newApp(ctx context.Context, configPath string, logOut io.Writer) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger := newLogger(logOut, cfg.Log.SlogLevel())
	slog.SetDefault(logger) // for third-party packages that use slog

	p, err := tasks.OpenSQLite(ctx, cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	store := tasks.NewStore(p, logger)
	store.Load(ctx)

	return &app{cfg: cfg, logger: logger, persister: p, store: store}, nil
}

func (a *app) Close() error {
	return a.persister.Close()
}

// insightsClient connects to Gemini. Without credentials every operation
// answers with its fallback value.
func (a *app) insightsClient(ctx context.Context) *insights.Client {
	gen, err := insights.NewGemini(ctx, insights.GeminiConfig{
		APIKey:   a.cfg.Gemini.APIKey,
		Model:    a.cfg.Gemini.Model,
		Endpoint: a.cfg.Gemini.Endpoint,
	})
	if err != nil {
		a.logger.Warn("insights_disabled", slog.String("error", err.Error()))
		return insights.NewClient(insights.Unavailable{}, a.logger)
	}
	return insights.NewClient(gen, a.logger)
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(handler)
}
