package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/shvkateryna/internship/plugin/ai/agent/tools"
	"github.com/shvkateryna/internship/plugin/ai/session"
	"github.com/shvkateryna/internship/server"
	"github.com/shvkateryna/internship/server/middleware"
	apiv1 "github.com/shvkateryna/internship/server/router/api/v1"
	"github.com/shvkateryna/internship/server/telegram"
)

// telegramWebhookPath receives Telegram updates in webhook mode.
const telegramWebhookPath = "/telegram/webhook"

func buildServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and, with a token, the Telegram bot",
		Long: `Serve the HTTP API on --addr:--port. When ASSISTANT_TELEGRAM_TOKEN is set
the Telegram bot runs alongside it, by long polling or, with
ASSISTANT_TELEGRAM_WEBHOOK_URL, through ` + telegramWebhookPath + `.

Shuts down gracefully on SIGINT/SIGTERM.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, v)
		},
	}
	cmd.Flags().Float64("rate-limit", middleware.DefaultRate, "requests per second per client")
	cmd.Flags().Int("rate-burst", middleware.DefaultBurst, "request burst per client")
	for _, name := range []string{"rate-limit", "rate-burst"} {
		if err := v.BindPFlag(name, cmd.Flags().Lookup(name)); err != nil {
			panic(err)
		}
	}
	return cmd
}

func runServe(ctx context.Context, v *viper.Viper) error {
	p, err := loadProfile(v)
	if err != nil {
		return err
	}
	a, err := wireApp(ctx, p)
	if err != nil {
		return err
	}
	defer a.Close()

	limiter := middleware.NewRateLimiter(v.GetFloat64("rate-limit"), v.GetInt("rate-burst"))
	api := apiv1.NewAPIV1Service(a.agent, a.registry, a.sessions, a.engine.Index(), a.metrics, limiter)
	api.Version = p.Version
	httpServer := server.NewServer(p, api, slog.Default())

	var gateway *telegram.Gateway
	if p.TelegramToken != "" {
		gateway, err = telegram.NewGateway(telegram.Config{
			Token:      p.TelegramToken,
			WebhookURL: p.TelegramWebhookURL,
		}, a.agent)
		if err != nil {
			return err
		}
		if p.TelegramWebhookURL != "" {
			httpServer.Mount(telegramWebhookPath, gateway.Client().WebhookHandler())
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpServer.Start(ctx)
	})
	g.Go(func() error {
		limiter.RunSweeper(ctx, middleware.DefaultSweepInterval, middleware.DefaultIdleTimeout)
		return nil
	})
	if gateway != nil {
		g.Go(func() error {
			return gateway.Run(ctx)
		})
	}

	cleanup := session.NewCleanupJob(a.expirer, session.DefaultCleanupConfig())
	g.Go(func() error {
		if err := cleanup.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		cleanup.Stop()
		return nil
	})

	slog.Info("assistant started",
		slog.String("version", p.Version),
		slog.String("mode", p.Mode),
		slog.String("driver", p.Driver),
		slog.Int("port", p.Port))

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func buildAskCmd(v *viper.Viper) *cobra.Command {
	var sessionID string
	cmd := &cobra.Command{
		Use:   "ask [message]",
		Short: "Answer one turn from the command line",
		Example: `  assistant ask "Where do you live?"
  assistant ask --session demo "Translate 'good morning' to Ukrainian"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProfile(v)
			if err != nil {
				return err
			}
			a, err := wireApp(cmd.Context(), p)
			if err != nil {
				return err
			}
			defer a.Close()

			reply, err := a.agent.Ask(cmd.Context(), strings.Join(args, " "), sessionID)
			if reply != "" {
				fmt.Fprintln(cmd.OutOrStdout(), reply)
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&sessionID, "session", "s", "cli", "session id")
	return cmd
}

func buildReindexCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Load the corpus and report the index it builds",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := loadProfile(v)
			if err != nil {
				return err
			}
			a, err := wireApp(cmd.Context(), p)
			if err != nil {
				return err
			}
			defer a.Close()

			start := time.Now()
			out, err := a.registry.Invoke(cmd.Context(), tools.ReindexToolName, nil)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s in %s\n", out, time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
}

func buildToolsCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the registered tools as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := loadProfile(v)
			if err != nil {
				return err
			}
			a, err := wireApp(cmd.Context(), p)
			if err != nil {
				return err
			}
			defer a.Close()

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(a.registry.List())
		},
	}
}
