package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/fwojciec/codereview"
	"github.com/fwojciec/codereview/api"
	"github.com/fwojciec/codereview/fs"
	"github.com/fwojciec/codereview/gemini"
	"github.com/fwojciec/codereview/openai"
	"github.com/fwojciec/codereview/postgres"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ServeApp runs the analysis backend until its context is cancelled.
type ServeApp struct {
	Handler http.Handler
	// Listener is used when set; otherwise Addr is bound.
	Listener        net.Listener
	Addr            string
	ShutdownTimeout time.Duration
	Logger          *zap.Logger
}

// Run serves requests and shuts down gracefully when ctx is done.
func (a *ServeApp) Run(ctx context.Context) error {
	logger := a.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ln := a.Listener
	if ln == nil {
		var err error
		ln, err = net.Listen("tcp", a.Addr)
		if err != nil {
			return fmt.Errorf("listen %s: %w", a.Addr, err)
		}
	}

	srv := &http.Server{
		Handler:           a.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.ShutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func newServeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the analysis backend",
		Long: `Run the HTTP backend that reviews code with the configured LLM.

Analyses are stored and served from history when database.url is set.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{consoleLogAnnotation: ""},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := c.cfg.ValidateServer(); err != nil {
				return err
			}
			reviewer, err := c.reviewer(ctx)
			if err != nil {
				return err
			}

			opts := []api.ServerOption{
				api.WithLogger(c.logger),
				api.WithAllowedOrigins(c.cfg.Server.AllowedOrigins...),
				api.WithRateLimit(c.cfg.Server.RateLimit, c.cfg.Server.RateBurst),
			}
			if c.cfg.Database.URL != "" {
				pool, err := postgres.Open(ctx, c.cfg.Database.URL)
				if err != nil {
					return err
				}
				defer pool.Close()
				opts = append(opts, api.WithStore(postgres.New(pool, c.logger)))
			} else {
				c.logger.Warn("database.url not set, history is disabled")
			}

			srv := api.NewServer(reviewer, opts...)
			defer srv.Close()

			app := &ServeApp{
				Handler:         srv.Handler(),
				Addr:            c.cfg.Server.Addr,
				ShutdownTimeout: c.cfg.Server.ShutdownGrace,
				Logger:          c.logger,
			}
			return app.Run(ctx)
		},
	}
}

// reviewer builds the configured LLM reviewer, cached on disk when enabled.
func (c *cli) reviewer(ctx context.Context) (codereview.Reviewer, error) {
	var reviewer codereview.Reviewer
	switch c.cfg.Reviewer.Provider {
	case ProviderOpenAI:
		cfg := c.cfg.OpenAI
		newClient := openai.NewClient
		if cfg.Azure {
			newClient = openai.NewAzureClient
		}
		client, err := newClient(cfg.Endpoint, cfg.APIKey)
		if err != nil {
			return nil, err
		}
		opts := []openai.ReviewerOption{openai.WithLogger(c.logger)}
		if cfg.Timeout > 0 {
			opts = append(opts, openai.WithTimeout(cfg.Timeout))
		}
		reviewer = openai.NewReviewer(client, cfg.Model, opts...)
	default:
		cfg := c.cfg.Gemini
		client, err := gemini.NewClient(ctx, cfg.APIKey)
		if err != nil {
			return nil, err
		}
		opts := []gemini.ReviewerOption{gemini.WithLogger(c.logger)}
		if cfg.Timeout > 0 {
			opts = append(opts, gemini.WithTimeout(cfg.Timeout))
		}
		reviewer = gemini.NewReviewer(client, cfg.Model, opts...)
	}

	if c.cfg.Cache.Enabled {
		reviewer = fs.NewReviewer(reviewer, c.cfg.Cache.Dir, c.logger)
	}
	c.logger.Info("reviewer ready",
		zap.String("provider", c.cfg.Reviewer.Provider),
		zap.Bool("cache", c.cfg.Cache.Enabled))
	return reviewer, nil
}
