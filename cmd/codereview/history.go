package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fwojciec/codereview"
	"github.com/fwojciec/codereview/bubbletea"
	"github.com/fwojciec/codereview/jsonl"
	"github.com/fwojciec/codereview/postgres"
	"github.com/spf13/cobra"
)

// HistoryApp lists and exports the signed-in user's analyses.
type HistoryApp struct {
	Fetcher  codereview.HistoryFetcher
	Sessions codereview.SessionAccessor
	Archive  codereview.HistoryArchive
	Printer  historyPrinter
	Out      io.Writer
}

type historyPrinter interface {
	History(records []codereview.HistoryRecord) error
}

// List prints every stored analysis, newest first as returned by the source.
func (a *HistoryApp) List(ctx context.Context) error {
	records, err := a.fetch(ctx)
	if err != nil {
		return err
	}
	return a.Printer.History(records)
}

// Export writes every stored analysis to path as JSONL.
func (a *HistoryApp) Export(ctx context.Context, path string) error {
	records, err := a.fetch(ctx)
	if err != nil {
		return err
	}
	if err := a.Archive.Save(path, records); err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	fmt.Fprintf(a.Out, "Exported %d analyses to %s\n", len(records), path)
	return nil
}

func (a *HistoryApp) fetch(ctx context.Context) ([]codereview.HistoryRecord, error) {
	identity := codereview.AnonymousIdentity
	if a.Sessions != nil {
		session, err := codereview.RequireSession(ctx, a.Sessions)
		if err != nil {
			if codereview.NeedsSignIn(err) {
				return nil, fmt.Errorf("%w: run `codereview login --token <token>`", err)
			}
			return nil, err
		}
		identity = session.UserID
	}
	records, err := a.Fetcher.History(ctx, identity)
	if err != nil {
		return nil, &noticeError{notice: codereview.HistoryLoadNotice(), err: err}
	}
	return records, nil
}

// OwnerDeleter removes a record only if it belongs to identity.
type OwnerDeleter interface {
	DeleteFor(ctx context.Context, identity, id string) error
}

// OwnedDeleter deletes records on behalf of the signed-in user. Each delete
// is bounded by Timeout.
type OwnedDeleter struct {
	Store    OwnerDeleter
	Sessions codereview.SessionAccessor
	Timeout  time.Duration
}

// Delete removes id if the current user owns it.
func (d *OwnedDeleter) Delete(ctx context.Context, id string) error {
	session, err := codereview.RequireSession(ctx, d.Sessions)
	if err != nil {
		return &codereview.DeleteError{ID: id, Message: "sign in to delete analyses", Err: err}
	}
	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}
	return d.Store.DeleteFor(ctx, session.UserID, id)
}

func newHistoryCmd(c *cli) *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse past analyses",
		Long: `Browse past analyses in an interactive list.

Records are fetched from the backend for the signed-in user. With --from the
list is read from a file written by "history export" and no sign-in is needed.
Deleting records from the backend requires database.url.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if from != "" {
				opts, err := c.screenOptions(nil)
				if err != nil {
					return err
				}
				file := jsonl.NewHistoryFile(from)
				return bubbletea.Run(ctx, bubbletea.NewHistoryModel(file, file, opts...))
			}

			if err := c.cfg.ValidateClient(); err != nil {
				return err
			}
			sessions := c.sessions()
			opts, err := c.screenOptions(sessions)
			if err != nil {
				return err
			}

			var deleter codereview.RecordDeleter
			if c.cfg.Database.URL != "" {
				if err := c.cfg.ValidateDatabase(); err != nil {
					return err
				}
				pool, err := postgres.Open(ctx, c.cfg.Database.URL)
				if err != nil {
					return err
				}
				defer pool.Close()
				deleter = &OwnedDeleter{
					Store:    postgres.New(pool, c.logger),
					Sessions: sessions,
					Timeout:  c.cfg.Database.DeleteTimeout,
				}
			}
			return bubbletea.Run(ctx, bubbletea.NewHistoryModel(c.client(), deleter, opts...))
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "browse an exported JSONL file instead of the backend")
	cmd.AddCommand(newHistoryListCmd(c), newHistoryExportCmd(c))
	return cmd
}

func (c *cli) historyApp(output string) (*HistoryApp, error) {
	if err := c.cfg.ValidateClient(); err != nil {
		return nil, err
	}
	p, err := c.printer(output)
	if err != nil {
		return nil, err
	}
	return &HistoryApp{
		Fetcher:  c.client(),
		Sessions: c.sessions(),
		Archive:  jsonl.NewArchive(),
		Printer:  p,
		Out:      c.stdout,
	}, nil
}

func newHistoryListCmd(c *cli) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print past analyses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.historyApp(output)
			if err != nil {
				return err
			}
			return app.List(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "human", "output format: human, json or yaml")
	return cmd
}

func newHistoryExportCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Write past analyses to a JSONL file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.historyApp("")
			if err != nil {
				return err
			}
			return app.Export(cmd.Context(), args[0])
		},
	}
}
