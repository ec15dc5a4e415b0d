package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fwojciec/codereview"
	"github.com/spf13/cobra"
)

// SessionApp manages the stored sign-in session.
type SessionApp struct {
	Store   codereview.SessionStore
	Printer sessionPrinter
	In      io.Reader
	Out     io.Writer
}

type sessionPrinter interface {
	Session(s *codereview.Session) error
}

// Login stores token as the current session. A token of "-" is read from In.
func (a *SessionApp) Login(ctx context.Context, token string) error {
	if token == "-" {
		data, err := io.ReadAll(a.In)
		if err != nil {
			return fmt.Errorf("read token: %w", err)
		}
		token = string(data)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("an access token is required")
	}
	session, err := a.Store.Save(ctx, token)
	if err != nil {
		return err
	}
	return a.Printer.Session(session)
}

// Logout removes the stored session.
func (a *SessionApp) Logout(ctx context.Context) error {
	if err := a.Store.Clear(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.Out, "Signed out.")
	return nil
}

// WhoAmI prints the current session. Being signed out is not an error; an
// expired session is.
func (a *SessionApp) WhoAmI(ctx context.Context) error {
	session, err := a.Store.Current(ctx)
	switch {
	case errors.Is(err, codereview.ErrNoSession):
		return a.Printer.Session(nil)
	case errors.Is(err, codereview.ErrSessionExpired):
		return fmt.Errorf("%w: run `codereview login --token <token>`", err)
	case err != nil:
		return err
	}
	return a.Printer.Session(session)
}

func (c *cli) sessionApp(output string) (*SessionApp, error) {
	p, err := c.printer(output)
	if err != nil {
		return nil, err
	}
	return &SessionApp{Store: c.sessions(), Printer: p, In: c.stdin, Out: c.stdout}, nil
}

func newLoginCmd(c *cli) *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an access token issued by the auth provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.sessionApp("")
			if err != nil {
				return err
			}
			return app.Login(cmd.Context(), token)
		},
	}
	cmd.Flags().StringVar(&token, "token", "-", `access token, or "-" to read it from stdin`)
	return cmd
}

func newLogoutCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.sessionApp("")
			if err != nil {
				return err
			}
			return app.Logout(cmd.Context())
		},
	}
}

func newWhoamiCmd(c *cli) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.sessionApp(output)
			if err != nil {
				return err
			}
			return app.WhoAmI(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "human", "output format: human, json or yaml")
	return cmd
}
