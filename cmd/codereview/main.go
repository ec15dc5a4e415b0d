// Command codereview submits code to an AI review backend, browses past
// analyses, and serves the backend itself.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fwojciec/codereview"
	"github.com/fwojciec/codereview/api"
	"github.com/fwojciec/codereview/bubbletea"
	"github.com/fwojciec/codereview/chroma"
	"github.com/fwojciec/codereview/clipboard"
	"github.com/fwojciec/codereview/fs"
	"github.com/fwojciec/codereview/gitdiff"
	"github.com/fwojciec/codereview/lipgloss"
	"github.com/fwojciec/codereview/printer"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// consoleLogAnnotation marks commands that log to the terminal. All other
// commands log to the rotating file only.
const consoleLogAnnotation = "console-log"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	c := &cli{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		logger: zap.NewNop(),
	}
	return newRootCmd(c).ExecuteContext(ctx)
}

// cli carries the process streams and the loaded configuration to the
// subcommands.
type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	configFile string
	cfg        Config
	logger     *zap.Logger
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "codereview",
		Short:         "AI code review in the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = c.logger.Sync()
		},
	}
	root.SetIn(c.stdin)
	root.SetOut(c.stdout)
	root.SetErr(c.stderr)

	flags := root.PersistentFlags()
	flags.StringVarP(&c.configFile, "config", "c", "", "config file (default ./config.yaml)")
	flags.String("api-url", "", "analysis backend URL")
	flags.String("theme", "", "color theme: dark or light")
	flags.String("log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(
		newAnalyzeCmd(c),
		newHistoryCmd(c),
		newServeCmd(c),
		newMigrateCmd(c),
		newLoginCmd(c),
		newLogoutCmd(c),
		newWhoamiCmd(c),
	)
	return root
}

// setup loads the configuration and builds the logger for cmd.
func (c *cli) setup(cmd *cobra.Command) error {
	v := viper.New()
	for key, flag := range map[string]string{
		"api.url":   "api-url",
		"theme":     "theme",
		"log.level": "log-level",
	} {
		if f := cmd.Flags().Lookup(flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("bind flag %s: %w", flag, err)
			}
		}
	}

	cfg, err := LoadConfig(v, c.configFile)
	if err != nil {
		return err
	}
	c.cfg = cfg

	var console zapcore.WriteSyncer
	if _, ok := cmd.Annotations[consoleLogAnnotation]; ok {
		console = zapcore.Lock(zapcore.AddSync(c.stderr))
	}
	logger, err := NewLogger(cfg.Log, console)
	if err != nil {
		return err
	}
	c.logger = logger
	c.logger.Debug("configuration loaded",
		zap.String("command", cmd.CommandPath()),
		zap.String("api_url", cfg.API.URL))
	return nil
}

func (c *cli) sessions() *fs.SessionStore {
	return fs.NewSessionStore(c.cfg.Session.File)
}

func (c *cli) client() *api.Client {
	return api.NewClient(c.cfg.API.URL,
		api.WithTimeout(c.cfg.API.Timeout),
		api.WithHistoryTimeout(c.cfg.API.HistoryTimeout),
		api.WithClientLogger(c.logger))
}

func (c *cli) printer(format string) (*printer.Printer, error) {
	f, err := printer.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	return printer.New(c.stdout, f, printer.WithColor(isTerminal(c.stdout))), nil
}

// screenOptions wires the terminal screens to the configured theme,
// highlighting, diffing and clipboard.
func (c *cli) screenOptions(sessions codereview.SessionAccessor) ([]bubbletea.Option, error) {
	theme, err := lipgloss.ThemeByName(c.cfg.Theme)
	if err != nil {
		return nil, err
	}
	tokenizer, err := chroma.NewTokenizer(chroma.StyleFromPalette(theme.Palette()))
	if err != nil {
		return nil, err
	}
	opts := []bubbletea.Option{
		bubbletea.WithTheme(theme),
		bubbletea.WithTokenizer(tokenizer),
		bubbletea.WithLanguageDetector(chroma.NewDetector()),
		bubbletea.WithDiffer(gitdiff.NewDiffer()),
		bubbletea.WithClipboard(clipboard.NewTerminal()),
		bubbletea.WithLogger(c.logger.Named("tui")),
	}
	if sessions != nil {
		opts = append(opts, bubbletea.WithSessions(sessions))
	}
	return opts, nil
}

// isTerminal reports whether stream is an interactive terminal.
func isTerminal(stream any) bool {
	f, ok := stream.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
