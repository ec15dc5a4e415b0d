package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fwojciec/codereview"
	"github.com/fwojciec/codereview/bubbletea"
	"github.com/fwojciec/codereview/chroma"
	"github.com/fwojciec/codereview/printer"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// AnalyzeApp submits one analysis and prints the result.
type AnalyzeApp struct {
	Analyzer codereview.Analyzer
	Sessions codereview.SessionAccessor
	Printer  *printer.Printer
	// Progress receives the spinner while the request is in flight. Nil
	// disables it.
	Progress io.Writer
	Logger   *zap.Logger
}

// Run submits req and prints the normalized result.
func (a *AnalyzeApp) Run(ctx context.Context, req codereview.AnalysisRequest) error {
	logger := a.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var flow codereview.AnalysisFlow
	ticket, err := flow.Submit(req)
	if err != nil {
		return &noticeError{notice: emptyCodeNotice, err: err}
	}

	identity, err := codereview.IdentityFrom(ctx, a.Sessions)
	if err != nil {
		logger.Warn("session unavailable, submitting anonymously", zap.Error(err))
	}

	stop := a.startSpinner()
	resp, err := a.Analyzer.Analyze(ctx, identity, req)
	stop()
	if err == nil && resp == nil {
		err = codereview.ErrEmptyResponse
	}

	if err != nil {
		flow.Fail(ticket, err)
		logger.Warn("analysis failed",
			zap.Stringer("kind", flow.Kind()),
			zap.Error(err))
		return &noticeError{notice: codereview.NoticeFor(err), err: err}
	}
	flow.Succeed(ticket, resp)
	logger.Info("analysis complete",
		zap.String("language", req.Language),
		zap.Int("issues", flow.IssuesCount()))
	return a.Printer.Analysis(req, *flow.Result(), flow.IssuesCount())
}

func (a *AnalyzeApp) startSpinner() func() {
	if a.Progress == nil {
		return func() {}
	}
	opt := spinner.WithWriter(a.Progress)
	if f, ok := a.Progress.(*os.File); ok {
		opt = spinner.WithWriterFile(f)
	}
	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, opt)
	s.Suffix = " Analyzing..."
	s.Start()
	return s.Stop
}

var emptyCodeNotice = codereview.Notice{
	Title:       "Nothing to Analyze",
	Description: "Please enter some code to analyze.",
	Error:       true,
}

// noticeError presents a failure the way the terminal screens do.
type noticeError struct {
	notice codereview.Notice
	err    error
}

func (e *noticeError) Error() string {
	return e.notice.Title + ": " + e.notice.Description
}

func (e *noticeError) Unwrap() error { return e.err }

func newAnalyzeCmd(c *cli) *cobra.Command {
	var (
		language string
		output   string
	)
	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Analyze code for bugs, security issues and style",
		Long: `Analyze code read from a file or standard input.

Without --output an interactive editor opens with the code preloaded.
With --output the result is printed as human, json or yaml.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.cfg.ValidateClient(); err != nil {
				return err
			}
			code, fileName, err := readSource(c.stdin, args)
			if err != nil {
				return err
			}
			sessions := c.sessions()
			client := c.client()

			if cmd.Flags().Changed("output") {
				p, err := c.printer(output)
				if err != nil {
					return err
				}
				app := &AnalyzeApp{
					Analyzer: client,
					Sessions: sessions,
					Printer:  p,
					Logger:   c.logger,
				}
				if isTerminal(c.stderr) {
					app.Progress = c.stderr
				}
				req := codereview.AnalysisRequest{
					Code:     code,
					Language: detectLanguage(chroma.NewDetector(), language, fileName, code),
					FileName: fileName,
				}
				return app.Run(cmd.Context(), req)
			}

			opts, err := c.screenOptions(sessions)
			if err != nil {
				return err
			}
			opts = append(opts, bubbletea.WithCode(code, fileName), bubbletea.WithLanguage(language))
			return bubbletea.Run(cmd.Context(), bubbletea.NewAnalyzeModel(client, opts...))
		},
	}
	cmd.Flags().StringVarP(&language, "language", "l", "", "language tag, detected from the file when empty")
	cmd.Flags().StringVarP(&output, "output", "o", "human", "print the result instead of opening the editor: human, json or yaml")
	return cmd
}

// readSource returns the code to analyze from the named file, or from stdin
// when it is piped.
func readSource(stdin io.Reader, args []string) (code, fileName string, err error) {
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", "", fmt.Errorf("read %s: %w", args[0], err)
		}
		return string(data), filepath.Base(args[0]), nil
	}
	if stdin == nil || isTerminal(stdin) {
		return "", "", nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), "", nil
}

type languageDetector interface {
	DetectFromPath(path string) string
	DetectFromSource(source string) string
}

func detectLanguage(d languageDetector, explicit, fileName, code string) string {
	if codereview.IsLanguage(explicit) {
		return explicit
	}
	if fileName != "" {
		if tag := d.DetectFromPath(fileName); tag != "" {
			return tag
		}
	}
	if tag := d.DetectFromSource(code); tag != "" {
		return tag
	}
	return codereview.DefaultLanguage
}
