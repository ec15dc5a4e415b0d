package bubbletea_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/fwojciec/codereview"
	"github.com/fwojciec/codereview/bubbletea"
	"github.com/fwojciec/codereview/chroma"
	theme "github.com/fwojciec/codereview/lipgloss"
	"github.com/fwojciec/codereview/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func okResponse() *codereview.AnalysisResponse {
	return &codereview.AnalysisResponse{
		Analysis: codereview.Analysis{
			Summary: "Loop can be simplified.",
			Issues: []codereview.RawIssue{
				{Title: "Off by one", Description: "Range skips the last item.", Severity: "high", IssueType: "logic", LineNumber: ptr(2)},
				{Title: "Slow concatenation", Description: "Use a builder.", Severity: "low", IssueType: "performance", Suggestion: ptr("Use join.")},
			},
			OptimizedCode: ptr("total = sum(items)\n"),
			IssuesCount:   2,
		},
		CodeSnippet: "total = 0\nfor i in items: total += i\n",
	}
}

func signedIn(id string) *mock.SessionAccessor {
	return &mock.SessionAccessor{
		CurrentFn: func(ctx context.Context) (*codereview.Session, error) {
			return &codereview.Session{UserID: id}, nil
		},
	}
}

func newAnalyze(t *testing.T, analyzer codereview.Analyzer, opts ...bubbletea.Option) bubbletea.AnalyzeModel {
	t.Helper()
	opts = append([]bubbletea.Option{
		bubbletea.WithTheme(theme.DefaultTheme()),
		bubbletea.WithRenderer(trueColorRenderer()),
	}, opts...)
	m := bubbletea.NewAnalyzeModel(analyzer, opts...)
	m, _ = send(t, m, tea.WindowSizeMsg{Width: 100, Height: 60})
	return m
}

func TestAnalyzeModel_ViewBeforeReady(t *testing.T) {
	t.Parallel()

	m := bubbletea.NewAnalyzeModel(&mock.Analyzer{})
	assert.Contains(t, m.View(), "Loading")
}

func TestAnalyzeModel_InitialLanguage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts []bubbletea.Option
		want string
	}{
		{"default", nil, codereview.DefaultLanguage},
		{"from file name", []bubbletea.Option{bubbletea.WithCode("x = 1", "script.py")}, "python"},
		{"explicit wins", []bubbletea.Option{bubbletea.WithCode("x = 1", "script.py"), bubbletea.WithLanguage("go")}, "go"},
		{"unknown explicit ignored", []bubbletea.Option{bubbletea.WithLanguage("cobol")}, codereview.DefaultLanguage},
		{"from source", []bubbletea.Option{
			bubbletea.WithCode("#!/usr/bin/env python\nprint('hi')\n", ""),
			bubbletea.WithLanguageDetector(chroma.NewDetector()),
		}, "python"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := bubbletea.NewAnalyzeModel(&mock.Analyzer{}, tt.opts...)
			assert.Equal(t, tt.want, m.Language())
		})
	}
}

func TestAnalyzeModel_CyclesLanguage(t *testing.T) {
	t.Parallel()

	m := newAnalyze(t, &mock.Analyzer{}, bubbletea.WithLanguage("go"))
	m, _ = send(t, m, press("ctrl+l"))

	assert.Equal(t, "rust", m.Language())
	assert.Contains(t, m.View(), "Language: rust")
}

func TestAnalyzeModel_EmptyCodeIsNotSubmitted(t *testing.T) {
	t.Parallel()

	analyzer := &mock.Analyzer{
		AnalyzeFn: func(ctx context.Context, identity string, req codereview.AnalysisRequest) (*codereview.AnalysisResponse, error) {
			t.Fatal("analyzer must not be called")
			return nil, nil
		},
	}
	m := newAnalyze(t, analyzer, bubbletea.WithCode("  \n\t", ""))
	m, cmd := send(t, m, press("ctrl+s"))

	assert.Nil(t, cmd)
	assert.Equal(t, codereview.FlowIdle, m.Flow().State())
	assert.Contains(t, m.View(), "Please enter some code to analyze.")
}

func TestAnalyzeModel_Success(t *testing.T) {
	t.Parallel()

	var gotIdentity string
	var gotReq codereview.AnalysisRequest
	analyzer := &mock.Analyzer{
		AnalyzeFn: func(ctx context.Context, identity string, req codereview.AnalysisRequest) (*codereview.AnalysisResponse, error) {
			gotIdentity = identity
			gotReq = req
			return okResponse(), nil
		},
	}
	code := "total = 0\nfor i in items: total += i\n"
	m := newAnalyze(t, analyzer,
		bubbletea.WithCode(code, "sum.py"),
		bubbletea.WithSessions(signedIn("user-1")))

	m, cmd := send(t, m, press("ctrl+s"))
	require.NotNil(t, cmd)
	assert.Equal(t, codereview.FlowSubmitting, m.Flow().State())
	assert.Contains(t, m.View(), "Analyzing...")

	m = settle(t, m, cmd)

	assert.Equal(t, "user-1", gotIdentity)
	assert.Equal(t, codereview.AnalysisRequest{Code: code, Language: "python", FileName: "sum.py"}, gotReq)
	assert.Equal(t, codereview.FlowSucceeded, m.Flow().State())
	assert.Equal(t, 2, m.Flow().IssuesCount())

	view := m.View()
	assert.Contains(t, view, "Analysis Complete")
	assert.Contains(t, view, "Found 2 issues in your code.")
	assert.Contains(t, view, "Loop can be simplified.")
	assert.Contains(t, view, "Off by one")
	assert.Contains(t, view, "line 2")
	assert.Contains(t, view, "Slow concatenation")
	assert.Contains(t, view, "Optimized Code")
}

func TestAnalyzeModel_AnonymousWithoutSession(t *testing.T) {
	t.Parallel()

	var gotIdentity string
	analyzer := &mock.Analyzer{
		AnalyzeFn: func(ctx context.Context, identity string, req codereview.AnalysisRequest) (*codereview.AnalysisResponse, error) {
			gotIdentity = identity
			return okResponse(), nil
		},
	}
	sessions := &mock.SessionAccessor{
		CurrentFn: func(ctx context.Context) (*codereview.Session, error) {
			return nil, errors.New("disk on fire")
		},
	}
	m := newAnalyze(t, analyzer, bubbletea.WithCode("x = 1", ""), bubbletea.WithSessions(sessions))

	m, cmd := send(t, m, press("ctrl+s"))
	m = settle(t, m, cmd)

	assert.Equal(t, codereview.AnonymousIdentity, gotIdentity)
	assert.Equal(t, codereview.FlowSucceeded, m.Flow().State())
}

func TestAnalyzeModel_FailureKeepsPreviousResult(t *testing.T) {
	t.Parallel()

	calls := 0
	analyzer := &mock.Analyzer{
		AnalyzeFn: func(ctx context.Context, identity string, req codereview.AnalysisRequest) (*codereview.AnalysisResponse, error) {
			calls++
			if calls == 1 {
				return okResponse(), nil
			}
			return nil, &codereview.AnalysisRequestError{Status: 429, Message: "slow down"}
		},
	}
	m := newAnalyze(t, analyzer, bubbletea.WithCode("x = 1", ""))

	m, cmd := send(t, m, press("ctrl+s"))
	m = settle(t, m, cmd)
	first := m.Flow().Result()
	require.NotNil(t, first)

	m, cmd = send(t, m, press("ctrl+s"))
	m = settle(t, m, cmd)

	assert.Equal(t, codereview.FlowFailed, m.Flow().State())
	assert.Equal(t, codereview.RateLimited, m.Flow().Kind())
	assert.Same(t, first, m.Flow().Result())

	view := m.View()
	assert.Contains(t, view, "Rate Limited")
	assert.Contains(t, view, "Off by one")
}

func TestAnalyzeModel_EmptyResponseIsAFailure(t *testing.T) {
	t.Parallel()

	calls := 0
	analyzer := &mock.Analyzer{
		AnalyzeFn: func(ctx context.Context, identity string, req codereview.AnalysisRequest) (*codereview.AnalysisResponse, error) {
			calls++
			if calls == 1 {
				return nil, nil
			}
			return okResponse(), nil
		},
	}
	m := newAnalyze(t, analyzer, bubbletea.WithCode("x = 1", ""))

	m, cmd := send(t, m, press("ctrl+s"))
	m = settle(t, m, cmd)

	assert.Equal(t, codereview.FlowFailed, m.Flow().State())
	require.ErrorIs(t, m.Flow().Err(), codereview.ErrEmptyResponse)
	assert.Contains(t, m.View(), "Analysis Failed")

	m, cmd = send(t, m, press("ctrl+s"))
	m = settle(t, m, cmd)

	assert.Equal(t, 2, calls)
	assert.Equal(t, codereview.FlowSucceeded, m.Flow().State())
}

func TestAnalyzeModel_IgnoresSubmitWhileInFlight(t *testing.T) {
	t.Parallel()

	calls := 0
	analyzer := &mock.Analyzer{
		AnalyzeFn: func(ctx context.Context, identity string, req codereview.AnalysisRequest) (*codereview.AnalysisResponse, error) {
			calls++
			return okResponse(), nil
		},
	}
	m := newAnalyze(t, analyzer, bubbletea.WithCode("x = 1", ""))

	m, first := send(t, m, press("ctrl+s"))
	m, second := send(t, m, press("ctrl+s"))
	assert.Nil(t, second)

	m = settle(t, m, first)
	assert.Equal(t, 1, calls)
	assert.Equal(t, codereview.FlowSucceeded, m.Flow().State())
}

func TestAnalyzeModel_CopyOptimized(t *testing.T) {
	t.Parallel()

	var copied string
	clip := &mock.Clipboard{CopyFn: func(content string) error {
		copied = content
		return nil
	}}
	analyzer := &mock.Analyzer{
		AnalyzeFn: func(ctx context.Context, identity string, req codereview.AnalysisRequest) (*codereview.AnalysisResponse, error) {
			return okResponse(), nil
		},
	}
	m := newAnalyze(t, analyzer, bubbletea.WithCode("x = 1", ""), bubbletea.WithClipboard(clip))

	m, cmd := send(t, m, press("ctrl+s"))
	m = settle(t, m, cmd)
	m, _ = send(t, m, press("y"))

	assert.Equal(t, "total = sum(items)\n", copied)
	assert.Contains(t, m.View(), "Optimized code copied to clipboard.")
}

func TestAnalyzeModel_CopyFailure(t *testing.T) {
	t.Parallel()

	clip := &mock.Clipboard{CopyFn: func(content string) error { return errors.New("no display") }}
	analyzer := &mock.Analyzer{
		AnalyzeFn: func(ctx context.Context, identity string, req codereview.AnalysisRequest) (*codereview.AnalysisResponse, error) {
			return okResponse(), nil
		},
	}
	m := newAnalyze(t, analyzer, bubbletea.WithCode("x = 1", ""), bubbletea.WithClipboard(clip))

	m, cmd := send(t, m, press("ctrl+s"))
	m = settle(t, m, cmd)
	m, _ = send(t, m, press("y"))

	assert.Contains(t, m.View(), "Failed to copy to clipboard.")
}

func TestAnalyzeModel_ToggleDiff(t *testing.T) {
	t.Parallel()

	var gotOriginal, gotOptimized string
	differ := &mock.CodeDiffer{DiffFn: func(original, optimized string) (*codereview.Diff, error) {
		gotOriginal, gotOptimized = original, optimized
		return &codereview.Diff{Files: []codereview.FileDiff{{
			OldPath: "original",
			NewPath: "optimized",
			Hunks: []codereview.Hunk{{
				OldStart: 1, OldCount: 1, NewStart: 1, NewCount: 1,
				Lines: []codereview.Line{
					{Type: codereview.LineDeleted, Content: "x=1", OldLineNum: 1},
					{Type: codereview.LineAdded, Content: "x = 1", NewLineNum: 1},
				},
			}},
		}}}, nil
	}}
	analyzer := &mock.Analyzer{
		AnalyzeFn: func(ctx context.Context, identity string, req codereview.AnalysisRequest) (*codereview.AnalysisResponse, error) {
			return okResponse(), nil
		},
	}
	m := newAnalyze(t, analyzer, bubbletea.WithCode("x=1", ""), bubbletea.WithDiffer(differ))

	m, cmd := send(t, m, press("ctrl+s"))
	m = settle(t, m, cmd)
	assert.Equal(t, "x=1", gotOriginal)
	assert.Equal(t, "total = sum(items)\n", gotOptimized)
	assert.NotContains(t, m.View(), "Changes")

	m, _ = send(t, m, press("d"))
	view := m.View()
	assert.Contains(t, view, "Changes")
	assert.Contains(t, view, "@@ -1,1 +1,1 @@")

	m, _ = send(t, m, press("d"))
	assert.Contains(t, m.View(), "Optimized Code")
}

func TestAnalyzeModel_QuitKeys(t *testing.T) {
	t.Parallel()

	t.Run("q quits from the results pane", func(t *testing.T) {
		t.Parallel()
		m := newAnalyze(t, &mock.Analyzer{})
		m, _ = send(t, m, press("tab"))
		_, cmd := send(t, m, press("q"))
		require.NotNil(t, cmd)
		assert.Equal(t, tea.Quit(), cmd())
	})
}

func TestAnalyzeModel_Program(t *testing.T) {
	t.Parallel()

	m := bubbletea.NewAnalyzeModel(&mock.Analyzer{},
		bubbletea.WithCode("fmt.Println(1)", "main.go"),
		bubbletea.WithRenderer(trueColorRenderer()))
	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(80, 24))

	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return bytes.Contains(out, []byte("Language: go"))
	})

	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
	tm.WaitFinished(t, teatest.WithFinalTimeout(0))
}
