package main_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/fwojciec/codereview"
	main "github.com/fwojciec/codereview/cmd/codereview"
	"github.com/fwojciec/codereview/mock"
	"github.com/fwojciec/codereview/printer"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func ptr[T any](v T) *T { return &v }

func signedIn(id string) *mock.SessionAccessor {
	return &mock.SessionAccessor{
		CurrentFn: func(ctx context.Context) (*codereview.Session, error) {
			return &codereview.Session{UserID: id}, nil
		},
	}
}

func signedOut(err error) *mock.SessionAccessor {
	return &mock.SessionAccessor{
		CurrentFn: func(ctx context.Context) (*codereview.Session, error) {
			return nil, err
		},
	}
}

func TestAnalyzeApp_Run(t *testing.T) {
	t.Parallel()

	req := codereview.AnalysisRequest{Code: "x=1", Language: "python", FileName: "a.py"}

	t.Run("prints the normalized result", func(t *testing.T) {
		t.Parallel()

		var gotIdentity string
		var gotReq codereview.AnalysisRequest
		var out bytes.Buffer
		app := &main.AnalyzeApp{
			Analyzer: &mock.Analyzer{
				AnalyzeFn: func(ctx context.Context, identity string, r codereview.AnalysisRequest) (*codereview.AnalysisResponse, error) {
					gotIdentity = identity
					gotReq = r
					return &codereview.AnalysisResponse{
						Analysis: codereview.Analysis{
							Summary:     "ok",
							IssuesCount: 1,
							Issues: []codereview.RawIssue{
								{IssueType: "bug", Severity: "high", Title: "Crash", Description: "d", LineNumber: ptr(1)},
							},
						},
						CodeSnippet: "x=1",
					}, nil
				},
			},
			Sessions: signedIn("user-1"),
			Printer:  printer.New(&out, printer.JSON),
		}

		require.NoError(t, app.Run(context.Background(), req))

		assert.Equal(t, "user-1", gotIdentity)
		if diff := cmp.Diff(req, gotReq); diff != "" {
			t.Errorf("request mismatch (-want +got):\n%s", diff)
		}
		assert.Contains(t, out.String(), `"issues_count": 1`)
		assert.Contains(t, out.String(), `"severity": "critical"`)
		assert.Contains(t, out.String(), `"optimized_code": "x=1"`)
	})

	t.Run("session failure submits anonymously", func(t *testing.T) {
		t.Parallel()

		var gotIdentity string
		app := &main.AnalyzeApp{
			Analyzer: &mock.Analyzer{
				AnalyzeFn: func(ctx context.Context, identity string, r codereview.AnalysisRequest) (*codereview.AnalysisResponse, error) {
					gotIdentity = identity
					return &codereview.AnalysisResponse{CodeSnippet: r.Code}, nil
				},
			},
			Sessions: signedOut(errors.New("corrupt session file")),
			Printer:  printer.New(io.Discard, printer.Human),
		}

		require.NoError(t, app.Run(context.Background(), req))
		assert.Equal(t, codereview.AnonymousIdentity, gotIdentity)
	})

	t.Run("empty code never reaches the backend", func(t *testing.T) {
		t.Parallel()

		app := &main.AnalyzeApp{
			Analyzer: &mock.Analyzer{
				AnalyzeFn: func(ctx context.Context, identity string, r codereview.AnalysisRequest) (*codereview.AnalysisResponse, error) {
					t.Fatal("analyzer called for empty code")
					return nil, nil
				},
			},
			Printer: printer.New(io.Discard, printer.Human),
		}

		err := app.Run(context.Background(), codereview.AnalysisRequest{Code: "  \n", Language: "go"})

		require.ErrorIs(t, err, codereview.ErrEmptyCode)
		assert.Equal(t, "Nothing to Analyze: Please enter some code to analyze.", err.Error())
	})

	t.Run("empty response is a failure", func(t *testing.T) {
		t.Parallel()

		var out bytes.Buffer
		app := &main.AnalyzeApp{
			Analyzer: &mock.Analyzer{
				AnalyzeFn: func(ctx context.Context, identity string, r codereview.AnalysisRequest) (*codereview.AnalysisResponse, error) {
					return nil, nil
				},
			},
			Printer: printer.New(&out, printer.Human),
		}

		err := app.Run(context.Background(), req)

		require.ErrorIs(t, err, codereview.ErrEmptyResponse)
		assert.Equal(t, "Analysis Failed: Something went wrong. Please try again.", err.Error())
		assert.Empty(t, out.String())
	})

	t.Run("failure is reported as a notice", func(t *testing.T) {
		t.Parallel()

		reqErr := &codereview.AnalysisRequestError{Status: 429, Message: "slow down"}
		var out bytes.Buffer
		app := &main.AnalyzeApp{
			Analyzer: &mock.Analyzer{
				AnalyzeFn: func(ctx context.Context, identity string, r codereview.AnalysisRequest) (*codereview.AnalysisResponse, error) {
					return nil, reqErr
				},
			},
			Printer: printer.New(&out, printer.Human),
		}

		err := app.Run(context.Background(), req)

		require.ErrorIs(t, err, reqErr)
		assert.Equal(t, "Rate Limited: Too many requests. Please wait a moment and try again.", err.Error())
		assert.Empty(t, out.String())
	})
}

func TestHistoryApp_List(t *testing.T) {
	t.Parallel()

	records := []codereview.HistoryRecord{
		{ID: "3f1e0a9c-0000-4000-8000-000000000001", Language: "python", FileName: "a.py", IssuesCount: 2, CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
	}

	t.Run("prints records for the signed-in user", func(t *testing.T) {
		t.Parallel()

		var gotIdentity string
		var out bytes.Buffer
		app := &main.HistoryApp{
			Fetcher: &mock.HistoryFetcher{
				HistoryFn: func(ctx context.Context, identity string) ([]codereview.HistoryRecord, error) {
					gotIdentity = identity
					return records, nil
				},
			},
			Sessions: signedIn("user-1"),
			Printer:  printer.New(&out, printer.Human),
			Out:      &out,
		}

		require.NoError(t, app.List(context.Background()))
		assert.Equal(t, "user-1", gotIdentity)
		assert.Contains(t, out.String(), "a.py")
		assert.Contains(t, out.String(), "1 analyses")
	})

	t.Run("requires sign-in", func(t *testing.T) {
		t.Parallel()

		app := &main.HistoryApp{
			Fetcher: &mock.HistoryFetcher{
				HistoryFn: func(ctx context.Context, identity string) ([]codereview.HistoryRecord, error) {
					t.Fatal("fetcher called without a session")
					return nil, nil
				},
			},
			Sessions: signedOut(codereview.ErrSessionExpired),
			Printer:  printer.New(io.Discard, printer.Human),
		}

		err := app.List(context.Background())
		require.ErrorIs(t, err, codereview.ErrSessionExpired)
		assert.Contains(t, err.Error(), "codereview login")
	})

	t.Run("fetch failure", func(t *testing.T) {
		t.Parallel()

		fetchErr := &codereview.HistoryFetchError{Status: 500, Message: "database down"}
		app := &main.HistoryApp{
			Fetcher: &mock.HistoryFetcher{
				HistoryFn: func(ctx context.Context, identity string) ([]codereview.HistoryRecord, error) {
					return nil, fetchErr
				},
			},
			Sessions: signedIn("user-1"),
			Printer:  printer.New(io.Discard, printer.Human),
		}

		err := app.List(context.Background())
		require.ErrorIs(t, err, fetchErr)
		assert.Equal(t, "Error: Failed to load history. Please try again.", err.Error())
	})
}

func TestHistoryApp_Export(t *testing.T) {
	t.Parallel()

	records := []codereview.HistoryRecord{{ID: "r1", Language: "go"}, {ID: "r2", Language: "rust"}}

	var savedPath string
	var saved []codereview.HistoryRecord
	var out bytes.Buffer
	app := &main.HistoryApp{
		Fetcher: &mock.HistoryFetcher{
			HistoryFn: func(ctx context.Context, identity string) ([]codereview.HistoryRecord, error) {
				return records, nil
			},
		},
		Sessions: signedIn("user-1"),
		Archive: &mock.HistoryArchive{
			SaveFn: func(path string, rs []codereview.HistoryRecord) error {
				savedPath = path
				saved = rs
				return nil
			},
		},
		Out: &out,
	}

	require.NoError(t, app.Export(context.Background(), "out.jsonl"))
	assert.Equal(t, "out.jsonl", savedPath)
	assert.Equal(t, records, saved)
	assert.Equal(t, "Exported 2 analyses to out.jsonl\n", out.String())
}

func TestSessionApp(t *testing.T) {
	t.Parallel()

	t.Run("login reads the token from stdin", func(t *testing.T) {
		t.Parallel()

		var gotToken string
		var out bytes.Buffer
		app := &main.SessionApp{
			Store: &mock.SessionStore{
				SaveFn: func(ctx context.Context, token string) (*codereview.Session, error) {
					gotToken = token
					return &codereview.Session{UserID: "user-1", Email: "a@example.com"}, nil
				},
			},
			Printer: printer.New(&out, printer.Human),
			In:      strings.NewReader("tok.en.sig\n"),
			Out:     &out,
		}

		require.NoError(t, app.Login(context.Background(), "-"))
		assert.Equal(t, "tok.en.sig", gotToken)
		assert.Contains(t, out.String(), "Signed in as user-1")
		assert.Contains(t, out.String(), "a@example.com")
	})

	t.Run("login rejects an empty token", func(t *testing.T) {
		t.Parallel()

		app := &main.SessionApp{
			Store: &mock.SessionStore{},
			In:    strings.NewReader(""),
		}
		require.Error(t, app.Login(context.Background(), "-"))
	})

	t.Run("logout", func(t *testing.T) {
		t.Parallel()

		cleared := false
		var out bytes.Buffer
		app := &main.SessionApp{
			Store: &mock.SessionStore{
				ClearFn: func(ctx context.Context) error {
					cleared = true
					return nil
				},
			},
			Out: &out,
		}

		require.NoError(t, app.Logout(context.Background()))
		assert.True(t, cleared)
		assert.Equal(t, "Signed out.\n", out.String())
	})

	t.Run("whoami when signed out", func(t *testing.T) {
		t.Parallel()

		var out bytes.Buffer
		app := &main.SessionApp{
			Store: &mock.SessionStore{
				CurrentFn: func(ctx context.Context) (*codereview.Session, error) {
					return nil, codereview.ErrNoSession
				},
			},
			Printer: printer.New(&out, printer.Human),
		}

		require.NoError(t, app.WhoAmI(context.Background()))
		assert.Equal(t, "Not signed in.\n", out.String())
	})

	t.Run("whoami with an expired session", func(t *testing.T) {
		t.Parallel()

		app := &main.SessionApp{
			Store: &mock.SessionStore{
				CurrentFn: func(ctx context.Context) (*codereview.Session, error) {
					return nil, codereview.ErrSessionExpired
				},
			},
			Printer: printer.New(io.Discard, printer.Human),
		}

		require.ErrorIs(t, app.WhoAmI(context.Background()), codereview.ErrSessionExpired)
	})
}

type migrator struct{ err error }

func (m migrator) Migrate(ctx context.Context) error { return m.err }

func TestMigrateApp_Run(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		var out bytes.Buffer
		app := &main.MigrateApp{Migrator: migrator{}, Out: &out}
		require.NoError(t, app.Run(context.Background()))
		assert.Equal(t, "Schema is up to date.\n", out.String())
	})

	t.Run("failure", func(t *testing.T) {
		t.Parallel()

		migrateErr := errors.New("permission denied")
		var out bytes.Buffer
		app := &main.MigrateApp{Migrator: migrator{err: migrateErr}, Out: &out}
		require.ErrorIs(t, app.Run(context.Background()), migrateErr)
		assert.Empty(t, out.String())
	})
}

func TestServeApp_Run(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	app := &main.ServeApp{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, "ok")
		}),
		Listener:        ln,
		ShutdownTimeout: time.Second,
	}

	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get("http://" + ln.Addr().String() + "/")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestIsTerminal(t *testing.T) {
	t.Parallel()

	t.Run("buffer", func(t *testing.T) {
		t.Parallel()
		assert.False(t, main.IsTerminal(&bytes.Buffer{}))
	})

	t.Run("regular file", func(t *testing.T) {
		t.Parallel()

		f, err := os.CreateTemp(t.TempDir(), "stdin")
		require.NoError(t, err)
		t.Cleanup(func() { f.Close() })
		assert.False(t, main.IsTerminal(f))
	})

	t.Run("pipe", func(t *testing.T) {
		t.Parallel()

		r, w, err := os.Pipe()
		require.NoError(t, err)
		t.Cleanup(func() {
			r.Close()
			w.Close()
		})
		assert.False(t, main.IsTerminal(r))
		assert.False(t, main.IsTerminal(w))
	})
}

type ownerDeleter struct {
	deleteFor func(ctx context.Context, identity, id string) error
}

func (d ownerDeleter) DeleteFor(ctx context.Context, identity, id string) error {
	return d.deleteFor(ctx, identity, id)
}

func TestOwnedDeleter_Delete(t *testing.T) {
	t.Parallel()

	t.Run("deletes as the signed-in user within the timeout", func(t *testing.T) {
		t.Parallel()

		var gotIdentity, gotID string
		var hasDeadline bool
		d := &main.OwnedDeleter{
			Store: ownerDeleter{deleteFor: func(ctx context.Context, identity, id string) error {
				gotIdentity, gotID = identity, id
				_, hasDeadline = ctx.Deadline()
				return nil
			}},
			Sessions: signedIn("user-1"),
			Timeout:  time.Second,
		}

		require.NoError(t, d.Delete(context.Background(), "r1"))
		assert.Equal(t, "user-1", gotIdentity)
		assert.Equal(t, "r1", gotID)
		assert.True(t, hasDeadline)
	})

	t.Run("signed out never reaches the store", func(t *testing.T) {
		t.Parallel()

		d := &main.OwnedDeleter{
			Store: ownerDeleter{deleteFor: func(ctx context.Context, identity, id string) error {
				t.Fatal("store called without a session")
				return nil
			}},
			Sessions: signedOut(codereview.ErrNoSession),
		}

		err := d.Delete(context.Background(), "r1")

		var delErr *codereview.DeleteError
		require.ErrorAs(t, err, &delErr)
		assert.Equal(t, "r1", delErr.ID)
		assert.True(t, codereview.NeedsSignIn(err))
	})
}
