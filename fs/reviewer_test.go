package fs_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fwojciec/codereview"
	"github.com/fwojciec/codereview/fs"
	"github.com/fwojciec/codereview/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestReviewer_CacheMiss_DelegatesToInner(t *testing.T) {
	t.Parallel()

	innerCalled := false
	expected := &codereview.Analysis{
		Summary:       "Test summary",
		Issues:        []codereview.RawIssue{},
		OptimizedCode: ptr("x = 1"),
	}

	inner := &mock.Reviewer{
		ReviewFn: func(ctx context.Context, req codereview.AnalysisRequest) (*codereview.Analysis, error) {
			innerCalled = true
			return expected, nil
		},
	}

	reviewer := fs.NewReviewer(inner, t.TempDir(), nil)

	result, err := reviewer.Review(context.Background(), codereview.AnalysisRequest{Code: "x=1", Language: "python"})

	require.NoError(t, err)
	assert.True(t, innerCalled, "inner reviewer should be called on cache miss")
	assert.Equal(t, expected, result)
}

func TestReviewer_CacheHit_ReturnsWithoutCallingInner(t *testing.T) {
	t.Parallel()

	callCount := 0
	expected := &codereview.Analysis{
		Summary: "Fix the bug",
		Issues: []codereview.RawIssue{
			{IssueType: "bug", Severity: "high", Title: "t", Description: "d", LineNumber: ptr(2)},
		},
		OptimizedCode: ptr("fixed"),
		IssuesCount:   1,
	}

	inner := &mock.Reviewer{
		ReviewFn: func(ctx context.Context, req codereview.AnalysisRequest) (*codereview.Analysis, error) {
			callCount++
			return expected, nil
		},
	}

	reviewer := fs.NewReviewer(inner, t.TempDir(), nil)
	req := codereview.AnalysisRequest{Code: "broken", Language: "go"}

	result1, err := reviewer.Review(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, callCount, "first call should invoke inner")
	assert.Equal(t, expected, result1)

	result2, err := reviewer.Review(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, callCount, "second call should NOT invoke inner (cache hit)")
	assert.Equal(t, expected, result2)
}

func TestReviewer_KeyIgnoresFileName(t *testing.T) {
	t.Parallel()

	callCount := 0
	inner := &mock.Reviewer{
		ReviewFn: func(ctx context.Context, req codereview.AnalysisRequest) (*codereview.Analysis, error) {
			callCount++
			return &codereview.Analysis{Summary: "ok", Issues: []codereview.RawIssue{}}, nil
		},
	}

	reviewer := fs.NewReviewer(inner, t.TempDir(), nil)

	_, err := reviewer.Review(context.Background(), codereview.AnalysisRequest{Code: "x", Language: "go", FileName: "a.go"})
	require.NoError(t, err)
	_, err = reviewer.Review(context.Background(), codereview.AnalysisRequest{Code: "x", Language: "go", FileName: "b.go"})
	require.NoError(t, err)

	assert.Equal(t, 1, callCount)
}

func TestReviewer_DifferentInput_CallsInnerAgain(t *testing.T) {
	t.Parallel()

	callCount := 0
	inner := &mock.Reviewer{
		ReviewFn: func(ctx context.Context, req codereview.AnalysisRequest) (*codereview.Analysis, error) {
			callCount++
			return &codereview.Analysis{Summary: "Call " + string(rune('0'+callCount))}, nil
		},
	}

	reviewer := fs.NewReviewer(inner, t.TempDir(), nil)
	input1 := codereview.AnalysisRequest{Code: "x", Language: "go"}
	input2 := codereview.AnalysisRequest{Code: "x", Language: "rust"}

	_, err := reviewer.Review(context.Background(), input1)
	require.NoError(t, err)
	assert.Equal(t, 1, callCount)

	// Same code, different language.
	_, err = reviewer.Review(context.Background(), input2)
	require.NoError(t, err)
	assert.Equal(t, 2, callCount, "different input should trigger new inner call")

	_, err = reviewer.Review(context.Background(), input1)
	require.NoError(t, err)
	assert.Equal(t, 2, callCount, "first input should still be cached")
}

func TestReviewer_ErrorsAreNotCached(t *testing.T) {
	t.Parallel()

	cacheDir := t.TempDir()
	callCount := 0
	inner := &mock.Reviewer{
		ReviewFn: func(ctx context.Context, req codereview.AnalysisRequest) (*codereview.Analysis, error) {
			callCount++
			return nil, errors.New("quota")
		},
	}

	reviewer := fs.NewReviewer(inner, cacheDir, nil)
	req := codereview.AnalysisRequest{Code: "x", Language: "go"}

	_, err := reviewer.Review(context.Background(), req)
	require.Error(t, err)
	_, err = reviewer.Review(context.Background(), req)
	require.Error(t, err)

	assert.Equal(t, 2, callCount)
	files, err := os.ReadDir(cacheDir)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestReviewer_CorruptedCache_TreatedAsMiss(t *testing.T) {
	t.Parallel()

	cacheDir := t.TempDir()
	callCount := 0
	expected := &codereview.Analysis{Summary: "Clean up"}

	inner := &mock.Reviewer{
		ReviewFn: func(ctx context.Context, req codereview.AnalysisRequest) (*codereview.Analysis, error) {
			callCount++
			return expected, nil
		},
	}

	reviewer := fs.NewReviewer(inner, cacheDir, nil)
	req := codereview.AnalysisRequest{Code: "x", Language: "go"}

	_, err := reviewer.Review(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, callCount)

	files, err := os.ReadDir(cacheDir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	cachePath := filepath.Join(cacheDir, files[0].Name())
	err = os.WriteFile(cachePath, []byte("not valid json"), 0644)
	require.NoError(t, err)

	result, err := reviewer.Review(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2, callCount, "corrupted cache should trigger new inner call")
	assert.Equal(t, expected, result)
}

func TestDefaultCacheDir_UsesXDGIfSet(t *testing.T) {
	// Can't use t.Parallel with t.Setenv
	t.Setenv("XDG_CACHE_HOME", "/custom/cache")

	assert.Equal(t, "/custom/cache/codereview", fs.DefaultCacheDir())
}

func TestDefaultCacheDir_FallsBackToHomeCache(t *testing.T) {
	// Can't use t.Parallel with t.Setenv
	t.Setenv("XDG_CACHE_HOME", "")

	home, _ := os.UserHomeDir()
	assert.Equal(t, filepath.Join(home, ".cache", "codereview"), fs.DefaultCacheDir())
}

func TestDefaultSessionPath_UsesXDGIfSet(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")

	assert.Equal(t, "/custom/config/codereview/session.json", fs.DefaultSessionPath())
}
