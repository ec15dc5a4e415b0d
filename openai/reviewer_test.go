package openai_test

import (
	"context"
	"testing"

	"github.com/fwojciec/codereview"
	"github.com/fwojciec/codereview/openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewer_Review(t *testing.T) {
	t.Parallel()

	t.Run("sends instructions and code in one prompt", func(t *testing.T) {
		t.Parallel()

		var got openai.CompletionRequest
		client := &openai.MockChatCompleter{
			CompleteFn: func(ctx context.Context, req openai.CompletionRequest) (string, error) {
				got = req
				return `{"issues":[{"issue_type":"security","severity":"critical","title":"t","description":"d"}],"optimized_code":null,"summary":"s","issues_count":1}`, nil
			},
		}

		analysis, err := openai.NewReviewer(client, "").Review(context.Background(), codereview.AnalysisRequest{Code: "eval(x)", Language: "python"})

		require.NoError(t, err)
		assert.Equal(t, openai.DefaultModel, got.Model)
		assert.InDelta(t, 0.1, got.Temperature, 0.001)
		assert.Contains(t, got.Prompt, "expert code reviewer")
		assert.Contains(t, got.Prompt, "Language: python\n\nCode:\neval(x)")
		require.Len(t, analysis.Issues, 1)
		assert.Equal(t, "security", analysis.Issues[0].IssueType)
		assert.Nil(t, analysis.OptimizedCode)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		t.Parallel()

		client := &openai.MockChatCompleter{
			CompleteFn: func(ctx context.Context, req openai.CompletionRequest) (string, error) {
				return "Sure! Here is the review:", nil
			},
		}

		_, err := openai.NewReviewer(client, "m").Review(context.Background(), codereview.AnalysisRequest{Code: "x"})
		require.ErrorIs(t, err, codereview.ErrInvalidModelOutput)
	})

	t.Run("propagates API status", func(t *testing.T) {
		t.Parallel()

		client := &openai.MockChatCompleter{
			CompleteFn: func(ctx context.Context, req openai.CompletionRequest) (string, error) {
				return "", &openai.APIError{StatusCode: 429, Code: "rate_limit_exceeded"}
			},
		}

		_, err := openai.NewReviewer(client, "m").Review(context.Background(), codereview.AnalysisRequest{Code: "x"})
		require.Error(t, err)
		assert.Equal(t, codereview.RateLimited, codereview.Classify(err))
		assert.Equal(t, "openai API error (HTTP 429): rate_limit_exceeded", err.Error())
	})
}

func TestNewClient_RequiresKey(t *testing.T) {
	t.Parallel()

	_, err := openai.NewClient("https://api.groq.com/openai/v1", "")
	require.Error(t, err)
	_, err = openai.NewAzureClient("https://example.openai.azure.com", "")
	require.Error(t, err)
}
