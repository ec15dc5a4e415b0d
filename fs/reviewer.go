package fs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/fwojciec/codereview"
	"go.uber.org/zap"
)

// Compile-time interface verification.
var _ codereview.Reviewer = (*Reviewer)(nil)

// Reviewer wraps a Reviewer with file-based caching keyed by code and
// language. Identical submissions skip the model call.
type Reviewer struct {
	inner    codereview.Reviewer
	cacheDir string
	logger   *zap.Logger
}

// NewReviewer creates a new caching reviewer. A nil logger discards output.
func NewReviewer(inner codereview.Reviewer, cacheDir string, logger *zap.Logger) *Reviewer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reviewer{
		inner:    inner,
		cacheDir: cacheDir,
		logger:   logger.Named("cache"),
	}
}

// Review returns a cached analysis or delegates to the inner reviewer.
func (r *Reviewer) Review(ctx context.Context, req codereview.AnalysisRequest) (*codereview.Analysis, error) {
	key := cacheKey(req)

	if cached, err := r.load(key); err == nil {
		r.logger.Debug("cache hit", zap.String("key", key[:12]))
		return cached, nil
	}

	result, err := r.inner.Review(ctx, req)
	if err != nil {
		return nil, err
	}

	// Best-effort.
	if err := r.save(key, result); err != nil {
		r.logger.Debug("cache write failed", zap.Error(err))
	}

	return result, nil
}

// cacheKey ignores the file name: the same code in the same language gets
// the same review.
func cacheKey(req codereview.AnalysisRequest) string {
	data, _ := json.Marshal(struct {
		Code     string `json:"code"`
		Language string `json:"language"`
	}{req.Code, req.Language})
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (r *Reviewer) path(key string) string {
	return filepath.Join(r.cacheDir, key+".json")
}

func (r *Reviewer) load(key string) (*codereview.Analysis, error) {
	data, err := os.ReadFile(r.path(key))
	if err != nil {
		return nil, err
	}

	var result codereview.Analysis
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *Reviewer) save(key string, result *codereview.Analysis) error {
	if err := os.MkdirAll(r.cacheDir, 0755); err != nil {
		return err
	}

	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	return os.WriteFile(r.path(key), data, 0644)
}
