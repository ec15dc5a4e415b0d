package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/codereview"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Messages returned in the detail field of error responses.
const (
	DetailEmptyCode   = "Code cannot be empty"
	DetailBadRequest  = "Invalid request body"
	DetailRateLimited = "Rate limit exceeded. Please wait a moment and try again."
	DetailInvalidJSON = "AI returned invalid JSON format."
	DetailNoHistory   = "History storage is not configured."
)

// maxRequestBody bounds the size of a submitted analysis request.
const maxRequestBody = 1 << 20

// Status is the document served at the root path.
type Status struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// Server serves the analysis API backed by a Reviewer and an optional
// RecordStore.
type Server struct {
	reviewer codereview.Reviewer
	store    codereview.RecordStore
	logger   *zap.Logger

	allowedOrigins  []string
	limit           rate.Limit
	burst           int
	idleTTL         time.Duration
	cleanupInterval time.Duration

	limiters *limiterSet
	mux      *http.ServeMux
	done     chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithStore enables persistence and the history endpoint.
func WithStore(s codereview.RecordStore) ServerOption {
	return func(srv *Server) { srv.store = s }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) ServerOption {
	return func(srv *Server) { srv.logger = l }
}

// WithAllowedOrigins sets the origins allowed by CORS. "*" allows any origin.
func WithAllowedOrigins(origins ...string) ServerOption {
	return func(srv *Server) { srv.allowedOrigins = origins }
}

// WithRateLimit limits analysis requests per identity to perSecond with the
// given burst. A non-positive rate disables limiting.
func WithRateLimit(perSecond float64, burst int) ServerOption {
	return func(srv *Server) {
		srv.limit = rate.Limit(perSecond)
		srv.burst = burst
	}
}

// WithCleanupInterval sets how often idle per-identity limiters are dropped.
func WithCleanupInterval(d time.Duration) ServerOption {
	return func(srv *Server) { srv.cleanupInterval = d }
}

// NewServer creates a Server. Call Close to stop its background cleanup.
func NewServer(reviewer codereview.Reviewer, opts ...ServerOption) *Server {
	s := &Server{
		reviewer:        reviewer,
		logger:          zap.NewNop(),
		allowedOrigins:  []string{"http://localhost:3000"},
		limit:           rate.Limit(1),
		burst:           5,
		idleTTL:         10 * time.Minute,
		cleanupInterval: time.Minute,
		done:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("server")

	if s.limit > 0 {
		s.limiters = newLimiterSet(s.limit, max(s.burst, 1))
		s.wg.Add(1)
		go s.janitor()
	}

	s.mux = http.NewServeMux()
	s.mux.HandleFunc("POST "+AnalyzePath, s.handleAnalyze)
	s.mux.HandleFunc("GET "+HistoryPath, s.handleHistory)
	s.mux.HandleFunc("GET /{$}", s.handleRoot)
	return s
}

// Handler returns the HTTP handler with CORS and request logging applied.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.cors(s.mux))
}

// Close stops background work. It is safe to call more than once.
func (s *Server) Close() error {
	s.once.Do(func() { close(s.done) })
	s.wg.Wait()
	return nil
}

func (s *Server) janitor() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			if n := s.limiters.prune(now, s.idleTTL); n > 0 {
				s.logger.Debug("pruned idle limiters", zap.Int("count", n))
			}
		}
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Status{Status: "Backend is running", Service: "Code Analysis Agent"})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	identity := identityOrAnonymous(r.Header.Get(IdentityHeader))

	var req codereview.AnalysisRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, DetailBadRequest)
		return
	}
	if err := codereview.ValidateRequest(req); err != nil {
		writeDetail(w, http.StatusBadRequest, DetailEmptyCode)
		return
	}
	if s.limiters != nil && !s.limiters.allow(identity, time.Now()) {
		s.logger.Info("rate limited", zap.String("identity", identity))
		writeDetail(w, http.StatusTooManyRequests, DetailRateLimited)
		return
	}

	analysis, err := s.reviewer.Review(r.Context(), req)
	if err != nil {
		status, detail := reviewFailure(err)
		s.logger.Error("analysis failed",
			zap.String("identity", identity),
			zap.Int("status", status),
			zap.Error(err))
		writeDetail(w, status, detail)
		return
	}

	for _, v := range codereview.ValidateAnalysis(req.Code, analysis) {
		s.logger.Warn("dropped line reference", zap.String("reason", v.Error()))
	}
	resp := codereview.AnalysisResponse{Analysis: *analysis, CodeSnippet: req.Code}
	if unknown := codereview.Unrecognized(resp); len(unknown) > 0 {
		s.logger.Warn("reviewer produced unrecognized values", zap.Stringers("values", unknown))
	}

	if s.store != nil {
		if id, err := s.store.Save(r.Context(), identity, req, analysis); err != nil {
			s.logger.Warn("failed to save analysis", zap.String("identity", identity), zap.Error(err))
		} else {
			s.logger.Info("analysis saved", zap.String("identity", identity), zap.String("id", id))
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// reviewFailure maps a reviewer error to a response status and detail.
// Upstream rate limit and payment failures keep their status.
func reviewFailure(err error) (int, string) {
	var sc codereview.HTTPStatuser
	if errors.As(err, &sc) {
		switch sc.HTTPStatus() {
		case http.StatusTooManyRequests, http.StatusPaymentRequired:
			return sc.HTTPStatus(), err.Error()
		}
	}
	if errors.Is(err, codereview.ErrInvalidModelOutput) {
		return http.StatusInternalServerError, DetailInvalidJSON
	}
	return http.StatusInternalServerError, "Analysis failed: " + err.Error()
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeDetail(w, http.StatusInternalServerError, DetailNoHistory)
		return
	}
	identity := identityOrAnonymous(r.Header.Get(IdentityHeader))
	records, err := s.store.History(r.Context(), identity)
	if err != nil {
		s.logger.Error("history query failed", zap.String("identity", identity), zap.Error(err))
		writeDetail(w, http.StatusInternalServerError, "Failed to fetch history: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.originAllowed(origin) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, "+IdentityHeader)
			h.Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) originAllowed(origin string) bool {
	return slices.Contains(s.allowedOrigins, "*") || slices.Contains(s.allowedOrigins, strings.TrimRight(origin, "/"))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorDetail{Detail: detail})
}

type errorDetail struct {
	Detail string `json:"detail"`
}

// limiterSet holds one token bucket per identity.
type limiterSet struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	visitors map[string]*visitor
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLimiterSet(limit rate.Limit, burst int) *limiterSet {
	return &limiterSet{limit: limit, burst: burst, visitors: make(map[string]*visitor)}
}

func (l *limiterSet) allow(identity string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	v, ok := l.visitors[identity]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[identity] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (l *limiterSet) prune(now time.Time, ttl time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for id, v := range l.visitors {
		if now.Sub(v.lastSeen) > ttl {
			delete(l.visitors, id)
			n++
		}
	}
	return n
}
