package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/onnwee/mentorfeed/internal/candidate"
	"github.com/onnwee/mentorfeed/internal/ranking"
	"github.com/onnwee/mentorfeed/internal/tracing"
)

// ErrInvalidAudience is returned for a request listing an unknown profile kind.
var ErrInvalidAudience = errors.New("invalid feed audience")

// Ranker orders candidates by relevance to a viewer description.
// Implementations never fail; a failed ranking reports ranking.SourceFallback.
type Ranker interface {
	Rank(ctx context.Context, audience candidate.Kind, viewerDescription string, candidates []ranking.Candidate) ranking.Result
}

// Cache stores ranked pages. Failures are absorbed by the implementation:
// Get reports a miss and Put drops the write.
type Cache interface {
	Get(ctx context.Context, key string) (*Response, bool)
	Put(ctx context.Context, key string, resp *Response)
}

// ServiceConfig holds feed assembly settings.
type ServiceConfig struct {
	// FetchLimit caps the candidates listed per request. Default: 1000.
	FetchLimit int

	// CacheKeyPrefix namespaces cache keys. Default: "feed".
	CacheKeyPrefix string

	// CacheWriteTimeout bounds the cache write, which outlives request
	// cancellation. Default: 2 seconds.
	CacheWriteTimeout time.Duration
}

// Service assembles feeds.
type Service struct {
	repo         candidate.Repository
	ranker       Ranker
	cache        Cache
	presenter    *Presenter
	metrics      *Metrics
	logger       *slog.Logger
	fetchLimit   int
	keyPrefix    string
	writeTimeout time.Duration
}

// NewService creates a feed service. ranker, cache and metrics may be nil:
// without a ranker pages keep store order, without a cache nothing is stored.
func NewService(
	repo candidate.Repository,
	ranker Ranker,
	cache Cache,
	presenter *Presenter,
	metrics *Metrics,
	logger *slog.Logger,
	cfg ServiceConfig,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if presenter == nil {
		presenter = NewPresenter(nil, logger)
	}
	if cfg.FetchLimit <= 0 {
		cfg.FetchLimit = DefaultFetchLimit
	}
	if cfg.CacheKeyPrefix == "" {
		cfg.CacheKeyPrefix = DefaultCacheKeyPrefix
	}
	if cfg.CacheWriteTimeout <= 0 {
		cfg.CacheWriteTimeout = 2 * time.Second
	}

	return &Service{
		repo:         repo,
		ranker:       ranker,
		cache:        cache,
		presenter:    presenter,
		metrics:      metrics,
		logger:       logger,
		fetchLimit:   cfg.FetchLimit,
		keyPrefix:    cfg.CacheKeyPrefix,
		writeTimeout: cfg.CacheWriteTimeout,
	}
}

// GetFeed returns one page of the req.Audience feed for req.Viewer.
//
// The only error path is a failing profile store. Ranking and cache
// failures degrade to store order and an uncached response. Only ranked
// pages are written to the cache; degraded pages never are.
func (s *Service) GetFeed(ctx context.Context, req Request) (resp *Response, err error) {
	if !req.Audience.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAudience, req.Audience)
	}

	ctx, endSpan := tracing.StartSpan(ctx, "feed.get")
	defer func() { endSpan(err) }()

	start := time.Now()
	audience := string(req.Audience)
	outcome := OutcomeError
	defer func() {
		tracing.SetAttributes(ctx, attribute.String("feed.outcome", outcome))
		s.metrics.observeRequest(audience, outcome, time.Since(start).Seconds())
	}()

	page, size := ClampPage(req.Page, req.Size)

	// Students browse mentors and mentors browse students; anyone else is anonymous.
	viewer := req.Viewer
	if viewer != nil && viewer.Role != req.Audience.Opposite() {
		viewer = nil
	}

	var filter *candidate.Filter
	if req.Filtered && viewer != nil {
		filter = viewer.Filter()
	}

	tracing.SetAttributes(ctx,
		attribute.String("feed.audience", audience),
		attribute.Bool("feed.filtered", filter != nil),
		attribute.Int("feed.page", page),
		attribute.Int("feed.size", size),
	)

	records, total, err := s.repo.List(ctx, req.Audience, filter, s.fetchLimit)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}

	records, candidates := dedupe(records)
	s.metrics.observeCandidates(audience, len(candidates))

	if !viewer.HasDescription() {
		outcome = OutcomeUnranked
		return s.respond(ctx, records, total, page, size), nil
	}

	key := CacheKey(s.keyPrefix, CacheKeyParts{
		Audience:          req.Audience,
		ViewerDescription: viewer.Description,
		Fingerprint:       Fingerprint(candidates),
		Filtered:          req.Filtered,
		FilterScope:       filter.Canonical(),
		Page:              page,
		Size:              size,
	})

	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, key); ok {
			outcome = OutcomeCacheHit
			return cached, nil
		}
	}

	result := ranking.Result{IDs: candidateIDs(candidates), Source: ranking.SourceSkipped}
	if s.ranker != nil {
		result = s.ranker.Rank(ctx, req.Audience, viewer.Description, candidates)
	}

	byID := make(map[string]*candidate.Record, len(records))
	for _, rec := range records {
		byID[recordID(rec)] = rec
	}
	merged := Merge(candidates, result.IDs)
	ordered := make([]*candidate.Record, len(merged))
	for i, c := range merged {
		ordered[i] = byID[c.ID]
	}

	resp = s.respond(ctx, ordered, total, page, size)

	if result.Source == ranking.SourceFallback {
		outcome = OutcomeDegraded
		s.logger.WarnContext(ctx, "serving unranked feed after ranking failure",
			"audience", audience,
			"viewer_id", viewer.ID,
			"candidates", len(candidates),
		)
		return resp, nil
	}

	outcome = OutcomeRanked
	if s.cache != nil {
		s.store(ctx, key, resp)
	}
	return resp, nil
}

// respond paginates ordered and presents the page.
func (s *Service) respond(ctx context.Context, ordered []*candidate.Record, total, page, size int) *Response {
	pageRecords := Paginate(ordered, page, size)
	items := make([]Item, len(pageRecords))
	for i, rec := range pageRecords {
		items[i] = s.presenter.Present(ctx, rec)
	}
	return &Response{
		Items: items,
		Total: total,
		Page:  page,
		Size:  size,
		Pages: PageCount(total, size),
	}
}

// store writes resp even if the request was cancelled meanwhile.
func (s *Service) store(ctx context.Context, key string, resp *Response) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.writeTimeout)
	defer cancel()
	s.cache.Put(ctx, key, resp)
}

// dedupe drops repeated ids and returns the kept records with their ranking view.
func dedupe(records []*candidate.Record) ([]*candidate.Record, []ranking.Candidate) {
	seen := make(map[int64]bool, len(records))
	kept := make([]*candidate.Record, 0, len(records))
	candidates := make([]ranking.Candidate, 0, len(records))
	for _, rec := range records {
		if seen[rec.ID] {
			continue
		}
		seen[rec.ID] = true
		kept = append(kept, rec)
		candidates = append(candidates, ranking.Candidate{ID: recordID(rec), Description: rec.Description})
	}
	return kept, candidates
}

func recordID(rec *candidate.Record) string {
	return strconv.FormatInt(rec.ID, 10)
}

func candidateIDs(candidates []ranking.Candidate) []string {
	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}
	return ids
}
