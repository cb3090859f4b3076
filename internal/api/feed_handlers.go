package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/onnwee/mentorfeed/internal/candidate"
	"github.com/onnwee/mentorfeed/internal/feed"
	"github.com/onnwee/mentorfeed/internal/middleware"
)

// FeedGetter assembles feed pages.
type FeedGetter interface {
	GetFeed(ctx context.Context, req feed.Request) (*feed.Response, error)
}

// FeedHandlers serves the mentor and student feeds.
type FeedHandlers struct {
	feeds   FeedGetter
	viewers *ViewerResolver
	logger  *slog.Logger
}

// NewFeedHandlers creates feed handlers. A nil viewers resolver serves
// every request anonymously.
func NewFeedHandlers(feeds FeedGetter, viewers *ViewerResolver, logger *slog.Logger) *FeedHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &FeedHandlers{feeds: feeds, viewers: viewers, logger: logger}
}

// MentorFeed handles GET /feed/mentors.
func (h *FeedHandlers) MentorFeed(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, candidate.KindMentor)
}

// UserFeed handles GET /feed/users.
func (h *FeedHandlers) UserFeed(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, candidate.KindStudent)
}

func (h *FeedHandlers) serve(w http.ResponseWriter, r *http.Request, audience candidate.Kind) {
	if methodNotAllowed(w, r, http.MethodGet) {
		return
	}

	req := parseFeedQuery(r)
	req.Audience = audience
	if h.viewers != nil {
		req.Viewer = h.viewers.Resolve(r)
	}

	resp, err := h.feeds.GetFeed(r.Context(), req)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to build feed",
			"audience", string(audience),
			"error", err,
		)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Feed is temporarily unavailable")
		return
	}

	writeJSON(w, r, http.StatusOK, resp)
}

// parseFeedQuery reads filtered, page and size. Malformed values fall back
// to their defaults; range clamping is left to the feed service.
func parseFeedQuery(r *http.Request) feed.Request {
	q := r.URL.Query()
	req := feed.Request{
		Filtered: true,
		Page:     feed.DefaultPage,
		Size:     feed.DefaultPageSize,
	}
	if v, err := strconv.ParseBool(q.Get("filtered")); err == nil {
		req.Filtered = v
	}
	if v, err := strconv.Atoi(q.Get("page")); err == nil {
		req.Page = v
	}
	if v, err := strconv.Atoi(q.Get("size")); err == nil {
		req.Size = v
	}
	return req
}
