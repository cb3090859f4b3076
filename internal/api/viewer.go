package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/onnwee/mentorfeed/internal/auth"
	"github.com/onnwee/mentorfeed/internal/candidate"
	"github.com/onnwee/mentorfeed/internal/feed"
	"github.com/onnwee/mentorfeed/internal/middleware"
)

// ViewerResolver loads the profile of the viewer identified by
// middleware.Authenticate.
type ViewerResolver struct {
	repo   candidate.Repository
	logger *slog.Logger
}

// NewViewerResolver creates a resolver over repo.
func NewViewerResolver(repo candidate.Repository, logger *slog.Logger) *ViewerResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &ViewerResolver{repo: repo, logger: logger}
}

// roleKind maps token roles to profile kinds.
func roleKind(role string) (candidate.Kind, bool) {
	switch role {
	case auth.RoleUser:
		return candidate.KindStudent, true
	case auth.RoleMentor:
		return candidate.KindMentor, true
	default:
		return "", false
	}
}

// Resolve returns the viewer for r, or nil for anonymous browsing.
// Unknown logins, inactive profiles and lookup failures all resolve to nil.
func (v *ViewerResolver) Resolve(r *http.Request) *feed.Viewer {
	id, ok := middleware.GetIdentity(r.Context())
	if !ok {
		return nil
	}
	kind, ok := roleKind(id.Role)
	if !ok {
		return nil
	}

	rec, err := v.repo.GetByLogin(r.Context(), kind, id.Login)
	if err != nil {
		if !errors.Is(err, candidate.ErrNotFound) {
			v.logger.WarnContext(r.Context(), "viewer lookup failed, serving anonymous feed",
				"login", id.Login,
				"role", id.Role,
				"error", err,
			)
		}
		return nil
	}
	if !rec.IsActive {
		return nil
	}
	return feed.ViewerFromRecord(rec)
}
