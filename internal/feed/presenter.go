package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"

	"github.com/google/uuid"

	"github.com/onnwee/mentorfeed/internal/candidate"
)

// ErrInvalidAvatar is returned for avatar references that are not UUIDs.
var ErrInvalidAvatar = errors.New("invalid avatar reference")

// AvatarResolver turns a stored avatar reference into a URL a client can fetch.
type AvatarResolver interface {
	AvatarURL(ctx context.Context, avatarUUID string) (string, error)
}

// BaseURLAvatarResolver serves avatars from <base>/img/<uuid>, resolved the
// way a browser resolves a relative link against base.
type BaseURLAvatarResolver struct {
	base *url.URL
}

// NewBaseURLAvatarResolver parses baseURL. It must be absolute.
func NewBaseURLAvatarResolver(baseURL string) (*BaseURLAvatarResolver, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid avatar base URL: %w", err)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("avatar base URL must be absolute, got %q", baseURL)
	}
	return &BaseURLAvatarResolver{base: u}, nil
}

// AvatarURL implements AvatarResolver.
func (r *BaseURLAvatarResolver) AvatarURL(_ context.Context, avatarUUID string) (string, error) {
	id, err := uuid.Parse(avatarUUID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidAvatar, err)
	}
	return r.base.ResolveReference(&url.URL{Path: "img/" + id.String()}).String(), nil
}

// Presenter converts profile records into feed items.
type Presenter struct {
	avatars AvatarResolver
	logger  *slog.Logger
}

// NewPresenter creates a Presenter. A nil resolver omits avatar URLs.
func NewPresenter(avatars AvatarResolver, logger *slog.Logger) *Presenter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Presenter{avatars: avatars, logger: logger}
}

// Present builds the view record for rec.
func (p *Presenter) Present(ctx context.Context, rec *candidate.Record) Item {
	item := Item{
		ID:          rec.ID,
		Login:       rec.Login,
		Name:        rec.Name,
		Description: rec.Description,
	}

	switch rec.Kind {
	case candidate.KindMentor:
		item.Title = rec.Title
		item.University = rec.University
	case candidate.KindStudent:
		item.TargetUniversities = slices.Clone(rec.TargetUniversities)
		item.AdmissionType = rec.AdmissionType
	}

	if rec.AvatarUUID != nil && p.avatars != nil {
		avatarURL, err := p.avatars.AvatarURL(ctx, *rec.AvatarUUID)
		if err != nil {
			p.logger.WarnContext(ctx, "failed to resolve avatar",
				"profile_id", rec.ID,
				"kind", rec.Kind,
				"error", err,
			)
		} else {
			item.AvatarURL = &avatarURL
		}
	}

	return item
}
