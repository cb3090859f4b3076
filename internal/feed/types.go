package feed

import (
	"strings"

	"github.com/onnwee/mentorfeed/internal/candidate"
)

// Pagination bounds.
const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100

	// DefaultFetchLimit is how many candidates are pulled before ranking.
	// Ranking has to see the whole eligible population, not the page.
	DefaultFetchLimit = 1000
)

// Item is the public view of a profile inside a feed page.
// Mentor items carry Title and University, student items carry
// TargetUniversities and AdmissionType.
type Item struct {
	ID                 int64    `json:"id"`
	Login              string   `json:"login"`
	Name               *string  `json:"name"`
	Title              *string  `json:"title,omitempty"`
	Description        *string  `json:"description"`
	University         *string  `json:"university,omitempty"`
	TargetUniversities []string `json:"target_universities,omitempty"`
	AdmissionType      *string  `json:"admission_type,omitempty"`
	AvatarURL          *string  `json:"avatar_url"`
}

// Response is one page of a feed.
type Response struct {
	Items []Item `json:"items"`
	Total int    `json:"total"`
	Page  int    `json:"page"`
	Size  int    `json:"size"`
	Pages int    `json:"pages"`
}

// Viewer is the party requesting a feed.
type Viewer struct {
	ID                 int64
	Login              string
	Role               candidate.Kind
	Description        string
	University         *string
	TargetUniversities []string
	AdmissionType      *string
}

// ViewerFromRecord builds a Viewer from the viewer's own profile.
func ViewerFromRecord(rec *candidate.Record) *Viewer {
	v := &Viewer{
		ID:                 rec.ID,
		Login:              rec.Login,
		Role:               rec.Kind,
		University:         rec.University,
		TargetUniversities: rec.TargetUniversities,
		AdmissionType:      rec.AdmissionType,
	}
	if rec.Description != nil {
		v.Description = *rec.Description
	}
	return v
}

// HasDescription reports whether the viewer has text to rank against.
func (v *Viewer) HasDescription() bool {
	return v != nil && strings.TrimSpace(v.Description) != ""
}

// Filter returns the listing filter implied by the viewer's preferences.
// Students see mentors from their target universities; mentors see students
// targeting the mentor's university. Admission type must match on both sides.
func (v *Viewer) Filter() *candidate.Filter {
	f := &candidate.Filter{}
	if v.AdmissionType != nil {
		f.AdmissionType = *v.AdmissionType
	}
	switch v.Role {
	case candidate.KindStudent:
		f.Universities = v.TargetUniversities
	case candidate.KindMentor:
		if v.University != nil && *v.University != "" {
			f.Universities = []string{*v.University}
		}
	}
	return f
}

// Request describes one feed page request.
type Request struct {
	// Viewer is nil for anonymous browsing.
	Viewer *Viewer

	// Audience is the kind of profile listed.
	Audience candidate.Kind

	// Filtered restricts the listing to the viewer's preferences.
	Filtered bool

	Page int
	Size int
}
