// Package candidate provides read access to mentor and student profiles
// that can appear in another party's feed.
package candidate

import (
	"context"
	"errors"
	"slices"
	"strings"
)

// ErrNotFound is returned when a profile lookup matches no record.
var ErrNotFound = errors.New("candidate not found")

// Kind identifies which side of the platform a profile belongs to.
type Kind string

const (
	// KindMentor is a mentor profile.
	KindMentor Kind = "mentor"
	// KindStudent is a student (user) profile.
	KindStudent Kind = "student"
)

// Opposite returns the kind whose profiles a viewer of k browses.
func (k Kind) Opposite() Kind {
	if k == KindMentor {
		return KindStudent
	}
	return KindMentor
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindMentor || k == KindStudent
}

// Admission pathways stored on profiles.
const (
	AdmissionExam      = "ЕГЭ"
	AdmissionOlympiads = "олимпиады"
)

// Record is a profile row as read from the backing store.
// Mentor rows use University; student rows use TargetUniversities.
type Record struct {
	ID                 int64    `json:"id"`
	Kind               Kind     `json:"kind"`
	Login              string   `json:"login"`
	Name               *string  `json:"name,omitempty"`
	Title              *string  `json:"title,omitempty"`
	Description        *string  `json:"description,omitempty"`
	University         *string  `json:"university,omitempty"`
	TargetUniversities []string `json:"target_universities,omitempty"`
	AdmissionType      *string  `json:"admission_type,omitempty"`
	AvatarUUID         *string  `json:"avatar_uuid,omitempty"`
	IsActive           bool     `json:"is_active"`
}

// Filter narrows a listing to profiles matching the viewer's stated preferences.
//
// For mentor listings, Universities restricts mentor.university to the set.
// For student listings, Universities[0] must appear in student.target_universities.
// Empty fields do not constrain the listing.
type Filter struct {
	Universities  []string
	AdmissionType string
}

// IsEmpty reports whether the filter constrains nothing.
func (f *Filter) IsEmpty() bool {
	return f == nil || (len(f.Universities) == 0 && f.AdmissionType == "")
}

// Canonical returns a stable textual form of the filter, independent of the
// order universities were supplied in. A nil filter canonicalizes to "".
func (f *Filter) Canonical() string {
	if f.IsEmpty() {
		return ""
	}
	unis := slices.Clone(f.Universities)
	slices.Sort(unis)
	unis = slices.Compact(unis)
	return "universities=" + strings.Join(unis, "\x1f") + "\x1eadmission=" + f.AdmissionType
}

// Repository defines read operations over candidate profiles.
type Repository interface {
	// List returns up to limit profiles of the given kind ordered by id,
	// together with the total count of profiles matching the filter.
	// A nil filter lists everything.
	List(ctx context.Context, kind Kind, filter *Filter, limit int) ([]*Record, int, error)

	// GetByLogin returns the profile with the given login or ErrNotFound.
	GetByLogin(ctx context.Context, kind Kind, login string) (*Record, error)
}

// matches reports whether rec satisfies filter under the listing semantics
// for kind. Shared with the in-memory repository.
func matches(rec *Record, kind Kind, filter *Filter) bool {
	if filter.IsEmpty() {
		return true
	}
	if filter.AdmissionType != "" {
		if rec.AdmissionType == nil || *rec.AdmissionType != filter.AdmissionType {
			return false
		}
	}
	if len(filter.Universities) == 0 {
		return true
	}
	switch kind {
	case KindMentor:
		return rec.University != nil && slices.Contains(filter.Universities, *rec.University)
	default:
		return slices.Contains(rec.TargetUniversities, filter.Universities[0])
	}
}
