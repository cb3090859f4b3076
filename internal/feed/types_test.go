package feed

import (
	"slices"
	"testing"

	"github.com/onnwee/mentorfeed/internal/candidate"
)

func TestViewer_HasDescription(t *testing.T) {
	var nilViewer *Viewer
	tests := []struct {
		name   string
		viewer *Viewer
		want   bool
	}{
		{"nil viewer", nilViewer, false},
		{"empty", &Viewer{}, false},
		{"whitespace", &Viewer{Description: " \n\t "}, false},
		{"text", &Viewer{Description: "physics"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.viewer.HasDescription(); got != tt.want {
				t.Errorf("HasDescription() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestViewer_Filter(t *testing.T) {
	student := &Viewer{
		Role:               candidate.KindStudent,
		TargetUniversities: []string{"MSU", "MIPT"},
		AdmissionType:      strPtr(candidate.AdmissionExam),
	}
	f := student.Filter()
	if !slices.Equal(f.Universities, []string{"MSU", "MIPT"}) || f.AdmissionType != candidate.AdmissionExam {
		t.Errorf("unexpected student filter: %+v", f)
	}

	mentor := &Viewer{Role: candidate.KindMentor, University: strPtr("HSE")}
	f = mentor.Filter()
	if !slices.Equal(f.Universities, []string{"HSE"}) || f.AdmissionType != "" {
		t.Errorf("unexpected mentor filter: %+v", f)
	}

	bare := &Viewer{Role: candidate.KindMentor}
	if !bare.Filter().IsEmpty() {
		t.Errorf("expected empty filter for viewer without preferences, got %+v", bare.Filter())
	}
}

func TestViewerFromRecord(t *testing.T) {
	rec := &candidate.Record{
		ID:          3,
		Kind:        candidate.KindStudent,
		Login:       "dima",
		Description: strPtr("want MIPT"),
	}
	v := ViewerFromRecord(rec)
	if v.ID != 3 || v.Login != "dima" || v.Role != candidate.KindStudent || v.Description != "want MIPT" {
		t.Errorf("unexpected viewer: %+v", v)
	}

	v = ViewerFromRecord(&candidate.Record{ID: 4, Kind: candidate.KindMentor})
	if v.Description != "" || v.HasDescription() {
		t.Errorf("expected empty description, got %q", v.Description)
	}
}
