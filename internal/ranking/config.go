package ranking

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/goccy/go-json"

	"github.com/onnwee/mentorfeed/internal/candidate"
)

// DefaultModel is the chat model asked to rank candidates.
const DefaultModel = "qodo/gemini-2.0-flash"

// DefaultTemperature is the sampling temperature sent with each ranking call.
const DefaultTemperature = 0.7

// PromptSet is the wording used to rank one audience.
type PromptSet struct {
	System            string `json:"system"`             // system message
	Instruction       string `json:"instruction"`        // opening line of the user message
	ViewerHeading     string `json:"viewer_heading"`     // heading above the viewer description
	CandidatesHeading string `json:"candidates_heading"` // heading above the candidate list
	EmptyDescription  string `json:"empty_description"`  // stands in for a missing description
}

// Prompts holds the model settings and per-audience wording.
type Prompts struct {
	Model       string    `json:"model"`
	Temperature float64   `json:"temperature"`
	Mentor      PromptSet `json:"mentor"`  // ranking mentors for a student
	Student     PromptSet `json:"student"` // ranking students for a mentor
}

// PromptsFile is the JSON layout of a prompts file.
type PromptsFile struct {
	Version string  `json:"version"`
	Prompts Prompts `json:"prompts"`
}

// For returns the prompt set used when listing audience.
func (p *Prompts) For(audience candidate.Kind) PromptSet {
	if audience == candidate.KindStudent {
		return p.Student
	}
	return p.Mentor
}

// DefaultPrompts returns the built-in prompts.
func DefaultPrompts() *Prompts {
	return &Prompts{
		Model:       DefaultModel,
		Temperature: DefaultTemperature,
		Mentor: PromptSet{
			System:            "You help sort mentors by how interesting they are to a student, based on their descriptions.",
			Instruction:       "Answer with a JSON array containing only ids. Sort the mentors by decreasing interest for the student.",
			ViewerHeading:     "Student description",
			CandidatesHeading: "Mentor descriptions",
			EmptyDescription:  "No description",
		},
		Student: PromptSet{
			System:            "You help sort students by how interesting they are to a mentor, based on their descriptions.",
			Instruction:       "Answer with a JSON array containing only ids. Sort the students by decreasing interest for the mentor.",
			ViewerHeading:     "Mentor description",
			CandidatesHeading: "Student descriptions",
			EmptyDescription:  "No description",
		},
	}
}

// LoadPrompts loads prompts from a JSON file and merges them over the defaults.
// An empty path returns the defaults. When the file cannot be read or parsed
// the defaults are returned together with the error.
func LoadPrompts(filePath string) (*Prompts, error) {
	if filePath == "" {
		return DefaultPrompts(), nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		slog.Warn("failed to read ranking prompts file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultPrompts(), fmt.Errorf("failed to read ranking prompts file: %w", err)
	}

	var file PromptsFile
	if err := json.Unmarshal(data, &file); err != nil {
		slog.Warn("failed to parse ranking prompts file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultPrompts(), fmt.Errorf("failed to parse ranking prompts file: %w", err)
	}

	defaults := DefaultPrompts()
	merged := MergePrompts(defaults, &file.Prompts)
	logPromptOverrides(defaults, merged)

	return merged, nil
}

// MergePrompts applies the non-zero fields of override on top of base.
func MergePrompts(base, override *Prompts) *Prompts {
	if base == nil {
		base = DefaultPrompts()
	}
	result := *base
	if override == nil {
		return &result
	}

	if override.Model != "" {
		result.Model = override.Model
	}
	if override.Temperature != 0 {
		result.Temperature = override.Temperature
	}
	result.Mentor = mergePromptSet(result.Mentor, override.Mentor)
	result.Student = mergePromptSet(result.Student, override.Student)
	return &result
}

func mergePromptSet(base, override PromptSet) PromptSet {
	if override.System != "" {
		base.System = override.System
	}
	if override.Instruction != "" {
		base.Instruction = override.Instruction
	}
	if override.ViewerHeading != "" {
		base.ViewerHeading = override.ViewerHeading
	}
	if override.CandidatesHeading != "" {
		base.CandidatesHeading = override.CandidatesHeading
	}
	if override.EmptyDescription != "" {
		base.EmptyDescription = override.EmptyDescription
	}
	return base
}

func logPromptOverrides(defaults, loaded *Prompts) {
	var overrides []string
	if loaded.Model != defaults.Model {
		overrides = append(overrides, fmt.Sprintf("model: %s -> %s", defaults.Model, loaded.Model))
	}
	if loaded.Temperature != defaults.Temperature {
		overrides = append(overrides, fmt.Sprintf("temperature: %.2f -> %.2f", defaults.Temperature, loaded.Temperature))
	}
	if loaded.Mentor != defaults.Mentor {
		overrides = append(overrides, "mentor prompts")
	}
	if loaded.Student != defaults.Student {
		overrides = append(overrides, "student prompts")
	}

	if len(overrides) > 0 {
		slog.Info("loaded ranking prompts with overrides", "overrides", overrides)
	} else {
		slog.Info("loaded ranking prompts (using all defaults)")
	}
}
