package extract

import "time"

// ComponentDescriptor identifies one component to extract. Descriptors come
// from discovery and are never modified by the pipeline.
type ComponentDescriptor struct {
	Name       string `json:"name"`
	SourcePath string `json:"source_path"`
	ImportPath string `json:"import_path"`
}

// MemberRecord is one declared prop.
//
// Default is nil when the member has no @default tag and points at "" when
// the tag is present but empty, so the two survive a JSON round trip.
type MemberRecord struct {
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Required    bool    `json:"required"`
	Default     *string `json:"default,omitempty"`
}

// HasDefault reports whether a default tag was present.
func (m MemberRecord) HasDefault() bool { return m.Default != nil }

// EventRecord is the event view of a MemberRecord whose name follows the
// on<Upper> convention.
type EventRecord struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// SlotRecord is reserved in the output schema. Extraction never fills it.
type SlotRecord struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ComponentResult is the extracted contract of one component.
type ComponentResult struct {
	ComponentName string         `json:"component_name"`
	ImportPath    string         `json:"import_path"`
	Props         []MemberRecord `json:"props"`
	Events        []EventRecord  `json:"events"`
	Slots         []SlotRecord   `json:"slots"`
}

// newComponentResult returns a result whose lists serialize as [] rather
// than null.
func newComponentResult(desc ComponentDescriptor, props []MemberRecord) *ComponentResult {
	if props == nil {
		props = []MemberRecord{}
	}
	return &ComponentResult{
		ComponentName: desc.Name,
		ImportPath:    desc.ImportPath,
		Props:         props,
		Events:        ClassifyEvents(props),
		Slots:         []SlotRecord{},
	}
}

// Prop returns the member with the given name.
func (r *ComponentResult) Prop(name string) (MemberRecord, bool) {
	for _, p := range r.Props {
		if p.Name == name {
			return p, true
		}
	}
	return MemberRecord{}, false
}

// Summary returns the index entry for r. file is the name the writer stores
// the component under.
func (r *ComponentResult) Summary(file string) ComponentSummary {
	return ComponentSummary{
		File:          file,
		ComponentName: r.ComponentName,
		ImportPath:    r.ImportPath,
		PropsCount:    len(r.Props),
		EventsCount:   len(r.Events),
		HasSlots:      len(r.Slots) > 0,
	}
}

// ComponentSummary is one row of the library index.
type ComponentSummary struct {
	File          string `json:"file"`
	ComponentName string `json:"component_name"`
	ImportPath    string `json:"import_path"`
	PropsCount    int    `json:"props_count"`
	EventsCount   int    `json:"events_count"`
	HasSlots      bool   `json:"has_slots"`
}

// LibraryIndex summarizes one extraction run.
type LibraryIndex struct {
	Description     string             `json:"description"`
	Version         string             `json:"version"`
	ExtractionDate  time.Time          `json:"extraction_date"`
	RunID           string             `json:"run_id,omitempty"`
	TotalComponents int                `json:"total_components"`
	Components      []ComponentSummary `json:"components"`
}

// FailureKind classifies a component that produced no result.
type FailureKind string

const (
	FailureSourceUnavailable FailureKind = "source_unavailable"
	FailureParse             FailureKind = "parse_failure"
)

// Failure records a component skipped by the run.
type Failure struct {
	ComponentName string      `json:"component_name"`
	SourcePath    string      `json:"source_path"`
	Kind          FailureKind `json:"kind"`
	Reason        string      `json:"reason"`
}

// DiagnosticKind names a non-fatal condition.
type DiagnosticKind string

const (
	// DiagNoMatchingInterface: no declaration matched the naming strategy.
	DiagNoMatchingInterface DiagnosticKind = "no_matching_interface"
	// DiagTypeFallback: a member type was rendered from raw source text.
	DiagTypeFallback DiagnosticKind = "type_resolution_fallback"
)

// Diagnostic is a non-fatal observation attached to a component, and for
// type fallbacks to one member.
type Diagnostic struct {
	ComponentName string         `json:"component_name"`
	Member        string         `json:"member,omitempty"`
	Kind          DiagnosticKind `json:"kind"`
	Detail        string         `json:"detail"`
}

// RunResult is everything a Run produces. Results and Index.Components are
// in discovery order.
type RunResult struct {
	Results     []ComponentResult `json:"results"`
	Index       LibraryIndex      `json:"index"`
	Failures    []Failure         `json:"failures"`
	Diagnostics []Diagnostic      `json:"diagnostics"`
}
