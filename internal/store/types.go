package store

import "time"

// RunRecord is one stored run.
type RunRecord struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Suites     []string
	Cases      []CaseRecord
	Exports    map[string]any
}

// CaseRecord is one case of a run.
type CaseRecord struct {
	TestID   string
	Status   string
	Command  string
	Duration time.Duration
	Errors   []string
}

// RunSummary is a run without its cases and exports.
type RunSummary struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Suites     []string
	Total      int
	Passed     int
	Failed     int
	Skipped    int
}

// Summary counts the cases of r by status.
func (r *RunRecord) Summary() RunSummary {
	s := RunSummary{
		ID:         r.ID,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Suites:     r.Suites,
		Total:      len(r.Cases),
	}
	for _, c := range r.Cases {
		switch c.Status {
		case StatusPassed:
			s.Passed++
		case StatusFailed:
			s.Failed++
		case StatusSkipped:
			s.Skipped++
		}
	}
	return s
}

// Case statuses as stored.
const (
	StatusPassed  = "passed"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)
