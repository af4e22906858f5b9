package domain

import "time"

// FilingStage is one step of the per-filing state machine.
type FilingStage string

const (
	StageDiscovered FilingStage = "discovered"
	StageNormalized FilingStage = "normalized"
	StageSkipped    FilingStage = "skipped"
	StageSummarized FilingStage = "summarized"
	StageStored     FilingStage = "stored"
	StageAbandoned  FilingStage = "abandoned"
)

// Terminal reports whether no further transition can follow s.
func (s FilingStage) Terminal() bool {
	return s == StageSkipped || s == StageStored || s == StageAbandoned
}

// FilingOutcome is the trail one raw filing left during a run.
type FilingOutcome struct {
	DocketNumber string        `json:"docket"`
	ExternalID   string        `json:"filing_id"`
	Trail        []FilingStage `json:"trail"`
	Reason       string        `json:"reason,omitempty"`
}

// Stage returns the last stage reached.
func (o FilingOutcome) Stage() FilingStage {
	if len(o.Trail) == 0 {
		return ""
	}
	return o.Trail[len(o.Trail)-1]
}

// Advance appends a stage to the trail.
func (o *FilingOutcome) Advance(stage FilingStage) {
	o.Trail = append(o.Trail, stage)
}

// Abandon ends the trail with a reason.
func (o *FilingOutcome) Abandon(reason string) {
	o.Trail = append(o.Trail, StageAbandoned)
	o.Reason = reason
}

// ErrorScope says how far an error reached before it was contained.
type ErrorScope string

const (
	ScopeRun    ErrorScope = "run"
	ScopeDocket ErrorScope = "docket"
	ScopeFiling ErrorScope = "filing"
)

// RunError is one contained failure recorded during a run.
type RunError struct {
	Scope        ErrorScope `json:"scope"`
	DocketNumber string     `json:"docket,omitempty"`
	FilingID     string     `json:"filing_id,omitempty"`
	Message      string     `json:"message"`
}

// RunSummary aggregates one sweep across all watched dockets.
type RunSummary struct {
	RunID             string          `json:"run_id"`
	Trigger           string          `json:"trigger"`
	StartedAt         time.Time       `json:"started_at"`
	Duration          time.Duration   `json:"duration"`
	DocketsConsidered int             `json:"dockets_considered"`
	FilingsDiscovered int             `json:"filings_discovered"`
	FilingsStored     int             `json:"processed"`
	FilingsSkipped    int             `json:"skipped"`
	Errors            []RunError      `json:"errors"`
	Outcomes          []FilingOutcome `json:"outcomes,omitempty"`
}

// ErrorsFor returns the errors recorded against a docket.
func (s RunSummary) ErrorsFor(docketNumber string) []RunError {
	var out []RunError
	for _, e := range s.Errors {
		if e.DocketNumber == docketNumber {
			out = append(out, e)
		}
	}
	return out
}

// Outcome looks up the trail of a filing by external id.
func (s RunSummary) Outcome(externalID string) (FilingOutcome, bool) {
	for _, o := range s.Outcomes {
		if o.ExternalID == externalID {
			return o, true
		}
	}
	return FilingOutcome{}, false
}
