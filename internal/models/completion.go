package models

import "math"

// CompletionProgress maps a setup section name to whether it is satisfied
type CompletionProgress map[string]bool

// Percentage is the rounded share of satisfied sections
func (p CompletionProgress) Percentage() int {
	if len(p) == 0 {
		return 0
	}
	done := 0
	for _, ok := range p {
		if ok {
			done++
		}
	}
	return int(math.Round(float64(done) / float64(len(p)) * 100))
}

// Complete reports whether every section is satisfied
func (p CompletionProgress) Complete() bool {
	if len(p) == 0 {
		return false
	}
	for _, ok := range p {
		if !ok {
			return false
		}
	}
	return true
}

// Missing returns the unsatisfied sections in the given order
func (p CompletionProgress) Missing(order []string) []string {
	missing := []string{}
	for _, section := range order {
		if !p[section] {
			missing = append(missing, section)
		}
	}
	return missing
}

// CompletionResult is the outcome of evaluating a listing
type CompletionResult struct {
	Progress   CompletionProgress `json:"completionProgress"`
	Complete   bool               `json:"isSetupComplete"`
	Percentage int                `json:"completionPercentage"`
}

// section pairs a section name with whether it is satisfied
type section struct {
	name string
	ok   bool
}

func evaluateSections(sections ...section) CompletionResult {
	progress := make(CompletionProgress, len(sections))
	for _, s := range sections {
		progress[s.name] = s.ok
	}
	return CompletionResult{
		Progress:   progress,
		Complete:   progress.Complete(),
		Percentage: progress.Percentage(),
	}
}

func emptyProgress(names []string) CompletionProgress {
	progress := make(CompletionProgress, len(names))
	for _, name := range names {
		progress[name] = false
	}
	return progress
}

// ApplyCompletion evaluates the listing and records the result on it.
// The listing still has to be persisted by the caller.
func ApplyCompletion(l BusinessListing) CompletionResult {
	result := l.Evaluate()
	base := l.Base()
	base.CompletionProgress = result.Progress
	base.IsSetupComplete = result.Complete
	return result
}

// ActivationOutcome describes what Activate did to a listing
type ActivationOutcome int

const (
	// ActivationRejected means the listing is incomplete and was left untouched
	ActivationRejected ActivationOutcome = iota
	// ActivationApplied means the listing moved from pending to active
	ActivationApplied
	// ActivationUnchanged means the listing was already active
	ActivationUnchanged
	// ActivationLocked means an admin has taken the listing offline
	ActivationLocked
)

// Activate runs the pending -> active transition. The listing is only
// mutated when the outcome is ActivationApplied or ActivationUnchanged.
func Activate(l BusinessListing) (CompletionResult, ActivationOutcome) {
	result := l.Evaluate()
	base := l.Base()

	switch base.Status {
	case StatusInactive, StatusSuspended:
		return result, ActivationLocked
	}

	if !result.Complete {
		return result, ActivationRejected
	}

	base.CompletionProgress = result.Progress
	base.IsSetupComplete = true

	if base.Status == StatusActive {
		return result, ActivationUnchanged
	}

	base.Status = StatusActive
	return result, ActivationApplied
}
