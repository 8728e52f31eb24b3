package types

// ApplyStatus describes the outcome of one application attempt
type ApplyStatus string

const (
	// ApplySimulated means every control was located but the submit control was deliberately not clicked
	ApplySimulated ApplyStatus = "submitted-simulated"
	// ApplySubmitted means the submit control was clicked
	ApplySubmitted ApplyStatus = "submitted"
	// ApplyNavigatedOnly means the site is not recognized, so only navigation happened
	ApplyNavigatedOnly ApplyStatus = "navigated-only"
	// ApplyFailed means an element lookup or interaction failed
	ApplyFailed ApplyStatus = "failed"
)

// ApplicationResult records what happened when applying to one job
type ApplicationResult struct {
	URL        string      `json:"url"`
	ResumePath string      `json:"resume_path"`
	Site       string      `json:"site,omitempty"`
	Status     ApplyStatus `json:"status"`
	Err        string      `json:"error,omitempty"`
}

// OK reports whether the attempt finished without an automation failure
func (r ApplicationResult) OK() bool {
	return r.Status != ApplyFailed
}
