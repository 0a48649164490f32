package engine

import (
	"fmt"
	"time"
)

// ResultStatus is the outcome of one planned (component, phase) step.
type ResultStatus string

const (
	// ResultSucceeded indicates the phase hook completed without error.
	ResultSucceeded ResultStatus = "succeeded"

	// ResultSkipped indicates the component does not implement the phase.
	// This is an expected condition, not an error.
	ResultSkipped ResultStatus = "skipped"

	// ResultFailed indicates the phase hook returned an error.
	ResultFailed ResultStatus = "failed"

	// ResultNotAttempted indicates the component implements the phase (or
	// was never reached) but traversal aborted before it ran.
	ResultNotAttempted ResultStatus = "not-attempted"
)

// Validate checks if the result status is valid.
func (s ResultStatus) Validate() error {
	switch s {
	case ResultSucceeded, ResultSkipped, ResultFailed, ResultNotAttempted:
		return nil
	default:
		return fmt.Errorf("invalid result status: %s", s)
	}
}

// RunStatus is the overall status of one operation run.
type RunStatus string

const (
	// RunSuccess indicates every planned step succeeded or was skipped.
	RunSuccess RunStatus = "success"

	// RunPartialFailure indicates at least one step failed and traversal
	// aborted at the failure point.
	RunPartialFailure RunStatus = "partial-failure"

	// RunAborted indicates traversal stopped before recording any step
	// failure: the root provisioning call failed before components ran, or
	// the run was cancelled between steps.
	RunAborted RunStatus = "aborted"
)

// Validate checks if the run status is valid.
func (s RunStatus) Validate() error {
	switch s {
	case RunSuccess, RunPartialFailure, RunAborted:
		return nil
	default:
		return fmt.Errorf("invalid run status: %s", s)
	}
}

// Result records the outcome of one (component, phase) step.
type Result struct {
	// Component is the slash-separated component path.
	Component string `json:"component"`

	// Path is the component's directory.
	Path string `json:"path"`

	// Phase is the lifecycle phase that was planned for the component.
	Phase Phase `json:"phase"`

	// Status is the step outcome.
	Status ResultStatus `json:"status"`

	// Error is the failure detail when Status is failed.
	Error *EngineError `json:"error,omitempty"`

	// StartedAt is when the hook started, zero for steps that never ran.
	StartedAt time.Time `json:"started_at,omitempty"`

	// Duration is the hook execution time.
	Duration time.Duration `json:"duration,omitempty"`
}

// ProvisionAction identifies a provisioner call within a run.
type ProvisionAction string

const (
	// ProvisionApply is the root-module apply call.
	ProvisionApply ProvisionAction = "apply"

	// ProvisionDestroy is the root-module destroy call.
	ProvisionDestroy ProvisionAction = "destroy"
)

// ProvisionRecord records the outcome of one provisioner call. Provisioner
// calls are kept separate from per-component results so the result list
// always has exactly one entry per planned component.
type ProvisionRecord struct {
	// Action is the provisioner call that was made.
	Action ProvisionAction `json:"action"`

	// RootModule is the root module directory the call targeted.
	RootModule string `json:"root_module"`

	// Status is the call outcome (succeeded or failed).
	Status ResultStatus `json:"status"`

	// Error is the failure detail when Status is failed.
	Error *EngineError `json:"error,omitempty"`

	// StartedAt is when the call started.
	StartedAt time.Time `json:"started_at"`

	// Duration is the call execution time.
	Duration time.Duration `json:"duration"`
}

// Summary provides counts over the per-step results of a run.
type Summary struct {
	// Total is the number of planned steps.
	Total int `json:"total"`

	// Succeeded is the number of steps that succeeded.
	Succeeded int `json:"succeeded"`

	// Skipped is the number of steps skipped for lack of capability.
	Skipped int `json:"skipped"`

	// Failed is the number of steps that failed.
	Failed int `json:"failed"`

	// NotAttempted is the number of steps the abort policy cut off.
	NotAttempted int `json:"not_attempted"`
}

// Report is the ordered record of one operation run across a deployment.
// It is appended to only by the single traversal goroutine and immutable
// once the run completes.
type Report struct {
	// RunID uniquely identifies this run.
	RunID string `json:"run_id"`

	// Deployment is the deployment the run operated on.
	Deployment string `json:"deployment"`

	// Operation is the phase the run executed.
	Operation Phase `json:"operation"`

	// StartedAt is when the run started.
	StartedAt time.Time `json:"started_at"`

	// CompletedAt is when the run completed.
	CompletedAt time.Time `json:"completed_at"`

	// Duration is the total run time.
	Duration time.Duration `json:"duration"`

	// Provision is the root-module apply record, present for apply runs.
	Provision *ProvisionRecord `json:"provision,omitempty"`

	// Destroy is the root-module destroy record, present for undeploy runs
	// that requested root destruction.
	Destroy *ProvisionRecord `json:"destroy,omitempty"`

	// Results are the per-step outcomes in execution order, one entry per
	// planned (component, phase) step.
	Results []Result `json:"results"`

	// Summary provides counts over Results.
	Summary Summary `json:"summary"`

	// Status is the overall run outcome.
	Status RunStatus `json:"status"`
}

// FirstFailure returns the first failed result, or nil if no step failed.
func (r *Report) FirstFailure() *Result {
	for i := range r.Results {
		if r.Results[i].Status == ResultFailed {
			return &r.Results[i]
		}
	}
	return nil
}

// finalize computes the summary and overall status once the run is over.
func (r *Report) finalize(completed time.Time) {
	r.CompletedAt = completed
	r.Duration = completed.Sub(r.StartedAt)

	summary := Summary{Total: len(r.Results)}
	for i := range r.Results {
		switch r.Results[i].Status {
		case ResultSucceeded:
			summary.Succeeded++
		case ResultSkipped:
			summary.Skipped++
		case ResultFailed:
			summary.Failed++
		case ResultNotAttempted:
			summary.NotAttempted++
		}
	}
	r.Summary = summary

	switch {
	case r.Provision != nil && r.Provision.Status == ResultFailed:
		r.Status = RunAborted
	case summary.Failed > 0:
		r.Status = RunPartialFailure
	case r.Destroy != nil && r.Destroy.Status == ResultFailed:
		r.Status = RunPartialFailure
	case summary.NotAttempted > 0:
		r.Status = RunAborted
	default:
		r.Status = RunSuccess
	}
}
