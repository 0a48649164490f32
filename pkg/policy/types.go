// Package policy gates lifecycle operations with Rego rules evaluated by
// OPA. Policies see the operation, the target deployment, and the planned
// component list; any rule in the policy's deny set blocks the run before
// traversal starts.
package policy

import (
	"time"

	"github.com/bosun-deploy/bosun/pkg/engine"
)

// Severity represents the severity level of a policy violation.
type Severity string

const (
	// SeverityInfo is for informational messages.
	SeverityInfo Severity = "info"

	// SeverityWarning is for warnings that should be reviewed but do not
	// block the run.
	SeverityWarning Severity = "warning"

	// SeverityError is for violations that block the run.
	SeverityError Severity = "error"
)

// Policy is one named Rego rule set.
type Policy struct {
	// Name is the unique name of the policy.
	Name string `json:"name"`

	// Description provides a human-readable description.
	Description string `json:"description"`

	// Rego contains the Rego policy code.
	Rego string `json:"rego"`

	// Severity is the default severity for violations the rule does not
	// classify itself.
	Severity Severity `json:"severity"`

	// Enabled indicates if the policy is active.
	Enabled bool `json:"enabled"`
}

// Violation is a single policy violation.
type Violation struct {
	// Policy is the name of the policy that was violated.
	Policy string `json:"policy"`

	// Message is a human-readable violation message.
	Message string `json:"message"`

	// Severity is the violation severity level.
	Severity Severity `json:"severity"`
}

// Decision is the outcome of evaluating all enabled policies against one
// planned run.
type Decision struct {
	// Allowed indicates if the run may proceed. Violations at error
	// severity deny the run; lower severities do not.
	Allowed bool `json:"allowed"`

	// Violations lists all violations, including non-blocking ones.
	Violations []Violation `json:"violations,omitempty"`

	// Warnings lists evaluation problems (not violations) encountered
	// while running individual policies.
	Warnings []string `json:"warnings,omitempty"`

	// EvaluatedAt is when the evaluation ran.
	EvaluatedAt time.Time `json:"evaluated_at"`
}

// Denials returns the violations that block the run.
func (d *Decision) Denials() []Violation {
	var out []Violation
	for _, v := range d.Violations {
		if v.Severity == SeverityError {
			out = append(out, v)
		}
	}
	return out
}

// Input is the document policies evaluate against.
type Input struct {
	// Operation is the phase being run.
	Operation string `json:"operation"`

	// Destructive marks operations that tear state down.
	Destructive bool `json:"destructive"`

	// DestroyRoot marks undeploy runs that also destroy the root module.
	DestroyRoot bool `json:"destroy_root,omitempty"`

	// Scope is the component subtree the run is restricted to, if any.
	Scope string `json:"scope,omitempty"`

	// Deployment describes the target deployment.
	Deployment InputDeployment `json:"deployment"`

	// Components are the planned components in traversal order.
	Components []InputComponent `json:"components"`
}

// InputDeployment is the deployment section of the policy input.
type InputDeployment struct {
	// Name is the deployment name.
	Name string `json:"name"`

	// RootModule is the root provisioning module directory.
	RootModule string `json:"root_module"`

	// Labels are the deployment's labels.
	Labels map[string]string `json:"labels,omitempty"`
}

// InputComponent is one component entry of the policy input.
type InputComponent struct {
	// Path is the slash-separated component path.
	Path string `json:"path"`

	// Capabilities are the phases the component implements.
	Capabilities []string `json:"capabilities"`
}

// BuildInput assembles the policy input for one planned run.
func BuildInput(d *engine.Deployment, op engine.Phase, opts engine.Options) Input {
	in := Input{
		Operation:   string(op),
		Destructive: op.IsDestructive(),
		DestroyRoot: opts.DestroyRoot,
		Scope:       opts.Component,
		Deployment: InputDeployment{
			Name:       d.Name,
			RootModule: d.RootModule,
			Labels:     d.Labels,
		},
	}

	steps, err := engine.PlanSteps(d, op, opts.Component)
	if err != nil {
		return in
	}
	for _, step := range steps {
		caps := step.Component.Capabilities().Phases()
		names := make([]string, len(caps))
		for i, p := range caps {
			names[i] = string(p)
		}
		in.Components = append(in.Components, InputComponent{
			Path:         step.Path,
			Capabilities: names,
		})
	}
	return in
}
