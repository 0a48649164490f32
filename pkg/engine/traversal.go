package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Step is one planned (component, phase) invocation.
type Step struct {
	// Component is the tree node to invoke.
	Component *Component

	// Path is the slash-separated component path from the tree root.
	Path string

	// Phase is the lifecycle phase to invoke.
	Phase Phase
}

// PlanSteps computes the ordered step sequence for one operation across the
// deployment's tree. Siblings keep their declared order in every operation:
//
//   - build, package: post-order (children before parent).
//   - apply, deploy: pre-order (parent before children).
//   - undeploy: the exact reverse of the deploy order.
//
// A non-empty scope restricts the plan to the named component (a
// slash-separated path) and its descendants.
func PlanSteps(d *Deployment, op Phase, scope string) ([]Step, error) {
	if err := op.Validate(); err != nil {
		return nil, NewConfigError("invalid operation", err).WithCode(ErrCodeValidation)
	}

	type root struct {
		c    *Component
		path string
	}
	var roots []root
	if scope != "" {
		c := d.Find(scope)
		if c == nil {
			return nil, NewConfigError(
				fmt.Sprintf("component %q not found in deployment %q", scope, d.Name), nil).
				WithCode(ErrCodeNotFound)
		}
		roots = []root{{c: c, path: scope}}
	} else {
		for _, c := range d.Components {
			roots = append(roots, root{c: c, path: c.Name()})
		}
	}

	var steps []Step
	var pre func(c *Component, path string)
	pre = func(c *Component, path string) {
		steps = append(steps, Step{Component: c, Path: path, Phase: op})
		for _, child := range c.Children() {
			pre(child, path+"/"+child.Name())
		}
	}
	var post func(c *Component, path string)
	post = func(c *Component, path string) {
		for _, child := range c.Children() {
			post(child, path+"/"+child.Name())
		}
		steps = append(steps, Step{Component: c, Path: path, Phase: op})
	}

	switch op {
	case PhaseBuild, PhasePackage:
		for _, r := range roots {
			post(r.c, r.path)
		}
	case PhaseApply, PhaseDeploy:
		for _, r := range roots {
			pre(r.c, r.path)
		}
	case PhaseUndeploy:
		for _, r := range roots {
			pre(r.c, r.path)
		}
		for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
			steps[i], steps[j] = steps[j], steps[i]
		}
	}

	return steps, nil
}

// Traverser executes planned steps sequentially across a deployment tree,
// consulting the Provisioner for apply and undeploy runs and enforcing the
// fail-fast abort policy.
type Traverser struct {
	provisioner Provisioner
	logger      zerolog.Logger
	observer    Observer
}

// NewTraverser creates a traverser. The provisioner may be nil for runs that
// never provision (build, package, plain deploy against already-applied
// infrastructure); the observer may be nil.
func NewTraverser(provisioner Provisioner, logger zerolog.Logger, observer Observer) *Traverser {
	if observer == nil {
		observer = observerList(nil)
	}
	return &Traverser{
		provisioner: provisioner,
		logger:      logger,
		observer:    observer,
	}
}

// Options tune a single run.
type Options struct {
	// Component restricts the run to the named component subtree.
	Component string

	// NoCache forces rebuild of cached artifacts during build.
	NoCache bool

	// DestroyRoot tears the root module down after component undeploy.
	DestroyRoot bool

	// SkipWait skips the deployment's post-apply settle delay.
	SkipWait bool
}

// Run executes one operation across the deployment. Config errors detected
// before traversal begins return a nil report. Once traversal has begun,
// failures are recorded in the report and Run returns it with a nil error;
// callers read the report status.
func (t *Traverser) Run(ctx context.Context, d *Deployment, op Phase, opts Options) (*Report, error) {
	if d == nil {
		return nil, NewConfigError("deployment is nil", nil).WithCode(ErrCodeValidation)
	}
	if err := op.Validate(); err != nil {
		return nil, NewConfigError("invalid operation", err).WithCode(ErrCodeValidation)
	}
	if op == PhaseApply && t.provisioner == nil {
		return nil, NewConfigError("apply requires a provisioner", nil).WithCode(ErrCodeValidation)
	}
	if op == PhaseUndeploy && opts.DestroyRoot && t.provisioner == nil {
		return nil, NewConfigError("root destruction requires a provisioner", nil).WithCode(ErrCodeValidation)
	}

	steps, err := PlanSteps(d, op, opts.Component)
	if err != nil {
		return nil, err
	}

	report := &Report{
		RunID:      uuid.NewString(),
		Deployment: d.Name,
		Operation:  op,
		StartedAt:  time.Now(),
	}
	logger := t.logger.With().
		Str("run_id", report.RunID).
		Str("deployment", d.Name).
		Str("operation", string(op)).
		Logger()
	logger.Info().Int("steps", len(steps)).Msg("Starting run")

	var outputs Outputs
	switch op {
	case PhaseApply:
		rec := &ProvisionRecord{
			Action:     ProvisionApply,
			RootModule: d.RootModule,
			StartedAt:  time.Now(),
		}
		out, applyErr := t.provisioner.ApplyRoot(ctx, d.RootModule)
		rec.Duration = time.Since(rec.StartedAt)
		if applyErr != nil {
			rec.Status = ResultFailed
			rec.Error = provisionError(applyErr)
			report.Provision = rec
			logger.Error().Err(applyErr).Str("root_module", d.RootModule).
				Msg("Root module provisioning failed, aborting run")
			t.abortRemaining(report, steps, 0)
			report.finalize(time.Now())
			t.observer.RunCompleted(report)
			return report, nil
		}
		rec.Status = ResultSucceeded
		report.Provision = rec
		outputs = out

		if d.ApplyWait > 0 && !opts.SkipWait {
			logger.Info().Dur("wait", d.ApplyWait).
				Msg("Waiting for provisioned infrastructure to settle")
			select {
			case <-time.After(d.ApplyWait):
			case <-ctx.Done():
			}
		}

	case PhaseDeploy, PhaseUndeploy:
		if t.provisioner != nil {
			out, outErr := t.provisioner.OutputsRoot(ctx, d.RootModule)
			if outErr != nil {
				logger.Warn().Err(outErr).Str("root_module", d.RootModule).
					Msg("Root module outputs unavailable, hooks run without them")
			} else {
				outputs = out
			}
		}
	}

	aborted := false
	for i, step := range steps {
		if ctx.Err() != nil {
			logger.Warn().Err(ctx.Err()).Msg("Run cancelled, aborting traversal")
			t.abortRemaining(report, steps, i)
			aborted = true
			break
		}

		if !step.Component.HasCapability(op) {
			res := Result{
				Component: step.Path,
				Path:      step.Component.Path(),
				Phase:     op,
				Status:    ResultSkipped,
			}
			report.Results = append(report.Results, res)
			t.observer.StepCompleted(res)
			logger.Debug().Str("component", step.Path).Msg("Phase not implemented, skipping")
			continue
		}

		t.observer.StepStarted(step)
		logger.Info().Str("component", step.Path).Str("path", step.Component.Path()).
			Msg("Executing phase")

		inv := Invocation{
			Deployment: d.Name,
			Component:  step.Path,
			Path:       step.Component.Path(),
			Phase:      op,
			Outputs:    outputs,
			NoCache:    opts.NoCache,
		}
		started := time.Now()
		invokeErr := step.Component.Invoke(ctx, op, inv)
		res := Result{
			Component: step.Path,
			Path:      step.Component.Path(),
			Phase:     op,
			StartedAt: started,
			Duration:  time.Since(started),
		}
		if invokeErr != nil {
			res.Status = ResultFailed
			res.Error = classify(invokeErr).WithComponent(step.Path).WithPhase(op)
			report.Results = append(report.Results, res)
			t.observer.StepCompleted(res)
			logger.Error().Err(invokeErr).Str("component", step.Path).
				Msg("Phase failed, aborting traversal")
			t.abortRemaining(report, steps, i+1)
			aborted = true
			break
		}
		res.Status = ResultSucceeded
		report.Results = append(report.Results, res)
		t.observer.StepCompleted(res)
	}

	if op == PhaseUndeploy && opts.DestroyRoot && !aborted && ctx.Err() == nil {
		rec := &ProvisionRecord{
			Action:     ProvisionDestroy,
			RootModule: d.RootModule,
			StartedAt:  time.Now(),
		}
		if destroyErr := t.provisioner.DestroyRoot(ctx, d.RootModule); destroyErr != nil {
			rec.Status = ResultFailed
			rec.Error = provisionError(destroyErr)
			logger.Error().Err(destroyErr).Str("root_module", d.RootModule).
				Msg("Root module destroy failed")
		} else {
			rec.Status = ResultSucceeded
		}
		rec.Duration = time.Since(rec.StartedAt)
		report.Destroy = rec
	}

	report.finalize(time.Now())
	logger.Info().
		Str("status", string(report.Status)).
		Int("succeeded", report.Summary.Succeeded).
		Int("skipped", report.Summary.Skipped).
		Int("failed", report.Summary.Failed).
		Int("not_attempted", report.Summary.NotAttempted).
		Dur("duration", report.Duration).
		Msg("Run completed")
	t.observer.RunCompleted(report)
	return report, nil
}

// abortRemaining records every step from index from onwards as
// not-attempted.
func (t *Traverser) abortRemaining(report *Report, steps []Step, from int) {
	for _, step := range steps[from:] {
		res := Result{
			Component: step.Path,
			Path:      step.Component.Path(),
			Phase:     step.Phase,
			Status:    ResultNotAttempted,
		}
		report.Results = append(report.Results, res)
		t.observer.StepCompleted(res)
	}
}

// provisionError wraps a provisioner failure as an execution-class error.
func provisionError(err error) *EngineError {
	var e *EngineError
	if errors.As(err, &e) {
		return e
	}
	return NewExecutionError("root module provisioning failed", err).
		WithCode(ErrCodeProvisionerFailed)
}
