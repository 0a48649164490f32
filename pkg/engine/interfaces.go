package engine

import (
	"context"
)

// Provisioner is the external collaborator performing infrastructure
// provisioning for a deployment's root module. The engine calls it once per
// deployment, never per component, and treats its failures exactly like
// component phase failures.
type Provisioner interface {
	// ApplyRoot provisions the root module and returns its outputs.
	ApplyRoot(ctx context.Context, rootModule string) (Outputs, error)

	// DestroyRoot tears the root module down.
	DestroyRoot(ctx context.Context, rootModule string) error

	// OutputsRoot reads the root module's current outputs without changing
	// any infrastructure. Used by deploy and undeploy runs so component
	// hooks can see previously provisioned resource identifiers.
	OutputsRoot(ctx context.Context, rootModule string) (Outputs, error)
}

// Observer receives traversal callbacks. It lets callers attach progress
// output, metrics, and tracing without coupling the engine to them. All
// callbacks are invoked from the single traversal goroutine.
type Observer interface {
	// StepStarted is called before a component hook is invoked. It is not
	// called for skipped or not-attempted steps.
	StepStarted(step Step)

	// StepCompleted is called after each step is recorded, including
	// skipped and not-attempted steps.
	StepCompleted(result Result)

	// RunCompleted is called once with the finalized report.
	RunCompleted(report *Report)
}

// CombineObservers fans callbacks out to multiple observers in order.
// Nil entries are dropped.
func CombineObservers(observers ...Observer) Observer {
	var list observerList
	for _, o := range observers {
		if o != nil {
			list = append(list, o)
		}
	}
	return list
}

type observerList []Observer

func (l observerList) StepStarted(step Step) {
	for _, o := range l {
		o.StepStarted(step)
	}
}

func (l observerList) StepCompleted(result Result) {
	for _, o := range l {
		o.StepCompleted(result)
	}
}

func (l observerList) RunCompleted(report *Report) {
	for _, o := range l {
		o.RunCompleted(report)
	}
}
