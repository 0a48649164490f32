package engine

import (
	"context"
)

// HookFunc is the callable entry point for one lifecycle phase of one
// component. The invocation carries the component's directory and any
// provisioner outputs for the deployment.
type HookFunc func(ctx context.Context, inv Invocation) error

// Component is one addressable node of the application hierarchy. The tree
// is built once per run, owned exclusively parent-to-child, and walked
// read-only by the traversal.
type Component struct {
	name     string
	path     string
	hooks    map[Phase]HookFunc
	children []*Component
}

// NewComponent creates a component with no capabilities and no children.
func NewComponent(name, path string) *Component {
	return &Component{
		name:  name,
		path:  path,
		hooks: make(map[Phase]HookFunc),
	}
}

// WithHook registers the hook implementing the given phase and returns the
// component for chaining. Nil hooks and invalid phases are ignored.
func (c *Component) WithHook(p Phase, hook HookFunc) *Component {
	if hook == nil || p.Validate() != nil {
		return c
	}
	c.hooks[p] = hook
	return c
}

// WithChildren appends child components in order and returns the component
// for chaining.
func (c *Component) WithChildren(children ...*Component) *Component {
	c.children = append(c.children, children...)
	return c
}

// Name returns the component name, unique among its siblings.
func (c *Component) Name() string {
	return c.name
}

// Path returns the component's directory path.
func (c *Component) Path() string {
	return c.path
}

// Children returns the ordered child components.
func (c *Component) Children() []*Component {
	return c.children
}

// Capabilities returns the set of phases this component implements.
func (c *Component) Capabilities() CapabilitySet {
	var s CapabilitySet
	for p := range c.hooks {
		s = s.With(p)
	}
	return s
}

// HasCapability reports whether the component implements the given phase.
func (c *Component) HasCapability(p Phase) bool {
	_, ok := c.hooks[p]
	return ok
}

// Invoke runs the component's hook for the given phase. Callers must check
// HasCapability first: invoking an absent phase is a contract violation and
// returns an internal-class error rather than a recoverable condition.
func (c *Component) Invoke(ctx context.Context, p Phase, inv Invocation) error {
	hook, ok := c.hooks[p]
	if !ok {
		return NewInternalError("phase invoked without capability", nil).
			WithCode(ErrCodeContractViolation).
			WithComponent(c.name).
			WithPhase(p)
	}
	return hook(ctx, inv)
}
