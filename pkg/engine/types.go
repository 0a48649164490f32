package engine

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Deployment is the root entity of a run: one infrastructure root module and
// an ordered tree of components. It is built from the validated declaration
// at the start of a run and never mutated afterwards.
type Deployment struct {
	// Name uniquely identifies the deployment.
	Name string `json:"name"`

	// RootModule is the directory of the deployment's root provisioning
	// module (the path handed to the Provisioner).
	RootModule string `json:"root_module"`

	// ApplyWait is the settle delay after root provisioning, before any
	// component apply hook runs.
	ApplyWait time.Duration `json:"apply_wait,omitempty"`

	// Labels are key-value pairs for policy selection and reporting.
	Labels map[string]string `json:"labels,omitempty"`

	// Components are the top-level components in declared order.
	Components []*Component `json:"-"`
}

// NodeCount returns the total number of components in the tree.
func (d *Deployment) NodeCount() int {
	n := 0
	var walk func(c *Component)
	walk = func(c *Component) {
		n++
		for _, child := range c.Children() {
			walk(child)
		}
	}
	for _, c := range d.Components {
		walk(c)
	}
	return n
}

// Find resolves a slash-separated component path (e.g. "api/worker") to the
// component it names, or nil if no such component exists.
func (d *Deployment) Find(path string) *Component {
	parts := strings.Split(path, "/")
	candidates := d.Components
	var found *Component
	for _, part := range parts {
		found = nil
		for _, c := range candidates {
			if c.Name() == part {
				found = c
				break
			}
		}
		if found == nil {
			return nil
		}
		candidates = found.Children()
	}
	return found
}

// OutputValue is a single provisioner output, matching the JSON shape of
// `terraform output -json`.
type OutputValue struct {
	// Value is the output value.
	Value interface{} `json:"value"`

	// Type is the provisioner's type descriptor for the value, if any.
	Type interface{} `json:"type,omitempty"`

	// Sensitive marks outputs that must not be logged.
	Sensitive bool `json:"sensitive,omitempty"`
}

// Outputs is the opaque mapping a Provisioner produces for a deployment,
// made available to every component invocation during the same run.
type Outputs map[string]OutputValue

// Environ renders the outputs as KEY=value environment variable pairs, keys
// upper-cased, in sorted order.
func (o Outputs) Environ() []string {
	if len(o) == 0 {
		return nil
	}
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(keys))
	for _, k := range keys {
		v := o[k].Value
		var s string
		if str, ok := v.(string); ok {
			s = str
		} else {
			s = fmt.Sprintf("%v", v)
		}
		env = append(env, strings.ToUpper(k)+"="+s)
	}
	return env
}

// Invocation is the context handed to a component hook.
type Invocation struct {
	// Deployment is the name of the deployment being operated on.
	Deployment string `json:"deployment"`

	// Component is the slash-separated path of the component in the tree.
	Component string `json:"component"`

	// Path is the component's directory.
	Path string `json:"path"`

	// Phase is the lifecycle phase being executed.
	Phase Phase `json:"phase"`

	// Outputs are the provisioner outputs for the deployment, if available.
	Outputs Outputs `json:"outputs,omitempty"`

	// NoCache requests a rebuild of cached artifacts during build.
	NoCache bool `json:"no_cache,omitempty"`
}
