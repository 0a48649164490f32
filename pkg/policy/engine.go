package policy

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/open-policy-agent/opa/ast"
	"github.com/open-policy-agent/opa/rego"
	"github.com/rs/zerolog"

	"github.com/bosun-deploy/bosun/pkg/engine"
)

// Engine compiles and evaluates policies.
type Engine struct {
	mu       sync.RWMutex
	policies map[string]*compiledPolicy
	logger   zerolog.Logger
}

// compiledPolicy is a parsed policy ready for evaluation.
type compiledPolicy struct {
	policy   *Policy
	module   *ast.Module
	compiled time.Time
}

// NewEngine creates a policy engine with the built-in policies loaded.
func NewEngine(logger zerolog.Logger) (*Engine, error) {
	e := &Engine{
		policies: make(map[string]*compiledPolicy),
		logger:   logger.With().Str("component", "policy-engine").Logger(),
	}

	for _, p := range BuiltinPolicies() {
		if err := e.compile(p); err != nil {
			return nil, fmt.Errorf("failed to compile built-in policy %s: %w", p.Name, err)
		}
	}
	e.logger.Debug().Int("count", len(e.policies)).Msg("Built-in policies loaded")
	return e, nil
}

// Add compiles and registers a policy, replacing any existing policy with
// the same name.
func (e *Engine) Add(p Policy) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.compile(p)
}

// compile parses the policy and stores it. Callers hold the lock.
func (e *Engine) compile(p Policy) error {
	module, err := ast.ParseModule(p.Name, p.Rego)
	if err != nil {
		return fmt.Errorf("failed to parse policy: %w", err)
	}
	e.policies[p.Name] = &compiledPolicy{
		policy:   &p,
		module:   module,
		compiled: time.Now(),
	}
	e.logger.Debug().Str("policy", p.Name).Msg("Policy compiled")
	return nil
}

// Evaluate runs every enabled policy against the input and aggregates the
// violations into a decision.
func (e *Engine) Evaluate(ctx context.Context, input Input) (*Decision, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	decision := &Decision{EvaluatedAt: time.Now()}
	for _, name := range e.names() {
		cp := e.policies[name]
		if !cp.policy.Enabled {
			continue
		}

		violations, err := e.evaluatePolicy(ctx, cp, input)
		if err != nil {
			e.logger.Error().Err(err).Str("policy", cp.policy.Name).
				Msg("Policy evaluation failed")
			decision.Warnings = append(decision.Warnings,
				fmt.Sprintf("policy %s evaluation failed: %v", cp.policy.Name, err))
			continue
		}
		decision.Violations = append(decision.Violations, violations...)
	}

	decision.Allowed = len(decision.Denials()) == 0
	e.logger.Debug().
		Bool("allowed", decision.Allowed).
		Int("violations", len(decision.Violations)).
		Msg("Policy evaluation completed")
	return decision, nil
}

// Check evaluates the policies and converts a denial into a config-class
// error suitable for aborting the run before traversal.
func (e *Engine) Check(ctx context.Context, input Input) (*Decision, error) {
	decision, err := e.Evaluate(ctx, input)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		denials := decision.Denials()
		msgs := make([]string, len(denials))
		for i, v := range denials {
			msgs[i] = fmt.Sprintf("%s: %s", v.Policy, v.Message)
		}
		return decision, engine.NewConfigError(
			fmt.Sprintf("operation denied by policy: %s", strings.Join(msgs, "; ")), nil).
			WithCode(engine.ErrCodePolicyDenied)
	}
	return decision, nil
}

// evaluatePolicy queries the policy package's deny set with the input.
func (e *Engine) evaluatePolicy(ctx context.Context, cp *compiledPolicy, input Input) ([]Violation, error) {
	query := cp.module.Package.Path.String() + ".deny"

	r := rego.New(
		rego.ParsedModule(cp.module),
		rego.Query(query),
		rego.Input(input),
	)
	results, err := r.Eval(ctx)
	if err != nil {
		return nil, fmt.Errorf("policy evaluation error: %w", err)
	}

	var violations []Violation
	for _, result := range results {
		for _, expr := range result.Expressions {
			denySet, ok := expr.Value.([]interface{})
			if !ok {
				continue
			}
			for _, d := range denySet {
				violations = append(violations, e.makeViolation(cp.policy, d))
			}
		}
	}
	return violations, nil
}

// makeViolation converts one deny result into a violation. Rules may emit a
// plain string or an object with message and severity fields.
func (e *Engine) makeViolation(p *Policy, result interface{}) Violation {
	v := Violation{Policy: p.Name, Severity: p.Severity}
	switch r := result.(type) {
	case string:
		v.Message = r
	case map[string]interface{}:
		if msg, ok := r["message"].(string); ok {
			v.Message = msg
		}
		if sev, ok := r["severity"].(string); ok {
			v.Severity = Severity(sev)
		}
	default:
		v.Message = fmt.Sprintf("%v", result)
	}
	return v
}

// names returns policy names in stable order.
func (e *Engine) names() []string {
	names := make([]string, 0, len(e.policies))
	for name := range e.policies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns a policy by name.
func (e *Engine) Get(name string) (*Policy, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	cp, exists := e.policies[name]
	if !exists {
		return nil, fmt.Errorf("policy not found: %s", name)
	}
	return cp.policy, nil
}

// List returns all loaded policies in stable order.
func (e *Engine) List() []Policy {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]Policy, 0, len(e.policies))
	for _, name := range e.names() {
		out = append(out, *e.policies[name].policy)
	}
	return out
}

// Enable activates a policy by name.
func (e *Engine) Enable(name string) error {
	return e.setEnabled(name, true)
}

// Disable deactivates a policy by name.
func (e *Engine) Disable(name string) error {
	return e.setEnabled(name, false)
}

func (e *Engine) setEnabled(name string, enabled bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	cp, exists := e.policies[name]
	if !exists {
		return fmt.Errorf("policy not found: %s", name)
	}
	cp.policy.Enabled = enabled
	e.logger.Info().Str("policy", name).Bool("enabled", enabled).Msg("Policy toggled")
	return nil
}
