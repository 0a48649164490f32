package policy

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/bosun-deploy/bosun/pkg/engine"
)

func testInput() Input {
	return Input{
		Operation: "deploy",
		Deployment: InputDeployment{
			Name:       "prod",
			RootModule: "infra",
			Labels:     map[string]string{"env": "production"},
		},
		Components: []InputComponent{
			{Path: "api", Capabilities: []string{"build", "deploy"}},
			{Path: "api/worker", Capabilities: []string{"deploy"}},
		},
	}
}

func TestEvaluateAllows(t *testing.T) {
	e, err := NewEngine(zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	decision, err := e.Evaluate(context.Background(), testInput())
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if !decision.Allowed {
		t.Errorf("expected allowed, got violations: %v", decision.Violations)
	}
	if len(decision.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", decision.Warnings)
	}
}

func TestProtectedDeploymentDeniesUndeploy(t *testing.T) {
	e, err := NewEngine(zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	in := testInput()
	in.Operation = "undeploy"
	in.Destructive = true
	in.Deployment.Labels["protected"] = "true"

	decision, err := e.Evaluate(context.Background(), in)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if decision.Allowed {
		t.Fatal("expected denial")
	}
	denials := decision.Denials()
	if len(denials) != 1 {
		t.Fatalf("expected 1 denial, got %v", denials)
	}
	if denials[0].Policy != "protected-deployment" {
		t.Errorf("unexpected policy: %s", denials[0].Policy)
	}
	if !strings.Contains(denials[0].Message, "prod") {
		t.Errorf("expected deployment name in message, got %q", denials[0].Message)
	}
}

func TestProtectedDeploymentDeniesDestroyRoot(t *testing.T) {
	e, err := NewEngine(zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	in := testInput()
	in.Operation = "undeploy"
	in.Destructive = true
	in.DestroyRoot = true
	in.Deployment.Labels["protected"] = "true"

	decision, err := e.Evaluate(context.Background(), in)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if len(decision.Denials()) != 2 {
		t.Errorf("expected undeploy and destroy denials, got %v", decision.Violations)
	}
}

func TestComponentNamingWarns(t *testing.T) {
	e, err := NewEngine(zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	in := testInput()
	in.Components = append(in.Components, InputComponent{Path: "Bad_Name", Capabilities: []string{"deploy"}})

	decision, err := e.Evaluate(context.Background(), in)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	// Warnings never deny.
	if !decision.Allowed {
		t.Errorf("expected allowed, got denials: %v", decision.Denials())
	}
	found := false
	for _, v := range decision.Violations {
		if v.Policy == "component-naming" && v.Severity == SeverityWarning {
			found = true
		}
	}
	if !found {
		t.Errorf("expected naming warning, got %v", decision.Violations)
	}
}

func TestCheckReturnsConfigError(t *testing.T) {
	e, err := NewEngine(zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	in := testInput()
	in.Destructive = true
	in.Deployment.Labels["protected"] = "true"

	decision, err := e.Check(context.Background(), in)
	if err == nil {
		t.Fatal("expected error")
	}
	if !engine.IsConfig(err) {
		t.Errorf("expected config-class error, got %v", err)
	}
	if decision == nil || decision.Allowed {
		t.Errorf("expected denied decision alongside the error, got %+v", decision)
	}
}

func TestDisablePolicy(t *testing.T) {
	e, err := NewEngine(zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	in := testInput()
	in.Destructive = true
	in.Deployment.Labels["protected"] = "true"

	if err := e.Disable("protected-deployment"); err != nil {
		t.Fatalf("Disable failed: %v", err)
	}
	decision, err := e.Evaluate(context.Background(), in)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if !decision.Allowed {
		t.Errorf("expected disabled policy to be skipped, got %v", decision.Violations)
	}

	if err := e.Enable("protected-deployment"); err != nil {
		t.Fatalf("Enable failed: %v", err)
	}
	decision, err = e.Evaluate(context.Background(), in)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if decision.Allowed {
		t.Error("expected re-enabled policy to deny")
	}

	if err := e.Disable("missing"); err == nil {
		t.Error("expected error for unknown policy")
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	custom := `package custom.freeze

import rego.v1

deny contains msg if {
	input.operation == "deploy"
	input.deployment.labels.freeze == "true"
	msg := sprintf("deployment %s is frozen", [input.deployment.name])
}
`
	if err := os.WriteFile(filepath.Join(dir, "freeze.rego"), []byte(custom), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	e, err := NewEngine(zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	if err := e.LoadDir(dir); err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}

	if _, err := e.Get("freeze"); err != nil {
		t.Fatalf("expected freeze policy to be loaded: %v", err)
	}

	in := testInput()
	in.Deployment.Labels["freeze"] = "true"
	decision, err := e.Evaluate(context.Background(), in)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if decision.Allowed {
		t.Errorf("expected frozen deployment to be denied, got %v", decision.Violations)
	}
	denials := decision.Denials()
	if len(denials) != 1 || denials[0].Message != "deployment prod is frozen" {
		t.Errorf("unexpected denials: %v", denials)
	}
}

func TestLoadDirInvalidPolicy(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "broken.rego"), []byte("not rego at all {"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	e, err := NewEngine(zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	if err := e.LoadDir(dir); err == nil {
		t.Error("expected error for invalid policy")
	}
}

func TestBuildInput(t *testing.T) {
	worker := engine.NewComponent("worker", "services/api/worker").
		WithHook(engine.PhaseDeploy, func(_ context.Context, _ engine.Invocation) error { return nil })
	api := engine.NewComponent("api", "services/api").
		WithHook(engine.PhaseBuild, func(_ context.Context, _ engine.Invocation) error { return nil }).
		WithChildren(worker)
	d := &engine.Deployment{
		Name:       "prod",
		RootModule: "infra",
		Labels:     map[string]string{"env": "production"},
		Components: []*engine.Component{api},
	}

	in := BuildInput(d, engine.PhaseUndeploy, engine.Options{DestroyRoot: true})
	if in.Operation != "undeploy" || !in.Destructive || !in.DestroyRoot {
		t.Errorf("unexpected input: %+v", in)
	}
	if in.Deployment.Name != "prod" || in.Deployment.Labels["env"] != "production" {
		t.Errorf("unexpected deployment section: %+v", in.Deployment)
	}
	// Undeploy order is the reverse of deploy order.
	if len(in.Components) != 2 || in.Components[0].Path != "api/worker" || in.Components[1].Path != "api" {
		t.Errorf("unexpected components: %+v", in.Components)
	}
	if len(in.Components[1].Capabilities) != 1 || in.Components[1].Capabilities[0] != "build" {
		t.Errorf("unexpected capabilities: %+v", in.Components[1].Capabilities)
	}
}

func TestListPolicies(t *testing.T) {
	e, err := NewEngine(zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	policies := e.List()
	if len(policies) != 2 {
		t.Fatalf("expected 2 builtin policies, got %d", len(policies))
	}
	if policies[0].Name != "component-naming" || policies[1].Name != "protected-deployment" {
		t.Errorf("unexpected order: %s, %s", policies[0].Name, policies[1].Name)
	}
}
