package engine

import (
	"testing"
)

func TestParsePhase(t *testing.T) {
	for _, s := range []string{"build", "package", "apply", "deploy", "undeploy"} {
		p, err := ParsePhase(s)
		if err != nil {
			t.Errorf("ParsePhase(%q) failed: %v", s, err)
		}
		if string(p) != s {
			t.Errorf("ParsePhase(%q) = %s", s, p)
		}
	}

	for _, s := range []string{"", "Build", "destroy", "restart"} {
		if _, err := ParsePhase(s); err == nil {
			t.Errorf("ParsePhase(%q): expected error", s)
		}
	}
}

func TestPhaseIsDestructive(t *testing.T) {
	if !PhaseUndeploy.IsDestructive() {
		t.Error("expected undeploy to be destructive")
	}
	for _, p := range []Phase{PhaseBuild, PhasePackage, PhaseApply, PhaseDeploy} {
		if p.IsDestructive() {
			t.Errorf("expected %s to be non-destructive", p)
		}
	}
}

func TestCapabilitySet(t *testing.T) {
	var s CapabilitySet
	s = s.With(PhaseBuild).With(PhaseUndeploy)

	if !s.Has(PhaseBuild) || !s.Has(PhaseUndeploy) {
		t.Error("expected build and undeploy in set")
	}
	if s.Has(PhaseDeploy) {
		t.Error("unexpected deploy in set")
	}

	phases := s.Phases()
	if len(phases) != 2 || phases[0] != PhaseBuild || phases[1] != PhaseUndeploy {
		t.Errorf("expected [build undeploy], got %v", phases)
	}
	if got := s.String(); got != "build,undeploy" {
		t.Errorf("expected build,undeploy, got %s", got)
	}

	// Adding the same phase twice is idempotent.
	if s.With(PhaseBuild) != s {
		t.Error("expected With to be idempotent")
	}
}
