package engine

import (
	"fmt"
	"strings"
)

// Phase identifies one of the five lifecycle operations a component may
// implement.
type Phase string

const (
	// PhaseBuild builds component artifacts (container images, bundles).
	PhaseBuild Phase = "build"

	// PhasePackage prepares built artifacts for deployment.
	PhasePackage Phase = "package"

	// PhaseApply configures components against freshly provisioned
	// infrastructure.
	PhaseApply Phase = "apply"

	// PhaseDeploy deploys component software onto existing infrastructure.
	PhaseDeploy Phase = "deploy"

	// PhaseUndeploy reverses deploy, tearing component software down.
	PhaseUndeploy Phase = "undeploy"
)

// Phases returns every phase in canonical declaration order.
func Phases() []Phase {
	return []Phase{PhaseBuild, PhasePackage, PhaseApply, PhaseDeploy, PhaseUndeploy}
}

// ParsePhase converts a string into a Phase, rejecting unknown values.
func ParsePhase(s string) (Phase, error) {
	p := Phase(s)
	if err := p.Validate(); err != nil {
		return "", err
	}
	return p, nil
}

// Validate checks that the phase is one of the five known operations.
func (p Phase) Validate() error {
	switch p {
	case PhaseBuild, PhasePackage, PhaseApply, PhaseDeploy, PhaseUndeploy:
		return nil
	default:
		return fmt.Errorf("invalid phase: %q", string(p))
	}
}

// IsDestructive returns true for phases that tear existing state down.
func (p Phase) IsDestructive() bool {
	return p == PhaseUndeploy
}

// bit returns the capability bit assigned to the phase.
func (p Phase) bit() CapabilitySet {
	switch p {
	case PhaseBuild:
		return 1 << 0
	case PhasePackage:
		return 1 << 1
	case PhaseApply:
		return 1 << 2
	case PhaseDeploy:
		return 1 << 3
	case PhaseUndeploy:
		return 1 << 4
	default:
		return 0
	}
}

// CapabilitySet is a bitmask recording which phases a component implements.
type CapabilitySet uint8

// Has reports whether the set contains the given phase.
func (s CapabilitySet) Has(p Phase) bool {
	return s&p.bit() != 0
}

// With returns a copy of the set with the given phase added.
func (s CapabilitySet) With(p Phase) CapabilitySet {
	return s | p.bit()
}

// Phases returns the phases present in the set, in canonical order.
func (s CapabilitySet) Phases() []Phase {
	var out []Phase
	for _, p := range Phases() {
		if s.Has(p) {
			out = append(out, p)
		}
	}
	return out
}

// String renders the set as a comma-separated phase list.
func (s CapabilitySet) String() string {
	phases := s.Phases()
	names := make([]string, len(phases))
	for i, p := range phases {
		names[i] = string(p)
	}
	return strings.Join(names, ",")
}
