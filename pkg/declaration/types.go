// Package declaration loads, validates, and compiles deployment declaration
// files. A declaration enumerates deployments, each with a root module
// directory and an ordered component tree; compilation turns a declared
// deployment into the engine's runtime tree with shell-command hooks.
package declaration

// DefaultFileName is the declaration file looked up in the target directory.
const DefaultFileName = "deployments.yml"

// EnvTarget is the environment variable naming the target directory that
// declaration and component paths are resolved against.
const EnvTarget = "BOSUN_TARGET"

// File is a parsed declaration document.
type File struct {
	// Deployments are the declared deployments in file order.
	Deployments []*DeploymentDecl `yaml:"deployments" json:"deployments" validate:"required,min=1,dive"`
}

// Find returns the declared deployment with the given name, or nil.
func (f *File) Find(name string) *DeploymentDecl {
	for _, d := range f.Deployments {
		if d.Name == name {
			return d
		}
	}
	return nil
}

// Names returns the declared deployment names in file order.
func (f *File) Names() []string {
	names := make([]string, len(f.Deployments))
	for i, d := range f.Deployments {
		names[i] = d.Name
	}
	return names
}

// DeploymentDecl declares one deployment.
type DeploymentDecl struct {
	// Name uniquely identifies the deployment within the file.
	Name string `yaml:"name" json:"name" validate:"required"`

	// RootModule is the root provisioning module directory, relative to the
	// target directory.
	RootModule string `yaml:"root_module" json:"root_module" validate:"required"`

	// ApplyWait is the settle delay in seconds after root provisioning.
	ApplyWait int `yaml:"apply_wait" json:"apply_wait,omitempty" validate:"gte=0"`

	// Labels are key-value pairs for policy selection and reporting.
	Labels map[string]string `yaml:"labels" json:"labels,omitempty"`

	// Components are the top-level components in declared order.
	Components []*ComponentDecl `yaml:"components" json:"components,omitempty" validate:"dive"`
}

// ComponentDecl declares one component node.
type ComponentDecl struct {
	// Name uniquely identifies the component among its siblings.
	Name string `yaml:"name" json:"name" validate:"required"`

	// Path is the component directory, relative to the target directory.
	Path string `yaml:"path" json:"path" validate:"required"`

	// Phases maps phase names to the shell commands implementing them. A
	// component's capability set is exactly the keys of this map.
	Phases map[string]string `yaml:"phases" json:"phases,omitempty" validate:"dive,required"`

	// Components are the child components in declared order.
	Components []*ComponentDecl `yaml:"components" json:"components,omitempty" validate:"dive"`
}
