package declaration

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/bosun-deploy/bosun/pkg/engine"
	"github.com/bosun-deploy/bosun/pkg/hooks"
)

// Loader reads declaration files and compiles declared deployments into
// engine trees.
type Loader struct {
	baseDir   string
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewLoader creates a loader. The target directory comes from BOSUN_TARGET,
// defaulting to the current directory.
func NewLoader(logger zerolog.Logger) *Loader {
	baseDir := os.Getenv(EnvTarget)
	if baseDir == "" {
		baseDir = "."
	}
	return &Loader{
		baseDir:   baseDir,
		validator: validator.New(),
		logger:    logger,
	}
}

// WithBaseDir overrides the target directory and returns the loader for
// chaining.
func (l *Loader) WithBaseDir(dir string) *Loader {
	if dir != "" {
		l.baseDir = dir
	}
	return l
}

// BaseDir returns the target directory declarations resolve against.
func (l *Loader) BaseDir() string {
	return l.baseDir
}

// Resolve turns a declaration file argument into an absolute-enough path.
// An empty argument selects deployments.yml in the target directory; a
// relative argument is joined to the target directory.
func (l *Loader) Resolve(file string) string {
	if file == "" {
		file = DefaultFileName
	}
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(l.baseDir, file)
}

// Load reads, parses, and validates the declaration file. CUE files are
// dispatched by their .cue extension; everything else is parsed as YAML.
func (l *Loader) Load(file string) (*File, error) {
	path := l.Resolve(file)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, engine.NewConfigError(
			fmt.Sprintf("failed to read declaration %q", path), err).
			WithCode(engine.ErrCodeMissingPath)
	}

	var f *File
	if filepath.Ext(path) == ".cue" {
		f, err = parseCUE(path, data)
	} else {
		f, err = parseYAML(path, data)
	}
	if err != nil {
		return nil, err
	}

	if err := l.validate(f); err != nil {
		return nil, err
	}
	l.logger.Debug().Str("file", path).Int("deployments", len(f.Deployments)).
		Msg("Loaded declaration")
	return f, nil
}

// parseYAML decodes a YAML declaration, rejecting unknown fields.
func parseYAML(path string, data []byte) (*File, error) {
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, engine.NewConfigError(
			fmt.Sprintf("failed to parse declaration %q", path), err).
			WithCode(engine.ErrCodeValidation)
	}
	return &f, nil
}

// validate enforces the structural rules the schema tags cannot express:
// unique deployment names, unique sibling component names, slash-free
// component names, and known phase keys.
func (l *Loader) validate(f *File) error {
	if err := l.validator.Struct(f); err != nil {
		return engine.NewConfigError("declaration failed validation", err).
			WithCode(engine.ErrCodeValidation)
	}

	seen := map[string]bool{}
	for _, d := range f.Deployments {
		if seen[d.Name] {
			return engine.NewConfigError(
				fmt.Sprintf("duplicate deployment name %q", d.Name), nil).
				WithCode(engine.ErrCodeValidation)
		}
		seen[d.Name] = true

		if err := validateComponents(d.Name, d.Components); err != nil {
			return err
		}
	}
	return nil
}

func validateComponents(scope string, components []*ComponentDecl) error {
	seen := map[string]bool{}
	for _, c := range components {
		if strings.Contains(c.Name, "/") {
			return engine.NewConfigError(
				fmt.Sprintf("component name %q in %q must not contain '/'", c.Name, scope), nil).
				WithCode(engine.ErrCodeValidation)
		}
		if seen[c.Name] {
			return engine.NewConfigError(
				fmt.Sprintf("duplicate component name %q in %q", c.Name, scope), nil).
				WithCode(engine.ErrCodeValidation)
		}
		seen[c.Name] = true

		for phase := range c.Phases {
			if _, err := engine.ParsePhase(phase); err != nil {
				return engine.NewConfigError(
					fmt.Sprintf("component %q in %q declares unknown phase %q", c.Name, scope, phase), nil).
					WithCode(engine.ErrCodeValidation)
			}
		}

		if err := validateComponents(scope+"/"+c.Name, c.Components); err != nil {
			return err
		}
	}
	return nil
}

// CheckPaths verifies that the deployment's root module and every component
// directory exist under the target directory.
func (l *Loader) CheckPaths(d *DeploymentDecl) error {
	if err := l.checkDir(d.RootModule); err != nil {
		return err
	}
	var walk func(components []*ComponentDecl) error
	walk = func(components []*ComponentDecl) error {
		for _, c := range components {
			if err := l.checkDir(c.Path); err != nil {
				return err
			}
			if err := walk(c.Components); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(d.Components)
}

func (l *Loader) checkDir(rel string) error {
	path := filepath.Join(l.baseDir, rel)
	info, err := os.Stat(path)
	if err != nil {
		return engine.NewConfigError(
			fmt.Sprintf("declared directory %q not found", path), err).
			WithCode(engine.ErrCodeMissingPath)
	}
	if !info.IsDir() {
		return engine.NewConfigError(
			fmt.Sprintf("declared path %q is not a directory", path), nil).
			WithCode(engine.ErrCodeMissingPath)
	}
	return nil
}

// Build compiles a declared deployment into the engine's runtime tree,
// binding each declared phase command to a shell hook.
func (l *Loader) Build(d *DeploymentDecl, runner *hooks.Runner) (*engine.Deployment, error) {
	components, err := l.buildComponents(d.Components, runner)
	if err != nil {
		return nil, err
	}
	return &engine.Deployment{
		Name:       d.Name,
		RootModule: filepath.Join(l.baseDir, d.RootModule),
		ApplyWait:  time.Duration(d.ApplyWait) * time.Second,
		Labels:     d.Labels,
		Components: components,
	}, nil
}

func (l *Loader) buildComponents(decls []*ComponentDecl, runner *hooks.Runner) ([]*engine.Component, error) {
	var out []*engine.Component
	for _, decl := range decls {
		c := engine.NewComponent(decl.Name, filepath.Join(l.baseDir, decl.Path))
		for phase, command := range decl.Phases {
			p, err := engine.ParsePhase(phase)
			if err != nil {
				return nil, engine.NewConfigError(
					fmt.Sprintf("component %q declares unknown phase %q", decl.Name, phase), nil).
					WithCode(engine.ErrCodeValidation)
			}
			c.WithHook(p, hooks.Command(runner, command))
		}

		children, err := l.buildComponents(decl.Components, runner)
		if err != nil {
			return nil, err
		}
		c.WithChildren(children...)
		out = append(out, c)
	}
	return out, nil
}
