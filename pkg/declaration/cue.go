package declaration

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/bosun-deploy/bosun/pkg/engine"
)

// parseCUE compiles a CUE declaration and decodes it into the same document
// structure the YAML form uses. CUE declarations can use constraints and
// comprehensions; decoding fails if any field is left unresolved.
func parseCUE(path string, data []byte) (*File, error) {
	val := cuecontext.New().CompileBytes(data, cue.Filename(path))
	if err := val.Err(); err != nil {
		return nil, engine.NewConfigError(
			fmt.Sprintf("failed to compile declaration %q", path), err).
			WithCode(engine.ErrCodeValidation)
	}

	var f File
	if err := val.Decode(&f); err != nil {
		return nil, engine.NewConfigError(
			fmt.Sprintf("failed to decode declaration %q", path), err).
			WithCode(engine.ErrCodeValidation)
	}
	return &f, nil
}
