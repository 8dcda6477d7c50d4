package config

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

//go:embed schema.cue
var schemaSource string

// ValidationError reports a configuration value the schema rejects.
type ValidationError struct {
	// Path is the dotted key, such as "reconstruction.metric".
	Path    string
	Message string
	// Pos is the schema constraint that failed, when known.
	Pos token.Pos
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return "invalid config: " + e.Message
	}
	return fmt.Sprintf("invalid config: %s: %s", e.Path, e.Message)
}

// IsValidationError returns true if the error is a ValidationError.
// Uses errors.As to handle wrapped errors.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// validate checks the merged document against #Config.
func validate(raw map[string]any) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("config schema: %w", err)
	}

	def := schema.LookupPath(cue.ParsePath("#Config"))
	data := ctx.Encode(raw)
	if err := data.Err(); err != nil {
		return toValidationError(err)
	}
	if err := def.Unify(data).Validate(cue.Concrete(true)); err != nil {
		return toValidationError(err)
	}
	return nil
}

// toValidationError keeps the first CUE error, with the #Config selector
// removed from its path.
func toValidationError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &ValidationError{Message: err.Error()}
	}
	first := errs[0]
	path := first.Path()
	if len(path) > 0 && path[0] == "#Config" {
		path = path[1:]
	}
	format, args := first.Msg()
	return &ValidationError{
		Path:    strings.Join(path, "."),
		Message: fmt.Sprintf(format, args...),
		Pos:     first.Position(),
	}
}
