package gen

import (
	"errors"
	"fmt"
)

// ErrNotInitialized is returned when generation is requested before a model
// has been loaded into the generator. It is always surfaced to the caller
// and never retried internally.
var ErrNotInitialized = errors.New("trajectory generator not initialized: no model loaded")

// ModelError reports a failure to load or validate the generative model
// artifact. It is fatal at startup; there is no retry path.
type ModelError struct {
	Path string
	Err  error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("model %s: %v", e.Path, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

// ConfigError reports an unreadable or malformed configuration source, such
// as the normalization parameter file. The caller decides whether to abort
// or fall back explicitly.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }
