package voice

import (
	"errors"
	"fmt"
)

var (
	ErrSampleRate  = errors.New("sample rate out of range")
	ErrChannels    = errors.New("unsupported channel count")
	ErrPolyphony   = errors.New("voice count out of range")
	ErrOscillators = errors.New("oscillator count out of range")
	ErrPreset      = errors.New("invalid preset")
	ErrRange       = errors.New("value out of range")
	// ErrRestart is returned when a running engine is asked to change a
	// field that sizes its buffers.
	ErrRestart = errors.New("field cannot change while running")
)

// ConfigError reports the offending Params field. It unwraps to one of the
// sentinel errors above.
type ConfigError struct {
	Field string
	Value any
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("voice: %s=%v: %v", e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func configErr(field string, value any, err error) error {
	return &ConfigError{Field: field, Value: value, Err: err}
}
