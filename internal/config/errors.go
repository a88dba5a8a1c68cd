package config

import "fmt"

// ConfigError reports a configuration load failure together with the
// dot-delimited field path of the offending value, per the spec's
// error-handling design: the loader is total, it either returns a
// valid Config or a descriptive, field-located error.
type ConfigError struct {
	Path string
	Msg  string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Msg)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func fieldErrorf(path, format string, args ...any) *ConfigError {
	return &ConfigError{Path: path, Msg: fmt.Sprintf(format, args...)}
}

func wrapFieldError(path string, err error) *ConfigError {
	if ce, ok := err.(*ConfigError); ok && ce.Path == "" {
		ce.Path = path
		return ce
	}
	return &ConfigError{Path: path, Msg: err.Error(), Err: err}
}
