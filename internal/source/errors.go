package source

import "fmt"

// ConfigError reports missing or inconsistent run parameters. It maps to
// the configuration-error exit code and is raised before any AWS or hub
// call is made.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return e.Reason }

// NotFoundError reports a local spec path that does not exist.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("spec file not found: %s", e.Path)
}

// ExportError reports a failed API Gateway export.
type ExportError struct {
	Err error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("API Gateway export failed: %v", e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }
