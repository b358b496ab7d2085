package bagval

import (
	"fmt"

	"github.com/pkg/errors"
)

// Component names, used as Report origins
const (
	ProfileValidator   = "Profile Validator"
	StructureValidator = "Payload Structure Validator"
	IntegrityValidator = "Payload Integrity Validator"
	ChecksumValidator  = "Object Checksum Validator"
	FormatValidator    = "File Format Validator"
	BagReader          = "Bag Reader"
)

// ErrorKind names the component whose validation failed
type ErrorKind int

// Validation failure kinds, one per validation component
const (
	ProfileConformance ErrorKind = iota
	ManifestIntegrity
	FormatValidation
)

func (k ErrorKind) String() string {
	switch k {
	case ProfileConformance:
		return "profile conformance validation"
	case ManifestIntegrity:
		return "payload integrity validation"
	case FormatValidation:
		return "file format validation"
	default:
		return "validation"
	}
}

// ValidationError is the regular "bag does not conform" outcome of a
// validation component.  It carries the component's full report.
type ValidationError struct {
	Kind   ErrorKind
	Report *Report
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("At least one error occurred during %s: %s", e.Kind, e.Report.Flatten())
}

// Verdict returns nil if the report holds no errors, or a *ValidationError of
// the given kind otherwise.
func Verdict(kind ErrorKind, r *Report) error {
	if r.OK() {
		return nil
	}
	return &ValidationError{Kind: kind, Report: r}
}

// IsValidationError tells whether err is (or wraps) a validation failure of
// the given kind
func IsValidationError(err error, kind ErrorKind) bool {
	verr, ok := errors.Cause(err).(*ValidationError)
	return ok && verr.Kind == kind
}

// ConfigError signals a problem with validation setup, such as an invalid
// profile or an unsupported digest algorithm.  It is fatal for the run.
type ConfigError struct {
	msg string
}

func (e *ConfigError) Error() string {
	return e.msg
}

// Configf creates a new ConfigError
func Configf(format string, args ...interface{}) error {
	return &ConfigError{msg: fmt.Sprintf(format, args...)}
}

// IsConfigError tells whether err is (or wraps) a ConfigError
func IsConfigError(err error) bool {
	_, ok := errors.Cause(err).(*ConfigError)
	return ok
}
