// Package bagval defines the shared model for validating BagIt bags against
// a set of independent conformance checks.
//
// Validation components (see profile/, integrity/ and format/) each produce a
// Report, an ordered list of severity tagged diagnostics.  A run has failed
// if and only if its Report contains at least one Error.  Failed runs are
// surfaced as a *ValidationError carrying the full Report, whereas problems
// with the validation setup itself (a malformed profile, an unknown digest
// algorithm, a bad MIME type selector) are surfaced as a *ConfigError and
// never end up in a Report.
//
// Bags themselves are read by a driver (see drivers/fs), which turns an
// on-disk bag into the read-only Bag value consumed by the components.
package bagval
