package bagval

import (
	"fmt"
	"strings"
	"sync"
)

// Diagnostic is a single message logged during a validation run
type Diagnostic struct {
	Severity Severity
	Origin   string
	Message  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("[%s] %s: %s", d.Origin, d.Severity, d.Message)
}

// Report is the ordered collection of diagnostics produced by one validation
// run.  A Report may be shared by goroutines logging into it, but components
// should merge per-file results in a stable order so that the resulting
// diagnostics are reproducible.
type Report struct {
	mu     sync.Mutex
	origin string
	diags  []Diagnostic
}

// NewReport creates an empty report.  Diagnostics logged via Log and Logf are
// attributed to the given origin.
func NewReport(origin string) *Report {
	return &Report{origin: origin}
}

// Origin is the component name diagnostics are attributed to by default
func (r *Report) Origin() string {
	return r.origin
}

// Log appends a diagnostic attributed to the report's origin
func (r *Report) Log(sev Severity, msg string) {
	r.LogAs(r.origin, sev, msg)
}

// Logf appends a formatted diagnostic attributed to the report's origin
func (r *Report) Logf(sev Severity, format string, args ...interface{}) {
	r.LogAs(r.origin, sev, fmt.Sprintf(format, args...))
}

// LogAs appends a diagnostic attributed to an explicit origin, e.g. a plugin
func (r *Report) LogAs(origin string, sev Severity, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.diags = append(r.diags, Diagnostic{Severity: sev, Origin: origin, Message: msg})
}

// Has tells whether at least one diagnostic of the given severity is present
func (r *Report) Has(sev Severity) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.diags {
		if d.Severity == sev {
			return true
		}
	}
	return false
}

// Pick returns all diagnostics of the given severity, in logged order
func (r *Report) Pick(sev Severity) []Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()
	var picked []Diagnostic
	for _, d := range r.diags {
		if d.Severity == sev {
			picked = append(picked, d)
		}
	}
	return picked
}

// Diagnostics returns a copy of all diagnostics, in logged order
func (r *Report) Diagnostics() []Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Diagnostic(nil), r.diags...)
}

// Len is the number of diagnostics in the report
func (r *Report) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.diags)
}

// Merge appends all diagnostics of another report, keeping their origin.
// Merging a nil report, or a report into itself, does nothing.
func (r *Report) Merge(other *Report) {
	if other == nil || other == r {
		return
	}
	diags := other.Diagnostics()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.diags = append(r.diags, diags...)
}

// OK is true if no Error has been logged
func (r *Report) OK() bool {
	return !r.Has(Error)
}

// String renders one diagnostic per line, in logged order
func (r *Report) String() string {
	diags := r.Diagnostics()
	lines := make([]string, 0, len(diags))
	for _, d := range diags {
		lines = append(lines, d.String())
	}
	return strings.Join(lines, "\n")
}

// Flatten renders the whole report on a single line
func (r *Report) Flatten() string {
	return strings.Replace(r.String(), "\n", " ", -1)
}

// Fancy renders a human readable report grouped by severity, most severe
// first.  Each line carries the originating component.
func (r *Report) Fancy() string {
	var b strings.Builder
	for _, sev := range []Severity{Error, Warning, Info} {
		picked := r.Pick(sev)
		if len(picked) == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s (%d):\n", sev, len(picked))
		for _, d := range picked {
			fmt.Fprintf(&b, "  * %s: %s\n", d.Origin, d.Message)
		}
	}
	return b.String()
}
