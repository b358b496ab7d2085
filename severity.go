package bagval

import "strings"

// Severity names the importance of a single diagnostic
type Severity int

// Diagnostic severities, ordered by importance, e.g. Error > Warning
const (
	Info Severity = iota
	Warning
	Error
)

var severityNames = map[Severity]string{
	Info:    "INFO",
	Warning: "WARNING",
	Error:   "ERROR",
}

func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseSeverity parses a severity name, case insensitive.  Unknown names
// are treated as Info.
func ParseSeverity(name string) Severity {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "WARN" {
		return Warning
	}
	for s, n := range severityNames {
		if n == name {
			return s
		}
	}
	return Info
}
