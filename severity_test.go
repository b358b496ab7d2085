package bagval_test

import (
	"testing"

	"github.com/birkland/bagval"
)

func TestSeverityRoundTrip(t *testing.T) {
	for _, sev := range []bagval.Severity{bagval.Info, bagval.Warning, bagval.Error} {
		sev := sev
		t.Run(sev.String(), func(t *testing.T) {
			if rt := bagval.ParseSeverity(sev.String()); rt != sev {
				t.Errorf("Roundtrip failed for %s, got %s", sev, rt)
			}
		})
	}
}

func TestParseSeverity(t *testing.T) {
	cases := map[string]bagval.Severity{
		"error":   bagval.Error,
		" Warn ":  bagval.Warning,
		"warning": bagval.Warning,
		"info":    bagval.Info,
		"bogus":   bagval.Info,
	}

	for in, expected := range cases {
		if got := bagval.ParseSeverity(in); got != expected {
			t.Errorf("ParseSeverity(%q): expected %s, got %s", in, expected, got)
		}
	}

	if bagval.Severity(42).String() != "UNKNOWN" {
		t.Errorf("out of range severity should be UNKNOWN")
	}
}
