package main

import (
	"errors"
	"strings"
	"testing"

	"github.com/torosent/cqlfire/internal/config"
)

func TestRunHelpExitsCleanly(t *testing.T) {
	if err := run([]string{"--help"}); err != nil {
		t.Fatalf("--help should not be an error: %v", err)
	}
}

func TestRunRejectsUnknownFlag(t *testing.T) {
	if err := run([]string{"--no-such-flag"}); err == nil {
		t.Fatal("expected a flag parse error")
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	err := run([]string{"--write-ratio", "1.5", "--threads", "0"})
	if err == nil {
		t.Fatal("expected a validation error")
	}
	var verr config.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("got %T (%v), want ValidationError", err, err)
	}
	msg := err.Error()
	if !strings.Contains(msg, "write ratio") || !strings.Contains(msg, "threads") {
		t.Fatalf("validation error %q missing issues", msg)
	}
}

func TestRunRejectsDashboardWithJSON(t *testing.T) {
	err := run([]string{"--dashboard", "--json-output"})
	if err == nil {
		t.Fatal("expected a validation error for dashboard with json output")
	}
}

func TestStderrFailureLoggerIgnoresNil(t *testing.T) {
	var l stderrFailureLogger
	l.LogFailure(nil) // must not print or panic
	l.LogFailure(errors.New("boom"))
}
