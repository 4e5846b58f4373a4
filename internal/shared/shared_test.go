package shared

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewLogger(t *testing.T) {
	output := &bytes.Buffer{}
	logger := NewLogger(output)

	logger.Info("ranking pass complete")
	if !strings.Contains(output.String(), "ranking pass complete") {
		t.Errorf("expected message in output, got %q", output.String())
	}

	if NewLogger(nil) == nil {
		t.Error("expected logger with default writer")
	}
}

func TestWithLogger(t *testing.T) {
	output := &bytes.Buffer{}
	logger := NewLogger(output)

	child := WithLogger(logger, "command", "rank")
	child.Info("scan started")

	got := output.String()
	if !strings.Contains(got, "command") || !strings.Contains(got, "rank") {
		t.Errorf("expected child logger fields in output, got %q", got)
	}
}

func TestSetLogLevel(t *testing.T) {
	output := &bytes.Buffer{}
	logger := NewLogger(output)

	SetLogLevel(logger, log.ErrorLevel)
	logger.Info("suppressed")
	if strings.Contains(output.String(), "suppressed") {
		t.Error("expected info message to be filtered at error level")
	}

	SetLogLevel(logger, log.DebugLevel)
	logger.Debug("visible")
	if !strings.Contains(output.String(), "visible") {
		t.Error("expected debug message at debug level")
	}
}

func TestGenerateID(t *testing.T) {
	first := GenerateID()
	second := GenerateID()

	if len(first) != 36 {
		t.Errorf("expected uuid string, got %q", first)
	}
	if first == second {
		t.Error("expected unique ids")
	}
}
