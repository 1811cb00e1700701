package raster

import (
	"fmt"
	"testing"
)

type captureLogger struct {
	lines []string
}

func (l *captureLogger) Debugf(format string, args ...interface{}) {
	l.lines = append(l.lines, "DEBUG "+fmt.Sprintf(format, args...))
}
func (l *captureLogger) Infof(format string, args ...interface{}) {
	l.lines = append(l.lines, "INFO "+fmt.Sprintf(format, args...))
}
func (l *captureLogger) Warningf(format string, args ...interface{}) {
	l.lines = append(l.lines, "WARNING "+fmt.Sprintf(format, args...))
}
func (l *captureLogger) Errorf(format string, args ...interface{}) {
	l.lines = append(l.lines, "ERROR "+fmt.Sprintf(format, args...))
}
func (l *captureLogger) Criticalf(format string, args ...interface{}) {
	l.lines = append(l.lines, "CRITICAL "+fmt.Sprintf(format, args...))
}
func (l *captureLogger) Shutdown() {}

func TestLogModeGating(t *testing.T) {
	capture := &captureLogger{}
	SetLoggerImpl(capture)
	defer SetLoggerImpl(nil)
	oldMode := LogMode()
	defer SetLogMode(oldMode)

	SetLogMode(WarningMode)
	Debugf("d %d", 1)
	Infof("i %d", 2)
	Warningf("w %d", 3)
	Errorf("e %d", 4)
	if len(capture.lines) != 2 {
		t.Fatalf("expected 2 logged lines at warning mode, got %v", capture.lines)
	}
	if capture.lines[0] != "WARNING w 3" || capture.lines[1] != "ERROR e 4" {
		t.Errorf("unexpected log lines: %v", capture.lines)
	}

	SetLogMode(SilentMode)
	Criticalf("nothing")
	if len(capture.lines) != 2 {
		t.Errorf("silent mode should not log: %v", capture.lines)
	}
	if Enabled(CriticalMode) {
		t.Errorf("critical should be disabled in silent mode")
	}
}

func TestParseLogMode(t *testing.T) {
	tests := []struct {
		in   string
		want ModeFlag
		ok   bool
	}{
		{"debug", DebugMode, true},
		{"INFO", InfoMode, true},
		{"", InfoMode, true},
		{"warn", WarningMode, true},
		{"silent", SilentMode, true},
		{"chatty", InfoMode, false},
	}
	for _, tc := range tests {
		got, err := ParseLogMode(tc.in)
		if (err == nil) != tc.ok {
			t.Errorf("ParseLogMode(%q) error = %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("ParseLogMode(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestParseByteSize(t *testing.T) {
	n, err := ParseByteSize("64 MiB")
	if err != nil || n != 64*Mega {
		t.Errorf("expected 64 MiB, got %d (%v)", n, err)
	}
	n, err = ParseByteSize("")
	if err != nil || n != 0 {
		t.Errorf("empty size should be zero, got %d (%v)", n, err)
	}
	if _, err = ParseByteSize("lots"); err == nil {
		t.Errorf("expected error parsing bad size")
	}
}
