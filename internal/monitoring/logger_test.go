package monitoring

import (
	"fmt"
	"log"
	"strings"
	"testing"
)

func TestSetLoggerRedirects(t *testing.T) {
	defer SetLogger(log.Printf)

	var got []string
	SetLogger(func(format string, v ...interface{}) {
		got = append(got, fmt.Sprintf(format, v...))
	})

	Logf("generated %d candidates", 5)
	if len(got) != 1 || got[0] != "generated 5 candidates" {
		t.Errorf("captured logs = %v", got)
	}
}

func TestSetLoggerNilMutes(t *testing.T) {
	defer SetLogger(log.Printf)

	SetLogger(nil)
	// Must not panic.
	Logf("dropped %s", "message")
}

func TestElapsedLogsLabel(t *testing.T) {
	defer SetLogger(log.Printf)

	var got []string
	SetLogger(func(format string, v ...interface{}) {
		got = append(got, fmt.Sprintf(format, v...))
	})

	Elapsed("unit of work")()
	if len(got) != 1 || !strings.HasPrefix(got[0], "unit of work took ") {
		t.Errorf("captured logs = %v", got)
	}
}
