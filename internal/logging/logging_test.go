package logging

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestSetupLevels(t *testing.T) {
	var buf bytes.Buffer

	closer, err := Setup(Options{Output: &buf})
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	defer closer()

	log.Debug("hidden")
	log.Info("shown")
	if strings.Contains(buf.String(), "hidden") {
		t.Error("Debug output should be suppressed without debug mode")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Error("Info output missing")
	}

	buf.Reset()
	closer2, err := Setup(Options{Debug: true, Output: &buf})
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	defer closer2()

	log.Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Error("Debug output missing in debug mode")
	}
}

func TestSetupLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "avaye-debug.log")

	var buf bytes.Buffer
	closer, err := Setup(Options{File: path, Output: &buf})
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	m := StartSynthesis("gemini", "kore", "سلام")
	m.EndSynthesis(4800, false, nil)

	if err := closer(); err != nil {
		t.Fatalf("Closing log file failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Reading log file failed: %v", err)
	}
	if !strings.Contains(string(data), "Synthesis completed") {
		t.Errorf("Expected synthesis record in log file, got %q", data)
	}
}

func TestStats(t *testing.T) {
	if _, err := Setup(Options{Output: &bytes.Buffer{}}); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	if got := Stats(); got != "No synthesis metrics available" {
		t.Errorf("Expected no metrics, got %q", got)
	}

	m := StartSynthesis("gemini", "kore", "یک")
	m.EndSynthesis(1000, true, nil)
	if m.TextLength != 2 {
		t.Errorf("Expected text length in runes, got %d", m.TextLength)
	}

	m = StartSynthesis("gemini", "puck", "دو")
	m.EndSynthesis(0, false, errors.New("quota"))

	stats := Stats()
	for _, want := range []string{"Total: 2", "Cache Hit Rate: 50.0%", "Errors: 1"} {
		if !strings.Contains(stats, want) {
			t.Errorf("Stats missing %q:\n%s", want, stats)
		}
	}
}
