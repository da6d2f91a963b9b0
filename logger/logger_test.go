package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestSetup(t *testing.T) {
	dir := t.TempDir()
	defer logrus.SetOutput(os.Stderr)
	defer logrus.SetLevel(logrus.InfoLevel)

	closer, err := Setup(dir, "debug", "json")
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	defer closer.Close()

	if logrus.GetLevel() != logrus.DebugLevel {
		t.Errorf("expected debug level, got %v", logrus.GetLevel())
	}

	logrus.Info("written to file")

	if _, err := os.Stat(filepath.Join(dir, "app.log")); err != nil {
		t.Errorf("expected log file to exist: %v", err)
	}
}

func TestSetupInvalidLevel(t *testing.T) {
	defer logrus.SetOutput(os.Stderr)

	closer, err := Setup(t.TempDir(), "loud", "text")
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	defer closer.Close()

	if logrus.GetLevel() != logrus.InfoLevel {
		t.Errorf("expected fallback to info, got %v", logrus.GetLevel())
	}
}
