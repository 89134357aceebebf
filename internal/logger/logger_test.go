package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// fileOnly logs to a single file at lvl and returns its path.
func fileOnly(t *testing.T, lvl string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gx2view.log")
	if err := Setup(Options{Level: lvl, File: FileConfig{Path: path, MaxSizeMB: 1}}); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	return path
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	Sync()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	return string(data)
}

func TestNopBeforeSetup(t *testing.T) {
	Debug("debug before init")
	Info("info before init", zap.String("key", "value"))
	Named("gx2").Warn("named before init")
	Sync()
}

func TestLevelFiltering(t *testing.T) {
	all := []string{"DEBUG", "INFO", "WARN", "ERROR"}
	for i, lvl := range []string{"debug", "info", "warn", "error"} {
		t.Run(lvl, func(t *testing.T) {
			path := fileOnly(t, lvl)
			Debug("d")
			Info("i")
			Warn("w")
			Error("e")

			out := readLog(t, path)
			for j, tag := range all {
				if got := strings.Contains(out, tag); got != (j >= i) {
					t.Errorf("level %s: %s present = %v", lvl, tag, got)
				}
			}
		})
	}
}

func TestSetLevel(t *testing.T) {
	path := fileOnly(t, "warn")
	Info("hidden")

	if err := SetLevel("debug"); err != nil {
		t.Fatalf("SetLevel: %v", err)
	}
	if Level() != zapcore.DebugLevel {
		t.Errorf("expected debug level, got %v", Level())
	}
	Debug("visible")

	out := readLog(t, path)
	if strings.Contains(out, "hidden") || !strings.Contains(out, "visible") {
		t.Errorf("unexpected log content %q", out)
	}
}

func TestUnknownLevel(t *testing.T) {
	if err := Init("verbose", ""); err == nil {
		t.Error("expected error for unknown level")
	}
	if err := SetLevel(""); err != nil || Level() != zapcore.InfoLevel {
		t.Errorf("empty level should mean info, got %v (%v)", Level(), err)
	}
}

func TestNamedLogger(t *testing.T) {
	path := fileOnly(t, "debug")
	Named("shader").Info("program loaded", zap.Uint32("size", 4096))

	out := readLog(t, path)
	for _, want := range []string{"shader", "program loaded", "4096", "logger_test.go"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %q", want, out)
		}
	}
}

func TestRotation(t *testing.T) {
	dir := t.TempDir()
	cfg := FileConfig{Path: filepath.Join(dir, "rot.log"), MaxSizeMB: 1, MaxBackups: 2}
	if err := Setup(Options{Level: "info", File: cfg}); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	line := strings.Repeat("x", 256)
	for i := 0; i < 6000; i++ {
		Sugar.Infof("%d %s", i, line)
	}
	Sync()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) < 2 {
		t.Errorf("expected a rotated backup next to rot.log, got %d files", len(entries))
	}
}

func TestDefaultFileConfig(t *testing.T) {
	got := DefaultFileConfig("/tmp/gx2view.log")
	want := FileConfig{Path: "/tmp/gx2view.log", MaxSizeMB: 20, MaxBackups: 3, MaxAgeDays: 7, Compress: true}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestFatal(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	saved := Log
	Log = zap.New(core, zap.WithFatalHook(zapcore.WriteThenPanic))
	defer func() { Log = saved }()

	func() {
		defer func() {
			if recover() == nil {
				t.Error("Fatal returned normally")
			}
		}()
		Fatal("viewer failed", zap.String("reason", "no window"))
	}()

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if e := entries[0]; e.Level != zapcore.FatalLevel || e.Message != "viewer failed" {
		t.Errorf("unexpected entry %v %q", e.Level, e.Message)
	}
}
