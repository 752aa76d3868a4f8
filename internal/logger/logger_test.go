package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitCreatesRotatingLogFile(t *testing.T) {
	configDir := filepath.Join(t.TempDir(), "config")

	if err := Init(Config{ConfigDir: configDir}); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	if Logger == nil {
		t.Fatal("Logger is nil after initialization")
	}

	Info("alarm fired", "request_id", 1005)

	data, err := os.ReadFile(Path(configDir))
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), "alarm fired") {
		t.Errorf("log file missing message, got %q", string(data))
	}
}

func TestDebugLevelFiltered(t *testing.T) {
	configDir := t.TempDir()
	if err := Init(Config{ConfigDir: configDir}); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}

	Debug("hidden debug line")

	data, _ := os.ReadFile(Path(configDir))
	if strings.Contains(string(data), "hidden debug line") {
		t.Error("debug message written without Debug enabled")
	}
}

func TestLogFunctionsWithoutInit(t *testing.T) {
	Logger = nil

	// None of these may panic with a nil logger
	Debug("debug")
	Info("info")
	Warn("warn")
	Error("error")
	With("session", "x").Info("discarded")
}

func TestPath(t *testing.T) {
	if got, want := Path("/tmp/cfg"), filepath.Join("/tmp/cfg", "logs", "soberlit.log"); got != want {
		t.Errorf("Path() = %s, want %s", got, want)
	}
}

func TestInitLevels(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		logged  string
		want    bool
		wantErr bool
	}{
		{"default skips debug", Config{}, "debug", false, false},
		{"warn skips info", Config{Level: "warn"}, "info", false, false},
		{"warn keeps warn", Config{Level: "warn"}, "warn", true, false},
		{"debug flag wins over level", Config{Level: "error", Debug: true}, "debug", true, false},
		{"invalid level falls back to info", Config{Level: "loud"}, "info", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.ConfigDir = t.TempDir()
			err := Init(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Init() error = %v, wantErr %v", err, tt.wantErr)
			}
			line := "level check " + tt.name
			switch tt.logged {
			case "debug":
				Debug(line)
			case "info":
				Info(line)
			case "warn":
				Warn(line)
			}
			data, _ := os.ReadFile(Path(tt.cfg.ConfigDir))
			if got := strings.Contains(string(data), line); got != tt.want {
				t.Errorf("line written = %v, want %v", got, tt.want)
			}
		})
	}
}
