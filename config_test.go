package smd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-kit/log/level"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv(ConfigEnv, "")
	conf, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if conf != defaultConfig() {
		t.Fatalf("expected defaults, got %+v", conf)
	}
	// A directory without a configuration file also yields the defaults.
	t.Setenv(ConfigEnv, t.TempDir())
	if conf, err = LoadConfig(); err != nil || conf != defaultConfig() {
		t.Fatalf("expected defaults, got %+v (%v)", conf, err)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	content := `
[log]
level = "debug"
format = "json"

[ephemeris]
jpl_file = "/data/de421.bsp"

[metrics]
listen = ":9090"
`
	if err := os.WriteFile(filepath.Join(dir, "conf.toml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigEnv, dir)
	conf, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	exp := Config{LogLevel: "debug", LogFormat: "json", JPLFile: "/data/de421.bsp", MetricsListen: ":9090"}
	if conf != exp {
		t.Fatalf("got %+v, expected %+v", conf, exp)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "conf.toml"), []byte("[log\nlevel = "), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigEnv, dir)
	_, err := LoadConfig()
	var confErr *ConfigurationError
	if !errors.As(err, &confErr) {
		t.Fatalf("expected a configuration error, got %v", err)
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "logfmt", "warn")
	level.Info(logger).Log("msg", "hidden")
	Degraded(logger, "test", "fallback used", "iterations", 10)
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatal("info message not filtered")
	}
	for _, exp := range []string{"level=warn", "subsys=test", `degradation="fallback used"`, "iterations=10"} {
		if !strings.Contains(out, exp) {
			t.Fatalf("%q missing from %q", exp, out)
		}
	}

	buf.Reset()
	level.Debug(NewLogger(&buf, "json", "debug")).Log("msg", "shown")
	if !strings.HasPrefix(buf.String(), "{") || !strings.Contains(buf.String(), `"msg":"shown"`) {
		t.Fatalf("unexpected JSON output %q", buf.String())
	}

	buf.Reset()
	level.Error(NewLogger(&buf, "logfmt", "none")).Log("msg", "hidden")
	if buf.Len() != 0 {
		t.Fatalf("nothing should be logged, got %q", buf.String())
	}

	prev := Logger()
	defer SetLogger(prev)
	SetLogger(nil)
	Logger().Log("msg", "discarded")
}
