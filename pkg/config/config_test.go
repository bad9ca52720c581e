package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Port  int    `yaml:"port"`
	Token string `yaml:"token"`
}

func (s *sample) Validate() error {
	if s.Port <= 0 {
		return os.ErrInvalid
	}
	return nil
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("NG_TEST_TOKEN", "secret")
	path := writeFile(t, "name: ${NG_TEST_NAME:-notes}\nport: 8080\ntoken: ${NG_TEST_TOKEN}\n")

	var s sample
	if err := Load(path, &s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "notes" || s.Port != 8080 || s.Token != "secret" {
		t.Errorf("got %+v", s)
	}
}

func TestLoad_Validates(t *testing.T) {
	path := writeFile(t, "name: x\nport: 0\n")
	var s sample
	err := Load(path, &s)
	if err == nil || !strings.Contains(err.Error(), "validation") {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	var s sample
	if err := Load(filepath.Join(t.TempDir(), "nope.yaml"), &s); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadOptional_KeepsDefaults(t *testing.T) {
	s := sample{Name: "default", Port: 9000}
	if err := LoadOptional(filepath.Join(t.TempDir(), "nope.yaml"), &s); err != nil {
		t.Fatalf("LoadOptional: %v", err)
	}
	if s.Name != "default" || s.Port != 9000 {
		t.Errorf("defaults changed: %+v", s)
	}
}

func TestLoadOptional_OverridesFromFile(t *testing.T) {
	s := sample{Name: "default", Port: 9000}
	path := writeFile(t, "port: 7000\n")
	if err := LoadOptional(path, &s); err != nil {
		t.Fatalf("LoadOptional: %v", err)
	}
	if s.Name != "default" || s.Port != 7000 {
		t.Errorf("got %+v", s)
	}
}

func TestExpand(t *testing.T) {
	t.Setenv("NG_SET", "v")
	t.Setenv("NG_EMPTY", "")
	tests := []struct {
		in, want string
	}{
		{"${NG_SET}", "v"},
		{"${NG_SET:-x}", "v"},
		{"${NG_EMPTY:-x}", "x"},
		{"${NG_EMPTY}", ""},
		{"${NG_UNSET_VAR:-fallback}", "fallback"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := Expand(tt.in); got != tt.want {
			t.Errorf("Expand(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
