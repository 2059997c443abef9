package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ironsheep/ppmfill/internal/config"
	"github.com/ironsheep/ppmfill/internal/ppm"
	"github.com/ironsheep/ppmfill/internal/raster"
)

// setup isolates the test from the developer's environment and writes a
// 3x3 P3 image whose center column is white and the rest black.
func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for _, name := range []string{config.EnvConfigFile, config.EnvLogLevel, config.EnvLogFile, config.EnvMaxPixels, config.EnvPreviewSize} {
		t.Setenv(name, "")
	}
	t.Setenv(config.EnvLogLevel, "error")

	path := filepath.Join(dir, "in.ppm")
	data := "P3\n3 3\n255\n" +
		"0 0 0 255 255 255 0 0 0\n" +
		"0 0 0 255 255 255 0 0 0\n" +
		"0 0 0 255 255 255 0 0 0\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("failed to write input: %v", err)
	}
	return path
}

func runCLI(args ...string) (code int, stdout, stderr string) {
	var out, errOut bytes.Buffer
	code = run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestRun_FillInPlace(t *testing.T) {
	path := setup(t)

	code, _, stderr := runCLI(path, "0", "0", "255", "0", "0")
	if code != exitOK {
		t.Fatalf("exit %d, stderr:\n%s", code, stderr)
	}

	m, err := ppm.ReadFile(path, 0)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if m.Encoding != raster.Text {
		t.Errorf("encoding: got %v, want text", m.Encoding)
	}
	red := raster.Color{R: 255}
	white := raster.Color{R: 255, G: 255, B: 255}
	for row := 0; row < 3; row++ {
		if got := m.At(row, 0); got != red {
			t.Errorf("At(%d,0): got %v, want red", row, got)
		}
		if got := m.At(row, 1); got != white {
			t.Errorf("At(%d,1): got %v, want white", row, got)
		}
		if got := m.At(row, 2); got != (raster.Color{}) {
			t.Errorf("At(%d,2): got %v, want black (separated by the white column)", row, got)
		}
	}
}

func TestRun_OutputAndFormat(t *testing.T) {
	path := setup(t)
	before, _ := os.ReadFile(path)
	out := filepath.Join(filepath.Dir(path), "out.ppm.gz")

	code, _, stderr := runCLI("-o", out, "-format", "p6", path, "1", "1", "0", "0", "255")
	if code != exitOK {
		t.Fatalf("exit %d, stderr:\n%s", code, stderr)
	}

	after, _ := os.ReadFile(path)
	if !bytes.Equal(before, after) {
		t.Error("input must be untouched when -o is given")
	}

	m, err := ppm.ReadFile(out, 0)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if m.Encoding != raster.Binary {
		t.Errorf("encoding: got %v, want binary", m.Encoding)
	}
	if got := m.At(2, 1); got != (raster.Color{B: 255}) {
		t.Errorf("At(2,1): got %v, want blue", got)
	}
}

func TestRun_ChannelNarrowing(t *testing.T) {
	path := setup(t)

	// 256 narrows to 0 and 511 to 255.
	code, _, stderr := runCLI(path, "0", "2", "256", "511", "1")
	if code != exitOK {
		t.Fatalf("exit %d, stderr:\n%s", code, stderr)
	}
	m, err := ppm.ReadFile(path, 0)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if got, want := m.At(0, 2), (raster.Color{R: 0, G: 255, B: 1}); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestRun_NoOpStillWrites(t *testing.T) {
	path := setup(t)

	code, _, stderr := runCLI("-format", "p6", path, "0", "1", "255", "255", "255")
	if code != exitOK {
		t.Fatalf("exit %d, stderr:\n%s", code, stderr)
	}
	data, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(data), "P6\n") {
		t.Errorf("no-op fill should still convert the file, got %q", data[:3])
	}
}

func TestRun_Failures(t *testing.T) {
	path := setup(t)
	dir := filepath.Dir(path)

	bad := filepath.Join(dir, "bad.ppm")
	if err := os.WriteFile(bad, []byte("P3\n2 2\n255\n1 2 3\n"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"missing file", []string{filepath.Join(dir, "nope.ppm"), "0", "0", "1", "1", "1"}, exitFail},
		{"truncated input", []string{bad, "0", "0", "1", "1", "1"}, exitFail},
		{"seed out of bounds", []string{path, "3", "0", "1", "1", "1"}, exitFail},
		{"negative seed", []string{path, "-1", "0", "1", "1", "1"}, exitFail},
		{"too few arguments", []string{path, "0", "0"}, exitUsage},
		{"non-numeric", []string{path, "zero", "0", "1", "1", "1"}, exitUsage},
		{"bad format", []string{"-format", "p5", path, "0", "0", "1", "1", "1"}, exitUsage},
		{"unknown flag", []string{"-x", path, "0", "0", "1", "1", "1"}, exitUsage},
		{"no arguments", nil, exitUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before, _ := os.ReadFile(path)
			code, _, stderr := runCLI(tt.args...)
			if code != tt.want {
				t.Errorf("exit: got %d, want %d; stderr:\n%s", code, tt.want, stderr)
			}
			if stderr == "" {
				t.Error("a failure should be reported on stderr")
			}
			after, _ := os.ReadFile(path)
			if !bytes.Equal(before, after) {
				t.Error("a failed run must not modify the input")
			}
		})
	}
}

func TestRun_VersionAndHelp(t *testing.T) {
	code, stdout, _ := runCLI("--version")
	if code != exitOK || !strings.HasPrefix(stdout, "ppmfill ") {
		t.Errorf("--version: exit %d, output %q", code, stdout)
	}

	code, stdout, _ = runCLI("-h")
	if code != exitOK || !strings.Contains(stdout, "Usage:") {
		t.Errorf("-h: exit %d, output %q", code, stdout)
	}
}
