package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cwbudde/algo-vecmath/cpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-n2f/em/geom"
	"github.com/cwbudde/algo-n2f/internal/config"
)

var smallConfig = filepath.Join("testdata", "small.yaml")

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err := root.Execute()

	return out.String(), err
}

func TestRunCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "far.db")

	out, err := execute(t, "run", "--config", smallConfig, "--export", path)
	require.NoError(t, err, out)

	assert.Regexp(t, `Run\s+small \(`, out)
	assert.Contains(t, out, "Near flux")
	assert.Contains(t, out, "(10, 0, 0)")
	assert.Contains(t, out, path)

	out, err = execute(t, "inspect", "--config", smallConfig, path)
	require.NoError(t, err, out)

	assert.Regexp(t, `Grid\s+5 x 1 x 1`, out)
	assert.Contains(t, out, "Peak |E|²")
	assert.Contains(t, out, "0.5000")
}

func TestFarfieldCmd(t *testing.T) {
	out, err := execute(t, "farfield", "--config", smallConfig, "-n", "4")
	require.NoError(t, err, out)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[0], "f=0.5000")

	for i, want := range []string{"0.0", "90.0", "180.0", "270.0"} {
		assert.True(t, strings.HasPrefix(lines[i+1], want), "line %q", lines[i+1])
	}
}

func TestInitCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")

	out, err := execute(t, "init", "--config", smallConfig, path)
	require.NoError(t, err, out)
	assert.Contains(t, out, "wrote "+path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "small", cfg.Name)
	assert.Equal(t, config.Point{6, 6, 0}, cfg.Cell.Size)

	_, err = execute(t, "init", path)
	require.Error(t, err)

	_, err = execute(t, "init", "--force", path)
	require.NoError(t, err)

	cfg, err = config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default().Name, cfg.Name)
}

func TestCommandErrors(t *testing.T) {
	_, err := execute(t, "run", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = execute(t, "inspect", filepath.Join(t.TempDir(), "missing.db"))
	require.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("logging:\n  level: loud\n"), 0o644))

	_, err = execute(t, "info", "--config", bad)
	require.Error(t, err)
}

func TestInfoCmd(t *testing.T) {
	out, err := execute(t, "info")
	require.NoError(t, err)
	assert.Contains(t, out, "AVX2")
	assert.Contains(t, out, "NEON")

	var buf bytes.Buffer
	require.NoError(t, printInfo(&buf, cpu.Features{HasSSE2: true, Architecture: "amd64"}))
	assert.Regexp(t, `SSE2\s+true`, buf.String())
	assert.Contains(t, buf.String(), "amd64")
}

func TestAngleDeg(t *testing.T) {
	assert.InDelta(t, 0, angleDeg(geom.Vec{X: 1}), 1e-12)
	assert.InDelta(t, 90, angleDeg(geom.Vec{Y: 1}), 1e-12)
	assert.InDelta(t, 270, angleDeg(geom.Vec{Y: -1}), 1e-12)
}

func TestArgmax(t *testing.T) {
	k, v := argmax([]float64{1, 3, 2})
	assert.Equal(t, 1, k)
	assert.InDelta(t, 3, v, 0)

	k, _ = argmax(nil)
	assert.Equal(t, -1, k)
}
