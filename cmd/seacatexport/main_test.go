package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seacatgo/pkg/config"
	"seacatgo/pkg/script"
)

func writeConfig(t *testing.T, dir string, mutate func(*config.Config)) string {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Log.Path = filepath.Join(dir, "logs", "seacat.log")
	cfg.DB.Path = filepath.Join(dir, "data", "seacat.db")
	cfg.Export.OutputDir = filepath.Join(dir, "missions")
	if mutate != nil {
		mutate(cfg)
	}
	path := filepath.Join(dir, "seacat.yaml")
	require.NoError(t, config.Save(path, cfg))
	return path
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, func(c *config.Config) {
		c.Trace.Enabled = true
	})

	var out bytes.Buffer
	err := run(context.Background(), options{configPath: cfgPath, planPath: "testdata/survey.yaml"}, &out)
	require.NoError(t, err)

	missionPath := filepath.Join(dir, "missions", "harbour_survey.txt")
	data, err := os.ReadFile(missionPath)
	require.NoError(t, err)
	assert.Contains(t, out.String(), missionPath)

	doc := string(data)
	assert.Contains(t, doc, "H LowBatteryState 25\r\n")
	assert.Contains(t, doc, "H EmergencyEnd D\r\n")
	assert.Contains(t, doc, "H AutonomyArea 4\r\n")
	assert.Contains(t, doc, "H SystemPayload 1\r\n1 C Edgetech2205\r\n")
	assert.Contains(t, doc, "% Plan: harbour survey (MD5:")

	lines, err := script.Parse(strings.NewReader(doc))
	require.NoError(t, err)
	require.NoError(t, script.CheckNumbering(lines))

	_, err = os.Stat(filepath.Join(dir, "missions", "harbour_survey.geojson"))
	assert.NoError(t, err, "trace written next to the mission")

	// The export is recorded
	out.Reset()
	require.NoError(t, run(context.Background(), options{configPath: cfgPath, history: 5}, &out))
	assert.Contains(t, out.String(), "harbour survey")
	assert.Contains(t, out.String(), missionPath)
}

func TestRun_ExplicitOutputAndShapefile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, nil)

	outPath := filepath.Join(dir, "custom", "m.txt")
	tracePath := filepath.Join(dir, "custom", "m.shp")

	var out bytes.Buffer
	err := run(context.Background(), options{
		configPath: cfgPath,
		planPath:   "testdata/survey.yaml",
		outPath:    outPath,
		tracePath:  tracePath,
	}, &out)
	require.NoError(t, err)

	_, err = os.Stat(outPath)
	assert.NoError(t, err)
	_, err = os.Stat(tracePath)
	assert.NoError(t, err)
}

func TestRun_Errors(t *testing.T) {
	dir := t.TempDir()

	t.Run("NoPlan", func(t *testing.T) {
		err := run(context.Background(), options{configPath: writeConfig(t, dir, nil)}, &bytes.Buffer{})
		assert.ErrorContains(t, err, "no plan")
	})

	t.Run("BrokenTemplate", func(t *testing.T) {
		tplPath := filepath.Join(dir, "broken.mis")
		require.NoError(t, os.WriteFile(tplPath, []byte("${GenDate}\r\n"), 0o644))
		cfgPath := writeConfig(t, dir, func(c *config.Config) { c.Export.Template = tplPath })

		err := run(context.Background(), options{configPath: cfgPath, planPath: "testdata/survey.yaml"}, &bytes.Buffer{})
		assert.ErrorContains(t, err, "pre-export checks failed")
	})

	t.Run("MissingPlan", func(t *testing.T) {
		err := run(context.Background(), options{
			configPath: writeConfig(t, dir, nil),
			planPath:   filepath.Join(dir, "nope.yaml"),
		}, &bytes.Buffer{})
		assert.Error(t, err)
	})
}

func TestPlanFileName(t *testing.T) {
	tests := map[string]string{
		"survey":          "survey.txt",
		"harbour survey":  "harbour_survey.txt",
		"a/b:c":           "a_b_c.txt",
		"leg*1?":          "leg_1_.txt",
		"Lisboa-2024-05a": "Lisboa-2024-05a.txt",
	}
	for in, want := range tests {
		assert.Equal(t, want, planFileName(in, "txt"), in)
	}
}

func TestRun_LastPlanFallback(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, nil)

	src, err := os.ReadFile("testdata/survey.yaml")
	require.NoError(t, err)
	planPath := filepath.Join(dir, "plan.yaml")
	require.NoError(t, os.WriteFile(planPath, src, 0o644))

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), options{configPath: cfgPath, planPath: planPath}, &out))

	// Without -plan the last exported plan is used again
	out.Reset()
	require.NoError(t, run(context.Background(), options{configPath: cfgPath}, &out))
	assert.Contains(t, out.String(), filepath.Join(dir, "missions", "harbour_survey.txt"))

	// A vanished plan is reported once, then forgotten
	require.NoError(t, os.Remove(planPath))
	err = run(context.Background(), options{configPath: cfgPath}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "unavailable")
	err = run(context.Background(), options{configPath: cfgPath}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "no plan")
}

func TestRun_Show(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, nil)

	require.NoError(t, run(context.Background(), options{configPath: cfgPath, planPath: "testdata/survey.yaml"}, &bytes.Buffer{}))
	written, err := os.ReadFile(filepath.Join(dir, "missions", "harbour_survey.txt"))
	require.NoError(t, err)

	var history bytes.Buffer
	require.NoError(t, run(context.Background(), options{configPath: cfgPath, history: 1}, &history))
	fields := strings.Fields(history.String())
	require.NotEmpty(t, fields)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), options{configPath: cfgPath, show: fields[0]}, &out))
	assert.Equal(t, string(written), out.String())

	err = run(context.Background(), options{configPath: cfgPath, show: "missing"}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "no export recorded")
}

func TestHistory_Empty(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), options{configPath: writeConfig(t, dir, nil), history: 3}, &out))
	assert.Equal(t, "no exports recorded\n", out.String())
}
