package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/provide-io/gifweave/pkg/anim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "anim.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeManifest(t, `{
		"workers": 3,
		"repeat": -1,
		"global_palette": true,
		"delay": 80,
		"output": "out.gif",
		"frames": [
			{"path": "a.png"},
			{"path": "/abs/b.png", "delay": 200, "transparent": "#00ff00"}
		]
	}`)

	m, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, m.Validate())

	dir := filepath.Dir(path)
	assert.Equal(t, filepath.Join(dir, "a.png"), m.Frames[0].Path)
	assert.Equal(t, "/abs/b.png", m.Frames[1].Path)
	assert.Equal(t, filepath.Join(dir, "out.gif"), m.Output)
	require.NotNil(t, m.Repeat)
	assert.Equal(t, -1, *m.Repeat)

	fo, err := m.FrameOptions(0)
	require.NoError(t, err)
	assert.Equal(t, 80, fo.Delay)
	assert.Nil(t, fo.Transparent)

	fo, err = m.FrameOptions(1)
	require.NoError(t, err)
	assert.Equal(t, 200, fo.Delay)
	require.NotNil(t, fo.Transparent)
	assert.Equal(t, uint8(0xff), fo.Transparent.G)

	opts, err := m.EncoderOptions()
	require.NoError(t, err)
	e := anim.New(opts...)
	got := e.Options()
	assert.Equal(t, 3, got.Workers)
	assert.Equal(t, -1, got.Repeat)
	assert.Equal(t, anim.PalettePending, got.Palette.Mode)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = Load(writeManifest(t, `{"frames": [`))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		m       Manifest
		wantErr bool
	}{
		{name: "valid", m: Manifest{Frames: []FrameSpec{{Path: "a.png"}}}},
		{name: "no frames", m: Manifest{}, wantErr: true},
		{name: "empty path", m: Manifest{Frames: []FrameSpec{{}}}, wantErr: true},
		{name: "bad colour", m: Manifest{Frames: []FrameSpec{{Path: "a", Transparent: "nope"}}}, wantErr: true},
		{name: "bad substrate", m: Manifest{Substrate: "gpu", Frames: []FrameSpec{{Path: "a"}}}, wantErr: true},
		{name: "bad transfer", m: Manifest{Transfer: "lz4", Frames: []FrameSpec{{Path: "a"}}}, wantErr: true},
		{name: "bad resample", m: Manifest{Resample: "sinc", Frames: []FrameSpec{{Path: "a"}}}, wantErr: true},
		{name: "unclosed worker quote", m: Manifest{WorkerCmd: `gifweave-worker "--x`, Frames: []FrameSpec{{Path: "a"}}}, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.m.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"GIFWEAVE_WORKERS":   "6",
		"GIFWEAVE_DITHER":    "true",
		"GIFWEAVE_SUBSTRATE": "process",
		"GIFWEAVE_TRANSFER":  "zstd",
	}

	m := Manifest{Workers: 2, Substrate: SubstrateLocal}
	require.NoError(t, m.ApplyEnv(func(k string) string { return env[k] }))
	assert.Equal(t, 6, m.Workers)
	assert.True(t, m.Dither)
	assert.Equal(t, SubstrateProcess, m.Substrate)
	assert.Equal(t, "zstd", m.Transfer)

	env["GIFWEAVE_QUALITY"] = "fine"
	assert.Error(t, m.ApplyEnv(func(k string) string { return env[k] }))
}

func TestWorkerArgv(t *testing.T) {
	tests := []struct {
		cmd  string
		want []string
	}{
		{"", nil},
		{"   ", nil},
		{"gifweave-worker", []string{"gifweave-worker"}},
		{`/opt/gif weave/bin/gifweave worker`, []string{"/opt/gif", "weave/bin/gifweave", "worker"}},
		{`"/opt/gif weave/bin/gifweave" worker`, []string{"/opt/gif weave/bin/gifweave", "worker"}},
		{`nice -n 10 gifweave-worker --log-level 'debug'`, []string{"nice", "-n", "10", "gifweave-worker", "--log-level", "debug"}},
	}

	for _, tc := range tests {
		t.Run(tc.cmd, func(t *testing.T) {
			m := Manifest{WorkerCmd: tc.cmd}
			argv, err := m.WorkerArgv()
			require.NoError(t, err)
			assert.Equal(t, tc.want, argv)
		})
	}
}
