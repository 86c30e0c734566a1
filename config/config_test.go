// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/KDE/krita-sub040/env"
	"github.com/KDE/krita-sub040/env/mocks"
)

const configPath = "/etc/bundlectl.yaml"

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(
		WithFilesystem(memfs.New()),
		WithEnv(env.MapReader{}),
		WithDataHome("/data"),
	)
	require.NoError(t, err)
	assert.Equal(t, Defaults("/data"), cfg)
	assert.Equal(t, "/data/krita/resources", cfg.InstallRoot)
	assert.Equal(t, "/data/krita/bundles", cfg.BundleDir)
	assert.False(t, cfg.Registry.PlainHTTP)
}

func TestLoad_File(t *testing.T) {
	t.Parallel()

	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, configPath, []byte(`
install_root: /opt/krita/resources
log:
  format: text
  level: debug
registry:
  plain_http: true
`), 0o644))

	cfg, err := Load(
		WithFilesystem(fs),
		WithEnv(env.MapReader{}),
		WithDataHome("/data"),
		WithFile(configPath),
	)
	require.NoError(t, err)
	assert.Equal(t, "/opt/krita/resources", cfg.InstallRoot)
	assert.Equal(t, "/data/krita/tags", cfg.TagDir, "unset keys keep defaults")
	assert.Equal(t, LogConfig{Format: "text", Level: "debug"}, cfg.Log)
	assert.True(t, cfg.Registry.PlainHTTP)

	opts, err := cfg.LoggingOptions()
	require.NoError(t, err)
	assert.Len(t, opts, 2)
}

func TestLoad_EmptyFile(t *testing.T) {
	t.Parallel()

	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, configPath, nil, 0o644))

	cfg, err := Load(WithFilesystem(fs), WithEnv(env.MapReader{}), WithDataHome("/d"), WithFile(configPath))
	require.NoError(t, err)
	assert.Equal(t, Defaults("/d"), cfg)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(WithFilesystem(memfs.New()), WithEnv(env.MapReader{}), WithFile(configPath))
	require.Error(t, err)
	assert.Contains(t, err.Error(), configPath)
}

func TestLoad_SchemaErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		doc      string
		contains string
	}{
		{"unknown key", "install_dir: /x\n", "install_dir"},
		{"bad format", "log:\n  format: xml\n", "format"},
		{"bad level", "log:\n  level: trace\n", "level"},
		{"wrong type", "registry:\n  plain_http: sometimes\n", "plain_http"},
		{"empty path", "bundle_dir: \"\"\n", "bundle_dir"},
		{"not yaml", "log: [unterminated\n", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fs := memfs.New()
			require.NoError(t, util.WriteFile(fs, configPath, []byte(tt.doc), 0o644))

			_, err := Load(WithFilesystem(fs), WithEnv(env.MapReader{}), WithFile(configPath))
			require.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Parallel()

	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, configPath, []byte("install_root: /from/file\n"), 0o644))

	cfg, err := Load(
		WithFilesystem(fs),
		WithFile(configPath),
		WithDataHome("/data"),
		WithEnv(env.MapReader{
			env.Prefix + EnvInstallRoot: "/from/env",
			env.Prefix + EnvBundleDir:   "/bundles",
			env.Prefix + EnvTagDir:      "",
			env.Prefix + EnvLogLevel:    "warn",
		}),
	)
	require.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.InstallRoot)
	assert.Equal(t, "/bundles", cfg.BundleDir)
	assert.Equal(t, "/data/krita/tags", cfg.TagDir, "empty variables are ignored")
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_EnvInvalidLevel(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	reader := mocks.NewMockReader(ctrl)
	reader.EXPECT().LookupEnv(env.Prefix + EnvLogLevel).Return("loud", true)
	reader.EXPECT().LookupEnv(gomock.Any()).Return("", false).AnyTimes()

	_, err := Load(WithFilesystem(memfs.New()), WithEnv(reader), WithDataHome("/data"))
	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "log.level")
}

func TestConfig_LoggingOptions(t *testing.T) {
	t.Parallel()

	cfg := Defaults("/d")
	cfg.Log.Level = "error"
	opts, err := cfg.LoggingOptions()
	require.NoError(t, err)
	assert.Len(t, opts, 2)

	cfg.Log.Format = "xml"
	_, err = cfg.LoggingOptions()
	require.Error(t, err)
}
