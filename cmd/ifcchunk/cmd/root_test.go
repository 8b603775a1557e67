package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandStructure(t *testing.T) {
	assert.Equal(t, "ifcchunk", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	assert.Equal(t, Version, rootCmd.Version)
}

func TestRootPersistentFlags(t *testing.T) {
	flags := rootCmd.PersistentFlags()

	tests := []struct {
		name      string
		shorthand string
		defValue  string
	}{
		{"config", "c", "ifcchunk.yaml"},
		{"log-level", "", ""},
		{"log-format", "", ""},
		{"concurrency", "", "0"},
		{"tags", "", "[]"},
		{"include-placements", "", "false"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := flags.Lookup(tt.name)
			require.NotNil(t, f, "flag %s should exist", tt.name)
			assert.Equal(t, tt.shorthand, f.Shorthand)
			assert.Equal(t, tt.defValue, f.DefValue)
		})
	}
}

func TestSubcommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"version", "validate", "plan", "chunk", "extract"} {
		assert.True(t, names[want], "%s command should be added to root command", want)
	}
}

func TestGetCLIOverrides(t *testing.T) {
	withGlobals(t)
	logLevel = "debug"
	logFormat = "text"
	concurrency = 4
	acceptedTags = []string{"PIPE"}
	includePlacements = true

	o := GetCLIOverrides()
	assert.Equal(t, CLIOverrides{
		LogLevel:          "debug",
		LogFormat:         "text",
		Concurrency:       4,
		Tags:              []string{"PIPE"},
		IncludePlacements: true,
	}, o)
}

func TestLoadConfig(t *testing.T) {
	t.Run("missing file falls back to defaults when optional", func(t *testing.T) {
		withGlobals(t)
		concurrency = 3
		acceptedTags = []string{"EQUI"}

		cfg, err := loadConfig(false)
		require.NoError(t, err)
		assert.Equal(t, 3, cfg.Dispatch.Concurrency)
		assert.Equal(t, []string{"EQUI"}, cfg.Chunking.AcceptedTags)
		assert.Equal(t, "error", cfg.Logging.Level)
	})

	t.Run("missing file is an error when required", func(t *testing.T) {
		withGlobals(t)
		_, err := loadConfig(true)
		assert.Error(t, err)
	})

	t.Run("invalid override is reported", func(t *testing.T) {
		withGlobals(t)
		logLevel = "verbose"
		_, err := loadConfig(false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "logging.level")
	})
}

func TestReadInput(t *testing.T) {
	path := writeFixture(t, "a.ifc", "DATA;\nENDSEC;\n")
	raw, err := readInput(path)
	require.NoError(t, err)
	assert.Equal(t, "DATA;\nENDSEC;\n", raw)

	_, err = readInput(path + ".missing")
	assert.Error(t, err)
}
