package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"validate", "serve", "watch", "runs", "rules"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "planwizard", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestValidateCommand_Flags(t *testing.T) {
	for flag, def := range map[string]string{
		"flat":   "false",
		"rules":  "",
		"format": "json",
		"output": "",
		"xlsx":   "",
		"save":   "false",
		"strict": "false",
	} {
		f := validateCmd.Flags().Lookup(flag)
		require.NotNil(t, f, "validate should have --%s", flag)
		assert.Equal(t, def, f.DefValue, flag)
	}
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
	assert.NotNil(t, serveCmd.Flags().Lookup("no-archive"))
}

func TestWatchCommand_Flags(t *testing.T) {
	for _, flag := range []string{"dir", "rules", "flat", "no-save", "initial"} {
		assert.NotNil(t, watchCmd.Flags().Lookup(flag), flag)
	}
}

func TestRunsCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range runsCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"list", "show", "stats"} {
		assert.True(t, names[name], name)
	}
	assert.Equal(t, "50", runsListCmd.Flags().Lookup("limit").DefValue)
}

func TestRulesCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rulesCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"show", "list", "check"} {
		assert.True(t, names[name], name)
	}
}
