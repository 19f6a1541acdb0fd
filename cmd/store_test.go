package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MannanGupta05/buildplanwizard/internal/config"
)

func TestInitStore_SQLite(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "test.db")

	cfg = &config.Config{
		Store: config.StoreConfig{
			Driver:      "sqlite",
			DatabaseURL: dsn,
		},
	}

	st, err := initStore(context.Background())
	require.NoError(t, err)
	require.NotNil(t, st)
	defer st.Close() //nolint:errcheck
}

func TestInitStore_SQLiteDefaultDSN(t *testing.T) {
	tmpDir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(tmpDir))
	defer os.Chdir(origDir) //nolint:errcheck

	cfg = &config.Config{Store: config.StoreConfig{Driver: "sqlite"}}

	st, err := openStore(context.Background())
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck

	_, statErr := os.Stat(filepath.Join(tmpDir, "planwizard.db"))
	assert.NoError(t, statErr)
}

func TestInitStore_UnsupportedDriver(t *testing.T) {
	cfg = &config.Config{Store: config.StoreConfig{Driver: "mysql"}}

	_, err := initStore(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store driver: mysql")
}

func TestLoadRuleSet_Defaults(t *testing.T) {
	cfg = &config.Config{Rules: config.RulesConfig{Location: "Chandigarh"}}

	rc, err := loadRuleSet("")
	require.NoError(t, err)
	assert.Equal(t, "Chandigarh", rc.Location)
	assert.InDelta(t, 2.1, rc.FARMultiplier, 1e-9)
}

func TestLoadRuleSet_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mohali.yaml")
	require.NoError(t, os.WriteFile(path, []byte("location: Mohali\nfar_multiplier: 1.8\n"), 0o644))

	cfg = &config.Config{Rules: config.RulesConfig{File: path, Location: "Punjab"}}

	rc, err := loadRuleSet("")
	require.NoError(t, err)
	assert.Equal(t, "Mohali", rc.Location)
	assert.InDelta(t, 1.8, rc.FARMultiplier, 1e-9)

	e, err := initEngine("")
	require.NoError(t, err)
	assert.Equal(t, "Mohali", e.Config().Location)
}

func TestLoadRuleSet_FlagOverridesConfig(t *testing.T) {
	dir := t.TempDir()
	flagPath := filepath.Join(dir, "flag.yaml")
	require.NoError(t, os.WriteFile(flagPath, []byte("max_building_height_m: 15\n"), 0o644))

	cfg = &config.Config{Rules: config.RulesConfig{File: filepath.Join(dir, "missing.yaml"), Location: "Punjab"}}

	rc, err := loadRuleSet(flagPath)
	require.NoError(t, err)
	assert.InDelta(t, 15.0, rc.MaxBuildingHeight, 1e-9)
	assert.Equal(t, "Punjab", rc.Location)
}

func TestInitEngine_InvalidRuleSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("far_multiplier: -1\n"), 0o644))

	cfg = &config.Config{}
	_, err := initEngine(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "far_multiplier must be > 0")
}
