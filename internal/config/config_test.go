package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	// Run from a directory with no config file so defaults apply.
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "smartstore.naver.com", cfg.Collect.DomainMarker)
	assert.Equal(t, 60, cfg.Collect.ChallengeTimeoutSecs)
	assert.Equal(t, 2, cfg.Collect.ChallengePollSecs)
	assert.Equal(t, 3, cfg.Collect.ChallengeMaxReloads)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Browser.Headless)
	assert.NotEmpty(t, cfg.Selectors.DisclosureControl)
	assert.NotEmpty(t, cfg.Selectors.CompletionKeywords)
}

func TestValidate_MissingRole(t *testing.T) {
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	cfg, err := Load()
	require.NoError(t, err)

	cfg.Selectors.PhoneKeywords = nil
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "phone_keywords")
}

func TestValidate_BadURLPattern(t *testing.T) {
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	cfg, err := Load()
	require.NoError(t, err)

	cfg.Selectors.ChallengeURLPattern = "("
	assert.Error(t, cfg.Validate())
}

func TestValidate_BadKnobs(t *testing.T) {
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	cfg, err := Load()
	require.NoError(t, err)

	cfg.Collect.DomainMarker = ""
	assert.Error(t, cfg.Validate())

	cfg2, err := Load()
	require.NoError(t, err)
	cfg2.Collect.ChallengePollSecs = 0
	assert.Error(t, cfg2.Validate())
}

func TestWriteExample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	require.NoError(t, WriteExample(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "domain_marker")
	assert.Contains(t, string(data), "disclosure_control")

	// Second write must refuse to clobber.
	assert.Error(t, WriteExample(path))
}
