package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"policy_reco/models"
)

func TestDefaultRankingIsValid(t *testing.T) {
	require.NoError(t, DefaultRanking().Validate())
	require.NoError(t, Default().Validate())
}

func TestDefaultRegionBonusIsMonotonic(t *testing.T) {
	r := DefaultRanking()
	assert.Greater(t, r.RegionBonus(models.RegionExact), r.RegionBonus(models.RegionPartial))
	assert.Greater(t, r.RegionBonus(models.RegionPartial), r.RegionBonus(models.RegionMismatch))
	assert.Equal(t, 0.0, r.RegionBonus(models.RegionStrength("bogus")))
}

func TestRankingValidateRejectsOutOfDomain(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Ranking)
		field  string
	}{
		{"negative top n", func(r *Ranking) { r.TopNView = -1 }, "TopNView"},
		{"zero select k", func(r *Ranking) { r.SelectK = 0 }, "SelectK"},
		{"quota ratio above one", func(r *Ranking) { r.IntentQuotaRatio = 1.5 }, "IntentQuotaRatio"},
		{"negative main ratio", func(r *Ranking) { r.MainRatio = -0.1 }, "MainRatio"},
		{"nan weight", func(r *Ranking) { r.PrefWeightDefault = math.NaN() }, "PrefWeightDefault"},
		{"infinite bonus", func(r *Ranking) { r.RegionBonusMismatch = math.Inf(-1) }, "RegionBonusMismatch"},
		{"negative window", func(r *Ranking) { r.FillerWindow = -5 }, "FillerWindow"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := DefaultRanking()
			tt.mutate(&r)

			err := r.Validate()
			require.Error(t, err)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			require.Len(t, verr.Fields, 1)
			assert.Contains(t, verr.Fields[0].Field, tt.field)
		})
	}
}

func TestApplyEnvOverridesRanking(t *testing.T) {
	env := map[string]string{
		"REGION_BONUS_EXACT": "7.5",
		"TOP_N_VIEW":         "12",
		"SHUFFLE_MIX":        "0x1234",
	}
	r := DefaultRanking()
	require.NoError(t, r.applyEnv(func(k string) string { return env[k] }))

	assert.Equal(t, 7.5, r.RegionBonusExact)
	assert.Equal(t, 12, r.TopNView)
	assert.Equal(t, uint64(0x1234), r.ShuffleMix)
	assert.Equal(t, 4.0, r.RegionBonusPartial)
}

func TestApplyEnvRejectsGarbage(t *testing.T) {
	r := DefaultRanking()
	err := r.applyEnv(func(k string) string {
		if k == "KW_BONUS_CAP" {
			return "five"
		}
		return ""
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KW_BONUS_CAP")
}

func TestLoadFileMergesYAMLOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlData := []byte(`
server:
  port: 9090
database:
  host: db.local
  username: app
  password: secret
  database: youth
ranking:
  top_n_view: 25
  region_bonus_partial: 3.5
`)
	require.NoError(t, os.WriteFile(path, yamlData, 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 25, cfg.Ranking.TopNView)
	assert.Equal(t, 3.5, cfg.Ranking.RegionBonusPartial)
	assert.Equal(t, 6.0, cfg.Ranking.RegionBonusExact)
	assert.Equal(t, "app:secret@tcp(db.local:3306)/youth?charset=utf8mb4&parseTime=true", cfg.DB.DSN)
}

func TestLoadFileFailsOnInvalidRanking(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ranking:\n  main_ratio: 2\n"), 0o600))

	_, err := LoadFile(path)
	require.Error(t, err)

	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestLoadFileEnvWinsOverYAML(t *testing.T) {
	t.Setenv("SELECT_K", "3")
	t.Setenv("LLM_API_KEY", "sk-test")

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Ranking.SelectK)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Empty(t, cfg.DB.DSN)
}

func TestConfigValidateRejectsNegativeLimits(t *testing.T) {
	cfg := Default()
	cfg.LLM.BreakerFailures = -1
	cfg.Server.RateLimitRequests = -10

	var verr *ValidationError
	require.True(t, errors.As(cfg.Validate(), &verr))
	require.Len(t, verr.Fields, 2)
}
