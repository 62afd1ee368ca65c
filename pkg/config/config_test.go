package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	cfg := fromViper(v)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.True(t, cfg.Timetable.CacheEnabled)
	assert.Equal(t, 10*time.Minute, cfg.Timetable.CacheTTL)
	assert.False(t, cfg.Timetable.HideNonCurrent)
	assert.Equal(t, 5, cfg.Timetable.InvalidationRetries)
	assert.Equal(t, "Timetable", cfg.Timetable.ExportSheetName)
	assert.Equal(t, "./exports", cfg.Timetable.ExportDir)
	assert.Empty(t, cfg.Timetable.ExportSecret)
	assert.Equal(t, 24*time.Hour, cfg.Timetable.ExportLinkTTL)
	assert.Equal(t, 72*time.Hour, cfg.Timetable.ExportRetention)
	assert.Equal(t, "@every 1h", cfg.Timetable.ExportPurgeSchedule)
}

func TestOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("TIMETABLE_HIDE_NON_CURRENT", true)
	v.Set("TIMETABLE_CACHE_TTL", "bogus")
	v.Set("ALLOWED_ORIGINS", " http://a.test , ,http://b.test")
	cfg := fromViper(v)

	assert.True(t, cfg.Timetable.HideNonCurrent)
	assert.Equal(t, 10*time.Minute, cfg.Timetable.CacheTTL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
}

func TestParseSectionGrid(t *testing.T) {
	grid, err := ParseSectionGrid([]byte(`
sections:
  - index: 1
    start: "08:00"
    end: "08:45"
  - index: 2
    start: "08:55"
    end: "09:40"
`))
	require.NoError(t, err)
	assert.Len(t, grid.Sections, 2)
	assert.Equal(t, "2 (08:55-09:40)", grid.Label(2))
	assert.Equal(t, "7", grid.Label(7))
}

func TestParseSectionGridRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"duplicate": "sections:\n  - {index: 1, start: \"08:00\", end: \"08:45\"}\n  - {index: 1, start: \"09:00\", end: \"09:45\"}\n",
		"reversed":  "sections:\n  - {index: 1, start: \"09:00\", end: \"08:45\"}\n",
		"clock":     "sections:\n  - {index: 1, start: \"8am\", end: \"08:45\"}\n",
		"index":     "sections:\n  - {index: 0, start: \"08:00\", end: \"08:45\"}\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSectionGrid([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadSectionGrid(t *testing.T) {
	empty, err := LoadSectionGrid("")
	require.NoError(t, err)
	assert.Equal(t, "3", empty.Label(3))

	path := filepath.Join(t.TempDir(), "grid.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sections:\n  - {index: 1, start: \"08:00\", end: \"08:45\"}\n"), 0o600))
	grid, err := LoadSectionGrid(path)
	require.NoError(t, err)
	assert.Equal(t, "1 (08:00-08:45)", grid.Label(1))

	_, err = LoadSectionGrid(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
