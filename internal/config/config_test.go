package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/remindsync/internal/projector"
)

func envOf(vars map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "https://api.respond.io/v2", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout())
	assert.Zero(t, cfg.API.RequestsPerSecond)
	assert.Equal(t, 5, cfg.Sync.Concurrency)
	assert.Equal(t, 10, cfg.Sync.ErrorDetailLimit)
	assert.True(t, cfg.Sync.Tag.Enabled)
	assert.Equal(t, "id_pac", cfg.Sync.Tag.Field)
	assert.Equal(t, 77, cfg.Sync.Tag.Value)
	assert.Equal(t, "34", cfg.Phone.CountryCode)
	assert.Equal(t, "movil", cfg.Export.Columns.Phone)
	assert.Equal(t, "Start Time", cfg.Export.Columns.Start)
	assert.Empty(t, cfg.DoctorAliases)

	assert.Equal(t, []projector.Route{
		{Name: "sabino", Match: "Sabino Arana"},
		{Name: "bori", Match: "Bori i Fontesta"},
	}, cfg.Routes())
}

func TestParse_OverridesDefaults(t *testing.T) {
	src := `
api: requests_per_second: 2.5
sync: {
	concurrency: 8
	tag: {field: "recordatorio", value: "enviado"}
}
partitions: [{name: "rey", match: "Rey Juan", token_env: "TOKEN_REY"}]
doctor_aliases: {"Dra. Lucia Nunes": "Dra. Lucia Nunez"}
`
	cfg, err := Parse([]byte(src), "remindsync.cue")
	require.NoError(t, err)

	assert.InDelta(t, 2.5, cfg.API.RequestsPerSecond, 1e-9)
	assert.Equal(t, 8, cfg.Sync.Concurrency)
	assert.Equal(t, 10, cfg.Sync.ErrorDetailLimit)
	assert.Equal(t, "recordatorio", cfg.Sync.Tag.Field)
	assert.Equal(t, "enviado", cfg.Sync.Tag.Value)
	require.Len(t, cfg.Partitions, 1)
	assert.Equal(t, "TOKEN_REY", cfg.Partitions[0].TokenVar())
	assert.Equal(t, "Dra. Lucia Nunez", cfg.DoctorAliases["Dra. Lucia Nunes"])

	opts := cfg.EngineOptions()
	assert.Equal(t, 8, opts.Concurrency)
	assert.Equal(t, "enviado", opts.Tag.Value)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown field", `sync: retries: 3`},
		{"zero concurrency", `sync: concurrency: 0`},
		{"bad base url", `api: base_url: "api.respond.io"`},
		{"bad country code", `phone: country_code: "+34"`},
		{"bad partition name", `partitions: [{name: "Sabino", match: "Sabino"}]`},
		{"empty match", `partitions: [{name: "sabino", match: ""}]`},
		{"duplicate partition", `partitions: [{name: "a", match: "x"}, {name: "a", match: "y"}]`},
		{"no partitions", `partitions: []`},
		{"syntax", `sync: {`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), "bad.cue")
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	t.Run("empty path yields defaults", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "remindsync.cue")
		require.NoError(t, os.WriteFile(path, []byte(`sync: concurrency: 2`), 0o600))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 2, cfg.Sync.Concurrency)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.cue"))
		assert.Error(t, err)
	})
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envOf(map[string]string{
		EnvApplyTag:    "False",
		EnvTagValue:    "91",
		EnvTimeout:     "12",
		EnvConcurrency: "3",
	}))
	require.NoError(t, err)

	assert.False(t, cfg.Sync.Tag.Enabled)
	assert.Equal(t, 91, cfg.Sync.Tag.Value)
	assert.Equal(t, 12*time.Second, cfg.API.Timeout())
	assert.Equal(t, 3, cfg.Sync.Concurrency)
}

func TestApplyEnv_TagToggleIsStrict(t *testing.T) {
	for value, want := range map[string]bool{"true": true, " TRUE ": true, "yes": false, "1": false, "": false} {
		cfg := Default()
		require.NoError(t, cfg.ApplyEnv(envOf(map[string]string{EnvApplyTag: value})))
		assert.Equal(t, want, cfg.Sync.Tag.Enabled, "value %q", value)
	}
}

func TestApplyEnv_Malformed(t *testing.T) {
	tests := map[string]string{
		EnvTagValue:    "seventy",
		EnvTimeout:     "0",
		EnvConcurrency: "-1",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			err := Default().ApplyEnv(envOf(map[string]string{key: value}))
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestTokens(t *testing.T) {
	cfg := Default()

	tokens, err := cfg.Tokens(envOf(map[string]string{
		"RESPONDIO_TOKEN_SABINO": "tok-s",
		"RESPONDIO_TOKEN_BORI":   " tok-b ",
	}))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"sabino": "tok-s", "bori": "tok-b"}, tokens)
}

func TestTokens_ReportsEveryMissingVariable(t *testing.T) {
	cfg := Default()

	_, err := cfg.Tokens(envOf(map[string]string{"RESPONDIO_TOKEN_SABINO": "  "}))
	require.Error(t, err)

	var missing *MissingTokensError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"RESPONDIO_TOKEN_BORI", "RESPONDIO_TOKEN_SABINO"}, missing.Vars)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("REMINDSYNC_TEST_DOTENV=from-file\n"), 0o600))
	t.Setenv("REMINDSYNC_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("REMINDSYNC_TEST_DOTENV"))

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv("REMINDSYNC_TEST_DOTENV"))

	assert.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))
	assert.NoError(t, LoadDotEnv(""))
}
