package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readBack(t *testing.T, path string) Config {
	t.Helper()
	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())
	cfg := Defaults()
	require.NoError(t, v.Unmarshal(&cfg))
	return cfg
}

func TestSetValue_CreatesNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	require.NoError(t, SetValue(path, "factory.minting_fee", "250"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "factory:")
	assert.Contains(t, string(data), "minting_fee: 250")
	require.Equal(t, uint64(250), readBack(t, path).Factory.MintingFee)
}

func TestSetValue_PreservesComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, WriteDefaultConfig(path))

	require.NoError(t, SetValue(path, "factory.creation_fee", "0.05ether"))
	require.NoError(t, SetValue(path, "external_url", "https://example.org"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Settings used by 'dixel deploy'")
	assert.Contains(t, string(data), "Platform share of every mint")

	cfg := readBack(t, path)
	require.Equal(t, "0.05ether", cfg.Factory.CreationFee)
	require.Equal(t, "https://example.org", cfg.ExternalURL)
	require.Equal(t, uint64(500), cfg.Factory.MintingFee)
}

func TestSetValue_QuotesHexAddresses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	addr := "0x00000000000000000000000000000000000000aa"

	require.NoError(t, SetValue(path, "factory.beneficiary", addr))
	require.Equal(t, addr, readBack(t, path).Factory.Beneficiary)
}

func TestSetValue_Errors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, WriteDefaultConfig(path))

	require.ErrorContains(t, SetValue(path, "factory", "x"), "is a section")
	require.ErrorContains(t, SetValue(path, "external_url.host", "x"), "is not a section")
	require.ErrorContains(t, SetValue(path, "factory..fee", "x"), "invalid key")
}

func TestSetValue_AtomicWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, SetValue(path, "db_path", "/tmp/dixel.db"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp file should be renamed away")
}
