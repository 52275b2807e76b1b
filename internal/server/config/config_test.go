package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vals map[string]string) func(string) string {
	return func(k string) string { return vals[k] }
}

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":3000", c.HTTPAddr)
	assert.Equal(t, ":50051", c.GRPCAddr)
	assert.Equal(t, "gemini-2.0-flash", c.Model)
	assert.Equal(t, time.Hour, c.CacheTTL)
	assert.Equal(t, int64(50<<20), c.MaxUploadBytes)
	assert.Empty(t, c.TokenSecret)
}

func TestLoadConfig_RequiresVendorKey(t *testing.T) {
	_, err := LoadConfig(nil, env(nil))
	require.ErrorContains(t, err, EnvVendorKey)

	cfg, err := LoadConfig(nil, env(map[string]string{EnvVendorKey: " k1 "}))
	require.NoError(t, err)
	assert.Equal(t, "k1", cfg.VendorKey)
}

func TestLoadConfig_Layers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "proxy.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"http_addr": ":8080",
		"vendor_key": "from-file",
		"model": "gemini-file",
		"cache_ttl": "10m",
		"vendor_timeout": 30000000000,
		"allow_origins": ["https://a.example"],
		"trace_exporter": "stdout"
	}`), 0o600))

	args := []string{"-c", path, "-a", ":9090", "-o", "https://b.example, https://c.example", "-r", "127.0.0.1:6379", "-unknown", "x"}
	cfg, err := LoadConfig(args, env(nil))
	require.NoError(t, err)

	want := &Config{}
	want.LoadDefaults()
	want.HTTPAddr = ":9090"
	want.VendorKey = "from-file"
	want.Model = "gemini-file"
	want.CacheTTL = 10 * time.Minute
	want.VendorTimeout = 30 * time.Second
	want.AllowOrigins = []string{"https://b.example", "https://c.example"}
	want.RedisAddr = "127.0.0.1:6379"
	want.TraceExporter = "stdout"

	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}

	cfg, err = LoadConfig(args, env(map[string]string{EnvVendorKey: "from-env"}))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.VendorKey)
}

func TestLoadConfig_Errors(t *testing.T) {
	key := env(map[string]string{EnvVendorKey: "k"})

	_, err := LoadConfig([]string{"-c", filepath.Join(t.TempDir(), "missing.json")}, key)
	require.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{ not json`), 0o600))
	_, err = LoadConfig([]string{"-config", bad}, key)
	require.Error(t, err)

	_, err = LoadConfig([]string{"-x", "zipkin"}, key)
	require.ErrorContains(t, err, "trace exporter")

	_, err = LoadConfig([]string{"-b", "0"}, key)
	require.Error(t, err)

	_, err = LoadConfig([]string{"-t", "soon"}, key)
	require.Error(t, err)
}
