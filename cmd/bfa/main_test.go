package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/boddenberg/bpo-leadgen-bfa/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func clearBackendEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"REDIS_URL", "DATABASE_URL", "SUPABASE_URL", "ANTHROPIC_API_KEY", "EXCHANGE_RATE_API_KEY", "BFA_CONFIG"} {
		t.Setenv(k, "")
	}
	// Unreachable secondary provider: the quote falls back to static rates.
	t.Setenv("EXCHANGE_SECONDARY_URL", "http://127.0.0.1:1")
	t.Setenv("MAX_RETRIES", "0")
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestDeviceIDCommand(t *testing.T) {
	clearBackendEnv(t)
	file := filepath.Join(t.TempDir(), "device.json")

	first, err := run(t, "", "device-id", "--file", file)
	require.NoError(t, err)
	second, err := run(t, "", "device-id", "--file", file)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(first, "dev_"))
	assert.Equal(t, first, second)

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), strings.TrimSpace(first))

	_, err = run(t, "", "device-id", "--file", file, "--reset")
	require.NoError(t, err)
}

func TestQuoteCommand(t *testing.T) {
	clearBackendEnv(t)

	body := `{"roles":[{"title":"Bookkeeper"}],"rolesSalaryData":{"Bookkeeper":{"salary":45000,"level":"mid"}},"currency":"PHP"}`
	out, err := run(t, body, "quote", "-f", "-")
	require.NoError(t, err)

	// PHP: identity rate, no night shift. 45000 × 1.5 + 8500 WFH fee.
	assert.Contains(t, out, `"totalMonthlyCost": 76000`)
	assert.Contains(t, out, `"currencySymbol": "₱"`)
}

func TestQuoteCommand_BadInput(t *testing.T) {
	clearBackendEnv(t)

	_, err := run(t, `{"roles": []}`, "quote")
	assert.Error(t, err)

	_, err = run(t, `not json`, "quote")
	assert.Error(t, err)
}

func TestBuildApp_SupabaseWithAnonKeyOnly(t *testing.T) {
	var auth, apikey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth, apikey = r.Header.Get("Authorization"), r.Header.Get("apikey")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	cfg := config.Defaults()
	cfg.SupabaseURL = srv.URL
	cfg.SupabaseAnonKey = "anon"
	require.NoError(t, cfg.Validate())

	a, err := buildApp(context.Background(), cfg, zap.NewNop(), true)
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, "supabase", a.storeTag)
	require.NoError(t, a.store.Ping(context.Background()))
	assert.Equal(t, "Bearer anon", auth)
	assert.Equal(t, "anon", apikey)
}
