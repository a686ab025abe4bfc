package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go-drink-stand/config"
	"go-drink-stand/controllers"
	"go-drink-stand/database"
	"go-drink-stand/helpers"
	"go-drink-stand/monitoring"
	"go-drink-stand/realtime"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := NewRootCommand()
	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.Subset(t, names, []string{"serve", "seed", "hash-password"})
}

func TestHashPassword(t *testing.T) {
	out, err := execute(t, "", "hash-password", "matcha")
	require.NoError(t, err)
	ok, _ := helpers.VerifyPassword("matcha", strings.TrimSpace(out))
	assert.True(t, ok)

	out, err = execute(t, "hojicha\n", "hash-password")
	require.NoError(t, err)
	ok, _ = helpers.VerifyPassword("hojicha", strings.TrimSpace(out))
	assert.True(t, ok)

	_, err = execute(t, "\n", "hash-password")
	assert.ErrorContains(t, err, "password cannot be empty")
}

func TestSeedCommand(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "stand.db")
	seedPath := filepath.Join(dir, "seed.yaml")
	require.NoError(t, os.WriteFile(seedPath, []byte("drinks:\n  - name: Hojicha\nusers:\n  - Miffy\n"), 0o600))

	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", dbPath)

	envFile := filepath.Join(dir, "missing.env")
	out, err := execute(t, "", "--env", envFile, "seed", "--file", seedPath)
	require.NoError(t, err)
	assert.Equal(t, "added 1 drinks and 1 approved customers\n", out)

	out, err = execute(t, "", "--env", envFile, "seed", "--file", seedPath)
	require.NoError(t, err)
	assert.Equal(t, "added 0 drinks and 0 approved customers\n", out)

	_, err = execute(t, "", "--env", envFile, "seed")
	assert.ErrorContains(t, err, "required flag")
}

func TestServeCommand_RejectsBadConfig(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mysql")
	t.Setenv("SECRET_KEY", "")
	t.Setenv("ADMIN_PASSWORD", "")
	t.Setenv("ADMIN_PASSWORD_HASH", "")

	_, err := execute(t, "", "--env", filepath.Join(t.TempDir(), "none.env"), "serve")
	assert.ErrorContains(t, err, "invalid configuration")
	assert.ErrorContains(t, err, "STORE_DRIVER")
}

func TestNewRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store, err := database.OpenSQL(database.DriverSQLite, filepath.Join(t.TempDir(), "stand.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(context.Background()) })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	hash, err := helpers.HashPassword("matcha")
	require.NoError(t, err)
	auth := helpers.NewAuthProvider("secret", hash, time.Hour)
	t.Cleanup(auth.Close)
	metrics := monitoring.New()
	ctl := controllers.New(controllers.Options{Store: store, Feed: realtime.NewHub(), Auth: auth, Metrics: metrics, Log: log})

	cfg := config.Config{AllowedOrigins: []string{"http://localhost:9000"}}
	router := NewRouter(cfg, ctl, auth, metrics, log)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodOptions, "/orders", nil)
	req.Header.Set("Origin", "http://localhost:9000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:9000", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/orders", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
