package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/srgjo27/event_escrow/internal/platform/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	organizer := uuid.New()
	t.Setenv("ORGANIZER_ID", organizer.String())

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, organizer, cfg.OrganizerID)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, "5432", cfg.DB.Port)
	assert.Equal(t, 3, cfg.DB.TxRetries)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 10*time.Minute, cfg.Redis.EventTTL)
	assert.Equal(t, time.Minute, cfg.ReconcileInterval)
}

func TestLoad_RequiresOrganizer(t *testing.T) {
	t.Setenv("ORGANIZER_ID", "")
	os.Unsetenv("ORGANIZER_ID")

	_, err := config.Load("")
	assert.Error(t, err)
}

func TestLoad_RejectsNilOrganizerAndUnknownDriver(t *testing.T) {
	t.Setenv("ORGANIZER_ID", uuid.Nil.String())
	_, err := config.Load("")
	assert.Error(t, err)

	t.Setenv("ORGANIZER_ID", uuid.NewString())
	t.Setenv("DB_DRIVER", "mysql")
	_, err = config.Load("")
	assert.ErrorContains(t, err, "DB_DRIVER")
}

func TestLoad_DotEnvDoesNotOverrideEnvironment(t *testing.T) {
	organizer := uuid.New()
	path := filepath.Join(t.TempDir(), ".env")
	content := "# local settings\n" +
		"ORGANIZER_ID=" + organizer.String() + "\n" +
		"DB_DRIVER=sqlite\n" +
		"HTTP_ADDR=\":9000\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("HTTP_ADDR", ":7000")
	t.Setenv("DB_DRIVER", "")
	os.Unsetenv("DB_DRIVER")
	t.Setenv("ORGANIZER_ID", "")
	os.Unsetenv("ORGANIZER_ID")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, organizer, cfg.OrganizerID)
	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, ":7000", cfg.HTTPAddr)
}

func TestLoad_MissingDotEnvIsIgnored(t *testing.T) {
	t.Setenv("ORGANIZER_ID", uuid.NewString())

	_, err := config.Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}
