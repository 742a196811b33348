package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/adplan/backend/internal/domain/reconcile"
	"github.com/adplan/backend/internal/infrastructure/config"
	"github.com/adplan/backend/internal/infrastructure/persistence"
	"github.com/adplan/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// sqliteConfig writes a config file pointing at a fresh sqlite store and
// seeds client 5 with a campaign whose theme runs on a media it has no
// contract for.
func sqliteConfig(t *testing.T) (string, *persistence.Database) {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "adplan.db")
	cfgPath := filepath.Join(dir, "config.toml")
	content := fmt.Sprintf(`
[database]
driver = "sqlite"
path = %q
max_open_conns = 1
max_idle_conns = 1
log_level = "silent"

[log]
level = "error"
output = "stderr"
`, dbPath)
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o600))

	db, err := persistence.NewDatabase(&config.DatabaseConfig{Driver: "sqlite", Path: dbPath, LogLevel: "silent"}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.AutoMigrate(config.DefaultTables()))

	client := int64(5)
	mediaID := int64(7)
	for _, row := range []any{
		&models.ClientModel{BaseModel: models.BaseModel{ID: 5}, LegalName: "Banco Austral", Active: true},
		&models.MediaModel{BaseModel: models.BaseModel{ID: 7}, Name: "Medios Digitales", Category: "digital"},
		&models.CampaignModel{BaseModel: models.BaseModel{ID: 1}, Name: "Verano", ClientID: &client, Budget: decimal.NewFromInt(900)},
		&models.ThemeModel{BaseModel: models.BaseModel{ID: 100}, Name: "Playa", MediaID: &mediaID},
		&models.CampaignThemeModel{CampaignID: 1, ThemeID: 100},
	} {
		require.NoError(t, db.DB.Create(row).Error)
	}
	return cfgPath, db
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestCLI_BackfillThenRuns(t *testing.T) {
	cfgPath, db := sqliteConfig(t)

	code, out, errOut := runCLI(t, "--config", cfgPath, "backfill", "--dry-run")
	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, out, "(dry run)")
	count, err := db.Gateway().Count(context.Background(), "contracts")
	require.NoError(t, err)
	assert.Zero(t, count, "dry run writes nothing")

	code, out, errOut = runCLI(t, "--config", cfgPath, "-v", "backfill")
	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, out, "theme 100 of campaign 1")

	count, err = db.Gateway().Count(context.Background(), "contracts",
		persistence.Eq("client_id", int64(5)), persistence.Eq("media_id", int64(7)))
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	code, _, errOut = runCLI(t, "--config", cfgPath, "backfill")
	require.Equal(t, exitOK, code, errOut)
	count, err = db.Gateway().Count(context.Background(), "contracts")
	require.NoError(t, err)
	assert.EqualValues(t, 1, count, "a second run creates no duplicates")

	code, out, errOut = runCLI(t, "--config", cfgPath, "runs", "--limit", "5")
	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, out, "Recent runs")
	assert.Contains(t, out, "themes: 1 existing")
}

func TestCLI_DiagnoseAndClassify(t *testing.T) {
	cfgPath, _ := sqliteConfig(t)

	code, out, errOut := runCLI(t, "--config", cfgPath, "--plain", "diagnose")
	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, out, "missing_contract")
	assert.Contains(t, out, "campaign_without_agency")
	assert.NotContains(t, out, "\x1b[")

	code, out, errOut = runCLI(t, "--config", cfgPath, "classify")
	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, out, "0 of 0 support(s) would change")
}

func TestCLI_Errors(t *testing.T) {
	cfgPath, _ := sqliteConfig(t)

	code, _, errOut := runCLI(t, "--config", cfgPath, "backfill", "--steps", "invoices")
	assert.Equal(t, exitError, code)
	assert.Contains(t, errOut, `unknown step "invoices"`)

	code, _, _ = runCLI(t, "--config", cfgPath, "runs", "--limit", "0")
	assert.Equal(t, exitError, code)

	code, _, errOut = runCLI(t, "--config", cfgPath, "--timeout", "0", "backfill")
	assert.Equal(t, exitError, code)
	assert.Contains(t, errOut, "at most the lock ttl")
	code, _, errOut = runCLI(t, "--config", cfgPath, "--timeout", "2h", "backfill")
	assert.Equal(t, exitError, code)
	assert.Contains(t, errOut, "at most the lock ttl")

	code, _, errOut = runCLI(t, "--config", filepath.Join(t.TempDir(), "missing.toml"), "diagnose")
	assert.Equal(t, exitError, code)
	assert.Contains(t, errOut, "failed to load configuration")
}

func TestExitCode(t *testing.T) {
	var buf bytes.Buffer
	assert.Equal(t, exitOK, exitCode(nil, &buf))
	assert.Equal(t, exitFailed, exitCode(errFailedItems, &buf))
	assert.Equal(t, exitError, exitCode(errors.New("connection refused"), &buf))
	assert.Contains(t, buf.String(), "connection refused")
}

func TestParseSteps(t *testing.T) {
	steps, err := parseSteps([]string{"shares", " supports"})
	require.NoError(t, err)
	assert.Equal(t, []reconcile.Step{reconcile.StepShares, reconcile.StepSupports}, steps)

	steps, err = parseSteps(nil)
	require.NoError(t, err)
	assert.Empty(t, steps)
}
