package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "Superstore.xlsx", cfg.DataSource.WorkbookPath)
	assert.Equal(t, "Superstore", cfg.DataSource.SheetName)
	assert.Equal(t, 10*time.Minute, cfg.DataSource.CacheTTL)
	assert.Equal(t, 6, cfg.Forecast.DefaultPeriods)
	assert.Equal(t, "reports", cfg.Export.OutputDir)
	assert.True(t, cfg.Export.CSVBOM)
	assert.NoError(t, cfg.validate())
}

func TestValidateRejectsBadPort(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = 0
	require.Error(t, cfg.validate())

	cfg.Server.Port = 70000
	require.Error(t, cfg.validate())
}

func TestValidateRejectsMissingSheetName(t *testing.T) {
	cfg := Default()
	cfg.DataSource.SheetName = ""
	require.Error(t, cfg.validate())
}

func TestValidateRejectsNonPositiveCacheTTL(t *testing.T) {
	cfg := Default()
	cfg.DataSource.CacheTTL = 0
	require.Error(t, cfg.validate())
}

func TestValidateRejectsOutOfRangeDefaultPeriods(t *testing.T) {
	cfg := Default()
	cfg.Forecast.DefaultPeriods = 0
	require.Error(t, cfg.validate())

	cfg.Forecast.DefaultPeriods = 13
	require.Error(t, cfg.validate())
}

func TestValidatePrefersSpreadsheetOverWorkbook(t *testing.T) {
	cfg := Default()
	cfg.DataSource.SpreadsheetID = "sheet-123"
	require.NoError(t, cfg.validate())
	assert.Empty(t, cfg.DataSource.WorkbookPath)
}

func TestValidateForcesJSONLogFormat(t *testing.T) {
	cfg := Default()
	cfg.Logging.Format = "text"
	require.NoError(t, cfg.validate())
	assert.Equal(t, "json", cfg.Logging.Format)
}
