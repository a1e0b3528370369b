package contract

import (
	"path/filepath"
	"testing"

	"github.com/huangsam/delphi/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validInput returns the raw input produced by the CLI defaults.
func validInput() *ConfigRawInput {
	return &ConfigRawInput{
		Project:        "checkout",
		Precision:      2,
		Output:         "text",
		Color:          "yes",
		StoreBackend:   string(schema.SQLiteBackend),
		HistoryBackend: string(schema.NoneBackend),
		Confidence:     "95%",
		StatsMode:      "historical",
	}
}

func TestProcessAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*ConfigRawInput)
		expectError bool
	}{
		{
			name:   "valid defaults",
			modify: func(*ConfigRawInput) {},
		},
		{
			name:        "invalid output",
			modify:      func(in *ConfigRawInput) { in.Output = "yaml" },
			expectError: true,
		},
		{
			name:        "xlsx without output file",
			modify:      func(in *ConfigRawInput) { in.Output = "xlsx" },
			expectError: true,
		},
		{
			name: "xlsx with output file",
			modify: func(in *ConfigRawInput) {
				in.Output = "XLSX"
				in.OutputFile = "report.xlsx"
			},
		},
		{
			name:        "precision too high",
			modify:      func(in *ConfigRawInput) { in.Precision = 5 },
			expectError: true,
		},
		{
			name:        "invalid color",
			modify:      func(in *ConfigRawInput) { in.Color = "maybe" },
			expectError: true,
		},
		{
			name:        "invalid store backend",
			modify:      func(in *ConfigRawInput) { in.StoreBackend = "none" },
			expectError: true,
		},
		{
			name:   "memory store backend",
			modify: func(in *ConfigRawInput) { in.StoreBackend = "memory" },
		},
		{
			name:        "memory history backend",
			modify:      func(in *ConfigRawInput) { in.HistoryBackend = "memory" },
			expectError: true,
		},
		{
			name:        "postgresql store without connection string",
			modify:      func(in *ConfigRawInput) { in.StoreBackend = "postgresql" },
			expectError: true,
		},
		{
			name: "mysql store with connection string",
			modify: func(in *ConfigRawInput) {
				in.StoreBackend = "mysql"
				in.StoreDBConnect = "user:pass@tcp(localhost:3306)/delphi"
			},
		},
		{
			name: "sqlite store and history sharing a file",
			modify: func(in *ConfigRawInput) {
				in.HistoryBackend = "sqlite"
				in.StoreDBConnect = filepath.Join("tmp", "shared.db")
				in.HistoryDBConnect = filepath.Join("tmp", "shared.db")
			},
			expectError: true,
		},
		{
			name:   "sqlite store and history with default files",
			modify: func(in *ConfigRawInput) { in.HistoryBackend = "sqlite" },
		},
		{
			name:        "unsupported confidence",
			modify:      func(in *ConfigRawInput) { in.Confidence = "80%" },
			expectError: true,
		},
		{
			name:        "unsupported stats mode",
			modify:      func(in *ConfigRawInput) { in.StatsMode = "median" },
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			tt.modify(input)

			cfg := &Config{}
			err := ProcessAndValidate(cfg, input)
			if tt.expectError {
				assert.Error(t, err, "ProcessAndValidate should return an error for %s", tt.name)
				return
			}
			assert.NoError(t, err, "ProcessAndValidate should not return an error for %s", tt.name)
		})
	}
}

func TestProcessAndValidateDefaults(t *testing.T) {
	input := validInput()
	input.Project = "   "
	input.HistoryBackend = ""
	input.Confidence = ""
	input.StatsMode = ""
	input.Color = "no"

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input))
	assert.Equal(t, DefaultProject, cfg.Project)
	assert.Equal(t, schema.NoneBackend, cfg.HistoryBackend)
	assert.Equal(t, schema.Confidence95, cfg.Confidence)
	assert.Equal(t, schema.HistoricalStats, cfg.StatsMode)
	assert.False(t, cfg.UseColors)

	clone := cfg.Clone()
	clone.Project = "other"
	assert.Equal(t, DefaultProject, cfg.Project)
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	assert.NoError(t, ValidateDatabaseConnectionString(schema.MemoryBackend, "", "store-db-connect"))
	assert.NoError(t, ValidateDatabaseConnectionString(schema.PostgreSQLBackend, "host=localhost dbname=delphi", "store-db-connect"))

	err := ValidateDatabaseConnectionString(schema.MySQLBackend, "", "history-db-connect")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "history-db-connect")

	assert.Error(t, ValidateDatabaseConnectionString(schema.MySQLBackend, "user@localhost/delphi", "x"))
	assert.Error(t, ValidateDatabaseConnectionString(schema.PostgreSQLBackend, "host=localhost", "x"))
}

func TestProcessProfilingConfig(t *testing.T) {
	profile := &ProfileConfig{}
	require.NoError(t, ProcessProfilingConfig(profile, ""))
	assert.False(t, profile.Enabled)

	require.NoError(t, ProcessProfilingConfig(profile, "delphi"))
	assert.True(t, profile.Enabled)
	assert.Equal(t, "delphi", profile.Prefix)
}
