package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Veraticus/the-ledger-must-balance/internal/common"
	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(newViper(t))
	require.NoError(t, err)

	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".local", "share", "ledger", "ledger.db"), cfg.Database.Path)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, "INR", cfg.Currency)
	assert.Equal(t, 64, cfg.Capture.QueueSize)
	assert.Equal(t, 2, cfg.Capture.Workers)
	assert.Equal(t, ',', cfg.Delimiter())

	tie, err := cfg.TieBreak()
	require.NoError(t, err)
	assert.Equal(t, model.DirectionDebit, tie)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("LEDGER_TEST_DIR", "/tmp/ledger")

	v := newViper(t)
	v.Set("database.path", "$LEDGER_TEST_DIR/book.db")
	v.Set("currency", " usd ")
	v.Set("extract.tie_break", "Credit")
	v.Set("import.delimiter", ";")

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/ledger/book.db", cfg.Database.Path)
	assert.Equal(t, "USD", cfg.Currency)
	assert.Equal(t, ';', cfg.Delimiter())

	tie, err := cfg.TieBreak()
	require.NoError(t, err)
	assert.Equal(t, model.DirectionCredit, tie)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("LEDGER_CAPTURE_WORKERS", "5")

	v := newViper(t)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Capture.Workers)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   any
		wantErr string
	}{
		{"log level", "logging.level", "loud", "invalid log level"},
		{"log format", "logging.format", "xml", "invalid log format"},
		{"tie break", "extract.tie_break", "sideways", "extract.tie_break"},
		{"delimiter", "import.delimiter", ";;", "import.delimiter"},
		{"queue", "capture.queue_size", 0, "capture.queue_size"},
		{"workers", "capture.workers", -1, "capture.workers"},
		{"database", "database.path", "", "database.path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newViper(t)
			v.Set(tt.key, tt.value)

			_, err := Load(v)
			require.ErrorIs(t, err, common.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_MissingDatabasePath(t *testing.T) {
	v := newViper(t)
	v.Set("database.path", "")

	_, err := Load(v)
	require.ErrorIs(t, err, common.ErrMissingConfig)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("LEDGER_PATH_TEST", "books")

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"~", home},
		{"~/ledger.db", filepath.Join(home, "ledger.db")},
		{"/var/$LEDGER_PATH_TEST/a.db", "/var/books/a.db"},
		{"relative/path", "relative/path"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExpandPath(tt.in), tt.in)
	}
}
