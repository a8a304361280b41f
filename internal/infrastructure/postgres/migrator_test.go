package postgres

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrator_MissingSource(t *testing.T) {
	m := NewMigrator("postgres://localhost:1/none?sslmode=disable", filepath.Join(t.TempDir(), "missing"), zerolog.Nop())

	err := m.Up()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create migrate instance")
}

func TestMigrations_ArePaired(t *testing.T) {
	entries, err := os.ReadDir("migrations")
	require.NoError(t, err)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		}
	}

	require.NotEmpty(t, ups)
	assert.Equal(t, ups, downs)
}

func TestMigrations_DeclareNamedConstraints(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("migrations", "000001_init.up.sql"))
	require.NoError(t, err)

	schema := string(data)
	for _, constraint := range []string{
		"users_email_key",
		"accounts_account_number_key",
		"accounts_balance_non_negative",
		"ON DELETE RESTRICT",
	} {
		assert.Contains(t, schema, constraint)
	}
}
