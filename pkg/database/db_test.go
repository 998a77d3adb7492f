package database

import (
	"context"
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteLiteral(t *testing.T) {
	assert.Equal(t, "'UTC'", quoteLiteral("UTC"))
	assert.Equal(t, "'it''s'", quoteLiteral("it's"))
}

func TestMigrationFS_PairsUpAndDown(t *testing.T) {
	names, err := fs.Glob(MigrationFS, "migrations/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, names)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, n := range names {
		switch {
		case strings.HasSuffix(n, ".up.sql"):
			ups[strings.TrimSuffix(n, ".up.sql")] = true
		case strings.HasSuffix(n, ".down.sql"):
			downs[strings.TrimSuffix(n, ".down.sql")] = true
		default:
			t.Errorf("unexpected migration file %s", n)
		}
	}
	assert.Equal(t, ups, downs)
}

func TestMigrate_RejectsBadInput(t *testing.T) {
	assert.Error(t, Migrate("", "up"))
	assert.Error(t, Migrate("postgres://localhost/x", "sideways"))
}

func TestConnectRedis_Unreachable(t *testing.T) {
	_, err := ConnectRedis(context.Background(), RedisConfig{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}

func TestWithSessionParams(t *testing.T) {
	got, err := withSessionParams("postgres://u:p@localhost:5432/db?sslmode=disable", "Asia/Kolkata", "UTF8")
	require.NoError(t, err)
	assert.Contains(t, got, "timezone=Asia%2FKolkata")
	assert.Contains(t, got, "client_encoding=UTF8")
	assert.Contains(t, got, "sslmode=disable")

	got, err = withSessionParams("host=localhost dbname=db", "UTC", "")
	require.NoError(t, err)
	assert.Equal(t, "host=localhost dbname=db timezone='UTC'", got)

	got, err = withSessionParams("host=localhost", "", "")
	require.NoError(t, err)
	assert.Equal(t, "host=localhost", got)
}
