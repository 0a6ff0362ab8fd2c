package database

import (
	"net/url"
	"testing"

	driver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"
)

func TestBuildPostgresDSN(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{User: "profile", Name: "profile"})
	require.NoError(t, err)
	require.Equal(t, "postgres://profile@localhost:5432/profile?sslmode=disable", dsn)

	dsn, err = buildPostgresDSN(Config{
		User:     "omeka",
		Password: "p@ss word",
		Name:     "profiles",
		Host:     "db.example.com",
		Port:     6543,
		Options:  map[string]string{"sslmode": "require", "search_path": "public"},
	})
	require.NoError(t, err)

	u, err := url.Parse(dsn)
	require.NoError(t, err)
	require.Equal(t, "db.example.com:6543", u.Host)
	require.Equal(t, "/profiles", u.Path)
	password, _ := u.User.Password()
	require.Equal(t, "p@ss word", password)
	require.Equal(t, "require", u.Query().Get("sslmode"))
	require.Equal(t, "public", u.Query().Get("search_path"))
}

func TestBuildMySQLDSN(t *testing.T) {
	dsn, err := buildMySQLDSN(Config{
		User:     "omeka",
		Password: "secret",
		Name:     "profiles",
		Host:     "db.example.com",
		Port:     3307,
		Options:  map[string]string{"tls": "skip-verify"},
	})
	require.NoError(t, err)

	parsed, err := driver.ParseDSN(dsn)
	require.NoError(t, err)
	require.Equal(t, "omeka", parsed.User)
	require.Equal(t, "secret", parsed.Passwd)
	require.Equal(t, "db.example.com:3307", parsed.Addr)
	require.Equal(t, "profiles", parsed.DBName)
	require.True(t, parsed.ParseTime)
	require.Contains(t, dsn, "charset=utf8mb4")
	require.Contains(t, dsn, "tls=skip-verify")

	dsn, err = buildMySQLDSN(Config{User: "omeka", Name: "profiles"})
	require.NoError(t, err)
	require.Contains(t, dsn, "omeka@tcp(127.0.0.1:3306)/profiles?")
}

func TestDSNRequiresUserAndName(t *testing.T) {
	_, err := buildPostgresDSN(Config{Host: "localhost"})
	require.Error(t, err)
	_, err = buildMySQLDSN(Config{User: "omeka"})
	require.Error(t, err)

	dsn, err := buildMySQLDSN(Config{DSN: "custom"})
	require.NoError(t, err)
	require.Equal(t, "custom", dsn)
}

func TestSQLiteDSN(t *testing.T) {
	require.Equal(t, "file::memory:?_foreign_keys=1", sqliteDSN(""))
	require.Equal(t, "file::memory:?_foreign_keys=1", sqliteDSN(":MEMORY:"))
	require.Equal(t, "file:data/profile.sqlite?_foreign_keys=1&_journal_mode=WAL&_busy_timeout=5000", sqliteDSN("data/profile.sqlite"))
}
