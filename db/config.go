package db

import (
	"fmt"
	"strings"
	"time"

	"github.com/Sgt-cod/youtube-automation-news/internal/pathutil"
)

type Config struct {
	Driver string
	DSN    string
	SQLite SQLiteConfig
	Pool   PoolConfig
}

type SQLiteConfig struct {
	WAL           bool
	BusyTimeoutMs int
	ForeignKeys   bool
}

type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// ResolveSQLiteDSN expands the home prefix and creates the parent
// directory so a first run works against a fresh path.
func ResolveSQLiteDSN(dsn string) (string, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return "", fmt.Errorf("missing db.dsn")
	}
	if strings.HasPrefix(dsn, "file:") || dsn == ":memory:" {
		return dsn, nil
	}
	path := pathutil.ExpandHomePath(dsn)
	if err := pathutil.EnsureParent(path, 0o700); err != nil {
		return "", fmt.Errorf("create db dir for %s: %w", path, err)
	}
	return path, nil
}
