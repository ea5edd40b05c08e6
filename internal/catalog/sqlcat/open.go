package sqlcat

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

// Config describes one dictionary connection. The driver must be registered
// with database/sql by the caller.
type Config struct {
	Driver  string
	DSN     string
	Dialect string
}

// DialectFor returns the configured dialect, or the driver's default
func (cfg Config) DialectFor() (Dialect, error) {
	if cfg.Dialect != "" {
		return DialectByName(cfg.Dialect)
	}
	return DialectForDriver(cfg.Driver)
}

// Open connects to the database and verifies the connection
func Open(ctx context.Context, cfg Config, opts ...Option) (*Connector, error) {
	if cfg.Driver == "" {
		return nil, fmt.Errorf("driver is required")
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("dsn is required")
	}

	dialect, err := cfg.DialectFor()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", cfg.Driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", RedactDSN(cfg.Driver, cfg.DSN), err)
	}

	conn := New(db, dialect, opts...)
	conn.logger.Info("opened dictionary connection",
		zap.String("driver", cfg.Driver),
		zap.String("dialect", dialect.Name()),
		zap.String("dsn", RedactDSN(cfg.Driver, cfg.DSN)),
	)
	return conn, nil
}

const redacted = "xxxxx"

var keywordPassword = regexp.MustCompile(`(?i)(\bpassword\s*=\s*)('(?:[^'\\]|\\.)*'|[^\s]*)`)

// RedactDSN masks the password of a DSN for logging. DSNs that cannot be
// parsed are replaced by a placeholder naming the driver.
func RedactDSN(driver, dsn string) string {
	placeholder := "<" + driver + " dsn>"

	if strings.EqualFold(driver, "mysql") {
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return placeholder
		}
		if cfg.Passwd != "" {
			cfg.Passwd = redacted
		}
		return cfg.FormatDSN()
	}

	if !strings.Contains(dsn, "://") {
		if keywordPassword.MatchString(dsn) {
			return keywordPassword.ReplaceAllString(dsn, "${1}"+redacted)
		}
		if strings.Contains(dsn, "@") {
			return placeholder
		}
		return dsn
	}

	u, err := url.Parse(dsn)
	if err != nil {
		return placeholder
	}
	if u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), redacted)
		}
	}
	q := u.Query()
	if q.Has("password") {
		q.Set("password", redacted)
		u.RawQuery = q.Encode()
	}
	return u.String()
}
