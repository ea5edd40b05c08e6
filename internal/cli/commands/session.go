package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	// dictionary drivers selectable through connections.<owner>.driver
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	_ "github.com/sijms/go-ora/v2"

	"github.com/conduit-lang/dictgen/internal/catalog"
	"github.com/conduit-lang/dictgen/internal/catalog/cache"
	"github.com/conduit-lang/dictgen/internal/catalog/ddl"
	"github.com/conduit-lang/dictgen/internal/catalog/memory"
	"github.com/conduit-lang/dictgen/internal/catalog/sqlcat"
	"github.com/conduit-lang/dictgen/internal/cli/config"
	"github.com/conduit-lang/dictgen/internal/cli/logging"
)

// DDLDriver reads the owner's tables from the schema script named by the DSN
const DDLDriver = "ddl"

// GlobalOptions holds the persistent flags shared by all commands
type GlobalOptions struct {
	ConfigPath string
	Verbose    bool
	NoColor    bool
}

// session is the state of one command run: configuration, logger and one
// connector per configured owner
type session struct {
	cfg      *config.Config
	logger   *zap.Logger
	registry *catalog.Registry
	closers  []io.Closer
}

// ownerError reports a requested owner with no configured connection
type ownerError struct {
	owner      string
	configured []string
}

func (e *ownerError) Error() string {
	return fmt.Sprintf("no connection is configured for owner %s", e.owner)
}

func (e *ownerError) Unwrap() error {
	return catalog.ErrNotFound
}

type configError struct {
	err error
}

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

// openSession loads configuration and connects every configured owner
func openSession(ctx context.Context, cmd *cobra.Command, g *GlobalOptions) (*session, error) {
	cfg, err := config.Load(g.ConfigPath)
	if err != nil {
		return nil, &configError{err: err}
	}

	logger, err := logging.New(logging.Options{
		Verbose: g.Verbose,
		Level:   cfg.Log.Level,
		Output:  zapcore.Lock(zapcore.AddSync(cmd.ErrOrStderr())),
	})
	if err != nil {
		return nil, &configError{err: err}
	}

	s := &session{
		cfg:      cfg,
		logger:   logger.With(zap.String("command", cmd.Name())),
		registry: catalog.NewRegistry(),
	}
	if err := s.connect(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *session) connect(ctx context.Context) error {
	store, err := s.openCache(ctx)
	if err != nil {
		return err
	}
	if store != nil {
		s.closers = append(s.closers, store)
	}

	// owners sharing a schema script share one catalog, so references
	// between them resolve
	scripts := make(map[string]*memory.Catalog)

	for _, name := range s.cfg.Owners() {
		cc := s.cfg.Connections[name]
		owner := strings.ToUpper(name)

		var conn catalog.Connector
		if strings.EqualFold(cc.Driver, DDLDriver) {
			cat, ok := scripts[cc.DSN]
			if !ok {
				var err error
				cat, err = ddl.NewLoader(s.logger).LoadFile(owner, cc.DSN)
				if err != nil {
					return fmt.Errorf("failed to load schema script for %s: %w", owner, err)
				}
				scripts[cc.DSN] = cat
			}
			conn = cat
		} else {
			sc, err := sqlcat.Open(ctx, sqlcat.Config{Driver: cc.Driver, DSN: cc.DSN, Dialect: cc.Dialect},
				sqlcat.WithLogger(s.logger.With(zap.String("owner", owner))))
			if err != nil {
				return fmt.Errorf("failed to connect owner %s: %w", owner, err)
			}
			s.closers = append(s.closers, sc)
			conn = sc
			if store != nil {
				conn = cache.Wrap(owner, sc, store, cache.WithLogger(s.logger))
			}
		}

		if err := s.registry.Register(owner, conn); err != nil {
			return err
		}
	}

	s.logger.Debug("connected owners", zap.Strings("owners", s.registry.Owners()))
	return nil
}

func (s *session) openCache(ctx context.Context) (cache.Cache, error) {
	cc := s.cfg.Cache
	base := cache.Config{TTL: cc.TTL, Prefix: cc.Prefix}

	switch cc.Backend {
	case config.CacheMemory:
		return cache.NewMemoryCache(base), nil
	case config.CacheRedis:
		store, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cc.Redis.Addr,
			Password: cc.Redis.Password,
			DB:       cc.Redis.DB,
			Config:   base,
		})
		if err != nil {
			return nil, err
		}
		s.logger.Info("using redis dictionary cache", zap.String("addr", cc.Redis.Addr))
		return store, nil
	}
	return nil, nil
}

// connector returns the connector of a configured owner
func (s *session) connector(owner string) (catalog.Connector, error) {
	conn, ok := s.registry.Lookup(owner)
	if !ok {
		return nil, &ownerError{owner: owner, configured: s.registry.Owners()}
	}
	return conn, nil
}

// Close releases connections and the cache, then flushes the logger
func (s *session) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.logger != nil {
		s.logger.Sync()
	}
	return errors.Join(errs...)
}
