package config

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/conduit-lang/dictgen/internal/plsql"
)

// Config represents the dictgen configuration
type Config struct {
	Connections map[string]ConnectionConfig `mapstructure:"connections"`
	Cache       CacheConfig                 `mapstructure:"cache"`
	DBML        DBMLConfig                  `mapstructure:"dbml"`
	CRUD        CRUDConfig                  `mapstructure:"crud"`
	Log         LogConfig                   `mapstructure:"log"`
}

// ConnectionConfig describes how to reach the dictionary of one owner.
// The ddl driver reads a schema script from the path in DSN.
type ConnectionConfig struct {
	Driver  string `mapstructure:"driver"`
	DSN     string `mapstructure:"dsn"`
	Dialect string `mapstructure:"dialect"`
}

// CacheConfig selects the dictionary cache backend
type CacheConfig struct {
	Backend string        `mapstructure:"backend"`
	TTL     time.Duration `mapstructure:"ttl"`
	Prefix  string        `mapstructure:"prefix"`
	Redis   RedisConfig   `mapstructure:"redis"`
}

// RedisConfig represents the redis cache connection
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// DBMLConfig holds defaults for the dbml command
type DBMLConfig struct {
	Schema       string `mapstructure:"schema"`
	QualifyOwner bool   `mapstructure:"qualify_owner"`
	Exclude      string `mapstructure:"exclude"`
	Output       string `mapstructure:"output"`
}

// CRUDConfig lists the tables to generate the table interface package for
type CRUDConfig struct {
	Owner         string        `mapstructure:"owner"`
	Package       string        `mapstructure:"package"`
	AuditColumns  []string      `mapstructure:"audit_columns"`
	IncludeToJSON bool          `mapstructure:"include_to_json"`
	Output        string        `mapstructure:"output"`
	Tables        []TableConfig `mapstructure:"tables"`
}

// TableConfig names a table and, optionally, the sequence that supplies its key
type TableConfig struct {
	Name     string `mapstructure:"name"`
	Sequence string `mapstructure:"sequence"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Cache backends
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Load reads dictgen.yml or dictgen.yaml from the working directory, or the
// file at path when it is not empty. A .env file in the working directory is
// loaded first so DSNs can reference its variables as ${NAME}.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()

	v.SetDefault("cache.backend", CacheNone)
	v.SetDefault("cache.ttl", 10*time.Minute)
	v.SetDefault("cache.prefix", "dictgen:")
	v.SetDefault("cache.redis.addr", "localhost:6379")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("dbml.schema", "")
	v.SetDefault("dbml.qualify_owner", true)
	v.SetDefault("dbml.exclude", "")
	v.SetDefault("dbml.output", "")
	v.SetDefault("crud.owner", "")
	v.SetDefault("crud.package", "")
	v.SetDefault("crud.audit_columns", plsql.DefaultAuditColumns)
	v.SetDefault("crud.include_to_json", false)
	v.SetDefault("crud.output", "")
	v.SetDefault("log.level", "info")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("dictgen")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("dictgen")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	for name, conn := range config.Connections {
		conn.DSN = expandEnv(conn.DSN)
		config.Connections[name] = conn
	}
	config.Cache.Redis.Password = expandEnv(config.Cache.Redis.Password)

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv replaces ${NAME} references. A bare $ is left alone since it is
// legal in Oracle passwords.
func expandEnv(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(ref string) string {
		return os.Getenv(envRef.FindStringSubmatch(ref)[1])
	})
}

// Owners returns the configured connection names, sorted
func (c *Config) Owners() []string {
	owners := make([]string, 0, len(c.Connections))
	for name := range c.Connections {
		owners = append(owners, name)
	}
	sort.Strings(owners)
	return owners
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	for _, name := range cfg.Owners() {
		conn := cfg.Connections[name]
		if conn.Driver == "" {
			return fmt.Errorf("connections.%s.driver is required", name)
		}
		if conn.DSN == "" {
			return fmt.Errorf("connections.%s.dsn is required", name)
		}
	}

	switch cfg.Cache.Backend {
	case CacheNone, CacheMemory, CacheRedis:
	default:
		return fmt.Errorf("cache.backend must be one of none, memory, redis, got: %s", cfg.Cache.Backend)
	}
	if cfg.Cache.Backend == CacheRedis && cfg.Cache.Redis.Addr == "" {
		return fmt.Errorf("cache.redis.addr is required for the redis backend")
	}

	listed := make(map[string]int, len(cfg.CRUD.Tables))
	for i, t := range cfg.CRUD.Tables {
		name := strings.ToUpper(strings.TrimSpace(t.Name))
		if name == "" {
			return fmt.Errorf("crud.tables[%d].name is required", i)
		}
		if first, ok := listed[name]; ok {
			return fmt.Errorf("crud.tables[%d].name repeats crud.tables[%d]: %s", i, first, t.Name)
		}
		listed[name] = i
	}

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		return fmt.Errorf("log.level is invalid, got: %s", cfg.Log.Level)
	}

	return nil
}
