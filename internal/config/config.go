// Package config loads ambient environment configuration, grounded on
// db/sqlite_integration_test.go's godotenv.Load()-then-os.Getenv idiom.
package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config is the ambient configuration resolved once at process startup
// (spec §9's "registry and event-driven cache are process-wide; they must
// be initialized before any analyze call").
type Config struct {
	// DatabaseDSN is the index store's connection string: a file path for
	// local SQLite, or an http(s)/libsql URL for a remote Turso database.
	DatabaseDSN string
	// LibSQLAuthToken authenticates a remote DatabaseDSN, when set.
	LibSQLAuthToken string
	// EventDriven holds the ASTROGRAPH_EVENT_DRIVEN flag. No package in
	// this module reads it: there is no in-memory cache or file watcher,
	// and every analyze runs cold whatever its value.
	EventDriven bool
	// MetadataDir holds ASTROGRAPH_METADATA_DIR (default
	// ".metadata_astrograph"). No package in this module reads it: the
	// engine writes reports under <root>/.metadata_astrograph and the
	// index lives at DatabaseDSN.
	MetadataDir string
}

const (
	envDatabaseDSN  = "ASTROGRAPH_DATABASE_URL"
	envLibSQLToken  = "ASTROGRAPH_LIBSQL_AUTH_TOKEN"
	envEventDriven  = "ASTROGRAPH_EVENT_DRIVEN"
	envMetadataDir  = "ASTROGRAPH_METADATA_DIR"
	defaultDatabase = ".metadata_astrograph/index.db"
	defaultMetaDir  = ".metadata_astrograph"
)

// Load reads a .env file if present (ignoring its absence, same as
// godotenv.Load()'s error being discarded in the teacher's integration
// test) and resolves Config from the environment.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		DatabaseDSN:     os.Getenv(envDatabaseDSN),
		LibSQLAuthToken: os.Getenv(envLibSQLToken),
		EventDriven:     isTruthy(os.Getenv(envEventDriven)),
		MetadataDir:     os.Getenv(envMetadataDir),
	}
	if cfg.DatabaseDSN == "" {
		cfg.DatabaseDSN = defaultDatabase
	}
	if cfg.MetadataDir == "" {
		cfg.MetadataDir = defaultMetaDir
	}
	return cfg
}

func isTruthy(v string) bool {
	switch v {
	case "1", "true", "TRUE", "True", "yes", "on":
		return true
	default:
		return false
	}
}
