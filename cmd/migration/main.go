package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"net/url"
	"strings"

	"core/internal/config"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func main() {
	var (
		dir  = flag.String("dir", "migrations", "path to migration files")
		down = flag.Bool("down", false, "roll back one migration instead of migrating up")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	m, err := migrate.New("file://"+*dir, databaseURL(cfg))
	if err != nil {
		log.Fatalf("Failed to initialize migrations: %v", err)
	}
	defer m.Close()

	if *down {
		err = m.Steps(-1)
	} else {
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatalf("Migration failed: %v", err)
	}

	version, dirty, verr := m.Version()
	if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
		log.Fatalf("Failed to read migration version: %v", verr)
	}
	log.Printf("✅ Migrations complete (version=%d dirty=%v)", version, dirty)
}

// databaseURL returns a postgres:// URL; migrate does not accept the keyword
// DSN form the server uses.
func databaseURL(cfg *config.Config) string {
	if dsn := cfg.PostgreSQL.DSN; dsn != "" && strings.HasPrefix(dsn, "postgres") {
		return dsn
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(cfg.PostgreSQL.User),
		url.QueryEscape(cfg.PostgreSQL.Password),
		cfg.PostgreSQL.Host,
		cfg.PostgreSQL.Port,
		cfg.PostgreSQL.Database,
		cfg.PostgreSQL.SSLMode,
	)
}
