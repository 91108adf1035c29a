// Command migrate applies or reverts this service's PostgreSQL schema
// using golang-migrate/v4 against the migration set embedded in
// internal/store/postgres (postgres.MigrationsFS), grounded on the
// embed+iofs pattern in the example pack (pkg/database/client.go's
// runMigrations) and the teacher's flag-driven DSN/direction CLI
// (cmd/migrate/main.go).
package main

import (
	"database/sql"
	"errors"
	"flag"
	"log"
	"os"

	"github.com/golang-migrate/migrate/v4"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/agenceeditorial/auditengine/internal/store/postgres"
)

func main() {
	var (
		dsn       string
		direction string
		steps     int
	)
	flag.StringVar(&dsn, "dsn", "", "PostgreSQL connection string (defaults to $DATABASE_URL)")
	flag.StringVar(&direction, "direction", "up", "migration direction: up, down, or force")
	flag.IntVar(&steps, "steps", 0, "for -direction=force, the version to force; ignored otherwise")
	flag.Parse()

	if dsn == "" {
		dsn = os.Getenv("DATABASE_URL")
	}
	if dsn == "" {
		log.Fatal("a DSN is required: pass -dsn or set DATABASE_URL")
	}

	sourceDriver, err := iofs.New(postgres.MigrationsFS, "migrations")
	if err != nil {
		log.Fatalf("failed to load embedded migrations: %v", err)
	}

	// This CLI opens its own connection via pgx's database/sql driver
	// rather than postgres.Connect's sqlx+lib/pq pool: golang-migrate's
	// database/postgres driver only needs a *sql.DB, and a one-shot
	// migration run has no reason to share the application's long-lived
	// connection pool.
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Fatalf("failed to open PostgreSQL connection: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatalf("failed to connect to PostgreSQL: %v", err)
	}

	dbDriver, err := migratepostgres.WithInstance(db, &migratepostgres.Config{})
	if err != nil {
		log.Fatalf("failed to create migrate postgres driver: %v", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		log.Fatalf("failed to create migrate instance: %v", err)
	}

	switch direction {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "force":
		err = m.Force(steps)
	default:
		log.Fatalf("unknown -direction %q: want up, down, or force", direction)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatalf("migration failed: %v", err)
	}

	if serr, derr := m.Close(); serr != nil || derr != nil {
		log.Printf("warning: error closing migrate instance: source=%v database=%v", serr, derr)
	}

	log.Printf("migration %s completed successfully", direction)
}
