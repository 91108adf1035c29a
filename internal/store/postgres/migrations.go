package postgres

import "embed"

// MigrationsFS embeds the SQL migration set so cmd/migrate can drive
// golang-migrate/v4 via its iofs source without depending on a filesystem
// path at runtime, grounded on the teacher's migrations being shipped
// alongside the backend module (backend/cmd/migrate reads a directory;
// this module embeds it instead since it ships as a single binary).
//
//go:embed migrations/*.sql
var MigrationsFS embed.FS
