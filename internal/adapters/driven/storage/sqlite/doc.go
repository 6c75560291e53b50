// Package sqlite provides a SQLite implementation of the briefcast stores.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO. One database connection backs several store interfaces:
//
//   - CredentialStore: per-user provider OAuth tokens
//   - BriefingStore: daily briefings, unique on (user, date key)
//   - InterestStore: cached interest profiles
//   - UserSettingsStore: per-user generation preferences
//
// # Schema
//
// The schema is managed through versioned migrations embedded from the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files;
// applied versions are recorded in schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.briefcast/data/briefcast.db
package sqlite
