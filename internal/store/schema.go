package store

import "tools.zach/dev/fav/internal/migrate"

// Schema is the migration registry for the favorites database.
var Schema = &migrate.Registry{}

func init() {
	Schema.Register(migrate.Migration{
		Version:     1,
		Description: "create favorites and aliases",
		Upgrade: migrate.Exec(
			`CREATE TABLE IF NOT EXISTS favorites (
				id         INTEGER PRIMARY KEY AUTOINCREMENT,
				path       TEXT    NOT NULL UNIQUE,
				created_at TEXT    NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS aliases (
				id          INTEGER PRIMARY KEY AUTOINCREMENT,
				favorite_id INTEGER NOT NULL REFERENCES favorites(id) ON DELETE CASCADE,
				name        TEXT    NOT NULL UNIQUE,
				created_at  TEXT    NOT NULL
			)`,
		),
	})
	Schema.Register(migrate.Migration{
		Version:     2,
		Description: "index aliases by favorite",
		Upgrade: migrate.Exec(
			`CREATE INDEX IF NOT EXISTS idx_aliases_favorite_id ON aliases(favorite_id)`,
		),
	})
}
