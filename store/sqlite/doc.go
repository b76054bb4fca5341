// Package sqlite stores teamgraph checkpoints in a SQLite database file
// using mattn/go-sqlite3. The table is created on open.
//
//	s, err := sqlite.NewSqliteCheckpointStore(ctx, sqlite.SqliteOptions{Path: "./checkpoints.db"})
package sqlite
