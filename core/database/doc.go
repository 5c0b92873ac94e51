// Package database opens the gorm connection used by the database snapshot
// backend and inspects table schemas for the integrity check.
//
// Connect supports mysql for shared deployments and sqlite for single-host
// runs and tests. GetTableColumns hides the difference between SHOW COLUMNS
// and PRAGMA table_info.
//
//	db, err := database.Connect(cfg.Database)
//	columns, err := database.GetTableColumns(db, "resolved_tracks")
package database
