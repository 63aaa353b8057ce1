// Package sqlite implements the record store for the reclaim service on
// SQLite. Every lifecycle mutation is a single conditional statement
// whose WHERE clause re-checks the transition precondition at commit
// time; the affected-row count is how callers learn whether the
// precondition still held. The store is authoritative, so the schema is
// created once and the database file is never recreated on attach.
package sqlite

// Schema DDL. Timestamps are RFC 3339 TEXT; object fields are stored as
// a JSON array to preserve their order; the interested queue is its own
// table so appends and pulls can be conditional statements.
const (
	createObjects = `CREATE TABLE IF NOT EXISTS objects (
    object_id TEXT PRIMARY KEY,
    category TEXT NOT NULL,
    type TEXT NOT NULL,
    fields TEXT NOT NULL DEFAULT '[]',
    found_date TEXT NOT NULL,
    status INTEGER NOT NULL DEFAULT 0,
    institution TEXT NOT NULL,
    applicant TEXT,
    devolution_code TEXT,
    solicited_at TEXT,
    devolved_at TEXT,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`

	createInterested = `CREATE TABLE IF NOT EXISTS interested (
    object_id TEXT NOT NULL,
    applicant_id TEXT NOT NULL,
    email TEXT NOT NULL,
    queued_at TEXT NOT NULL,
    PRIMARY KEY (object_id, applicant_id)
);`

	createNotifications = `CREATE TABLE IF NOT EXISTS notifications (
    notification_id TEXT PRIMARY KEY,
    email TEXT NOT NULL,
    category TEXT NOT NULL,
    type TEXT NOT NULL,
    found_date TEXT NOT NULL,
    fields TEXT NOT NULL DEFAULT '[]',
    object_found TEXT,
    created_at TEXT NOT NULL
);`

	createIndexes = `CREATE INDEX IF NOT EXISTS idx_objects_classification ON objects (category, type);
CREATE INDEX IF NOT EXISTS idx_objects_devolution_code ON objects (devolution_code);
CREATE INDEX IF NOT EXISTS idx_notifications_email ON notifications (email);
CREATE INDEX IF NOT EXISTS idx_notifications_classification ON notifications (category, type);`
)

// schemaStatements lists the DDL in execution order.
var schemaStatements = []string{
	createObjects,
	createInterested,
	createNotifications,
	createIndexes,
}
