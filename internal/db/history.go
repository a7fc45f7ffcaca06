package db

import (
	"time"
)

// LogEntry is one line of the action log.
type LogEntry struct {
	ID        int64  `json:"id"`
	Timestamp string `json:"timestamp"`
	Username  string `json:"username"`
	Message   string `json:"message"`
}

// LogAction appends a map change to the action log and returns its ID.
func (d *DB) LogAction(username, message string) (int64, error) {
	result, err := d.sql.Exec(
		"INSERT INTO action_log (timestamp, username, message) VALUES (?, ?, ?)",
		time.Now().UTC().Format(time.RFC3339), username, message,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// RecentLog returns the last N action log entries (newest first).
func (d *DB) RecentLog(limit int) []LogEntry {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.sql.Query(
		"SELECT id, timestamp, username, message FROM action_log ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return []LogEntry{}
	}
	defer rows.Close()

	var entries []LogEntry
	for rows.Next() {
		var e LogEntry
		rows.Scan(&e.ID, &e.Timestamp, &e.Username, &e.Message)
		entries = append(entries, e)
	}
	if entries == nil {
		return []LogEntry{}
	}
	return entries
}

// ClearLog deletes action log entries older than the given number of days.
func (d *DB) ClearLog(olderThanDays int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -olderThanDays).Format(time.RFC3339)
	result, err := d.sql.Exec("DELETE FROM action_log WHERE timestamp < ?", cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
