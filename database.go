package main

import (
	"database/sql"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite results store.
type DB struct {
	conn *sql.DB
}

// OpenDB opens (or creates) the results database.
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// WAL keeps reporter writes off the readers' backs
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS results (
		session_id TEXT PRIMARY KEY,
		room_code TEXT NOT NULL,
		status TEXT NOT NULL,
		duration REAL NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS result_players (
		session_id TEXT NOT NULL REFERENCES results(session_id),
		uuid TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		outcome TEXT NOT NULL,
		score INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (session_id, uuid)
	);

	CREATE INDEX IF NOT EXISTS idx_result_players_uuid ON result_players(uuid);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// RecordResult stores one concluded match.
func (db *DB) RecordResult(res MatchResult) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		"INSERT OR REPLACE INTO results (session_id, room_code, status, duration) VALUES (?, ?, ?, ?)",
		res.SessionID, res.RoomCode, res.Status, res.Duration,
	); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM result_players WHERE session_id = ?", res.SessionID); err != nil {
		return err
	}
	for _, p := range res.Players {
		if _, err := tx.Exec(
			"INSERT INTO result_players (session_id, uuid, name, outcome, score) VALUES (?, ?, ?, ?, ?)",
			res.SessionID, p.UUID, p.Name, p.Outcome, p.Score,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetResult loads one stored match result, or nil when absent.
func (db *DB) GetResult(sessionID string) (*MatchResult, error) {
	row := db.conn.QueryRow(
		"SELECT session_id, room_code, status, duration FROM results WHERE session_id = ?",
		sessionID,
	)
	res := &MatchResult{}
	err := row.Scan(&res.SessionID, &res.RoomCode, &res.Status, &res.Duration)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := db.conn.Query(
		"SELECT uuid, name, outcome, score FROM result_players WHERE session_id = ? ORDER BY uuid",
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var p PlayerResult
		if err := rows.Scan(&p.UUID, &p.Name, &p.Outcome, &p.Score); err != nil {
			return nil, err
		}
		res.Players = append(res.Players, p)
	}
	return res, rows.Err()
}
