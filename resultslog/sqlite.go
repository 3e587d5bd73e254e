/*
Copyright © 2017 the FluxClim authors.
This file is part of FluxClim.

FluxClim is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

FluxClim is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with FluxClim.  If not, see <http://www.gnu.org/licenses/>.
*/

package resultslog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/fluxclim"

	// sqlite driver
	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS contributions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	window_start TEXT NOT NULL,
	window_label TEXT NOT NULL,
	area TEXT NOT NULL,
	percent REAL NOT NULL
)`

// SQLite is a results log stored in a SQLite database table named
// "contributions".
type SQLite struct {
	db     *sql.DB
	insert *sql.Stmt
}

// NewSQLite opens or creates the database at filename.
func NewSQLite(filename string) (*SQLite, error) {
	db, err := sql.Open("sqlite", filename)
	if err != nil {
		return nil, fmt.Errorf("resultslog: opening database: %v", err)
	}
	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("resultslog: connecting to database: %v", err)
	}
	for _, q := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		schema,
	} {
		if _, err := db.Exec(q); err != nil {
			db.Close()
			return nil, fmt.Errorf("resultslog: %s: %v", q, err)
		}
	}
	insert, err := db.Prepare("INSERT INTO contributions (window_start, window_label, area, percent) VALUES (?, ?, ?, ?)")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("resultslog: %v", err)
	}
	return &SQLite{db: db, insert: insert}, nil
}

// Record fulfils the fluxclim.ResultsLog interface. Inserts are retried
// if the database is locked by another process.
func (s *SQLite) Record(r fluxclim.ContributionRecord) error {
	return backoff.RetryNotify(
		func() error {
			_, err := s.insert.Exec(r.WindowStart.UTC().Format(time.RFC3339), r.Window, r.Area, r.Percent)
			return err
		},
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5),
		func(err error, d time.Duration) {
			logrus.WithError(err).WithField("wait", d).Warn("resultslog: retrying insert")
		},
	)
}

// Records returns all of the records in the database, in the order they
// were written.
func (s *SQLite) Records() ([]fluxclim.ContributionRecord, error) {
	rows, err := s.db.Query("SELECT window_start, window_label, area, percent FROM contributions ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("resultslog: %v", err)
	}
	defer rows.Close()
	var o []fluxclim.ContributionRecord
	for rows.Next() {
		var r fluxclim.ContributionRecord
		var t string
		if err := rows.Scan(&t, &r.Window, &r.Area, &r.Percent); err != nil {
			return nil, fmt.Errorf("resultslog: %v", err)
		}
		if r.WindowStart, err = time.Parse(time.RFC3339, t); err != nil {
			return nil, fmt.Errorf("resultslog: %v", err)
		}
		o = append(o, r)
	}
	return o, rows.Err()
}

// Close closes the database.
func (s *SQLite) Close() error {
	s.insert.Close()
	return s.db.Close()
}
