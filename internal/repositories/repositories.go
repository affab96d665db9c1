package repositories

import (
	"database/sql"
	"fmt"
)

// sequenced lists the tables that own a "<table>_sequence" counter row.
var sequenced = map[string]bool{"runs": true}

// NextSequence increments the counter of table and returns the new value (1 for the first row).
//
// Sequences give rows a short, monotonically increasing number (run #42) next to their uuid.
func NextSequence(db *sql.DB, table string) (int, error) {
	if !sequenced[table] {
		return 0, fmt.Errorf("table %q has no sequence", table)
	}

	var next int
	query := fmt.Sprintf("UPDATE %s_sequence SET value = value + 1 WHERE id = 1 RETURNING value", table)
	if err := db.QueryRow(query).Scan(&next); err != nil {
		return 0, fmt.Errorf("failed to advance %s sequence: %w", table, err)
	}
	return next, nil
}
