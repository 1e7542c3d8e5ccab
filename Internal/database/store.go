package datafeed

import "database/sql"

// Store wraps the shared connection with the query methods the engine,
// validator and api layers consume.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}
