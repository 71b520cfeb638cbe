package database

import (
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

// NewMockPool returns a pgxmock pool for repository tests. It satisfies DBTX,
// so it can stand in for the real pool in any repository constructor. Finish
// each test with ExpectationsWereMet to catch unexecuted expectations.
func NewMockPool() (pgxmock.PgxPoolIface, error) {
	return pgxmock.NewPool()
}
