package internal

import (
	// Register the database drivers the watermill-sql and riverqueue
	// publishers open connections through.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)
