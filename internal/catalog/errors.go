package catalog

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// ConnectionError reports that the catalog database could not be reached
type ConnectionError struct {
	Host     string
	Port     int
	Database string
	User     string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect to database at host=%q port=%d dbname=%q user=%q: %v",
		e.Host, e.Port, e.Database, e.User, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// ServerRejected reports whether the server was reached but refused the session,
// e.g. bad credentials or an unknown database
func (e *ConnectionError) ServerRejected() bool {
	var pgErr *pgconn.PgError
	return errors.As(e.Err, &pgErr)
}

// Hint explains the most likely cause of the failure in a container setup
func (e *ConnectionError) Hint() string {
	if e.ServerRejected() {
		return "the database server rejected the connection; check DB_USERNAME, DB_PASSWORD and DB_DATABASE_NAME"
	}
	return "make sure DB_HOSTNAME is set to the hostname of the PostgreSQL container " +
		"(e.g. the Docker service name); 'localhost' does not work in Docker, as it " +
		"refers to this container itself, not the database container"
}

// QueryError reports a failed asset query for one pattern
type QueryError struct {
	Pattern string
	Err     error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query assets matching %q: %v", e.Pattern, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}
