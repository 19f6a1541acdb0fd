package resilience

import (
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
)

// transientPatterns match error text from drivers that do not expose
// typed errors for lock contention.
var transientPatterns = []string{
	"database is locked",
	"sqlite_busy",
	"connection reset by peer",
	"broken pipe",
	"server closed the connection unexpectedly",
	"i/o timeout",
}

// IsTransient reports whether err is worth retrying: network timeouts,
// refused or reset connections, Postgres errors pgconn marks safe to retry,
// serialization failures and busy SQLite databases.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", // serialization_failure
			"40P01", // deadlock_detected
			"57P03": // cannot_connect_now
			return true
		}
		return false
	}

	msg := strings.ToLower(err.Error())
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
