package backend

import (
	"context"
	"errors"
	"io"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
)

// isTransient классифицирует ошибку БД как временную: такую постановку
// ядро повторит ровно один раз.
func isTransient(err error) bool {
	if pgconn.Timeout(err) {
		return true
	}
	if pgconn.SafeToRetry(err) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", // serialization_failure
			"40P01",  // deadlock_detected
			"53300",  // too_many_connections
			"57P03",  // cannot_connect_now
			"55P03":  // lock_not_available
			return true
		}
		// Класс 08 — connection exception.
		if len(pgErr.Code) >= 2 && pgErr.Code[:2] == "08" {
			return true
		}
	}

	return false
}
