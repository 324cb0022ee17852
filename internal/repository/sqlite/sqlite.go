package sqlite

import (
	"strings"
	"time"

	"log/slog"

	"github.com/openfield/crewmarket/internal/db"
	"github.com/openfield/crewmarket/pkg/repository"
)

// SQLiteRepo implements the repository interfaces using the internal DB
// wrapper. Every state transition is a conditional write keyed on the row's
// current status; the single-winner guarantees of the engine rest on SQLite
// applying each such UPDATE atomically.
type SQLiteRepo struct {
	conn   *db.DB
	logger *slog.Logger
}

// Ensure SQLiteRepo implements the public interfaces.
var _ repository.AccountRepo = (*SQLiteRepo)(nil)
var _ repository.WorkerProfileRepo = (*SQLiteRepo)(nil)
var _ repository.JobRequestRepo = (*SQLiteRepo)(nil)
var _ repository.ServiceRequestRepo = (*SQLiteRepo)(nil)
var _ repository.QuoteRepo = (*SQLiteRepo)(nil)
var _ repository.RatingRepo = (*SQLiteRepo)(nil)

func New(conn *db.DB, logger *slog.Logger) *SQLiteRepo {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteRepo{conn: conn, logger: logger}
}

func now() int64 {
	return time.Now().UTC().Unix()
}

// isUniqueViolation matches SQLite's unique-index constraint failures, which
// back the duplicate-quote and duplicate-rating rules.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
