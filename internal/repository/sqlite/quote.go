package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/openfield/crewmarket/pkg/models"
	"github.com/openfield/crewmarket/pkg/repository"
)

const quoteColumns = `id, request_id, provider_id, price, description, estimated_duration, status, created`

// SubmitQuote inserts a Pending quote guarded by the parent's status: the
// INSERT..SELECT only produces a row while the request is still Open, and the
// partial unique index on (request_id, provider_id) rejects a second live bid
// by the same provider. No single-winner race exists here; concurrent quotes
// are independent rows.
func (r *SQLiteRepo) SubmitQuote(ctx context.Context, q *models.Quote) (int64, error) {
	if q == nil {
		return 0, fmt.Errorf("quote is nil")
	}

	res, err := r.conn.Exec(ctx, `INSERT INTO quotes (request_id, provider_id, price, description, estimated_duration, status, created)
		SELECT ?, ?, ?, ?, ?, ?, ? WHERE EXISTS (SELECT 1 FROM service_requests WHERE id = ? AND status = ?)`,
		q.RequestID, q.ProviderID, q.Price, q.Description, q.EstimatedDuration, string(models.QuotePending), q.Created,
		q.RequestID, string(models.RequestOpen))
	if err != nil {
		if isUniqueViolation(err) {
			return 0, repository.ErrDuplicateSubmission
		}
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		// parent missing, or no longer Open
		if _, err := r.GetServiceRequest(ctx, q.RequestID); err != nil {
			return 0, err
		}
		return 0, repository.ErrInvalidStateTransition
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetQuote(ctx context.Context, id int64) (*models.Quote, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE id = ?`, id)
	return scanQuote(row.Scan)
}

func (r *SQLiteRepo) ListQuotesByRequest(ctx context.Context, requestID int64, orderByPrice bool) ([]models.Quote, error) {
	// submission time ascending is the documented default ordering
	order := `created ASC, id ASC`
	if orderByPrice {
		order = `price ASC, id ASC`
	}

	rows, err := r.conn.QueryRows(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE request_id = ? ORDER BY `+order, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Quote
	for rows.Next() {
		q, err := scanQuote(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *q)
	}

	return out, rows.Err()
}

// AcceptQuote resolves the whole request in one transaction: verify the
// caller owns the parent, close it while it is still Open (the CAS gate that
// decides the race), accept the target quote and reject every other Pending
// one. A partial application is impossible; either the transaction commits
// with all three effects or none of them happened.
func (r *SQLiteRepo) AcceptQuote(ctx context.Context, quoteID, callerID int64) (*models.ServiceRequest, *models.Quote, error) {
	tx, err := r.conn.GetConn().BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var requestID, providerID int64
	row := tx.QueryRowContext(ctx, `SELECT request_id, provider_id FROM quotes WHERE id = ?`, quoteID)
	if err := row.Scan(&requestID, &providerID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, repository.ErrNotFound
		}
		return nil, nil, err
	}

	var posterID int64
	row = tx.QueryRowContext(ctx, `SELECT poster_id FROM service_requests WHERE id = ?`, requestID)
	if err := row.Scan(&posterID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, repository.ErrNotFound
		}
		return nil, nil, err
	}
	if posterID != callerID {
		return nil, nil, repository.ErrForbidden
	}

	// the CAS gate: whoever closes the Open row wins; everyone else observes
	// zero rows and loses definitively
	res, err := tx.ExecContext(ctx, `UPDATE service_requests SET status = ? WHERE id = ? AND status = ?`,
		string(models.RequestClosed), requestID, string(models.RequestOpen))
	if err != nil {
		return nil, nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, nil, err
	}
	if n == 0 {
		return nil, nil, repository.ErrAlreadyResolved
	}

	res, err = tx.ExecContext(ctx, `UPDATE quotes SET status = ? WHERE id = ? AND status = ?`,
		string(models.QuoteAccepted), quoteID, string(models.QuotePending))
	if err != nil {
		return nil, nil, err
	}
	n, err = res.RowsAffected()
	if err != nil {
		return nil, nil, err
	}
	if n == 0 {
		// the target quote itself already left Pending; roll the close back
		return nil, nil, repository.ErrInvalidStateTransition
	}

	// quotes already Rejected stay untouched; only Pending rivals flip
	if _, err := tx.ExecContext(ctx, `UPDATE quotes SET status = ? WHERE request_id = ? AND id != ? AND status = ?`,
		string(models.QuoteRejected), requestID, quoteID, string(models.QuotePending)); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}

	req, err := r.GetServiceRequest(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	q, err := r.GetQuote(ctx, quoteID)
	if err != nil {
		return nil, nil, err
	}

	return req, q, nil
}

func scanQuote(scan func(dest ...any) error) (*models.Quote, error) {
	var q models.Quote
	var status string
	if err := scan(&q.ID, &q.RequestID, &q.ProviderID, &q.Price, &q.Description, &q.EstimatedDuration, &status, &q.Created); err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	q.Status = models.QuoteStatus(status)
	if !models.ValidQuoteStatus(q.Status) {
		return nil, fmt.Errorf("quote %d carries unknown status %q", q.ID, status)
	}

	return &q, nil
}
