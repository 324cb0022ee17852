package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/openfield/crewmarket/pkg/models"
	"github.com/openfield/crewmarket/pkg/repository"
)

const jobRequestColumns = `id, poster_id, work_type, service_type, location, scheduled_at, urgency, status, assigned_worker_id, detail, created`

func (r *SQLiteRepo) CreateJobRequest(ctx context.Context, j *models.JobRequest) (int64, error) {
	if j == nil {
		return 0, fmt.Errorf("job request is nil")
	}

	detail, err := json.Marshal(j.Detail)
	if err != nil {
		return 0, fmt.Errorf("marshal detail: %w", err)
	}

	res, err := r.conn.Exec(ctx, `INSERT INTO job_requests (poster_id, work_type, service_type, location, scheduled_at, urgency, status, detail, created) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.PosterID, string(j.WorkType), string(j.ServiceType), j.Location, j.ScheduledAt, string(j.Urgency), string(models.JobOpen), string(detail), j.Created)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetJobRequest(ctx context.Context, id int64) (*models.JobRequest, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+jobRequestColumns+` FROM job_requests WHERE id = ?`, id)
	return scanJobRequest(row.Scan)
}

func (r *SQLiteRepo) ListOpenJobRequests(ctx context.Context, limit, offset int) ([]models.JobRequest, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.conn.QueryRows(ctx, `SELECT `+jobRequestColumns+` FROM job_requests WHERE status = ? ORDER BY created DESC LIMIT ? OFFSET ?`,
		string(models.JobOpen), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.JobRequest
	for rows.Next() {
		j, err := scanJobRequest(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *j)
	}

	return out, rows.Err()
}

// AcceptJob is the single-winner conditional write: the UPDATE matches the
// row only while it is still Open, so under N concurrent callers exactly one
// write applies and every other caller sees zero rows affected. A loss is
// definitive; nothing here retries.
func (r *SQLiteRepo) AcceptJob(ctx context.Context, id, workerID int64) (*models.JobRequest, error) {
	res, err := r.conn.Exec(ctx, `UPDATE job_requests SET status = ?, assigned_worker_id = ? WHERE id = ? AND status = ?`,
		string(models.JobAssigned), workerID, id, string(models.JobOpen))
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// lost the race, or the id never existed
		cur, err := r.GetJobRequest(ctx, id)
		if err != nil {
			return nil, err
		}
		if cur.Status == models.JobCancelled {
			return nil, repository.ErrInvalidStateTransition
		}
		return nil, repository.ErrAlreadyAssigned
	}

	return r.GetJobRequest(ctx, id)
}

// CompleteJob moves Assigned -> Completed for the owning poster. The caller
// check reads first, but the transition itself is still decided by the
// conditional write alone.
func (r *SQLiteRepo) CompleteJob(ctx context.Context, id, callerID int64) (*models.JobRequest, error) {
	j, err := r.GetJobRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if j.PosterID != callerID {
		return nil, repository.ErrForbidden
	}

	res, err := r.conn.Exec(ctx, `UPDATE job_requests SET status = ? WHERE id = ? AND status = ?`,
		string(models.JobCompleted), id, string(models.JobAssigned))
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, repository.ErrInvalidStateTransition
	}

	return r.GetJobRequest(ctx, id)
}

func (r *SQLiteRepo) CancelJobRequest(ctx context.Context, id, callerID int64) error {
	j, err := r.GetJobRequest(ctx, id)
	if err != nil {
		return err
	}
	if j.PosterID != callerID {
		return repository.ErrForbidden
	}

	res, err := r.conn.Exec(ctx, `UPDATE job_requests SET status = ? WHERE id = ? AND status = ?`,
		string(models.JobCancelled), id, string(models.JobOpen))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrInvalidStateTransition
	}

	return nil
}

func (r *SQLiteRepo) CancelStaleJobRequests(ctx context.Context, cutoff int64) (int64, error) {
	res, err := r.conn.Exec(ctx, `UPDATE job_requests SET status = ? WHERE status = ? AND created < ?`,
		string(models.JobCancelled), string(models.JobOpen), cutoff)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

func scanJobRequest(scan func(dest ...any) error) (*models.JobRequest, error) {
	var j models.JobRequest
	var workType, serviceType, urgency, status, detail string
	var assigned sql.NullInt64
	if err := scan(&j.ID, &j.PosterID, &workType, &serviceType, &j.Location, &j.ScheduledAt, &urgency, &status, &assigned, &detail, &j.Created); err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	j.WorkType = models.WorkType(workType)
	j.ServiceType = models.ServiceType(serviceType)
	j.Urgency = models.Urgency(urgency)
	j.Status = models.JobStatus(status)
	if !models.ValidJobStatus(j.Status) {
		return nil, fmt.Errorf("job request %d carries unknown status %q", j.ID, status)
	}
	if assigned.Valid {
		j.AssignedWorkerID = &assigned.Int64
	}
	if err := json.Unmarshal([]byte(detail), &j.Detail); err != nil {
		return nil, fmt.Errorf("unmarshal detail for job request %d: %w", j.ID, err)
	}

	return &j, nil
}
