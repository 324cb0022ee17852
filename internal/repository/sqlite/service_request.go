package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/openfield/crewmarket/pkg/models"
	"github.com/openfield/crewmarket/pkg/repository"
)

const serviceRequestColumns = `id, poster_id, equipment_type, maintenance_type, location, urgency, status, budget_min, budget_max, attachments, created`

func (r *SQLiteRepo) CreateServiceRequest(ctx context.Context, s *models.ServiceRequest) (int64, error) {
	if s == nil {
		return 0, fmt.Errorf("service request is nil")
	}

	attachments := s.Attachments
	if attachments == nil {
		attachments = []string{}
	}
	att, err := json.Marshal(attachments)
	if err != nil {
		return 0, fmt.Errorf("marshal attachments: %w", err)
	}

	res, err := r.conn.Exec(ctx, `INSERT INTO service_requests (poster_id, equipment_type, maintenance_type, location, urgency, status, budget_min, budget_max, attachments, created) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.PosterID, s.EquipmentType, s.MaintenanceType, s.Location, string(s.Urgency), string(models.RequestOpen), s.BudgetMin, s.BudgetMax, string(att), s.Created)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetServiceRequest(ctx context.Context, id int64) (*models.ServiceRequest, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+serviceRequestColumns+` FROM service_requests WHERE id = ?`, id)
	return scanServiceRequest(row.Scan)
}

func (r *SQLiteRepo) ListOpenServiceRequests(ctx context.Context, limit, offset int) ([]models.ServiceRequest, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.conn.QueryRows(ctx, `SELECT `+serviceRequestColumns+` FROM service_requests WHERE status = ? ORDER BY created DESC LIMIT ? OFFSET ?`,
		string(models.RequestOpen), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ServiceRequest
	for rows.Next() {
		s, err := scanServiceRequest(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}

	return out, rows.Err()
}

func (r *SQLiteRepo) CancelServiceRequest(ctx context.Context, id, callerID int64) error {
	s, err := r.GetServiceRequest(ctx, id)
	if err != nil {
		return err
	}
	if s.PosterID != callerID {
		return repository.ErrForbidden
	}

	res, err := r.conn.Exec(ctx, `UPDATE service_requests SET status = ? WHERE id = ? AND status = ?`,
		string(models.RequestCancelled), id, string(models.RequestOpen))
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

func (r *SQLiteRepo) CancelStaleServiceRequests(ctx context.Context, cutoff int64) (int64, error) {
	res, err := r.conn.Exec(ctx, `UPDATE service_requests SET status = ? WHERE status = ? AND created < ?`,
		string(models.RequestCancelled), string(models.RequestOpen), cutoff)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

func scanServiceRequest(scan func(dest ...any) error) (*models.ServiceRequest, error) {
	var s models.ServiceRequest
	var urgency, status, attachments string
	var budgetMin, budgetMax sql.NullFloat64
	if err := scan(&s.ID, &s.PosterID, &s.EquipmentType, &s.MaintenanceType, &s.Location, &urgency, &status, &budgetMin, &budgetMax, &attachments, &s.Created); err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	s.Urgency = models.Urgency(urgency)
	s.Status = models.RequestStatus(status)
	if !models.ValidRequestStatus(s.Status) {
		return nil, fmt.Errorf("service request %d carries unknown status %q", s.ID, status)
	}
	if budgetMin.Valid {
		s.BudgetMin = &budgetMin.Float64
	}
	if budgetMax.Valid {
		s.BudgetMax = &budgetMax.Float64
	}
	if err := json.Unmarshal([]byte(attachments), &s.Attachments); err != nil {
		return nil, fmt.Errorf("unmarshal attachments for service request %d: %w", s.ID, err)
	}

	return &s, nil
}
