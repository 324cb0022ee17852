package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/openfield/crewmarket/pkg/models"
	"github.com/openfield/crewmarket/pkg/repository"
)

func (r *SQLiteRepo) CreateAccount(ctx context.Context, a *models.Account) (int64, error) {
	if a == nil {
		return 0, fmt.Errorf("account is nil")
	}

	res, err := r.conn.Exec(ctx, `INSERT INTO accounts (name, email, role, password_hash, created) VALUES (?, ?, ?, ?, ?)`,
		a.Name, a.Email, string(a.Role), a.PasswordHash, now())
	if err != nil {
		if isUniqueViolation(err) {
			return 0, repository.ErrDuplicateSubmission
		}
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetAccountByID(ctx context.Context, id int64) (*models.Account, error) {
	return r.scanAccount(r.conn.QueryRow(ctx, `SELECT id, name, email, role, password_hash, created FROM accounts WHERE id = ?`, id))
}

func (r *SQLiteRepo) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.scanAccount(r.conn.QueryRow(ctx, `SELECT id, name, email, role, password_hash, created FROM accounts WHERE email = ?`, email))
}

func (r *SQLiteRepo) scanAccount(row *sql.Row) (*models.Account, error) {
	var a models.Account
	var role string
	if err := row.Scan(&a.ID, &a.Name, &a.Email, &role, &a.PasswordHash, &a.Created); err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	a.Role = models.Role(role)

	return &a, nil
}

func (r *SQLiteRepo) CreateWorkerProfile(ctx context.Context, p *models.WorkerProfile) (int64, error) {
	if p == nil {
		return 0, fmt.Errorf("worker profile is nil")
	}

	res, err := r.conn.Exec(ctx, `INSERT INTO worker_profiles (owner_id, work_type, owns_equipment, available) VALUES (?, ?, ?, ?)`,
		p.OwnerID, string(p.WorkType), p.OwnsEquipment, p.Available)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, repository.ErrDuplicateSubmission
		}
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetWorkerProfileByOwner(ctx context.Context, ownerID int64) (*models.WorkerProfile, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, owner_id, work_type, owns_equipment, available, rating_mean, rating_count FROM worker_profiles WHERE owner_id = ?`, ownerID)
	var p models.WorkerProfile
	var workType string
	if err := row.Scan(&p.ID, &p.OwnerID, &workType, &p.OwnsEquipment, &p.Available, &p.RatingMean, &p.RatingCount); err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	p.WorkType = models.WorkType(workType)

	return &p, nil
}

func (r *SQLiteRepo) SetWorkerAvailability(ctx context.Context, ownerID int64, available bool) error {
	res, err := r.conn.Exec(ctx, `UPDATE worker_profiles SET available = ? WHERE owner_id = ?`, available, ownerID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}

	return nil
}
