package sqlite

import (
	"context"
	"fmt"

	"github.com/openfield/crewmarket/pkg/models"
	"github.com/openfield/crewmarket/pkg/repository"
)

// SubmitRating records the rating and folds the score into the subject's
// aggregate inside the same transaction. The mean/count update is a
// read-modify-write expressed in SQL, so concurrent ratings on the same
// subject serialize on the row and never lose updates.
func (r *SQLiteRepo) SubmitRating(ctx context.Context, rt *models.Rating) (int64, error) {
	if rt == nil {
		return 0, fmt.Errorf("rating is nil")
	}

	tx, err := r.conn.GetConn().BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `INSERT INTO ratings (engagement_id, subject_id, rater_id, score, review, created) VALUES (?, ?, ?, ?, ?, ?)`,
		rt.EngagementID, rt.SubjectID, rt.RaterID, rt.Score, rt.Review, rt.Created)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, repository.ErrDuplicateSubmission
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	// subjects without a capability profile (plain posters) keep the rating
	// row but have no aggregate to maintain
	if _, err := tx.ExecContext(ctx, `UPDATE worker_profiles SET rating_mean = (rating_mean * rating_count + ?) / (rating_count + 1), rating_count = rating_count + 1 WHERE owner_id = ?`,
		rt.Score, rt.SubjectID); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	return id, nil
}

func (r *SQLiteRepo) ListRatingsBySubject(ctx context.Context, subjectID int64, limit, offset int) ([]models.Rating, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.conn.QueryRows(ctx, `SELECT id, engagement_id, subject_id, rater_id, score, review, created FROM ratings WHERE subject_id = ? ORDER BY created DESC, id DESC LIMIT ? OFFSET ?`,
		subjectID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Rating
	for rows.Next() {
		var rt models.Rating
		if err := rows.Scan(&rt.ID, &rt.EngagementID, &rt.SubjectID, &rt.RaterID, &rt.Score, &rt.Review, &rt.Created); err != nil {
			return nil, err
		}
		out = append(out, rt)
	}

	return out, rows.Err()
}
