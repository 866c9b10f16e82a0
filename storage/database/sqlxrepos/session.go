package sqlxrepos

import (
	"context"
	"database/sql"
	"database/sql/driver"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/apsas/core"
	"github.com/trezcool/apsas/core/session"
)

const sessionColumns = `id, selected_class_id, selected_template_id, selected_grading_group_id,
	exam_session_id, selected_submission_id, created_at, updated_at`

type sessionRepository struct {
	db *sqlx.DB
}

func NewSessionRepository(db *sqlx.DB) session.Repository {
	return &sessionRepository{db: db}
}

func (repo *sessionRepository) CreateSession(ctx context.Context, s session.Session) (session.Session, error) {
	q := `INSERT INTO dashboard_session (` + sessionColumns + `)
	VALUES (:id, :selected_class_id, :selected_template_id, :selected_grading_group_id,
		:exam_session_id, :selected_submission_id, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, s); err != nil {
		return session.Session{}, dbError(err, "inserting session")
	}
	return s, nil
}

func (repo *sessionRepository) GetSession(ctx context.Context, id uuid.UUID) (session.Session, error) {
	var s session.Session
	q := repo.db.Rebind(`SELECT ` + sessionColumns + ` FROM dashboard_session WHERE id = ?`)
	if err := repo.db.GetContext(ctx, &s, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return session.Session{}, session.ErrNotFound
		}
		return session.Session{}, dbError(err, "selecting session")
	}
	return s, nil
}

func (repo *sessionRepository) UpdateSession(ctx context.Context, s session.Session) (session.Session, error) {
	q := `UPDATE dashboard_session SET
		selected_class_id = :selected_class_id,
		selected_template_id = :selected_template_id,
		selected_grading_group_id = :selected_grading_group_id,
		exam_session_id = :exam_session_id,
		selected_submission_id = :selected_submission_id,
		updated_at = :updated_at
	WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, s)
	if err != nil {
		return session.Session{}, dbError(err, "updating session")
	}
	if err = checkAffected(res); err != nil {
		return session.Session{}, err
	}
	return repo.GetSession(ctx, s.ID)
}

func (repo *sessionRepository) DeleteSession(ctx context.Context, id uuid.UUID) error {
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(`DELETE FROM dashboard_session WHERE id = ?`), id)
	if err != nil {
		return dbError(err, "deleting session")
	}
	return checkAffected(res)
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "counting affected rows")
	}
	if n == 0 {
		return session.ErrNotFound
	}
	return nil
}

// dbError turns a lost connection into a shutdown error: the app cannot serve sessions without it.
func dbError(err error, msg string) error {
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, driver.ErrBadConn) {
		return core.NewShutdownError(msg + ": " + err.Error())
	}
	return errors.Wrap(err, msg)
}
