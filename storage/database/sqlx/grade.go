package sqlxrepos

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/grade"
)

var gradeColumns = []string{"id", "value", "task_id", "participant_id", "organizer_id", "date"}

type gradeRow struct {
	ID            int       `db:"id"`
	Value         int       `db:"value"`
	TaskID        int       `db:"task_id"`
	ParticipantID int       `db:"participant_id"`
	OrganizerID   int       `db:"organizer_id"`
	Date          null.Time `db:"date"`
}

func packGrade(g grade.Grade) gradeRow {
	return gradeRow{
		ID:            g.ID,
		Value:         g.Value,
		TaskID:        g.TaskID,
		ParticipantID: g.ParticipantID,
		OrganizerID:   g.OrganizerID,
		Date:          null.NewTime(g.Date.UTC(), !g.Date.IsZero()),
	}
}

func unpackGrade(row gradeRow) grade.Grade {
	return grade.Grade{
		ID:            row.ID,
		Value:         row.Value,
		TaskID:        row.TaskID,
		ParticipantID: row.ParticipantID,
		OrganizerID:   row.OrganizerID,
		Date:          row.Date.Time,
	}
}

func unpackGrades(rows []gradeRow) []grade.Grade {
	grades := make([]grade.Grade, 0, len(rows))
	for _, row := range rows {
		grades = append(grades, unpackGrade(row))
	}
	return grades
}

type gradeRepository struct {
	db *sqlx.DB
}

var _ grade.Repository = (*gradeRepository)(nil) // interface compliance check

func NewGradeRepository(db *sqlx.DB) *gradeRepository {
	return &gradeRepository{db: db}
}

func (repo gradeRepository) UpsertGrades(ctx context.Context, grades []grade.Grade, exec ...core.DBExecutor) ([]grade.Grade, error) {
	if len(grades) == 0 {
		return []grade.Grade{}, nil
	}

	// run in the caller's transaction when one is handed down
	if len(exec) > 0 {
		if ext, ok := exec[0].(sqlx.ExtContext); ok {
			return repo.upsertGrades(ctx, ext, grades)
		}
	}

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "beginning transaction")
	}
	upserted, err := repo.upsertGrades(ctx, tx, grades)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "committing transaction")
	}
	return upserted, nil
}

// upsertGrades inserts grades one by one; a conflict on (task_id, participant_id)
// replaces the value and keeps the original organizer and date.
func (repo gradeRepository) upsertGrades(ctx context.Context, ext sqlx.ExtContext, grades []grade.Grade) ([]grade.Grade, error) {
	upserted := make([]grade.Grade, 0, len(grades))
	for _, g := range grades {
		row := packGrade(g)
		query, args, err := psql.Insert("grades").
			Columns("value", "task_id", "participant_id", "organizer_id", "date").
			Values(row.Value, row.TaskID, row.ParticipantID, row.OrganizerID, row.Date).
			Suffix("ON CONFLICT ON CONSTRAINT grades_task_participant_key DO UPDATE SET value = EXCLUDED.value").
			Suffix("RETURNING " + strings.Join(gradeColumns, ", ")).
			ToSql()
		if err != nil {
			return nil, errors.Wrap(err, "building query")
		}
		var out gradeRow
		if err = sqlx.GetContext(ctx, ext, &out, query, args...); err != nil {
			return nil, errors.Wrap(err, "upserting grade")
		}
		upserted = append(upserted, unpackGrade(out))
	}
	return upserted, nil
}

func (repo gradeRepository) QueryGradesByTaskID(ctx context.Context, taskID int, exec ...core.DBExecutor) ([]grade.Grade, error) {
	qb := psql.Select(gradeColumns...).From("grades").Where(sq.Eq{"task_id": taskID}).OrderBy("id")
	return repo.queryGrades(ctx, qb, exec)
}

func (repo gradeRepository) QueryGradesByParticipantID(ctx context.Context, participantID int, exec ...core.DBExecutor) ([]grade.Grade, error) {
	qb := psql.Select(gradeColumns...).From("grades").Where(sq.Eq{"participant_id": participantID}).OrderBy("id")
	return repo.queryGrades(ctx, qb, exec)
}

func (repo gradeRepository) queryGrades(ctx context.Context, qb sq.SelectBuilder, exec []core.DBExecutor) ([]grade.Grade, error) {
	query, args, err := qb.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []gradeRow
	if err = sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying grades")
	}
	return unpackGrades(rows), nil
}
