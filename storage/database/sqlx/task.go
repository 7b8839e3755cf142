package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/program"
)

var taskColumns = []string{"id", "title", "description", "due_date", "category", "program_id", "organizer_id"}

type taskRow struct {
	ID          int         `db:"id"`
	Title       string      `db:"title"`
	Description null.String `db:"description"`
	DueDate     null.Time   `db:"due_date"`
	Category    string      `db:"category"`
	ProgramID   int         `db:"program_id"`
	OrganizerID int         `db:"organizer_id"`
}

func packTask(task program.Task) taskRow {
	row := taskRow{
		ID:          task.ID,
		Title:       task.Title,
		Description: null.NewString(task.Description, task.Description != ""),
		Category:    task.Category,
		ProgramID:   task.ProgramID,
		OrganizerID: task.OrganizerID,
	}
	if task.DueDate != nil {
		row.DueDate = null.TimeFrom(task.DueDate.UTC())
	}
	return row
}

func unpackTask(row taskRow) program.Task {
	task := program.Task{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description.String,
		Category:    row.Category,
		ProgramID:   row.ProgramID,
		OrganizerID: row.OrganizerID,
	}
	if row.DueDate.Valid {
		due := row.DueDate.Time
		task.DueDate = &due
	}
	return task
}

func unpackTasks(rows []taskRow) []program.Task {
	tasks := make([]program.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, unpackTask(row))
	}
	return tasks
}

func (repo programRepository) CreateTask(ctx context.Context, task program.Task, exec ...core.DBExecutor) (program.Task, error) {
	row := packTask(task)
	query, args, err := psql.Insert("tasks").
		Columns("title", "description", "due_date", "category", "program_id", "organizer_id").
		Values(row.Title, row.Description, row.DueDate, row.Category, row.ProgramID, row.OrganizerID).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return program.Task{}, errors.Wrap(err, "building query")
	}
	if err = sqlx.GetContext(ctx, getExec(repo.db, exec), &task.ID, query, args...); err != nil {
		return program.Task{}, errors.Wrap(err, "inserting task")
	}
	return task, nil
}

func (repo programRepository) GetTaskByID(ctx context.Context, id int, exec ...core.DBExecutor) (program.Task, error) {
	query, args, err := psql.Select(taskColumns...).From("tasks").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return program.Task{}, errors.Wrap(err, "building query")
	}
	var row taskRow
	if err = sqlx.GetContext(ctx, getExec(repo.db, exec), &row, query, args...); err != nil {
		return program.Task{}, trapNoRowsErr(err, program.ErrTaskNotFound, "finding task by ID")
	}
	return unpackTask(row), nil
}

func (repo programRepository) QueryTasksByProgramID(ctx context.Context, programID int, exec ...core.DBExecutor) ([]program.Task, error) {
	qb := psql.Select(taskColumns...).From("tasks").Where(sq.Eq{"program_id": programID}).OrderBy("id")
	return repo.queryTasks(ctx, qb, exec)
}

func (repo programRepository) QueryTasksByOrganizerID(ctx context.Context, organizerID int, exec ...core.DBExecutor) ([]program.Task, error) {
	qb := psql.Select(taskColumns...).From("tasks").Where(sq.Eq{"organizer_id": organizerID}).OrderBy("id")
	return repo.queryTasks(ctx, qb, exec)
}

func (repo programRepository) QueryTasksByParticipantID(ctx context.Context, participantID int, exec ...core.DBExecutor) ([]program.Task, error) {
	qb := psql.Select("t.id", "t.title", "t.description", "t.due_date", "t.category", "t.program_id", "t.organizer_id").
		From("tasks t").
		Join("enrollments e ON e.program_id = t.program_id").
		Where(sq.Eq{"e.participant_id": participantID}).
		OrderBy("t.id")
	return repo.queryTasks(ctx, qb, exec)
}

func (repo programRepository) queryTasks(ctx context.Context, qb sq.SelectBuilder, exec []core.DBExecutor) ([]program.Task, error) {
	query, args, err := qb.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []taskRow
	if err = sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying tasks")
	}
	return unpackTasks(rows), nil
}

// DeleteTask removes a task; its submissions, feedback and grades cascade.
func (repo programRepository) DeleteTask(ctx context.Context, id int, exec ...core.DBExecutor) error {
	query, args, err := psql.Delete("tasks").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	if _, err = getExec(repo.db, exec).ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "deleting task")
	}
	return nil
}
