package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/program"
	"github.com/trezcool/darasa/core/user"
)

var programColumns = []string{"id", "name", "subject", "organizer_id"}

type programRow struct {
	ID          int         `db:"id"`
	Name        string      `db:"name"`
	Subject     null.String `db:"subject"`
	OrganizerID int         `db:"organizer_id"`
}

func unpackProgram(row programRow) program.Program {
	return program.Program{
		ID:          row.ID,
		Name:        row.Name,
		Subject:     row.Subject.String,
		OrganizerID: row.OrganizerID,
	}
}

func unpackPrograms(rows []programRow) []program.Program {
	progs := make([]program.Program, 0, len(rows))
	for _, row := range rows {
		progs = append(progs, unpackProgram(row))
	}
	return progs
}

type programRepository struct {
	db *sqlx.DB
}

var _ program.Repository = (*programRepository)(nil) // interface compliance check

func NewProgramRepository(db *sqlx.DB) *programRepository {
	return &programRepository{db: db}
}

func (repo programRepository) CreateProgram(ctx context.Context, prog program.Program, exec ...core.DBExecutor) (program.Program, error) {
	query, args, err := psql.Insert("programs").
		Columns("name", "subject", "organizer_id").
		Values(prog.Name, null.NewString(prog.Subject, prog.Subject != ""), prog.OrganizerID).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return program.Program{}, errors.Wrap(err, "building query")
	}
	if err = sqlx.GetContext(ctx, getExec(repo.db, exec), &prog.ID, query, args...); err != nil {
		return program.Program{}, errors.Wrap(err, "inserting program")
	}
	return prog, nil
}

func (repo programRepository) GetProgramByID(ctx context.Context, id int, exec ...core.DBExecutor) (program.Program, error) {
	query, args, err := psql.Select(programColumns...).From("programs").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return program.Program{}, errors.Wrap(err, "building query")
	}
	var row programRow
	if err = sqlx.GetContext(ctx, getExec(repo.db, exec), &row, query, args...); err != nil {
		return program.Program{}, trapNoRowsErr(err, program.ErrNotFound, "finding program by ID")
	}
	return unpackProgram(row), nil
}

func (repo programRepository) QueryProgramsByOrganizerID(ctx context.Context, organizerID int, filter *program.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]program.Program, error) {
	qb := psql.Select(programColumns...).From("programs").Where(sq.Eq{"organizer_id": organizerID})
	qb = applyProgramFilter(qb, filter)
	qb = applyProgramOrdering(qb, ordering)
	return repo.queryPrograms(ctx, qb, exec)
}

func (repo programRepository) QueryProgramsByParticipantID(ctx context.Context, participantID int, filter *program.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]program.Program, error) {
	qb := psql.Select("p.id", "p.name", "p.subject", "p.organizer_id").
		From("programs p").
		Join("enrollments e ON e.program_id = p.id").
		Where(sq.Eq{"e.participant_id": participantID})
	qb = applyProgramFilter(qb, filter)
	qb = applyProgramOrdering(qb, ordering)
	return repo.queryPrograms(ctx, qb, exec)
}

// applyProgramFilter matches the search keyword against Name or Subject.
func applyProgramFilter(qb sq.SelectBuilder, filter *program.QueryFilter) sq.SelectBuilder {
	if filter == nil || filter.Search == "" {
		return qb
	}
	val := "%" + filter.Search + "%"
	return qb.Where(sq.Or{sq.Expr("name ILIKE ?", val), sq.Expr("subject ILIKE ?", val)})
}

// applyProgramOrdering maps requested ordering fields onto known columns.
// Field names come straight from the query string and must never reach the
// SQL as-is; anything outside the known set orders by id.
func applyProgramOrdering(qb sq.SelectBuilder, ordering []core.DBOrdering) sq.SelectBuilder {
	if len(ordering) == 0 {
		return qb.OrderBy("id")
	}
	for _, ord := range ordering {
		switch ord.Field {
		case "name", "subject":
		default:
			ord.Field = "id"
		}
		qb = qb.OrderBy(ord.String())
	}
	return qb
}

func (repo programRepository) queryPrograms(ctx context.Context, qb sq.SelectBuilder, exec []core.DBExecutor) ([]program.Program, error) {
	query, args, err := qb.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []programRow
	if err = sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying programs")
	}
	return unpackPrograms(rows), nil
}

func (repo programRepository) CreateEnrollment(ctx context.Context, enr program.Enrollment, exec ...core.DBExecutor) (program.Enrollment, error) {
	query, args, err := psql.Insert("enrollments").
		Columns("participant_id", "program_id").
		Values(enr.ParticipantID, enr.ProgramID).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return program.Enrollment{}, errors.Wrap(err, "building query")
	}
	if err = sqlx.GetContext(ctx, getExec(repo.db, exec), &enr.ID, query, args...); err != nil {
		if isUniqueViolation(err, "enrollments_participant_program_key") {
			return program.Enrollment{}, program.ErrAlreadyEnrolled
		}
		return program.Enrollment{}, errors.Wrap(err, "inserting enrollment")
	}
	return enr, nil
}

func (repo programRepository) EnrollmentExists(ctx context.Context, programID, participantID int, exec ...core.DBExecutor) (bool, error) {
	query, args, err := psql.Select("COUNT(*)").
		From("enrollments").
		Where(sq.Eq{"program_id": programID, "participant_id": participantID}).
		ToSql()
	if err != nil {
		return false, errors.Wrap(err, "building query")
	}
	var count int
	if err = sqlx.GetContext(ctx, getExec(repo.db, exec), &count, query, args...); err != nil {
		return false, errors.Wrap(err, "checking enrollment")
	}
	return count > 0, nil
}

func (repo programRepository) QueryParticipantsByProgramID(ctx context.Context, programID int, exec ...core.DBExecutor) ([]user.User, error) {
	cols := make([]string, 0, len(userColumns))
	for _, col := range userColumns {
		cols = append(cols, "u."+col)
	}
	query, args, err := psql.Select(cols...).
		From("users u").
		Join("enrollments e ON e.participant_id = u.id").
		Where(sq.Eq{"e.program_id": programID}).
		OrderBy("u.id").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []userRow
	if err = sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying participants")
	}
	return unpackUsers(rows), nil
}
