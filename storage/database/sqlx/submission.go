package sqlxrepos

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/submission"
)

var (
	submissionColumns = []string{"id", "task_id", "participant_id", "file_path", "submission_text", "submitted_at", "is_submitted", "is_late"}
	feedbackColumns   = []string{"id", "task_id", "participant_id", "organizer_id", "feedback_text", "rating", "created_at", "updated_at"}
)

type (
	submissionRow struct {
		ID             int         `db:"id"`
		TaskID         int         `db:"task_id"`
		ParticipantID  int         `db:"participant_id"`
		FilePath       null.String `db:"file_path"`
		SubmissionText null.String `db:"submission_text"`
		SubmittedAt    null.Time   `db:"submitted_at"`
		IsSubmitted    bool        `db:"is_submitted"`
		IsLate         bool        `db:"is_late"`
	}

	feedbackRow struct {
		ID            int       `db:"id"`
		TaskID        int       `db:"task_id"`
		ParticipantID int       `db:"participant_id"`
		OrganizerID   int       `db:"organizer_id"`
		FeedbackText  string    `db:"feedback_text"`
		Rating        int       `db:"rating"`
		CreatedAt     null.Time `db:"created_at"`
		UpdatedAt     null.Time `db:"updated_at"`
	}
)

func packSubmission(sub submission.Submission) submissionRow {
	return submissionRow{
		ID:             sub.ID,
		TaskID:         sub.TaskID,
		ParticipantID:  sub.ParticipantID,
		FilePath:       null.NewString(sub.FilePath, sub.FilePath != ""),
		SubmissionText: null.NewString(sub.SubmissionText, sub.SubmissionText != ""),
		SubmittedAt:    null.NewTime(sub.SubmittedAt.UTC(), !sub.SubmittedAt.IsZero()),
		IsSubmitted:    sub.IsSubmitted,
		IsLate:         sub.IsLate,
	}
}

func unpackSubmission(row submissionRow) submission.Submission {
	return submission.Submission{
		ID:             row.ID,
		TaskID:         row.TaskID,
		ParticipantID:  row.ParticipantID,
		FilePath:       row.FilePath.String,
		SubmissionText: row.SubmissionText.String,
		SubmittedAt:    row.SubmittedAt.Time,
		IsSubmitted:    row.IsSubmitted,
		IsLate:         row.IsLate,
	}
}

func unpackSubmissions(rows []submissionRow) []submission.Submission {
	subs := make([]submission.Submission, 0, len(rows))
	for _, row := range rows {
		subs = append(subs, unpackSubmission(row))
	}
	return subs
}

func packFeedback(fb submission.Feedback) feedbackRow {
	return feedbackRow{
		ID:            fb.ID,
		TaskID:        fb.TaskID,
		ParticipantID: fb.ParticipantID,
		OrganizerID:   fb.OrganizerID,
		FeedbackText:  fb.FeedbackText,
		Rating:        fb.Rating,
		CreatedAt:     null.NewTime(fb.CreatedAt.UTC(), !fb.CreatedAt.IsZero()),
		UpdatedAt:     null.NewTime(fb.UpdatedAt.UTC(), !fb.UpdatedAt.IsZero()),
	}
}

func unpackFeedback(row feedbackRow) submission.Feedback {
	return submission.Feedback{
		ID:            row.ID,
		TaskID:        row.TaskID,
		ParticipantID: row.ParticipantID,
		OrganizerID:   row.OrganizerID,
		FeedbackText:  row.FeedbackText,
		Rating:        row.Rating,
		CreatedAt:     row.CreatedAt.Time,
		UpdatedAt:     row.UpdatedAt.Time,
	}
}

type submissionRepository struct {
	db *sqlx.DB
}

var _ submission.Repository = (*submissionRepository)(nil) // interface compliance check

func NewSubmissionRepository(db *sqlx.DB) *submissionRepository {
	return &submissionRepository{db: db}
}

func (repo submissionRepository) GetSubmissionByTaskAndParticipant(ctx context.Context, taskID, participantID int, exec ...core.DBExecutor) (submission.Submission, error) {
	query, args, err := psql.Select(submissionColumns...).
		From("submissions").
		Where(sq.Eq{"task_id": taskID, "participant_id": participantID}).
		ToSql()
	if err != nil {
		return submission.Submission{}, errors.Wrap(err, "building query")
	}
	var row submissionRow
	if err = sqlx.GetContext(ctx, getExec(repo.db, exec), &row, query, args...); err != nil {
		return submission.Submission{}, trapNoRowsErr(err, submission.ErrNotFound, "finding submission")
	}
	return unpackSubmission(row), nil
}

func (repo submissionRepository) CreateSubmission(ctx context.Context, sub submission.Submission, exec ...core.DBExecutor) (submission.Submission, error) {
	row := packSubmission(sub)
	query, args, err := psql.Insert("submissions").
		Columns("task_id", "participant_id", "file_path", "submission_text", "submitted_at", "is_submitted", "is_late").
		Values(row.TaskID, row.ParticipantID, row.FilePath, row.SubmissionText, row.SubmittedAt, row.IsSubmitted, row.IsLate).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return submission.Submission{}, errors.Wrap(err, "building query")
	}
	if err = sqlx.GetContext(ctx, getExec(repo.db, exec), &sub.ID, query, args...); err != nil {
		return submission.Submission{}, errors.Wrap(err, "inserting submission")
	}
	return sub, nil
}

func (repo submissionRepository) UpdateSubmission(ctx context.Context, sub submission.Submission, exec ...core.DBExecutor) (submission.Submission, error) {
	row := packSubmission(sub)
	query, args, err := psql.Update("submissions").
		Set("file_path", row.FilePath).
		Set("submission_text", row.SubmissionText).
		Set("submitted_at", row.SubmittedAt).
		Set("is_submitted", row.IsSubmitted).
		Set("is_late", row.IsLate).
		Where(sq.Eq{"id": sub.ID}).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return submission.Submission{}, errors.Wrap(err, "building query")
	}
	if err = sqlx.GetContext(ctx, getExec(repo.db, exec), &row.ID, query, args...); err != nil {
		return submission.Submission{}, trapNoRowsErr(err, submission.ErrNotFound, "updating submission")
	}
	return sub, nil
}

func (repo submissionRepository) QuerySubmissionsByTaskID(ctx context.Context, taskID int, exec ...core.DBExecutor) ([]submission.Submission, error) {
	query, args, err := psql.Select(submissionColumns...).
		From("submissions").
		Where(sq.Eq{"task_id": taskID}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []submissionRow
	if err = sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying submissions")
	}
	return unpackSubmissions(rows), nil
}

func (repo submissionRepository) GetFeedbackByTaskAndParticipant(ctx context.Context, taskID, participantID int, exec ...core.DBExecutor) (submission.Feedback, error) {
	query, args, err := psql.Select(feedbackColumns...).
		From("feedback").
		Where(sq.Eq{"task_id": taskID, "participant_id": participantID}).
		ToSql()
	if err != nil {
		return submission.Feedback{}, errors.Wrap(err, "building query")
	}
	var row feedbackRow
	if err = sqlx.GetContext(ctx, getExec(repo.db, exec), &row, query, args...); err != nil {
		return submission.Feedback{}, trapNoRowsErr(err, submission.ErrFeedbackNotFound, "finding feedback")
	}
	return unpackFeedback(row), nil
}

func (repo submissionRepository) CreateFeedback(ctx context.Context, fb submission.Feedback, exec ...core.DBExecutor) (submission.Feedback, error) {
	row := packFeedback(fb)
	query, args, err := psql.Insert("feedback").
		Columns("task_id", "participant_id", "organizer_id", "feedback_text", "rating", "created_at", "updated_at").
		Values(row.TaskID, row.ParticipantID, row.OrganizerID, row.FeedbackText, row.Rating, row.CreatedAt, row.UpdatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return submission.Feedback{}, errors.Wrap(err, "building query")
	}
	if err = sqlx.GetContext(ctx, getExec(repo.db, exec), &fb.ID, query, args...); err != nil {
		return submission.Feedback{}, errors.Wrap(err, "inserting feedback")
	}
	return fb, nil
}

func (repo submissionRepository) UpdateFeedback(ctx context.Context, fb submission.Feedback, exec ...core.DBExecutor) (submission.Feedback, error) {
	row := packFeedback(fb)
	query, args, err := psql.Update("feedback").
		Set("organizer_id", row.OrganizerID).
		Set("feedback_text", row.FeedbackText).
		Set("rating", row.Rating).
		Set("updated_at", row.UpdatedAt).
		Where(sq.Eq{"id": fb.ID}).
		Suffix("RETURNING " + strings.Join(feedbackColumns, ", ")).
		ToSql()
	if err != nil {
		return submission.Feedback{}, errors.Wrap(err, "building query")
	}
	var updated feedbackRow
	if err = sqlx.GetContext(ctx, getExec(repo.db, exec), &updated, query, args...); err != nil {
		return submission.Feedback{}, trapNoRowsErr(err, submission.ErrFeedbackNotFound, "updating feedback")
	}
	return unpackFeedback(updated), nil
}
