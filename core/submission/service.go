package submission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/notification"
	"github.com/trezcool/darasa/core/program"
	"github.com/trezcool/darasa/core/user"
)

var (
	// errors
	ErrNotFound          = errors.New("submission not found")
	ErrFeedbackNotFound  = errors.New("feedback not found")
	ErrNoSubmissionFound = errors.New("no submission found for this participant")

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		GetSubmissionByTaskAndParticipant(ctx context.Context, taskID, participantID int, exec ...core.DBExecutor) (Submission, error)
		CreateSubmission(ctx context.Context, sub Submission, exec ...core.DBExecutor) (Submission, error)
		UpdateSubmission(ctx context.Context, sub Submission, exec ...core.DBExecutor) (Submission, error)
		QuerySubmissionsByTaskID(ctx context.Context, taskID int, exec ...core.DBExecutor) ([]Submission, error)

		GetFeedbackByTaskAndParticipant(ctx context.Context, taskID, participantID int, exec ...core.DBExecutor) (Feedback, error)
		CreateFeedback(ctx context.Context, fb Feedback, exec ...core.DBExecutor) (Feedback, error)
		UpdateFeedback(ctx context.Context, fb Feedback, exec ...core.DBExecutor) (Feedback, error)
	}

	Service interface {
		Submit(ctx context.Context, task program.Task, participant user.User, ns NewSubmission) (Submission, error)
		GetByTaskAndParticipant(ctx context.Context, taskID, participantID int) (Submission, error)
		QueryByTaskID(ctx context.Context, taskID int) ([]Submission, error)
		AddFeedback(ctx context.Context, task program.Task, organizerID int, nf NewFeedback) (Feedback, error)
		GetFeedbackByTaskAndParticipant(ctx context.Context, taskID, participantID int) (Feedback, error)
	}

	service struct {
		repo      Repository
		notifSvc  notification.Service
		fileStore core.FileStore
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, notifSvc notification.Service, fileStore core.FileStore) Service {
	return &service{
		repo:      repo,
		notifSvc:  notifSvc,
		fileStore: fileStore,
	}
}

// Submit records the participant's work for task and notifies the task's
// organizer. A second submit for the same (task, participant) pair overwrites
// the first and re-timestamps it; an already stored file is kept unless a new
// one is provided. Lateness is decided against the task's due date at the
// time of the call; a task with no due date is never late.
func (svc *service) Submit(ctx context.Context, task program.Task, participant user.User, ns NewSubmission) (Submission, error) {
	now := nowFunc().UTC()

	var filePath string
	if ns.File != nil && ns.FileName != "" {
		fp, err := svc.fileStore.Save("assignments", ns.FileName, ns.File)
		if err != nil {
			if err == core.ErrFileTypeNotAllowed {
				return Submission{}, core.NewValidationError(err, core.FieldError{Field: "submission_file", Error: err.Error()})
			}
			return Submission{}, err
		}
		filePath = fp
	}

	isLate := task.DueDate != nil && now.After(*task.DueDate)

	sub, err := svc.repo.GetSubmissionByTaskAndParticipant(ctx, task.ID, participant.ID)
	switch err {
	case nil:
		sub.SubmissionText = ns.SubmissionText
		if filePath != "" {
			sub.FilePath = filePath
		}
		sub.IsSubmitted = true
		sub.IsLate = isLate
		sub.SubmittedAt = now
		if sub, err = svc.repo.UpdateSubmission(ctx, sub); err != nil {
			return Submission{}, err
		}
	case ErrNotFound:
		sub = Submission{
			TaskID:         task.ID,
			ParticipantID:  participant.ID,
			FilePath:       filePath,
			SubmissionText: ns.SubmissionText,
			SubmittedAt:    now,
			IsSubmitted:    true,
			IsLate:         isLate,
		}
		if sub, err = svc.repo.CreateSubmission(ctx, sub); err != nil {
			return Submission{}, err
		}
	default:
		return Submission{}, err
	}

	refID := task.ID
	notif := notification.Notification{
		UserID:      task.OrganizerID,
		Message:     fmt.Sprintf("%s submitted an answer to task %q", participant.FullName(), task.Title),
		Type:        notification.TypeSubmission,
		ReferenceID: &refID,
	}
	if err = svc.notifSvc.Notify(ctx, notif); err != nil {
		return Submission{}, err
	}
	return sub, nil
}

func (svc *service) GetByTaskAndParticipant(ctx context.Context, taskID, participantID int) (Submission, error) {
	return svc.repo.GetSubmissionByTaskAndParticipant(ctx, taskID, participantID)
}

func (svc *service) QueryByTaskID(ctx context.Context, taskID int) ([]Submission, error) {
	return svc.repo.QuerySubmissionsByTaskID(ctx, taskID)
}

// AddFeedback upserts the organizer's feedback for a participant's submission
// on task and notifies the participant. It requires a prior submission for
// the (task, participant) pair. An update refreshes UpdatedAt only.
func (svc *service) AddFeedback(ctx context.Context, task program.Task, organizerID int, nf NewFeedback) (Feedback, error) {
	if _, err := svc.repo.GetSubmissionByTaskAndParticipant(ctx, task.ID, nf.ParticipantID); err != nil {
		if err == ErrNotFound {
			return Feedback{}, ErrNoSubmissionFound
		}
		return Feedback{}, err
	}

	now := nowFunc().UTC()
	fb, err := svc.repo.GetFeedbackByTaskAndParticipant(ctx, task.ID, nf.ParticipantID)
	switch err {
	case nil:
		fb.FeedbackText = nf.FeedbackText
		fb.Rating = nf.Rating
		fb.UpdatedAt = now
		if fb, err = svc.repo.UpdateFeedback(ctx, fb); err != nil {
			return Feedback{}, err
		}
	case ErrFeedbackNotFound:
		fb = Feedback{
			TaskID:        task.ID,
			ParticipantID: nf.ParticipantID,
			OrganizerID:   organizerID,
			FeedbackText:  nf.FeedbackText,
			Rating:        nf.Rating,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if fb, err = svc.repo.CreateFeedback(ctx, fb); err != nil {
			return Feedback{}, err
		}
	default:
		return Feedback{}, err
	}

	refID := task.ID
	notif := notification.Notification{
		UserID:      nf.ParticipantID,
		Message:     fmt.Sprintf("The organizer left feedback on your task %q", task.Title),
		Type:        notification.TypeFeedback,
		ReferenceID: &refID,
	}
	if err = svc.notifSvc.Notify(ctx, notif); err != nil {
		return Feedback{}, err
	}
	return fb, nil
}

func (svc *service) GetFeedbackByTaskAndParticipant(ctx context.Context, taskID, participantID int) (Feedback, error) {
	return svc.repo.GetFeedbackByTaskAndParticipant(ctx, taskID, participantID)
}
