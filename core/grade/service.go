package grade

import (
	"context"
	"fmt"
	"time"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/notification"
	"github.com/trezcool/darasa/core/program"
)

type (
	Repository interface {
		// UpsertGrades inserts or updates grades keyed by
		// (task_id, participant_id) as one atomic batch. An update replaces
		// the value only; the original organizer and date are kept.
		UpsertGrades(ctx context.Context, grades []Grade, exec ...core.DBExecutor) ([]Grade, error)
		QueryGradesByTaskID(ctx context.Context, taskID int, exec ...core.DBExecutor) ([]Grade, error)
		QueryGradesByParticipantID(ctx context.Context, participantID int, exec ...core.DBExecutor) ([]Grade, error)
	}

	Service interface {
		Record(ctx context.Context, task program.Task, ng NewGrades) ([]Grade, error)
		QueryByTaskID(ctx context.Context, taskID int) ([]Grade, error)
		QueryByParticipantID(ctx context.Context, participantID int) ([]Grade, error)
	}

	service struct {
		repo     Repository
		progSvc  program.Service
		notifSvc notification.Service
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, progSvc program.Service, notifSvc notification.Service) Service {
	return &service{
		repo:     repo,
		progSvc:  progSvc,
		notifSvc: notifSvc,
	}
}

// Record upserts a grade per entry of ng for participants enrolled in the
// task's program; entries for unenrolled users and nil values are skipped.
// Notifications go out only once the whole batch has been persisted.
func (svc *service) Record(ctx context.Context, task program.Task, ng NewGrades) ([]Grade, error) {
	participants, err := svc.progSvc.QueryParticipants(ctx, task.ProgramID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	grades := make([]Grade, 0, len(ng.Grades))
	for _, p := range participants {
		val, ok := ng.Grades[p.ID]
		if !ok || val == nil {
			continue
		}
		grades = append(grades, Grade{
			Value:         *val,
			TaskID:        task.ID,
			ParticipantID: p.ID,
			OrganizerID:   task.OrganizerID,
			Date:          now,
		})
	}
	if len(grades) == 0 {
		return []Grade{}, nil
	}

	grades, err = svc.repo.UpsertGrades(ctx, grades)
	if err != nil {
		return nil, err
	}

	notifs := make([]notification.Notification, 0, len(grades))
	for _, g := range grades {
		refID := g.TaskID
		notifs = append(notifs, notification.Notification{
			UserID:      g.ParticipantID,
			Message:     fmt.Sprintf("Your grade for task %q has been updated to %d", task.Title, g.Value),
			Type:        notification.TypeGrade,
			ReferenceID: &refID,
		})
	}
	if err = svc.notifSvc.Notify(ctx, notifs...); err != nil {
		return nil, err
	}
	return grades, nil
}

func (svc *service) QueryByTaskID(ctx context.Context, taskID int) ([]Grade, error) {
	return svc.repo.QueryGradesByTaskID(ctx, taskID)
}

func (svc *service) QueryByParticipantID(ctx context.Context, participantID int) ([]Grade, error) {
	return svc.repo.QueryGradesByParticipantID(ctx, participantID)
}
