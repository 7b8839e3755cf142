package program

import (
	"context"
	"errors"
	"fmt"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/notification"
	"github.com/trezcool/darasa/core/user"
)

var (
	// errors
	ErrNotFound            = errors.New("program not found")
	ErrTaskNotFound        = errors.New("task not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrAlreadyEnrolled     = errors.New("participant is already enrolled in this program")
)

type (
	Repository interface {
		CreateProgram(ctx context.Context, prog Program, exec ...core.DBExecutor) (Program, error)
		GetProgramByID(ctx context.Context, id int, exec ...core.DBExecutor) (Program, error)
		// QueryProgramsBy* apply QueryFilter.Search as a case-insensitive
		// match on one of Program.Name or Program.Subject.
		QueryProgramsByOrganizerID(ctx context.Context, organizerID int, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Program, error)
		QueryProgramsByParticipantID(ctx context.Context, participantID int, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Program, error)

		CreateEnrollment(ctx context.Context, enr Enrollment, exec ...core.DBExecutor) (Enrollment, error)
		EnrollmentExists(ctx context.Context, programID, participantID int, exec ...core.DBExecutor) (bool, error)
		QueryParticipantsByProgramID(ctx context.Context, programID int, exec ...core.DBExecutor) ([]user.User, error)

		CreateTask(ctx context.Context, task Task, exec ...core.DBExecutor) (Task, error)
		GetTaskByID(ctx context.Context, id int, exec ...core.DBExecutor) (Task, error)
		QueryTasksByProgramID(ctx context.Context, programID int, exec ...core.DBExecutor) ([]Task, error)
		QueryTasksByOrganizerID(ctx context.Context, organizerID int, exec ...core.DBExecutor) ([]Task, error)
		QueryTasksByParticipantID(ctx context.Context, participantID int, exec ...core.DBExecutor) ([]Task, error)
		DeleteTask(ctx context.Context, id int, exec ...core.DBExecutor) error
	}

	Service interface {
		Create(ctx context.Context, organizerID int, np NewProgram) (Program, error)
		GetByID(ctx context.Context, id int) (Program, error)
		QueryByOrganizerID(ctx context.Context, organizerID int, filter *QueryFilter, ordering []core.DBOrdering) ([]Program, error)
		QueryByParticipantID(ctx context.Context, participantID int, filter *QueryFilter, ordering []core.DBOrdering) ([]Program, error)
		QueryParticipants(ctx context.Context, programID int) ([]user.User, error)
		Enroll(ctx context.Context, prog Program, ne NewEnrollment) (Enrollment, error)
		IsEnrolled(ctx context.Context, programID, participantID int) (bool, error)
		CreateTask(ctx context.Context, prog Program, nt NewTask) (Task, error)
		GetTaskByID(ctx context.Context, id int) (Task, error)
		QueryTasksByProgramID(ctx context.Context, programID int) ([]Task, error)
		QueryTasksByOrganizerID(ctx context.Context, organizerID int) ([]Task, error)
		QueryTasksByParticipantID(ctx context.Context, participantID int) ([]Task, error)
		DeleteTask(ctx context.Context, task Task) error
	}

	service struct {
		repo     Repository
		usrSvc   user.Service
		notifSvc notification.Service
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, usrSvc user.Service, notifSvc notification.Service) Service {
	return &service{
		repo:     repo,
		usrSvc:   usrSvc,
		notifSvc: notifSvc,
	}
}

func (svc *service) Create(ctx context.Context, organizerID int, np NewProgram) (Program, error) {
	prog := Program{
		Name:        np.Name,
		Subject:     np.Subject,
		OrganizerID: organizerID,
	}
	return svc.repo.CreateProgram(ctx, prog)
}

func (svc *service) GetByID(ctx context.Context, id int) (Program, error) {
	return svc.repo.GetProgramByID(ctx, id)
}

func (svc *service) QueryByOrganizerID(ctx context.Context, organizerID int, filter *QueryFilter, ordering []core.DBOrdering) ([]Program, error) {
	return svc.repo.QueryProgramsByOrganizerID(ctx, organizerID, filter, ordering)
}

func (svc *service) QueryByParticipantID(ctx context.Context, participantID int, filter *QueryFilter, ordering []core.DBOrdering) ([]Program, error) {
	return svc.repo.QueryProgramsByParticipantID(ctx, participantID, filter, ordering)
}

func (svc *service) QueryParticipants(ctx context.Context, programID int) ([]user.User, error) {
	return svc.repo.QueryParticipantsByProgramID(ctx, programID)
}

// Enroll registers the target user in prog. The target must exist with the
// participant role and must not already hold an enrollment in prog.
func (svc *service) Enroll(ctx context.Context, prog Program, ne NewEnrollment) (Enrollment, error) {
	usr, err := svc.usrSvc.GetByID(ctx, ne.ParticipantID)
	if err != nil {
		if err == user.ErrNotFound {
			return Enrollment{}, ErrParticipantNotFound
		}
		return Enrollment{}, err
	}
	if !usr.IsParticipant() {
		return Enrollment{}, ErrParticipantNotFound
	}

	exists, err := svc.repo.EnrollmentExists(ctx, prog.ID, usr.ID)
	if err != nil {
		return Enrollment{}, err
	}
	if exists {
		return Enrollment{}, ErrAlreadyEnrolled
	}

	enr := Enrollment{
		ParticipantID: usr.ID,
		ProgramID:     prog.ID,
	}
	return svc.repo.CreateEnrollment(ctx, enr)
}

func (svc *service) IsEnrolled(ctx context.Context, programID, participantID int) (bool, error) {
	return svc.repo.EnrollmentExists(ctx, programID, participantID)
}

// CreateTask adds a task to prog and notifies every currently enrolled
// participant. The task's organizer is always the program's organizer.
func (svc *service) CreateTask(ctx context.Context, prog Program, nt NewTask) (Task, error) {
	task := Task{
		Title:       nt.Title,
		Description: nt.Description,
		DueDate:     nt.ParseDueDate(),
		Category:    nt.Category,
		ProgramID:   prog.ID,
		OrganizerID: prog.OrganizerID,
	}
	task, err := svc.repo.CreateTask(ctx, task)
	if err != nil {
		return Task{}, err
	}

	participants, err := svc.repo.QueryParticipantsByProgramID(ctx, prog.ID)
	if err != nil {
		return Task{}, err
	}
	refID := task.ID
	notifs := make([]notification.Notification, 0, len(participants))
	for _, p := range participants {
		notifs = append(notifs, notification.Notification{
			UserID:      p.ID,
			Message:     fmt.Sprintf("New task created: %s", task.Title),
			Type:        notification.TypeTask,
			ReferenceID: &refID,
		})
	}
	if err = svc.notifSvc.Notify(ctx, notifs...); err != nil {
		return Task{}, err
	}
	return task, nil
}

func (svc *service) GetTaskByID(ctx context.Context, id int) (Task, error) {
	return svc.repo.GetTaskByID(ctx, id)
}

func (svc *service) QueryTasksByProgramID(ctx context.Context, programID int) ([]Task, error) {
	return svc.repo.QueryTasksByProgramID(ctx, programID)
}

func (svc *service) QueryTasksByOrganizerID(ctx context.Context, organizerID int) ([]Task, error) {
	return svc.repo.QueryTasksByOrganizerID(ctx, organizerID)
}

func (svc *service) QueryTasksByParticipantID(ctx context.Context, participantID int) ([]Task, error) {
	return svc.repo.QueryTasksByParticipantID(ctx, participantID)
}

// DeleteTask removes a task; its submissions and feedback go with it.
func (svc *service) DeleteTask(ctx context.Context, task Task) error {
	return svc.repo.DeleteTask(ctx, task.ID)
}
