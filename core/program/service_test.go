package program_test

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/notification"
	"github.com/trezcool/darasa/core/program"
	"github.com/trezcool/darasa/core/submission"
	"github.com/trezcool/darasa/core/user"
	dummydb "github.com/trezcool/darasa/storage/database/dummy"
	testutil "github.com/trezcool/darasa/tests"
)

type mailerStub struct{}

func (mailerStub) SendMessages(...*core.EmailMessage) {}

type fixture struct {
	db        *dummydb.DB
	repo      program.Repository
	usrRepo   user.Repository
	notifRepo notification.Repository
	svc       program.Service
}

func setup(t *testing.T) fixture {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	repo := dummydb.NewProgramRepository(db)
	usrRepo := dummydb.NewUserRepository(db)
	notifRepo := dummydb.NewNotificationRepository(db)
	usrSvc := user.NewServiceMock(usrRepo, mailerStub{})
	return fixture{
		db:        db,
		repo:      repo,
		usrRepo:   usrRepo,
		notifRepo: notifRepo,
		svc:       program.NewService(repo, usrSvc, notification.NewService(notifRepo)),
	}
}

func TestService_Enroll(t *testing.T) {
	fix := setup(t)
	ctx := context.Background()

	org := testutil.CreateUser(t, fix.usrRepo, "Org", "One", "org1", "org1@test.cd", "", user.RoleOrganizer, true)
	part := testutil.CreateUser(t, fix.usrRepo, "Part", "One", "part1", "part1@test.cd", "", user.RoleParticipant, true)
	prog := testutil.CreateProgram(t, fix.repo, "Algebra", "Math", org.ID)

	tests := []struct {
		name          string
		participantID int
		wantErr       error
	}{
		{name: "organizer target", participantID: org.ID, wantErr: program.ErrParticipantNotFound},
		{name: "unknown target", participantID: 404, wantErr: program.ErrParticipantNotFound},
		{name: "first enroll", participantID: part.ID},
		{name: "second enroll", participantID: part.ID, wantErr: program.ErrAlreadyEnrolled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fix.svc.Enroll(ctx, prog, program.NewEnrollment{ParticipantID: tt.participantID})
			if err != tt.wantErr {
				t.Errorf("Enroll() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	// exactly one enrollment row survives the conflict
	participants, err := fix.svc.QueryParticipants(ctx, prog.ID)
	if err != nil {
		t.Fatalf("QueryParticipants() failed: %v", err)
	}
	if len(participants) != 1 || participants[0].ID != part.ID {
		t.Errorf("participants = %v; want exactly [%d]", participants, part.ID)
	}
}

func TestService_CreateTask(t *testing.T) {
	fix := setup(t)
	ctx := context.Background()

	org := testutil.CreateUser(t, fix.usrRepo, "Org", "One", "org1", "org1@test.cd", "", user.RoleOrganizer, true)
	part1 := testutil.CreateUser(t, fix.usrRepo, "Part", "One", "part1", "part1@test.cd", "", user.RoleParticipant, true)
	part2 := testutil.CreateUser(t, fix.usrRepo, "Part", "Two", "part2", "part2@test.cd", "", user.RoleParticipant, true)
	prog := testutil.CreateProgram(t, fix.repo, "Algebra", "Math", org.ID)
	testutil.CreateEnrollment(t, fix.repo, prog.ID, part1.ID)
	testutil.CreateEnrollment(t, fix.repo, prog.ID, part2.ID)

	task, err := fix.svc.CreateTask(ctx, prog, program.NewTask{Title: "Homework 1", Category: program.CategoryHomework, DueDate: "2025-01-10"})
	if err != nil {
		t.Fatalf("CreateTask() failed: %v", err)
	}
	if task.OrganizerID != org.ID || task.ProgramID != prog.ID {
		t.Errorf("task ownership = (%d, %d); want (%d, %d)", task.OrganizerID, task.ProgramID, org.ID, prog.ID)
	}
	if task.DueDate == nil || !task.DueDate.Equal(time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("due date = %v; want 2025-01-10", task.DueDate)
	}

	// one notification per enrolled participant
	for _, p := range []user.User{part1, part2} {
		notifs, err := fix.notifRepo.QueryNotificationsByUserID(ctx, p.ID)
		if err != nil {
			t.Fatalf("QueryNotificationsByUserID() failed: %v", err)
		}
		if len(notifs) != 1 {
			t.Fatalf("notifications for %d = %d; want 1", p.ID, len(notifs))
		}
		notif := notifs[0]
		if notif.Type != notification.TypeTask {
			t.Errorf("notification type = %q; want %q", notif.Type, notification.TypeTask)
		}
		if notif.ReferenceID == nil || *notif.ReferenceID != task.ID {
			t.Errorf("notification reference = %v; want %d", notif.ReferenceID, task.ID)
		}
		if notif.IsRead {
			t.Error("notification created read")
		}
	}

	// the organizer is not notified of their own task
	notifs, err := fix.notifRepo.QueryNotificationsByUserID(ctx, org.ID)
	if err != nil {
		t.Fatalf("QueryNotificationsByUserID() failed: %v", err)
	}
	if len(notifs) != 0 {
		t.Errorf("organizer notifications = %d; want 0", len(notifs))
	}
}

func TestNewTask_ParseDueDate(t *testing.T) {
	date := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		dueDate string
		want    *time.Time
	}{
		{name: "empty", dueDate: ""},
		{name: "malformed", dueDate: "10/01/2025"},
		{name: "garbage", dueDate: "lol"},
		{name: "valid", dueDate: "2025-01-10", want: &date},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nt := program.NewTask{DueDate: tt.dueDate}
			got := nt.ParseDueDate()
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("ParseDueDate() = %v, want %v", got, tt.want)
			}
			if got != nil && !got.Equal(*tt.want) {
				t.Errorf("ParseDueDate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestService_DeleteTask(t *testing.T) {
	fix := setup(t)
	ctx := context.Background()

	org := testutil.CreateUser(t, fix.usrRepo, "Org", "One", "org1", "org1@test.cd", "", user.RoleOrganizer, true)
	part := testutil.CreateUser(t, fix.usrRepo, "Part", "One", "part1", "part1@test.cd", "", user.RoleParticipant, true)
	prog := testutil.CreateProgram(t, fix.repo, "Algebra", "Math", org.ID)
	task := testutil.CreateTask(t, fix.repo, "Homework 1", program.CategoryHomework, prog)

	subRepo := dummydb.NewSubmissionRepository(fix.db)
	testutil.CreateSubmission(t, subRepo, task.ID, part.ID, "answer")

	if err := fix.svc.DeleteTask(ctx, task); err != nil {
		t.Fatalf("DeleteTask() failed: %v", err)
	}
	if _, err := fix.svc.GetTaskByID(ctx, task.ID); err != program.ErrTaskNotFound {
		t.Errorf("GetTaskByID() error = %v, want %v", err, program.ErrTaskNotFound)
	}

	// the task's submissions go with it
	if _, err := subRepo.GetSubmissionByTaskAndParticipant(ctx, task.ID, part.ID); err != submission.ErrNotFound {
		t.Errorf("GetSubmissionByTaskAndParticipant() error = %v, want %v", err, submission.ErrNotFound)
	}
}
