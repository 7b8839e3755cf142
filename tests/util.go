package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/darasa/core/program"
	"github.com/trezcool/darasa/core/submission"
	"github.com/trezcool/darasa/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	firstName, lastName, uname, email, pwd, role string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		FirstName: firstName,
		LastName:  lastName,
		Username:  uname,
		Email:     email,
		Role:      role,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateProgram(t *testing.T, repo program.Repository, name, subject string, organizerID int) program.Program {
	t.Helper()

	prog, err := repo.CreateProgram(context.Background(), program.Program{
		Name:        name,
		Subject:     subject,
		OrganizerID: organizerID,
	})
	if err != nil {
		t.Fatalf("CreateProgram() failed: %v", err)
	}
	return prog
}

func CreateEnrollment(t *testing.T, repo program.Repository, programID, participantID int) program.Enrollment {
	t.Helper()

	enr, err := repo.CreateEnrollment(context.Background(), program.Enrollment{
		ParticipantID: participantID,
		ProgramID:     programID,
	})
	if err != nil {
		t.Fatalf("CreateEnrollment() failed: %v", err)
	}
	return enr
}

func CreateTask(
	t *testing.T,
	repo program.Repository,
	title, category string,
	prog program.Program,
	dueDate ...time.Time,
) program.Task {
	t.Helper()

	task := program.Task{
		Title:       title,
		Category:    category,
		ProgramID:   prog.ID,
		OrganizerID: prog.OrganizerID,
	}
	if len(dueDate) > 0 {
		due := dueDate[0].UTC()
		task.DueDate = &due
	}
	task, err := repo.CreateTask(context.Background(), task)
	if err != nil {
		t.Fatalf("CreateTask() failed: %v", err)
	}
	return task
}

func CreateSubmission(
	t *testing.T,
	repo submission.Repository,
	taskID, participantID int,
	text string,
	submittedAt ...time.Time,
) submission.Submission {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(submittedAt) > 0 {
		tstamp = submittedAt[0].UTC()
	}
	sub, err := repo.CreateSubmission(context.Background(), submission.Submission{
		TaskID:         taskID,
		ParticipantID:  participantID,
		SubmissionText: text,
		SubmittedAt:    tstamp,
		IsSubmitted:    true,
	})
	if err != nil {
		t.Fatalf("CreateSubmission() failed: %v", err)
	}
	return sub
}
