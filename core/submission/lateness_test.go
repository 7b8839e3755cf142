package submission

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/notification"
	"github.com/trezcool/darasa/core/program"
	"github.com/trezcool/darasa/core/user"
)

type stubRepository struct{}

func (stubRepository) GetSubmissionByTaskAndParticipant(ctx context.Context, taskID, participantID int, exec ...core.DBExecutor) (Submission, error) {
	return Submission{}, ErrNotFound
}
func (stubRepository) CreateSubmission(ctx context.Context, sub Submission, exec ...core.DBExecutor) (Submission, error) {
	sub.ID = 1
	return sub, nil
}
func (stubRepository) UpdateSubmission(ctx context.Context, sub Submission, exec ...core.DBExecutor) (Submission, error) {
	return sub, nil
}
func (stubRepository) QuerySubmissionsByTaskID(ctx context.Context, taskID int, exec ...core.DBExecutor) ([]Submission, error) {
	return nil, nil
}
func (stubRepository) GetFeedbackByTaskAndParticipant(ctx context.Context, taskID, participantID int, exec ...core.DBExecutor) (Feedback, error) {
	return Feedback{}, ErrFeedbackNotFound
}
func (stubRepository) CreateFeedback(ctx context.Context, fb Feedback, exec ...core.DBExecutor) (Feedback, error) {
	return fb, nil
}
func (stubRepository) UpdateFeedback(ctx context.Context, fb Feedback, exec ...core.DBExecutor) (Feedback, error) {
	return fb, nil
}

type stubNotifier struct{}

func (stubNotifier) Notify(ctx context.Context, notifs ...notification.Notification) error {
	return nil
}
func (stubNotifier) ListAndMarkRead(ctx context.Context, userID int) ([]notification.Notification, error) {
	return nil, nil
}
func (stubNotifier) PeekUnreadCount(ctx context.Context, userID int) (int, error) { return 0, nil }

func TestService_Submit_latenessBoundary(t *testing.T) {
	due := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)
	task := program.Task{ID: 1, OrganizerID: 1, Title: "Quiz", DueDate: &due}
	part := user.User{ID: 2, FirstName: "Part", LastName: "One"}
	svc := NewService(stubRepository{}, stubNotifier{}, nil)

	origNow := nowFunc
	defer func() { nowFunc = origNow }()

	tests := []struct {
		name     string
		now      time.Time
		wantLate bool
	}{
		{name: "exactly at due date", now: due, wantLate: false},
		{name: "a second past due date", now: due.Add(time.Second), wantLate: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nowFunc = func() time.Time { return tt.now }

			sub, err := svc.Submit(context.Background(), task, part, NewSubmission{SubmissionText: "answer"})
			if err != nil {
				t.Fatalf("Submit() failed: %v", err)
			}
			if sub.IsLate != tt.wantLate {
				t.Errorf("IsLate = %v; want %v", sub.IsLate, tt.wantLate)
			}
			if !sub.SubmittedAt.Equal(tt.now) {
				t.Errorf("SubmittedAt = %v; want %v", sub.SubmittedAt, tt.now)
			}
		})
	}
}
