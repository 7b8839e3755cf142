package dummydb

import (
	"context"
	"sort"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/submission"
)

type submissionRepository struct {
	db *DB
}

var _ submission.Repository = (*submissionRepository)(nil) // interface compliance check

func NewSubmissionRepository(db *DB) *submissionRepository {
	return &submissionRepository{db: db}
}

func (repo *submissionRepository) GetSubmissionByTaskAndParticipant(ctx context.Context, taskID, participantID int, exec ...core.DBExecutor) (submission.Submission, error) {
	repo.db.submission.RLock()
	defer repo.db.submission.RUnlock()

	for _, sub := range repo.db.submission.table {
		if sub.TaskID == taskID && sub.ParticipantID == participantID {
			return *sub, nil
		}
	}
	return submission.Submission{}, submission.ErrNotFound
}

func (repo *submissionRepository) CreateSubmission(ctx context.Context, sub submission.Submission, exec ...core.DBExecutor) (submission.Submission, error) {
	repo.db.submission.Lock()
	defer repo.db.submission.Unlock()

	repo.db.submission.pkCount++
	sub.ID = repo.db.submission.pkCount
	repo.db.submission.table[sub.ID] = &sub
	return sub, nil
}

func (repo *submissionRepository) UpdateSubmission(ctx context.Context, sub submission.Submission, exec ...core.DBExecutor) (submission.Submission, error) {
	repo.db.submission.Lock()
	defer repo.db.submission.Unlock()

	if _, ok := repo.db.submission.table[sub.ID]; !ok {
		return submission.Submission{}, submission.ErrNotFound
	}
	repo.db.submission.table[sub.ID] = &sub
	return sub, nil
}

func (repo *submissionRepository) QuerySubmissionsByTaskID(ctx context.Context, taskID int, exec ...core.DBExecutor) ([]submission.Submission, error) {
	repo.db.submission.RLock()
	defer repo.db.submission.RUnlock()

	subs := make([]submission.Submission, 0)
	for _, sub := range repo.db.submission.table {
		if sub.TaskID == taskID {
			subs = append(subs, *sub)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].ID < subs[j].ID })
	return subs, nil
}

func (repo *submissionRepository) GetFeedbackByTaskAndParticipant(ctx context.Context, taskID, participantID int, exec ...core.DBExecutor) (submission.Feedback, error) {
	repo.db.feedback.RLock()
	defer repo.db.feedback.RUnlock()

	for _, fb := range repo.db.feedback.table {
		if fb.TaskID == taskID && fb.ParticipantID == participantID {
			return *fb, nil
		}
	}
	return submission.Feedback{}, submission.ErrFeedbackNotFound
}

func (repo *submissionRepository) CreateFeedback(ctx context.Context, fb submission.Feedback, exec ...core.DBExecutor) (submission.Feedback, error) {
	repo.db.feedback.Lock()
	defer repo.db.feedback.Unlock()

	repo.db.feedback.pkCount++
	fb.ID = repo.db.feedback.pkCount
	repo.db.feedback.table[fb.ID] = &fb
	return fb, nil
}

func (repo *submissionRepository) UpdateFeedback(ctx context.Context, fb submission.Feedback, exec ...core.DBExecutor) (submission.Feedback, error) {
	repo.db.feedback.Lock()
	defer repo.db.feedback.Unlock()

	if _, ok := repo.db.feedback.table[fb.ID]; !ok {
		return submission.Feedback{}, submission.ErrFeedbackNotFound
	}
	repo.db.feedback.table[fb.ID] = &fb
	return fb, nil
}
