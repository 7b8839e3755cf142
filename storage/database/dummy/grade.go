package dummydb

import (
	"context"
	"sort"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/grade"
)

type gradeRepository struct {
	db *DB
}

var _ grade.Repository = (*gradeRepository)(nil) // interface compliance check

func NewGradeRepository(db *DB) *gradeRepository {
	return &gradeRepository{db: db}
}

func (repo *gradeRepository) UpsertGrades(ctx context.Context, grades []grade.Grade, exec ...core.DBExecutor) ([]grade.Grade, error) {
	repo.db.grade.Lock()
	defer repo.db.grade.Unlock()

	upserted := make([]grade.Grade, 0, len(grades))
	for _, g := range grades {
		existing := repo.findLocked(g.TaskID, g.ParticipantID)
		if existing != nil {
			// keep the original organizer and date, replace the value only
			existing.Value = g.Value
			upserted = append(upserted, *existing)
			continue
		}
		repo.db.grade.pkCount++
		g.ID = repo.db.grade.pkCount
		stored := g
		repo.db.grade.table[g.ID] = &stored
		upserted = append(upserted, g)
	}
	return upserted, nil
}

// findLocked assumes the grade table lock is held.
func (repo *gradeRepository) findLocked(taskID, participantID int) *grade.Grade {
	for _, g := range repo.db.grade.table {
		if g.TaskID == taskID && g.ParticipantID == participantID {
			return g
		}
	}
	return nil
}

func (repo *gradeRepository) QueryGradesByTaskID(ctx context.Context, taskID int, exec ...core.DBExecutor) ([]grade.Grade, error) {
	repo.db.grade.RLock()
	defer repo.db.grade.RUnlock()

	grades := make([]grade.Grade, 0)
	for _, g := range repo.db.grade.table {
		if g.TaskID == taskID {
			grades = append(grades, *g)
		}
	}
	sort.Slice(grades, func(i, j int) bool { return grades[i].ID < grades[j].ID })
	return grades, nil
}

func (repo *gradeRepository) QueryGradesByParticipantID(ctx context.Context, participantID int, exec ...core.DBExecutor) ([]grade.Grade, error) {
	repo.db.grade.RLock()
	defer repo.db.grade.RUnlock()

	grades := make([]grade.Grade, 0)
	for _, g := range repo.db.grade.table {
		if g.ParticipantID == participantID {
			grades = append(grades, *g)
		}
	}
	sort.Slice(grades, func(i, j int) bool { return grades[i].ID < grades[j].ID })
	return grades, nil
}
