package grade

import "time"

type Grade struct {
	ID            int       `json:"id"`
	Value         int       `json:"value"`
	TaskID        int       `json:"task_id"`
	ParticipantID int       `json:"participant_id"`
	OrganizerID   int       `json:"organizer_id"`
	Date          time.Time `json:"date"` // UTC
}

// NewGrades maps participant IDs to grade values for one task.
// A nil value skips the participant; there is no grade deletion.
type NewGrades struct {
	Grades map[int]*int `json:"grades"`
}
