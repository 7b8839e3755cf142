package submission

import (
	"io"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

type Submission struct {
	ID             int       `json:"id"`
	TaskID         int       `json:"task_id"`
	ParticipantID  int       `json:"participant_id"`
	FilePath       string    `json:"file_path,omitempty"`
	SubmissionText string    `json:"submission_text"`
	SubmittedAt    time.Time `json:"submitted_at"` // UTC
	IsSubmitted    bool      `json:"is_submitted"`
	IsLate         bool      `json:"is_late"`
}

type Feedback struct {
	ID            int       `json:"id"`
	TaskID        int       `json:"task_id"`
	ParticipantID int       `json:"participant_id"`
	OrganizerID   int       `json:"organizer_id"`
	FeedbackText  string    `json:"feedback_text"`
	Rating        int       `json:"rating"`
	CreatedAt     time.Time `json:"created_at"` // UTC
	UpdatedAt     time.Time `json:"updated_at"` // UTC
}

// NewSubmission contains a participant's work for a Task. Both the text and
// the file are optional; FileName and File come from the multipart upload.
type NewSubmission struct {
	SubmissionText string    `json:"submission_text"`
	FileName       string    `json:"-"`
	File           io.Reader `json:"-"`
}

// NewFeedback contains organizer commentary on a participant's work.
type NewFeedback struct {
	ParticipantID int    `json:"participant_id" validate:"required"`
	FeedbackText  string `json:"feedback_text" validate:"required"`
	Rating        int    `json:"rating" validate:"required,min=1,max=5"`
}

func (nf *NewFeedback) Validate(validate *validator.Validate) error {
	nf.FeedbackText = core.CleanString(nf.FeedbackText)
	return validate.Struct(nf)
}
