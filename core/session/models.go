package session

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// Session carries the selections handed from one dashboard page to the next:
// the class or template being browsed, the grading group being graded...
type Session struct {
	ID                     uuid.UUID `db:"id" json:"id"`
	SelectedClassID        null.Int  `db:"selected_class_id" json:"selectedClassId"`
	SelectedTemplateID     null.Int  `db:"selected_template_id" json:"selectedTemplateId"`
	SelectedGradingGroupID null.Int  `db:"selected_grading_group_id" json:"selectedGradingGroupId"`
	ExamSessionID          null.Int  `db:"exam_session_id" json:"examSessionId"`
	SelectedSubmissionID   null.Int  `db:"selected_submission_id" json:"selectedSubmissionId"`
	CreatedAt              time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt              time.Time `db:"updated_at" json:"updatedAt"`
}

// Selection replaces every selection of a session. Nil ids clear the selection.
type Selection struct {
	ClassID        *int `json:"selectedClassId" validate:"omitempty,min=1"`
	TemplateID     *int `json:"selectedTemplateId" validate:"omitempty,min=1"`
	GradingGroupID *int `json:"selectedGradingGroupId" validate:"omitempty,min=1"`
	ExamSessionID  *int `json:"examSessionId" validate:"omitempty,min=1"`
	SubmissionID   *int `json:"selectedSubmissionId" validate:"omitempty,min=1"`
}

func (sel Selection) apply(s *Session) {
	s.SelectedClassID = null.IntFromPtr(sel.ClassID)
	s.SelectedTemplateID = null.IntFromPtr(sel.TemplateID)
	s.SelectedGradingGroupID = null.IntFromPtr(sel.GradingGroupID)
	s.ExamSessionID = null.IntFromPtr(sel.ExamSessionID)
	s.SelectedSubmissionID = null.IntFromPtr(sel.SubmissionID)
}

// Selection returns the current selections of s.
func (s Session) Selection() Selection {
	return Selection{
		ClassID:        s.SelectedClassID.Ptr(),
		TemplateID:     s.SelectedTemplateID.Ptr(),
		GradingGroupID: s.SelectedGradingGroupID.Ptr(),
		ExamSessionID:  s.ExamSessionID.Ptr(),
		SubmissionID:   s.SelectedSubmissionID.Ptr(),
	}
}
