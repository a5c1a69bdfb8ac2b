package courseValidator

import (
	"fillop/validators"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
)

type AnswerPayload struct {
	ID      uint   `json:"ID"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
	Delete  bool   `json:"delete"`
}

type QuestionPayload struct {
	ID      uint            `json:"ID"`
	Text    string          `json:"text"`
	Answers []AnswerPayload `json:"answers" validate:"dive"`
	Delete  bool            `json:"delete"`
}

// AssessmentSaveRequest is the full editor state sent by the autosave loop.
type AssessmentSaveRequest struct {
	Title             string            `json:"title" validate:"max=200"`
	Description       string            `json:"description"`
	Duration          int               `json:"duration" validate:"min=0"`
	NumberOfQuestions int               `json:"numberOfQuestions" validate:"min=0"`
	Questions         []QuestionPayload `json:"questions" validate:"dive"`
}

type SubmitRequest struct {
	// question ID -> selected answer IDs
	Answers map[uint][]uint `json:"answers" validate:"required"`
}

func SaveAssessment() fiber.Handler {
	return validators.Body("validatedAssessment", func(r *AssessmentSaveRequest) map[string]string {
		r.Title = strings.TrimSpace(r.Title)
		errs := map[string]string{}
		seen := map[uint]bool{}
		for i := range r.Questions {
			q := &r.Questions[i]
			q.Text = strings.TrimSpace(q.Text)
			if q.ID != 0 {
				if seen[q.ID] {
					errs[fmt.Sprintf("questions[%d]", i)] = "Duplicate question ID!"
				}
				seen[q.ID] = true
			}
			for j := range q.Answers {
				q.Answers[j].Text = strings.TrimSpace(q.Answers[j].Text)
			}
		}
		return errs
	})
}

func SubmitAssessment() fiber.Handler {
	return validators.Body[SubmitRequest]("validatedSubmission", nil)
}
