package controllers

import (
	"encoding/json"
	"fillop/database"
	"fillop/logger"
	"fillop/middleware"
	courseModels "fillop/models/course"
	courseValidator "fillop/validators/course"
	"fmt"
	"sort"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func orderedQuestions(db *gorm.DB) *gorm.DB {
	return db.Order("order_index ASC, id ASC")
}

func loadAssessment(tx *gorm.DB, moduleID uint) (*courseModels.Assessment, error) {
	var assessment courseModels.Assessment
	err := tx.Preload("Questions", orderedQuestions).
		Preload("Questions.Answers", orderedQuestions).
		Where("module_id = ?", moduleID).
		First(&assessment).Error
	if err != nil {
		return nil, wrapNotFound(err, "Assessment")
	}
	return &assessment, nil
}

func deleteAssessmentTx(tx *gorm.DB, moduleID uint) error {
	assessmentIDs := tx.Model(&courseModels.Assessment{}).Select("id").Where("module_id = ?", moduleID)
	questionIDs := tx.Model(&courseModels.Question{}).Select("id").Where("assessment_id IN (?)", assessmentIDs)
	if err := tx.Where("question_id IN (?)", questionIDs).Delete(&courseModels.Answer{}).Error; err != nil {
		return err
	}
	if err := tx.Where("assessment_id IN (?)", assessmentIDs).Delete(&courseModels.Question{}).Error; err != nil {
		return err
	}
	return tx.Where("module_id = ?", moduleID).Delete(&courseModels.Assessment{}).Error
}

func assessmentModule(tx *gorm.DB, a actor, moduleID uint) (*courseModels.Module, error) {
	module, _, err := findModule(tx, a, moduleID)
	if err != nil {
		return nil, err
	}
	if module.ContentType != courseModels.ContentAssessment {
		return nil, fmt.Errorf("%w: module is not an assessment", ErrInvalid)
	}
	return module, nil
}

// GetAssessment returns assessment metadata with ordered questions and answers
func GetAssessment(c *fiber.Ctx) error {
	a := currentActor(c)
	moduleID := c.Locals("id").(uint)

	var assessment *courseModels.Assessment
	err := database.Database.Db.Transaction(func(tx *gorm.DB) error {
		module, err := assessmentModule(tx, a, moduleID)
		if err != nil {
			return err
		}
		if err := ensureAssessment(tx, module); err != nil {
			return err
		}
		assessment, err = loadAssessment(tx, moduleID)
		return err
	})
	if err != nil {
		return respondError(c, err, "fetch assessment")
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Assessment fetched successfully!", assessment)
}

// reconcileQuestions makes the stored questions match the payload: new entries
// are created, known ones updated, flagged or missing ones removed, and the
// survivors renumbered 1..n. Flagged IDs are not checked, so a retried delete
// succeeds. It returns the number of questions kept.
func reconcileQuestions(tx *gorm.DB, assessmentID uint, payload []courseValidator.QuestionPayload) (int, error) {
	var existing []courseModels.Question
	if err := tx.Preload("Answers").Where("assessment_id = ?", assessmentID).Find(&existing).Error; err != nil {
		return 0, err
	}
	stored := make(map[uint]*courseModels.Question, len(existing))
	for i := range existing {
		stored[existing[i].ID] = &existing[i]
	}

	keep := make(map[uint]bool)
	position := 0
	for _, qp := range payload {
		// a flagged row may already be gone; deleting it again is a no-op
		if qp.Delete {
			continue
		}
		if qp.ID != 0 {
			if _, ok := stored[qp.ID]; !ok {
				return 0, fmt.Errorf("%w: question %d does not belong to this assessment", ErrInvalid, qp.ID)
			}
		}
		position++

		var question courseModels.Question
		if qp.ID == 0 {
			question = courseModels.Question{AssessmentID: assessmentID, Text: qp.Text, OrderIndex: position}
			if err := tx.Omit("Answers").Create(&question).Error; err != nil {
				return 0, err
			}
		} else {
			question = *stored[qp.ID]
			if err := tx.Model(&courseModels.Question{}).Where("id = ?", qp.ID).
				Updates(map[string]interface{}{"text": qp.Text, "order_index": position}).Error; err != nil {
				return 0, err
			}
		}
		keep[question.ID] = true

		if err := reconcileAnswers(tx, &question, qp.Answers); err != nil {
			return 0, err
		}
	}

	for id := range stored {
		if keep[id] {
			continue
		}
		if err := tx.Where("question_id = ?", id).Delete(&courseModels.Answer{}).Error; err != nil {
			return 0, err
		}
		if err := tx.Delete(&courseModels.Question{}, id).Error; err != nil {
			return 0, err
		}
	}
	return position, nil
}

func reconcileAnswers(tx *gorm.DB, question *courseModels.Question, payload []courseValidator.AnswerPayload) error {
	stored := make(map[uint]bool, len(question.Answers))
	for _, ans := range question.Answers {
		stored[ans.ID] = true
	}

	keep := make(map[uint]bool)
	position := 0
	for _, ap := range payload {
		if ap.Delete {
			continue
		}
		if ap.ID != 0 && !stored[ap.ID] {
			return fmt.Errorf("%w: answer %d does not belong to question %d", ErrInvalid, ap.ID, question.ID)
		}
		position++

		if ap.ID == 0 {
			answer := courseModels.Answer{QuestionID: question.ID, Text: ap.Text, Correct: ap.Correct, OrderIndex: position}
			if err := tx.Create(&answer).Error; err != nil {
				return err
			}
			continue
		}
		keep[ap.ID] = true
		if err := tx.Model(&courseModels.Answer{}).Where("id = ?", ap.ID).
			Updates(map[string]interface{}{"text": ap.Text, "correct": ap.Correct, "order_index": position}).Error; err != nil {
			return err
		}
	}

	for id := range stored {
		if keep[id] {
			continue
		}
		if err := tx.Delete(&courseModels.Answer{}, id).Error; err != nil {
			return err
		}
	}
	return nil
}

// SaveAssessment is the autosave target: it stores metadata plus the full
// question list and echoes what was persisted.
func SaveAssessment(c *fiber.Ctx) error {
	a := currentActor(c)
	moduleID := c.Locals("id").(uint)
	reqData := c.Locals("validatedAssessment").(*courseValidator.AssessmentSaveRequest)

	var assessment *courseModels.Assessment
	err := database.Database.Db.Transaction(func(tx *gorm.DB) error {
		module, err := assessmentModule(tx, a, moduleID)
		if err != nil {
			return err
		}
		if err := ensureAssessment(tx, module); err != nil {
			return err
		}
		current, err := loadAssessment(tx, moduleID)
		if err != nil {
			return err
		}

		kept, err := reconcileQuestions(tx, current.ID, reqData.Questions)
		if err != nil {
			return err
		}

		numberOfQuestions := reqData.NumberOfQuestions
		if numberOfQuestions == 0 {
			numberOfQuestions = kept
		}
		title := reqData.Title
		if title == "" {
			title = current.Title
		}
		if err := tx.Model(&courseModels.Assessment{}).Where("id = ?", current.ID).Updates(map[string]interface{}{
			"title":               title,
			"description":         reqData.Description,
			"duration":            reqData.Duration,
			"number_of_questions": numberOfQuestions,
		}).Error; err != nil {
			return err
		}

		assessment, err = loadAssessment(tx, moduleID)
		return err
	})
	if err != nil {
		return respondError(c, err, "save assessment")
	}

	logger.Log.Debug("assessment saved", "module_id", moduleID, "questions", len(assessment.Questions))
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Assessment saved successfully!", assessment)
}

// gradeQuestion awards the question only when exactly the correct answers were picked.
func gradeQuestion(q courseModels.Question, selected []uint) bool {
	correct := make([]uint, 0, len(q.Answers))
	for _, ans := range q.Answers {
		if ans.Correct {
			correct = append(correct, ans.ID)
		}
	}
	picked := uniqueIDs(selected)
	if len(picked) != len(correct) {
		return false
	}
	sort.Slice(picked, func(i, j int) bool { return picked[i] < picked[j] })
	sort.Slice(correct, func(i, j int) bool { return correct[i] < correct[j] })
	for i := range picked {
		if picked[i] != correct[i] {
			return false
		}
	}
	return true
}

// SubmitAssessment grades a student's answers, records the attempt and
// completes the module when the attempt passes.
func SubmitAssessment(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)
	moduleID := c.Locals("id").(uint)
	reqData := c.Locals("validatedSubmission").(*courseValidator.SubmitRequest)

	var attempt courseModels.AssessmentAttempt
	var enrollment *courseModels.Enrollment
	err := database.Database.Db.Transaction(func(tx *gorm.DB) error {
		module, err := publishedModule(tx, moduleID)
		if err != nil {
			return err
		}
		if module.ContentType != courseModels.ContentAssessment {
			return fmt.Errorf("%w: module is not an assessment", ErrInvalid)
		}
		if _, err := findEnrollment(tx, userID, module.CourseID); err != nil {
			return err
		}

		assessment, err := loadAssessment(tx, moduleID)
		if err != nil {
			return err
		}
		if len(assessment.Questions) == 0 {
			return fmt.Errorf("%w: assessment has no questions", ErrInvalid)
		}

		score := 0
		for _, q := range assessment.Questions {
			if gradeQuestion(q, reqData.Answers[q.ID]) {
				score++
			}
		}
		percentage := float64(score) / float64(len(assessment.Questions)) * 100

		var previous int64
		if err := tx.Model(&courseModels.AssessmentAttempt{}).
			Where("user_id = ? AND assessment_id = ?", userID, assessment.ID).Count(&previous).Error; err != nil {
			return err
		}

		selections, err := json.Marshal(reqData.Answers)
		if err != nil {
			return err
		}
		attempt = courseModels.AssessmentAttempt{
			UserID:        userID,
			AssessmentID:  assessment.ID,
			ModuleID:      moduleID,
			Selections:    datatypes.JSON(selections),
			Score:         score,
			MaxScore:      len(assessment.Questions),
			Percentage:    percentage,
			Passed:        percentage >= courseModels.PassPercentage,
			AttemptNumber: int(previous) + 1,
		}
		if err := tx.Create(&attempt).Error; err != nil {
			return err
		}

		if attempt.Passed {
			if _, err := markModuleComplete(tx, userID, module); err != nil {
				return err
			}
		}
		enrollment, err = updateEnrollmentProgress(tx, userID, module.CourseID)
		return err
	})
	if err != nil {
		return respondError(c, err, "submit assessment")
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Assessment submitted!", fiber.Map{
		"attempt":    attempt,
		"passed":     attempt.Passed,
		"score":      attempt.Score,
		"max_score":  attempt.MaxScore,
		"percentage": attempt.Percentage,
		"enrollment": enrollment,
	})
}
