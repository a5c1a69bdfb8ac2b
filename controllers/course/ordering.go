package controllers

import (
	"errors"
	courseModels "fillop/models/course"

	"gorm.io/gorm"
)

// ErrNotSibling is returned when the child is not in the parent's ordered list.
var ErrNotSibling = errors.New("item is not part of this list")

// siblingList describes one ordered child collection: modules within a course
// or courses within a learning path.
type siblingList struct {
	newModel  func() interface{}
	parentCol string
	childCol  string
	live      string
}

var moduleList = siblingList{
	newModel:  func() interface{} { return &courseModels.Module{} },
	parentCol: "course_id",
	childCol:  "id",
	live:      "is_deleted = false",
}

var pathCourseList = siblingList{
	newModel:  func() interface{} { return &courseModels.LearningPathCourse{} },
	parentCol: "learning_path_id",
	childCol:  "course_id",
}

type orderedRow struct {
	ID         uint
	OrderIndex int
	ChildID    uint
}

func (s siblingList) scope(tx *gorm.DB, parentID uint) *gorm.DB {
	q := tx.Model(s.newModel()).Where(s.parentCol+" = ?", parentID)
	if s.live != "" {
		q = q.Where(s.live)
	}
	return q
}

func (s siblingList) load(tx *gorm.DB, parentID uint) ([]orderedRow, error) {
	var rows []orderedRow
	err := s.scope(tx, parentID).
		Select("id, order_index, " + s.childCol + " AS child_id").
		Order("order_index ASC, id ASC").
		Scan(&rows).Error
	return rows, err
}

// nextPosition is the 1-based position for an item appended to the list.
func (s siblingList) nextPosition(tx *gorm.DB, parentID uint) (int, error) {
	var maxOrder int
	err := s.scope(tx, parentID).Select("COALESCE(MAX(order_index), 0)").Scan(&maxOrder).Error
	return maxOrder + 1, err
}

// write stores positions 1..n for rows in the given order, touching only rows
// whose position changed.
func (s siblingList) write(tx *gorm.DB, rows []orderedRow) error {
	for i, row := range rows {
		pos := i + 1
		if row.OrderIndex == pos {
			continue
		}
		if err := tx.Model(s.newModel()).Where("id = ?", row.ID).Update("order_index", pos).Error; err != nil {
			return err
		}
	}
	return nil
}

// compact renumbers the remaining items 1..n, closing the gap left by a removal.
func (s siblingList) compact(tx *gorm.DB, parentID uint) error {
	rows, err := s.load(tx, parentID)
	if err != nil {
		return err
	}
	return s.write(tx, rows)
}

// moveUp swaps childID with its predecessor. It reports false when the child
// already heads the list, which leaves the order untouched.
func (s siblingList) moveUp(tx *gorm.DB, parentID, childID uint) (bool, error) {
	rows, err := s.load(tx, parentID)
	if err != nil {
		return false, err
	}
	rows, moved, err := swapWithPrevious(rows, childID)
	if err != nil {
		return false, err
	}
	return moved, s.write(tx, rows)
}

// swapWithPrevious returns rows with childID exchanged with the row before it.
// The head of the list stays in place.
func swapWithPrevious(rows []orderedRow, childID uint) ([]orderedRow, bool, error) {
	idx := -1
	for i, row := range rows {
		if row.ChildID == childID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return rows, false, ErrNotSibling
	}
	if idx == 0 {
		return rows, false, nil
	}
	out := make([]orderedRow, len(rows))
	copy(out, rows)
	out[idx-1], out[idx] = out[idx], out[idx-1]
	return out, true, nil
}
