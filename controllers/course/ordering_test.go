package controllers

import (
	"errors"
	courseModels "fillop/models/course"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func rowsOf(children ...uint) []orderedRow {
	rows := make([]orderedRow, len(children))
	for i, child := range children {
		rows[i] = orderedRow{ID: uint(100 + i), OrderIndex: i + 1, ChildID: child}
	}
	return rows
}

func childIDs(rows []orderedRow) []uint {
	out := make([]uint, len(rows))
	for i, row := range rows {
		out[i] = row.ChildID
	}
	return out
}

func TestSwapWithPrevious(t *testing.T) {
	tests := []struct {
		name  string
		rows  []orderedRow
		child uint
		want  []uint
		moved bool
		errIs error
	}{
		{name: "middle", rows: rowsOf(7, 8, 9), child: 8, want: []uint{8, 7, 9}, moved: true},
		{name: "last", rows: rowsOf(7, 8, 9), child: 9, want: []uint{7, 9, 8}, moved: true},
		{name: "head", rows: rowsOf(7, 8, 9), child: 7, want: []uint{7, 8, 9}},
		{name: "single", rows: rowsOf(7), child: 7, want: []uint{7}},
		{name: "missing", rows: rowsOf(7, 8), child: 3, want: []uint{7, 8}, errIs: ErrNotSibling},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, moved, err := swapWithPrevious(tt.rows, tt.child)
			if tt.errIs != nil {
				assert.True(t, errors.Is(err, tt.errIs))
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.moved, moved)
			assert.Equal(t, tt.want, childIDs(out))
		})
	}
}

func TestSwapWithPreviousLeavesInputUntouched(t *testing.T) {
	rows := rowsOf(1, 2, 3)
	_, moved, err := swapWithPrevious(rows, 3)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, []uint{1, 2, 3}, childIDs(rows))
}

func question(answers ...courseModels.Answer) courseModels.Question {
	return courseModels.Question{Answers: answers}
}

func answer(id uint, correct bool) courseModels.Answer {
	return courseModels.Answer{Model: gorm.Model{ID: id}, Correct: correct}
}

func TestGradeQuestion(t *testing.T) {
	multi := question(answer(1, true), answer(2, false), answer(3, true))

	assert.True(t, gradeQuestion(multi, []uint{3, 1}))
	assert.True(t, gradeQuestion(multi, []uint{1, 3, 3}), "duplicate picks count once")
	assert.False(t, gradeQuestion(multi, []uint{1}), "partial selection")
	assert.False(t, gradeQuestion(multi, []uint{1, 2, 3}), "extra wrong answer")
	assert.False(t, gradeQuestion(multi, nil))

	single := question(answer(4, false), answer(5, true))
	assert.True(t, gradeQuestion(single, []uint{5}))
	assert.False(t, gradeQuestion(single, []uint{4}))
}
