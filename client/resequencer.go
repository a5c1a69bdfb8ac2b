package client

import (
	"context"
	"errors"
	courseModels "fillop/models/course"
	"fmt"
)

// Resequencer moves a child up inside its parent's ordered list. The server
// owns the order, so every move is followed by a refetch of the parent.
type Resequencer[T any] struct {
	Move  func(ctx context.Context, parentID, childID uint) error
	Fetch func(ctx context.Context, parentID uint) (T, error)
}

// MoveUp asks the server to move childID up one place, then refetches the
// parent whatever the outcome. The move error, if any, comes back with the
// refetched parent. When the refetch fails too, current is returned unchanged.
func (r Resequencer[T]) MoveUp(ctx context.Context, parentID, childID uint, current T) (T, error) {
	moveErr := r.Move(ctx, parentID, childID)
	fresh, err := r.Fetch(ctx, parentID)
	if err != nil {
		return current, errors.Join(moveErr, err)
	}
	return fresh, moveErr
}

// Modules resequences modules within a course.
func (c *Client) Modules() Resequencer[*courseModels.Course] {
	return Resequencer[*courseModels.Course]{
		Move: func(ctx context.Context, courseID, moduleID uint) error {
			return c.do(ctx, "PUT", c.path("/courses/%d/modules/move-up/%d", courseID, moduleID), nil, nil)
		},
		Fetch: c.Course,
	}
}

// PathCourses resequences courses within a learning path. Learning paths
// are admin-only whatever the client scope.
func (c *Client) PathCourses() Resequencer[*courseModels.LearningPath] {
	return Resequencer[*courseModels.LearningPath]{
		Move: func(ctx context.Context, pathID, courseID uint) error {
			return c.do(ctx, "PUT", fmt.Sprintf("%s/learning-paths/%d/courses/move-up/%d", ScopeAdmin, pathID, courseID), nil, nil)
		},
		Fetch: c.LearningPath,
	}
}
