package client

import (
	"context"
	"fillop/models"
	courseModels "fillop/models/course"
	"fmt"
	"net/url"
	"strconv"
)

// Page is one window of a list endpoint.
type Page[T any] struct {
	Items  []T   `json:"items"`
	Total  int64 `json:"total"`
	Offset int   `json:"offset"`
	Limit  int   `json:"limit"`
}

// Filter narrows list endpoints. Zero values are omitted.
type Filter struct {
	Search   string
	Category uint
	Role     string
	Status   string
}

func (f Filter) query(offset, limit int) string {
	v := url.Values{}
	v.Set("offset", strconv.Itoa(offset))
	v.Set("limit", strconv.Itoa(limit))
	if f.Search != "" {
		v.Set("search", f.Search)
	}
	if f.Category != 0 {
		v.Set("category", strconv.FormatUint(uint64(f.Category), 10))
	}
	if f.Role != "" {
		v.Set("role", f.Role)
	}
	if f.Status != "" {
		v.Set("status", f.Status)
	}
	return "?" + v.Encode()
}

func list[T any](ctx context.Context, c *Client, path string, f Filter, offset, limit int) ([]T, error) {
	var page Page[T]
	if err := c.do(ctx, "GET", path+f.query(offset, limit), nil, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (c *Client) Course(ctx context.Context, id uint) (*courseModels.Course, error) {
	var course courseModels.Course
	if err := c.do(ctx, "GET", c.path("/courses/%d", id), nil, &course); err != nil {
		return nil, err
	}
	return &course, nil
}

func (c *Client) LearningPath(ctx context.Context, id uint) (*courseModels.LearningPath, error) {
	var path courseModels.LearningPath
	if err := c.do(ctx, "GET", fmt.Sprintf("%s/learning-paths/%d", ScopeAdmin, id), nil, &path); err != nil {
		return nil, err
	}
	return &path, nil
}

func (c *Client) Assessment(ctx context.Context, moduleID uint) (*courseModels.Assessment, error) {
	var assessment courseModels.Assessment
	if err := c.do(ctx, "GET", c.path("/modules/%d/assessment", moduleID), nil, &assessment); err != nil {
		return nil, err
	}
	return &assessment, nil
}

// SaveAssessment stores the whole draft and returns the server's echo.
func (c *Client) SaveAssessment(ctx context.Context, moduleID uint, draft *courseModels.Assessment) (*courseModels.Assessment, error) {
	var saved courseModels.Assessment
	if err := c.do(ctx, "PUT", c.path("/modules/%d/assessment", moduleID), saveBody(draft), &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

// CoursePager pages through the courses the caller manages.
func (c *Client) CoursePager(f Filter) *Pager[courseModels.Course] {
	return NewPager(func(ctx context.Context, offset, limit int) ([]courseModels.Course, error) {
		return list[courseModels.Course](ctx, c, c.path("/courses"), f, offset, limit)
	})
}

func (c *Client) LearningPathPager(f Filter) *Pager[courseModels.LearningPath] {
	return NewPager(func(ctx context.Context, offset, limit int) ([]courseModels.LearningPath, error) {
		return list[courseModels.LearningPath](ctx, c, string(ScopeAdmin)+"/learning-paths", f, offset, limit)
	})
}

func (c *Client) UserPager(f Filter) *Pager[models.User] {
	return NewPager(func(ctx context.Context, offset, limit int) ([]models.User, error) {
		return list[models.User](ctx, c, string(ScopeAdmin)+"/users", f, offset, limit)
	})
}

// CatalogPager pages through published courses as a learner sees them.
func (c *Client) CatalogPager(f Filter) *Pager[courseModels.Course] {
	return NewPager(func(ctx context.Context, offset, limit int) ([]courseModels.Course, error) {
		return list[courseModels.Course](ctx, c, "/api/courses", f, offset, limit)
	})
}
