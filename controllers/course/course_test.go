package controllers_test

import (
	"fillop/models"
	courseModels "fillop/models/course"
	"fillop/testutil"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type page[T any] struct {
	Items  []T   `json:"items"`
	Total  int64 `json:"total"`
	Offset int   `json:"offset"`
	Limit  int   `json:"limit"`
}

func createCourse(t *testing.T, env *testutil.Env, scope, token string, body fiber.Map) courseModels.Course {
	t.Helper()
	res := env.Do(http.MethodPost, scope+"/courses", body, token)
	require.Equal(t, fiber.StatusCreated, res.Code, res.Message)
	var course courseModels.Course
	res.Into(t, &course)
	return course
}

func createModule(t *testing.T, env *testutil.Env, scope, token string, courseID uint, title, contentType string) courseModels.Module {
	t.Helper()
	body := fiber.Map{"title": title, "content_type": contentType, "duration": 10, "is_published": true}
	if contentType == courseModels.ContentText {
		body["text_content"] = "Read this."
	}
	res := env.Do(http.MethodPost, fmt.Sprintf("%s/courses/%d/modules", scope, courseID), body, token)
	require.Equal(t, fiber.StatusCreated, res.Code, res.Message)
	var module courseModels.Module
	res.Into(t, &module)
	return module
}

func courseDetail(t *testing.T, env *testutil.Env, scope, token string, courseID uint) courseModels.Course {
	t.Helper()
	res := env.Do(http.MethodGet, fmt.Sprintf("%s/courses/%d", scope, courseID), nil, token)
	require.Equal(t, fiber.StatusOK, res.Code, res.Message)
	var course courseModels.Course
	res.Into(t, &course)
	return course
}

func moduleTitles(course courseModels.Course) []string {
	out := make([]string, len(course.Modules))
	for i, m := range course.Modules {
		out[i] = m.Title
	}
	return out
}

func TestCreateCourseValidation(t *testing.T) {
	env := testutil.New(t)
	_, token := env.Login(models.RoleAdmin, "admin@fillop.test")

	res := env.Do(http.MethodPost, "/api/admin/courses", fiber.Map{"title": "  "}, token)
	assert.Equal(t, fiber.StatusUnprocessableEntity, res.Code)
	assert.Contains(t, res.Fields(t), "title")

	res = env.Do(http.MethodPost, "/api/admin/courses", fiber.Map{"title": "Go Basics", "category_ids": []uint{42}}, token)
	assert.Equal(t, fiber.StatusNotFound, res.Code)
}

func TestCourseRequiresAuthorRole(t *testing.T) {
	env := testutil.New(t)
	_, student := env.Login(models.RoleStudent, "student@fillop.test")

	res := env.Do(http.MethodGet, "/api/admin/courses", nil, "")
	assert.Equal(t, fiber.StatusUnauthorized, res.Code)

	res = env.Do(http.MethodGet, "/api/lecturer/courses", nil, student)
	assert.Equal(t, fiber.StatusForbidden, res.Code)
}

func TestModulesAppendAndMoveUp(t *testing.T) {
	env := testutil.New(t)
	_, token := env.Login(models.RoleAdmin, "admin@fillop.test")

	course := createCourse(t, env, "/api/admin", token, fiber.Map{"title": "Ordering 101"})
	intro := createModule(t, env, "/api/admin", token, course.ID, "Intro", courseModels.ContentText)
	basics := createModule(t, env, "/api/admin", token, course.ID, "Basics", courseModels.ContentText)
	quiz := createModule(t, env, "/api/admin", token, course.ID, "Quiz", courseModels.ContentAssessment)

	assert.Equal(t, 1, intro.OrderIndex)
	assert.Equal(t, 2, basics.OrderIndex)
	assert.Equal(t, 3, quiz.OrderIndex)

	detail := courseDetail(t, env, "/api/admin", token, course.ID)
	assert.Equal(t, int64(30), detail.Duration)

	res := env.Do(http.MethodPut, fmt.Sprintf("/api/admin/courses/%d/modules/move-up/%d", course.ID, quiz.ID), nil, token)
	require.Equal(t, fiber.StatusOK, res.Code, res.Message)
	var moved struct {
		Moved bool `json:"moved"`
	}
	res.Into(t, &moved)
	assert.True(t, moved.Moved)
	assert.Equal(t, []string{"Intro", "Quiz", "Basics"}, moduleTitles(courseDetail(t, env, "/api/admin", token, course.ID)))

	t.Run("head is a no-op", func(t *testing.T) {
		res := env.Do(http.MethodPut, fmt.Sprintf("/api/admin/courses/%d/modules/move-up/%d", course.ID, intro.ID), nil, token)
		require.Equal(t, fiber.StatusOK, res.Code)
		res.Into(t, &moved)
		assert.False(t, moved.Moved)
		assert.Equal(t, []string{"Intro", "Quiz", "Basics"}, moduleTitles(courseDetail(t, env, "/api/admin", token, course.ID)))
	})

	t.Run("foreign module", func(t *testing.T) {
		other := createCourse(t, env, "/api/admin", token, fiber.Map{"title": "Other course"})
		stray := createModule(t, env, "/api/admin", token, other.ID, "Stray", courseModels.ContentText)
		res := env.Do(http.MethodPut, fmt.Sprintf("/api/admin/courses/%d/modules/move-up/%d", course.ID, stray.ID), nil, token)
		assert.Equal(t, fiber.StatusNotFound, res.Code)
	})
}

func TestDeleteModuleCompactsOrder(t *testing.T) {
	env := testutil.New(t)
	_, token := env.Login(models.RoleAdmin, "admin@fillop.test")

	course := createCourse(t, env, "/api/admin", token, fiber.Map{"title": "Compaction"})
	createModule(t, env, "/api/admin", token, course.ID, "One", courseModels.ContentText)
	two := createModule(t, env, "/api/admin", token, course.ID, "Two", courseModels.ContentAssessment)
	createModule(t, env, "/api/admin", token, course.ID, "Three", courseModels.ContentText)

	res := env.Do(http.MethodDelete, fmt.Sprintf("/api/admin/courses/%d/modules/%d", course.ID, two.ID), nil, token)
	require.Equal(t, fiber.StatusOK, res.Code, res.Message)

	detail := courseDetail(t, env, "/api/admin", token, course.ID)
	require.Len(t, detail.Modules, 2)
	assert.Equal(t, "One", detail.Modules[0].Title)
	assert.Equal(t, 1, detail.Modules[0].OrderIndex)
	assert.Equal(t, "Three", detail.Modules[1].Title)
	assert.Equal(t, 2, detail.Modules[1].OrderIndex)
	assert.Equal(t, int64(20), detail.Duration)

	var assessments int64
	require.NoError(t, env.DB.Model(&courseModels.Assessment{}).Where("module_id = ?", two.ID).Count(&assessments).Error)
	assert.Zero(t, assessments)

	res = env.Do(http.MethodDelete, fmt.Sprintf("/api/admin/courses/%d/modules/%d", course.ID, two.ID), nil, token)
	assert.Equal(t, fiber.StatusNotFound, res.Code)
}

func TestLecturerOwnsCourses(t *testing.T) {
	env := testutil.New(t)
	_, admin := env.Login(models.RoleAdmin, "admin@fillop.test")
	_, lecturer := env.Login(models.RoleLecturer, "lecturer@fillop.test")
	_, rival := env.Login(models.RoleLecturer, "rival@fillop.test")

	adminCourse := createCourse(t, env, "/api/admin", admin, fiber.Map{"title": "Admin course"})
	own := createCourse(t, env, "/api/lecturer", lecturer, fiber.Map{"title": "Lecturer course"})

	res := env.Do(http.MethodGet, fmt.Sprintf("/api/lecturer/courses/%d", adminCourse.ID), nil, lecturer)
	assert.Equal(t, fiber.StatusForbidden, res.Code)

	res = env.Do(http.MethodPut, fmt.Sprintf("/api/lecturer/courses/%d", own.ID), fiber.Map{"title": "Hijacked"}, rival)
	assert.Equal(t, fiber.StatusForbidden, res.Code)

	res = env.Do(http.MethodGet, "/api/lecturer/courses", nil, lecturer)
	require.Equal(t, fiber.StatusOK, res.Code)
	var list page[courseModels.Course]
	res.Into(t, &list)
	require.Len(t, list.Items, 1)
	assert.Equal(t, own.ID, list.Items[0].ID)

	// Admins manage every course.
	res = env.Do(http.MethodPut, fmt.Sprintf("/api/admin/courses/%d", own.ID), fiber.Map{"description": "Reviewed"}, admin)
	require.Equal(t, fiber.StatusOK, res.Code, res.Message)
}

func TestPublishAndCatalogVisibility(t *testing.T) {
	env := testutil.New(t)
	_, admin := env.Login(models.RoleAdmin, "admin@fillop.test")
	_, student := env.Login(models.RoleStudent, "student@fillop.test")

	public := createCourse(t, env, "/api/admin", admin, fiber.Map{"title": "Public course", "show_outside": true})
	internal := createCourse(t, env, "/api/admin", admin, fiber.Map{"title": "Internal course"})
	createCourse(t, env, "/api/admin", admin, fiber.Map{"title": "Draft course", "show_outside": true})

	for _, id := range []uint{public.ID, internal.ID} {
		res := env.Do(http.MethodPut, fmt.Sprintf("/api/admin/courses/%d/publish", id), fiber.Map{"is_published": true}, admin)
		require.Equal(t, fiber.StatusOK, res.Code, res.Message)
	}

	titles := func(token string) []string {
		res := env.Do(http.MethodGet, "/api/courses", nil, token)
		require.Equal(t, fiber.StatusOK, res.Code, res.Message)
		var list page[struct {
			Title      string `json:"title"`
			AuthorName string `json:"author_name"`
		}]
		res.Into(t, &list)
		out := make([]string, len(list.Items))
		for i, item := range list.Items {
			out[i] = item.Title
		}
		return out
	}

	assert.ElementsMatch(t, []string{"Public course"}, titles(""))
	assert.ElementsMatch(t, []string{"Public course", "Internal course"}, titles(student))

	res := env.Do(http.MethodGet, fmt.Sprintf("/api/courses/%d", internal.ID), nil, "")
	assert.Equal(t, fiber.StatusNotFound, res.Code)
	res = env.Do(http.MethodGet, fmt.Sprintf("/api/courses/%d", internal.ID), nil, student)
	assert.Equal(t, fiber.StatusOK, res.Code)
}

func TestDeleteCourseHidesIt(t *testing.T) {
	env := testutil.New(t)
	_, admin := env.Login(models.RoleAdmin, "admin@fillop.test")

	course := createCourse(t, env, "/api/admin", admin, fiber.Map{"title": "Short lived", "is_published": true})
	createModule(t, env, "/api/admin", admin, course.ID, "Only", courseModels.ContentText)

	res := env.Do(http.MethodDelete, fmt.Sprintf("/api/admin/courses/%d", course.ID), nil, admin)
	require.Equal(t, fiber.StatusOK, res.Code, res.Message)

	res = env.Do(http.MethodGet, fmt.Sprintf("/api/admin/courses/%d", course.ID), nil, admin)
	assert.Equal(t, fiber.StatusNotFound, res.Code)
	res = env.Do(http.MethodDelete, fmt.Sprintf("/api/admin/courses/%d", course.ID), nil, admin)
	assert.Equal(t, fiber.StatusNotFound, res.Code)
}
