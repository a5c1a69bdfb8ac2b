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

func pathCourseTitles(path courseModels.LearningPath) []string {
	out := make([]string, len(path.Courses))
	for i, course := range path.Courses {
		out[i] = course.Title
	}
	return out
}

func getPath(t *testing.T, env *testutil.Env, token string, id uint) courseModels.LearningPath {
	t.Helper()
	res := env.Do(http.MethodGet, fmt.Sprintf("/api/admin/learning-paths/%d", id), nil, token)
	require.Equal(t, fiber.StatusOK, res.Code, res.Message)
	var path courseModels.LearningPath
	res.Into(t, &path)
	return path
}

func TestLearningPathOrdering(t *testing.T) {
	env := testutil.New(t)
	_, admin := env.Login(models.RoleAdmin, "admin@fillop.test")

	a := createCourse(t, env, "/api/admin", admin, fiber.Map{"title": "Course A"})
	b := createCourse(t, env, "/api/admin", admin, fiber.Map{"title": "Course B"})
	c := createCourse(t, env, "/api/admin", admin, fiber.Map{"title": "Course C"})

	res := env.Do(http.MethodPost, "/api/admin/learning-paths", fiber.Map{
		"title":      "Backend track",
		"course_ids": []uint{a.ID, b.ID, a.ID},
	}, admin)
	require.Equal(t, fiber.StatusCreated, res.Code, res.Message)
	var path courseModels.LearningPath
	res.Into(t, &path)
	assert.Equal(t, courseModels.DifficultyBeginner, path.Difficulty)
	assert.Equal(t, []string{"Course A", "Course B"}, pathCourseTitles(path))

	res = env.Do(http.MethodPost, fmt.Sprintf("/api/admin/learning-paths/%d/courses", path.ID), fiber.Map{"course_id": c.ID}, admin)
	require.Equal(t, fiber.StatusCreated, res.Code, res.Message)

	res = env.Do(http.MethodPost, fmt.Sprintf("/api/admin/learning-paths/%d/courses", path.ID), fiber.Map{"course_id": c.ID}, admin)
	assert.Equal(t, fiber.StatusConflict, res.Code)

	res = env.Do(http.MethodPut, fmt.Sprintf("/api/admin/learning-paths/%d/courses/move-up/%d", path.ID, c.ID), nil, admin)
	require.Equal(t, fiber.StatusOK, res.Code, res.Message)
	assert.Equal(t, []string{"Course A", "Course C", "Course B"}, pathCourseTitles(getPath(t, env, admin, path.ID)))

	res = env.Do(http.MethodPut, fmt.Sprintf("/api/admin/learning-paths/%d/courses/move-up/%d", path.ID, a.ID), nil, admin)
	require.Equal(t, fiber.StatusOK, res.Code)
	var moved struct {
		Moved bool `json:"moved"`
	}
	res.Into(t, &moved)
	assert.False(t, moved.Moved)

	res = env.Do(http.MethodDelete, fmt.Sprintf("/api/admin/learning-paths/%d/courses/%d", path.ID, a.ID), nil, admin)
	require.Equal(t, fiber.StatusOK, res.Code, res.Message)
	assert.Equal(t, []string{"Course C", "Course B"}, pathCourseTitles(getPath(t, env, admin, path.ID)))

	var rows []courseModels.LearningPathCourse
	require.NoError(t, env.DB.Where("learning_path_id = ?", path.ID).Order("order_index").Find(&rows).Error)
	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0].OrderIndex)
	assert.Equal(t, 2, rows[1].OrderIndex)

	res = env.Do(http.MethodDelete, fmt.Sprintf("/api/admin/learning-paths/%d/courses/%d", path.ID, a.ID), nil, admin)
	assert.Equal(t, fiber.StatusNotFound, res.Code)
}

func TestLearningPathsAreAdminOnly(t *testing.T) {
	env := testutil.New(t)
	_, lecturer := env.Login(models.RoleLecturer, "lecturer@fillop.test")

	res := env.Do(http.MethodGet, "/api/admin/learning-paths", nil, lecturer)
	assert.Equal(t, fiber.StatusForbidden, res.Code)
}

func TestDeleteLearningPathRemovesUnsharedCourses(t *testing.T) {
	env := testutil.New(t)
	_, admin := env.Login(models.RoleAdmin, "admin@fillop.test")

	shared := createCourse(t, env, "/api/admin", admin, fiber.Map{"title": "Shared course"})
	solo := createCourse(t, env, "/api/admin", admin, fiber.Map{"title": "Solo course"})

	res := env.Do(http.MethodPost, "/api/admin/learning-paths", fiber.Map{"title": "Doomed path", "course_ids": []uint{shared.ID, solo.ID}}, admin)
	require.Equal(t, fiber.StatusCreated, res.Code, res.Message)
	var doomed courseModels.LearningPath
	res.Into(t, &doomed)

	res = env.Do(http.MethodPost, "/api/admin/learning-paths", fiber.Map{"title": "Surviving path", "course_ids": []uint{shared.ID}}, admin)
	require.Equal(t, fiber.StatusCreated, res.Code, res.Message)
	var survivor courseModels.LearningPath
	res.Into(t, &survivor)

	res = env.Do(http.MethodDelete, fmt.Sprintf("/api/admin/learning-paths/%d", doomed.ID), nil, admin)
	require.Equal(t, fiber.StatusOK, res.Code, res.Message)
	var out struct {
		DeletedCourseIDs []uint `json:"deleted_course_ids"`
	}
	res.Into(t, &out)
	assert.Equal(t, []uint{solo.ID}, out.DeletedCourseIDs)

	res = env.Do(http.MethodGet, fmt.Sprintf("/api/admin/courses/%d", solo.ID), nil, admin)
	assert.Equal(t, fiber.StatusNotFound, res.Code)
	res = env.Do(http.MethodGet, fmt.Sprintf("/api/admin/courses/%d", shared.ID), nil, admin)
	assert.Equal(t, fiber.StatusOK, res.Code)

	assert.Equal(t, []string{"Shared course"}, pathCourseTitles(getPath(t, env, admin, survivor.ID)))

	res = env.Do(http.MethodGet, fmt.Sprintf("/api/admin/learning-paths/%d", doomed.ID), nil, admin)
	assert.Equal(t, fiber.StatusNotFound, res.Code)
}

func TestCatalogLearningPathHidesDrafts(t *testing.T) {
	env := testutil.New(t)
	_, admin := env.Login(models.RoleAdmin, "admin@fillop.test")

	live := createCourse(t, env, "/api/admin", admin, fiber.Map{"title": "Live course", "is_published": true})
	draft := createCourse(t, env, "/api/admin", admin, fiber.Map{"title": "Draft course"})

	res := env.Do(http.MethodPost, "/api/admin/learning-paths", fiber.Map{
		"title":        "Published path",
		"is_published": true,
		"course_ids":   []uint{draft.ID, live.ID},
	}, admin)
	require.Equal(t, fiber.StatusCreated, res.Code, res.Message)
	var path courseModels.LearningPath
	res.Into(t, &path)

	res = env.Do(http.MethodGet, fmt.Sprintf("/api/learning-paths/%d", path.ID), nil, "")
	require.Equal(t, fiber.StatusOK, res.Code, res.Message)
	var public courseModels.LearningPath
	res.Into(t, &public)
	assert.Equal(t, []string{"Live course"}, pathCourseTitles(public))

	res = env.Do(http.MethodPut, fmt.Sprintf("/api/admin/learning-paths/%d", path.ID), fiber.Map{"is_published": false}, admin)
	require.Equal(t, fiber.StatusOK, res.Code, res.Message)
	res = env.Do(http.MethodGet, fmt.Sprintf("/api/learning-paths/%d", path.ID), nil, "")
	assert.Equal(t, fiber.StatusNotFound, res.Code)
}
