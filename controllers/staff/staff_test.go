package staffController_test

import (
	staffController "fillop/controllers/staff"
	"fillop/models"
	"fillop/testutil"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInviteLink(t *testing.T) {
	testutil.New(t)
	assert.Equal(t, "http://lms.test/accept-invite?token=a+b", staffController.InviteLink("a b"))
}

func TestInviteAndCancel(t *testing.T) {
	env := testutil.New(t)
	admin, token := env.Login(models.RoleAdmin, "admin@fillop.test")

	res := env.Do(http.MethodPost, "/api/admin/users/invite", fiber.Map{"email": "Lee@Fillop.test", "role": "lecturer"}, token)
	require.Equal(t, fiber.StatusCreated, res.Code, res.Message)
	var invited models.User
	res.Into(t, &invited)
	assert.Equal(t, "lee@fillop.test", invited.Email)
	assert.Equal(t, models.RoleLecturer, invited.Role)
	assert.Equal(t, models.StatusInvited, invited.Status)
	require.NotNil(t, invited.InvitedBy)
	assert.Equal(t, admin.ID, *invited.InvitedBy)

	mails := env.Mail.SentTo("lee@fillop.test", "invited")
	require.Len(t, mails, 1)
	var stored models.User
	require.NoError(t, env.DB.First(&stored, invited.ID).Error)
	assert.Contains(t, mails[0].HTML, staffController.InviteLink(stored.InviteToken))

	// A second invite refreshes the token.
	res = env.Do(http.MethodPost, "/api/admin/users/invite", fiber.Map{"email": "lee@fillop.test", "role": "LECTURER"}, token)
	require.Equal(t, fiber.StatusOK, res.Code, res.Message)
	var refreshed models.User
	require.NoError(t, env.DB.First(&refreshed, invited.ID).Error)
	assert.NotEqual(t, stored.InviteToken, refreshed.InviteToken)

	res = env.Do(http.MethodPost, "/api/admin/users/invite", fiber.Map{"email": "admin@fillop.test", "role": "LECTURER"}, token)
	assert.Equal(t, fiber.StatusConflict, res.Code)

	res = env.Do(http.MethodPost, fmt.Sprintf("/api/admin/users/cancel/invite/%d", invited.ID), nil, token)
	require.Equal(t, fiber.StatusOK, res.Code, res.Message)
	res = env.Do(http.MethodPost, fmt.Sprintf("/api/admin/users/cancel/invite/%d", invited.ID), nil, token)
	assert.Equal(t, fiber.StatusNotFound, res.Code)

	// The address is free again.
	res = env.Do(http.MethodPost, "/api/admin/users/invite", fiber.Map{"email": "lee@fillop.test", "role": "STUDENT"}, token)
	assert.Equal(t, fiber.StatusCreated, res.Code, res.Message)
}

func TestInviteMailFailureStoresNothing(t *testing.T) {
	env := testutil.New(t)
	_, token := env.Login(models.RoleAdmin, "admin@fillop.test")
	env.Mail.Fail = assert.AnError

	res := env.Do(http.MethodPost, "/api/admin/users/invite", fiber.Map{"email": "ghost@fillop.test", "role": "LECTURER"}, token)
	assert.Equal(t, fiber.StatusBadGateway, res.Code)

	var count int64
	require.NoError(t, env.DB.Model(&models.User{}).Where("email = ?", "ghost@fillop.test").Count(&count).Error)
	assert.Zero(t, count)
}

func TestCancelInviteIgnoresActiveUsers(t *testing.T) {
	env := testutil.New(t)
	_, token := env.Login(models.RoleAdmin, "admin@fillop.test")
	active := env.User(models.RoleLecturer, "active@fillop.test")

	res := env.Do(http.MethodPost, fmt.Sprintf("/api/admin/users/cancel/invite/%d", active.ID), nil, token)
	assert.Equal(t, fiber.StatusNotFound, res.Code)
}

func TestDisableRoleAndDelete(t *testing.T) {
	env := testutil.New(t)
	admin, token := env.Login(models.RoleAdmin, "admin@fillop.test")
	lecturer, lecturerToken := env.Login(models.RoleLecturer, "lecturer@fillop.test")

	res := env.Do(http.MethodPut, fmt.Sprintf("/api/admin/users/%d/disable", admin.ID), fiber.Map{"disabled": true}, token)
	assert.Equal(t, fiber.StatusBadRequest, res.Code)

	res = env.Do(http.MethodPut, fmt.Sprintf("/api/admin/users/%d/disable", lecturer.ID), fiber.Map{}, token)
	assert.Equal(t, fiber.StatusUnprocessableEntity, res.Code)

	res = env.Do(http.MethodPut, fmt.Sprintf("/api/admin/users/%d/disable", lecturer.ID), fiber.Map{"disabled": true}, token)
	require.Equal(t, fiber.StatusOK, res.Code, res.Message)

	// The lecturer's existing token stops working once the account is disabled.
	res = env.Do(http.MethodGet, "/api/lecturer/courses", nil, lecturerToken)
	assert.Equal(t, fiber.StatusForbidden, res.Code)

	res = env.Do(http.MethodPut, fmt.Sprintf("/api/admin/users/%d/disable", lecturer.ID), fiber.Map{"disabled": false}, token)
	require.Equal(t, fiber.StatusOK, res.Code, res.Message)
	res = env.Do(http.MethodGet, "/api/lecturer/courses", nil, lecturerToken)
	assert.Equal(t, fiber.StatusOK, res.Code)

	res = env.Do(http.MethodPut, fmt.Sprintf("/api/admin/users/%d/role", lecturer.ID), fiber.Map{"role": "student"}, token)
	require.Equal(t, fiber.StatusOK, res.Code, res.Message)
	var changed models.User
	res.Into(t, &changed)
	assert.Equal(t, models.RoleStudent, changed.Role)

	res = env.Do(http.MethodGet, "/api/lecturer/courses", nil, lecturerToken)
	assert.Equal(t, fiber.StatusForbidden, res.Code, "role is read from the database, not the token")

	res = env.Do(http.MethodPut, fmt.Sprintf("/api/admin/users/%d/role", admin.ID), fiber.Map{"role": "STUDENT"}, token)
	assert.Equal(t, fiber.StatusBadRequest, res.Code)

	res = env.Do(http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", lecturer.ID), nil, token)
	require.Equal(t, fiber.StatusOK, res.Code, res.Message)
	res = env.Do(http.MethodGet, fmt.Sprintf("/api/admin/users/%d", lecturer.ID), nil, token)
	assert.Equal(t, fiber.StatusNotFound, res.Code)
	res = env.Do(http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", admin.ID), nil, token)
	assert.Equal(t, fiber.StatusBadRequest, res.Code)
}

func TestListUsersFilters(t *testing.T) {
	env := testutil.New(t)
	_, token := env.Login(models.RoleAdmin, "admin@fillop.test")
	env.User(models.RoleLecturer, "grace@fillop.test")
	env.User(models.RoleStudent, "linus@fillop.test")
	env.User(models.RoleStudent, "ken@fillop.test")

	emails := func(query string) []string {
		res := env.Do(http.MethodGet, "/api/admin/users"+query, nil, token)
		require.Equal(t, fiber.StatusOK, res.Code, res.Message)
		var page struct {
			Items []models.User `json:"items"`
			Total int64         `json:"total"`
		}
		res.Into(t, &page)
		out := make([]string, len(page.Items))
		for i, u := range page.Items {
			out[i] = strings.Split(u.Email, "@")[0]
		}
		return out
	}

	assert.ElementsMatch(t, []string{"linus", "ken"}, emails("?role=student"))
	assert.ElementsMatch(t, []string{"grace"}, emails("?search=GRA"))
	assert.Len(t, emails("?limit=2"), 2)
	assert.ElementsMatch(t, []string{"admin", "grace", "linus", "ken"}, emails("?status=active"))
}
