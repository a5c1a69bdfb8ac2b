package authController_test

import (
	"fillop/models"
	"fillop/testutil"
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var otpPattern = regexp.MustCompile(`class="otp">(\d{6})<`)

func lastOTP(t *testing.T, env *testutil.Env, email string) string {
	t.Helper()
	mails := env.Mail.SentTo(email, "verification code")
	require.NotEmpty(t, mails, "no OTP mail for %s", email)
	m := otpPattern.FindStringSubmatch(mails[len(mails)-1].HTML)
	require.Len(t, m, 2)
	return m[1]
}

func login(env *testutil.Env, email, password string) testutil.Response {
	return env.Do(http.MethodPost, "/api/auth/login", fiber.Map{"email": email, "password": password}, "")
}

func TestSignupVerifyLogin(t *testing.T) {
	env := testutil.New(t)

	res := env.Do(http.MethodPost, "/api/auth/signup", fiber.Map{
		"name":             "Ada",
		"email":            " Ada@Example.com ",
		"password":         testutil.Password,
		"confirm_password": testutil.Password,
	}, "")
	require.Equal(t, fiber.StatusCreated, res.Code, res.Message)
	var user models.User
	res.Into(t, &user)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, models.RoleStudent, user.Role)
	assert.False(t, user.IsEmailVerified)

	res = env.Do(http.MethodPost, "/api/auth/signup", fiber.Map{
		"name": "Ada", "email": "ada@example.com", "password": testutil.Password, "confirm_password": testutil.Password,
	}, "")
	assert.Equal(t, fiber.StatusConflict, res.Code)

	res = login(env, "ada@example.com", testutil.Password)
	assert.Equal(t, fiber.StatusUnauthorized, res.Code, "unverified accounts cannot log in")

	res = env.Do(http.MethodPost, "/api/auth/send/otp", fiber.Map{"email": "ada@example.com"}, "")
	require.Equal(t, fiber.StatusOK, res.Code, res.Message)
	code := lastOTP(t, env, "ada@example.com")

	res = env.Do(http.MethodPatch, "/api/auth/verify/otp", fiber.Map{"email": "ada@example.com", "code": "000000"}, "")
	if code != "000000" {
		assert.Equal(t, fiber.StatusUnauthorized, res.Code)
	}

	res = env.Do(http.MethodPatch, "/api/auth/verify/otp", fiber.Map{"email": "ada@example.com", "code": code}, "")
	require.Equal(t, fiber.StatusOK, res.Code, res.Message)

	res = env.Do(http.MethodPatch, "/api/auth/verify/otp", fiber.Map{"email": "ada@example.com", "code": code}, "")
	assert.Equal(t, fiber.StatusUnauthorized, res.Code, "codes are single use")

	res = env.Do(http.MethodPost, "/api/auth/send/otp", fiber.Map{"email": "ada@example.com"}, "")
	assert.Equal(t, fiber.StatusConflict, res.Code)

	res = login(env, "ada@example.com", testutil.Password)
	require.Equal(t, fiber.StatusOK, res.Code, res.Message)
	var session struct {
		User  models.User `json:"user"`
		Token string      `json:"token"`
	}
	res.Into(t, &session)
	assert.NotEmpty(t, session.Token)

	res = env.Do(http.MethodGet, "/api/auth/login/history", nil, session.Token)
	require.Equal(t, fiber.StatusOK, res.Code, res.Message)
	var history struct {
		Total int64 `json:"total"`
	}
	res.Into(t, &history)
	assert.EqualValues(t, 1, history.Total)
}

func TestSendOTPMailFailure(t *testing.T) {
	env := testutil.New(t)
	env.DB.Create(&models.User{Name: "slow", Email: "slow@fillop.test", Role: models.RoleStudent, Status: models.StatusActive})

	res := env.Do(http.MethodPost, "/api/auth/send/otp", fiber.Map{"email": "slow@fillop.test"}, "")
	require.Equal(t, fiber.StatusOK, res.Code, res.Message)

	env.Mail.Fail = assert.AnError
	res = env.Do(http.MethodPost, "/api/auth/send/otp", fiber.Map{"email": "slow@fillop.test"}, "")
	assert.Equal(t, fiber.StatusInternalServerError, res.Code)
}

func TestLoginBlocksAfterRepeatedFailures(t *testing.T) {
	env := testutil.New(t)
	env.User(models.RoleStudent, "bob@fillop.test")

	for i := 0; i < 3; i++ {
		res := login(env, "bob@fillop.test", "not-the-password")
		assert.Equal(t, fiber.StatusUnauthorized, res.Code)
	}

	res := login(env, "bob@fillop.test", testutil.Password)
	assert.Equal(t, fiber.StatusUnauthorized, res.Code)
	assert.Contains(t, res.Message, "blocked")

	var user models.User
	require.NoError(t, env.DB.Where("email = ?", "bob@fillop.test").First(&user).Error)
	assert.True(t, user.IsBlocked)
}

func TestLoginRejectsInactiveAccounts(t *testing.T) {
	env := testutil.New(t)
	u := env.User(models.RoleLecturer, "off@fillop.test")
	require.NoError(t, env.DB.Model(u).Update("status", models.StatusDisabled).Error)

	res := login(env, "off@fillop.test", testutil.Password)
	assert.Equal(t, fiber.StatusForbidden, res.Code)
}

func TestAcceptInvite(t *testing.T) {
	env := testutil.New(t)
	future := time.Now().Add(time.Hour)
	past := time.Now().Add(-time.Hour)
	require.NoError(t, env.DB.Create(&models.User{
		Email: "new@fillop.test", Role: models.RoleLecturer, Status: models.StatusInvited,
		InviteToken: "fresh-token", InviteExpiresAt: &future,
	}).Error)
	require.NoError(t, env.DB.Create(&models.User{
		Email: "late@fillop.test", Role: models.RoleLecturer, Status: models.StatusInvited,
		InviteToken: "stale-token", InviteExpiresAt: &past,
	}).Error)

	accept := func(token string) testutil.Response {
		return env.Do(http.MethodPost, "/api/auth/accept/invite", fiber.Map{
			"token": token, "name": "New Lecturer", "password": testutil.Password, "confirm_password": testutil.Password,
		}, "")
	}

	assert.Equal(t, fiber.StatusNotFound, accept("unknown").Code)
	assert.Equal(t, fiber.StatusGone, accept("stale-token").Code)

	res := accept("fresh-token")
	require.Equal(t, fiber.StatusOK, res.Code, res.Message)
	var session struct {
		User  models.User `json:"user"`
		Token string      `json:"token"`
	}
	res.Into(t, &session)
	assert.Equal(t, models.StatusActive, session.User.Status)
	assert.Equal(t, "New Lecturer", session.User.Name)
	assert.NotEmpty(t, session.Token)

	assert.Equal(t, fiber.StatusNotFound, accept("fresh-token").Code)

	res = login(env, "new@fillop.test", testutil.Password)
	assert.Equal(t, fiber.StatusOK, res.Code, res.Message)
}

func TestChangePasswordAndProfile(t *testing.T) {
	env := testutil.New(t)
	_, token := env.Login(models.RoleStudent, "carol@fillop.test")

	res := env.Do(http.MethodPut, "/api/auth/change/password", fiber.Map{
		"current_password": "wrong-one", "new_password": "brand-new-pass", "confirm_password": "brand-new-pass",
	}, token)
	assert.Equal(t, fiber.StatusUnauthorized, res.Code)

	res = env.Do(http.MethodPut, "/api/auth/change/password", fiber.Map{
		"current_password": testutil.Password, "new_password": "brand-new-pass", "confirm_password": "brand-new-pass",
	}, token)
	require.Equal(t, fiber.StatusOK, res.Code, res.Message)

	assert.Equal(t, fiber.StatusOK, login(env, "carol@fillop.test", "brand-new-pass").Code)

	res = env.Do(http.MethodPut, "/api/auth/profile", fiber.Map{"name": "Carol D"}, token)
	require.Equal(t, fiber.StatusOK, res.Code, res.Message)

	res = env.Do(http.MethodGet, "/api/auth/profile", nil, token)
	require.Equal(t, fiber.StatusOK, res.Code)
	var me models.User
	res.Into(t, &me)
	assert.Equal(t, "Carol D", me.Name)
}

func TestForgotPasswordFlow(t *testing.T) {
	env := testutil.New(t)
	env.User(models.RoleStudent, "dan@fillop.test")

	res := env.Do(http.MethodPost, "/api/auth/forgot/password/send/otp", fiber.Map{"email": "nobody@fillop.test"}, "")
	assert.Equal(t, fiber.StatusUnauthorized, res.Code)

	res = env.Do(http.MethodPost, "/api/auth/forgot/password/send/otp", fiber.Map{"email": "Dan@Fillop.test"}, "")
	require.Equal(t, fiber.StatusOK, res.Code, res.Message)
	code := lastOTP(t, env, "dan@fillop.test")

	res = env.Do(http.MethodPatch, "/api/auth/forgot/password/verify/otp", fiber.Map{"email": "dan@fillop.test", "code": code}, "")
	require.Equal(t, fiber.StatusOK, res.Code, res.Message)
	var grant struct {
		Token string `json:"token"`
	}
	res.Into(t, &grant)
	require.NotEmpty(t, grant.Token)

	res = env.Do(http.MethodPatch, "/api/auth/reset/password", fiber.Map{"password": "fresh-password", "confirm_password": "different"}, grant.Token)
	assert.Equal(t, fiber.StatusUnprocessableEntity, res.Code)
	assert.Contains(t, res.Fields(t), "confirm_password")

	res = env.Do(http.MethodPatch, "/api/auth/reset/password", fiber.Map{"password": "fresh-password", "confirm_password": "fresh-password"}, grant.Token)
	require.Equal(t, fiber.StatusOK, res.Code, res.Message)

	assert.Equal(t, fiber.StatusUnauthorized, login(env, "dan@fillop.test", testutil.Password).Code)
	assert.Equal(t, fiber.StatusOK, login(env, "dan@fillop.test", "fresh-password").Code)
}
