// Package testutil builds an API instance over a private in-memory database
// for HTTP tests.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fillop/config"
	"fillop/database"
	"fillop/middleware"
	"fillop/models"
	"fillop/routers"
	"fillop/utils"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const Password = "secret123"

type Mail struct {
	To      []string
	Subject string
	HTML    string
}

// Mailer records every message instead of sending it. Setting Fail makes
// Send return that error.
type Mailer struct {
	mu   sync.Mutex
	sent []Mail
	Fail error
}

func (m *Mailer) Send(_ context.Context, to []string, subject, html string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	m.sent = append(m.sent, Mail{To: to, Subject: subject, HTML: html})
	return nil
}

func (m *Mailer) Sent() []Mail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Mail(nil), m.sent...)
}

// SentTo returns the messages addressed to email whose subject contains subject.
func (m *Mailer) SentTo(email, subject string) []Mail {
	var out []Mail
	for _, mail := range m.Sent() {
		for _, to := range mail.To {
			if to == email && strings.Contains(mail.Subject, subject) {
				out = append(out, mail)
			}
		}
	}
	return out
}

type Env struct {
	t    testing.TB
	App  *fiber.App
	DB   *gorm.DB
	Mail *Mailer
}

// New installs test configuration, a fresh database and a recording mailer,
// and restores the previous globals when the test ends.
func New(t testing.TB) *Env {
	t.Helper()

	prevCfg := config.AppConfig
	config.AppConfig = &config.Config{
		AppMode:            "test",
		AppURL:             "http://lms.test",
		JWTKey:             "test-secret",
		SaltRound:          bcrypt.MinCost,
		UploadDir:          t.TempDir(),
		MaxUploadMB:        1,
		OTPCooldownSeconds: 60,
		InviteTTLHours:     72,
	}

	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	db, err := database.ConnectMemory(name)
	require.NoError(t, err)

	mailer := &Mailer{}
	prevMailer := utils.SetMailer(mailer)
	prevThrottle := utils.CurrentOTPThrottle()
	utils.SetOTPThrottle(&utils.DBThrottle{DB: db, Cooldown: 0})

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
		utils.SetMailer(prevMailer)
		utils.SetOTPThrottle(prevThrottle)
		config.AppConfig = prevCfg
	})

	return &Env{t: t, App: routers.New(routers.Options{}), DB: db, Mail: mailer}
}

// User stores an ACTIVE, verified account with Password.
func (e *Env) User(role, email string) *models.User {
	e.t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	require.NoError(e.t, err)

	user := &models.User{
		Name:            strings.Split(email, "@")[0],
		Email:           email,
		Password:        string(hashed),
		Role:            role,
		Status:          models.StatusActive,
		IsEmailVerified: true,
	}
	require.NoError(e.t, e.DB.Create(user).Error)
	return user
}

func (e *Env) Token(u *models.User) string {
	e.t.Helper()
	token, err := middleware.GenerateJWT(u.ID, u.Name, u.Role, u.Email)
	require.NoError(e.t, err)
	return token
}

// Login seeds a user of role and returns it with a bearer token.
func (e *Env) Login(role, email string) (*models.User, string) {
	u := e.User(role, email)
	return u, e.Token(u)
}

// Response is a decoded API envelope.
type Response struct {
	Code    int
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Into decodes the envelope data into out.
func (r Response) Into(t testing.TB, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Data, out), "data: %s", string(r.Data))
}

// Fields decodes a 422 body's field map.
func (r Response) Fields(t testing.TB) map[string]string {
	out := map[string]string{}
	r.Into(t, &out)
	return out
}

// Do sends a JSON request through the app. token may be empty.
func (e *Env) Do(method, path string, body interface{}, token string) Response {
	e.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return e.Send(req)
}

// Send runs a prepared request through the app.
func (e *Env) Send(req *http.Request) Response {
	e.t.Helper()
	resp, err := e.App.Test(req, -1)
	require.NoError(e.t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)

	out := Response{Code: resp.StatusCode}
	if len(raw) > 0 {
		require.NoError(e.t, json.Unmarshal(raw, &out), "body: %s", string(raw))
	}
	return out
}
