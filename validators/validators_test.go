package validators

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseID(t *testing.T) {
	for raw, want := range map[string]uint{"7": 7, " 12 ": 12} {
		id, ok := ParseID(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, id)
	}
	for _, raw := range []string{"", "0", "-3", "abc", "1.5"} {
		_, ok := ParseID(raw)
		assert.False(t, ok, raw)
	}
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func call(t *testing.T, app *fiber.App, req *http.Request) (int, envelope) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out envelope
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return resp.StatusCode, out
}

func TestListDefaults(t *testing.T) {
	app := fiber.New()
	app.Get("/items", List(), func(c *fiber.Ctx) error {
		return c.JSON(envelope{Status: true, Data: mustJSON(t, c.Locals("listQuery"))})
	})

	cases := []struct {
		query      string
		wantOffset int
		wantLimit  int
	}{
		{"", 0, DefaultLimit},
		{"?offset=20&limit=5", 20, 5},
		{"?limit=1000", 0, MaxLimit},
	}
	for _, tc := range cases {
		code, body := call(t, app, httptest.NewRequest(http.MethodGet, "/items"+tc.query, nil))
		require.Equal(t, fiber.StatusOK, code, tc.query)
		var q ListQuery
		require.NoError(t, json.Unmarshal(body.Data, &q))
		assert.Equal(t, tc.wantOffset, q.Offset, tc.query)
		assert.Equal(t, tc.wantLimit, q.Limit, tc.query)
	}

	code, body := call(t, app, httptest.NewRequest(http.MethodGet, "/items?role=%20lecturer&status=active&search=%20go%20", nil))
	require.Equal(t, fiber.StatusOK, code)
	var q ListQuery
	require.NoError(t, json.Unmarshal(body.Data, &q))
	assert.Equal(t, "LECTURER", q.Role)
	assert.Equal(t, "ACTIVE", q.Status)
	assert.Equal(t, "go", q.Search)

	code, body = call(t, app, httptest.NewRequest(http.MethodGet, "/items?offset=-1", nil))
	assert.Equal(t, fiber.StatusUnprocessableEntity, code)
	assert.Contains(t, string(body.Data), "offset")
}

func mustJSON(t *testing.T, v interface{}) json.RawMessage {
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

type signup struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

func TestBodyReportsFieldErrors(t *testing.T) {
	app := fiber.New()
	app.Post("/signup", Body("req", func(r *signup) map[string]string {
		r.Email = strings.ToLower(strings.TrimSpace(r.Email))
		if r.Email == "taken@fillop.test" {
			return map[string]string{"email": "Email already in use!"}
		}
		return nil
	}), func(c *fiber.Ctx) error {
		return c.JSON(envelope{Status: true, Data: mustJSON(t, c.Locals("req"))})
	})

	post := func(body string) (int, envelope) {
		req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		return call(t, app, req)
	}

	code, body := post(`{"email":"nope","password":"123"}`)
	require.Equal(t, fiber.StatusUnprocessableEntity, code)
	var fields map[string]string
	require.NoError(t, json.Unmarshal(body.Data, &fields))
	assert.Equal(t, "Invalid email!", fields["email"])
	assert.Equal(t, "password must be at least 6 characters long!", fields["password"])

	code, body = post(`{"email":"taken@fillop.test","password":"secret123"}`)
	require.Equal(t, fiber.StatusUnprocessableEntity, code)
	assert.Contains(t, string(body.Data), "already in use")

	code, body = post(`{"email":" Ada@Fillop.test ","password":"secret123"}`)
	require.Equal(t, fiber.StatusOK, code)
	var got signup
	require.NoError(t, json.Unmarshal(body.Data, &got))
	assert.Equal(t, "ada@fillop.test", got.Email)

	code, _ = post(`{not json`)
	assert.Equal(t, fiber.StatusBadRequest, code)
}
