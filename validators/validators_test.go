package validators

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name" validate:"required,notblank"`
	Email string `json:"email" validate:"required,email"`
}

func TestErrors_UsesJSONNames(t *testing.T) {
	errs := Errors(&sample{Name: "   ", Email: "nope"})
	require.Len(t, errs, 2)
	assert.Equal(t, "this field cannot be blank", errs["name"])
	assert.Contains(t, errs["email"], "valid email")

	assert.Nil(t, Errors(&sample{Name: "Ada", Email: "ada@example.com"}))
}

func TestBody_StoresValidatedRequest(t *testing.T) {
	app := fiber.New()
	app.Post("/", Body[sample]("req"), func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("req").(*sample).Name)
	})

	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"Ada","email":"ada@example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)

	req = httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"Ada"}`))
	req.Header.Set("Content-Type", "application/json")
	res, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnprocessableEntity, res.StatusCode)
}

func TestID(t *testing.T) {
	app := fiber.New()
	app.Get("/:id", ID("id", "id"), func(c *fiber.Ctx) error {
		return c.JSON(c.Locals("id").(uint))
	})

	for path, want := range map[string]int{"/12": 200, "/0": 400, "/-3": 400, "/abc": 400} {
		res, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
		assert.Equal(t, want, res.StatusCode, path)
	}
}

func TestSingleLine(t *testing.T) {
	type titled struct {
		Title string `json:"title" validate:"required,notblank,singleline"`
	}

	assert.Nil(t, Errors(&titled{Title: "Intro to Go"}))
	for _, bad := range []string{"Go\r\nBcc: x@example.com", "Go\nMore", "Go\x00"} {
		errs := Errors(&titled{Title: bad})
		require.Len(t, errs, 1, bad)
		assert.Contains(t, errs["title"], "line breaks")
	}
}
