package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paginationFor(t *testing.T, target string) Pagination {
	t.Helper()

	app := fiber.New()
	var got Pagination
	app.Get("/", func(c *fiber.Ctx) error {
		got = ParsePagination(c)
		return nil
	})

	_, err := app.Test(httptest.NewRequest("GET", target, nil))
	require.NoError(t, err)
	return got
}

func TestParsePaginationDefaults(t *testing.T) {
	got := paginationFor(t, "/")
	assert.Equal(t, Pagination{Page: 1, Limit: 20, Offset: 0}, got)
}

func TestParsePaginationOffset(t *testing.T) {
	got := paginationFor(t, "/?page=3&limit=10")
	assert.Equal(t, Pagination{Page: 3, Limit: 10, Offset: 20}, got)
}

func TestParsePaginationClampsLimit(t *testing.T) {
	got := paginationFor(t, "/?page=2&limit=500")
	assert.Equal(t, Pagination{Page: 2, Limit: 100, Offset: 100}, got)
}

func TestParsePaginationRejectsNonsense(t *testing.T) {
	got := paginationFor(t, "/?page=-4&limit=abc")
	assert.Equal(t, Pagination{Page: 1, Limit: 20, Offset: 0}, got)
}
