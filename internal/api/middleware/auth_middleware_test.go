package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/postloom/configs"
	"github.com/maheshrc27/postloom/internal/repository"
	"github.com/maheshrc27/postloom/pkg/utils"
)

func middlewareApp(t *testing.T, mock func(sqlmock.Sqlmock)) (*fiber.App, config.Config) {
	t.Helper()

	cfg := config.Config{
		SecretKey:  "0123456789abcdef0123456789abcdef",
		CookieName: "session",
	}

	db, sqlMock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	if mock != nil {
		mock(sqlMock)
	}

	m := NewAuthMiddleware(cfg, repository.NewUserRepository(db))

	app := fiber.New()
	app.Get("/whoami", m.AuthMiddleware(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user_id": c.Locals("user_id")})
	})
	return app, cfg
}

func TestAuthMiddlewareRejectsAnonymous(t *testing.T) {
	app, _ := middlewareApp(t, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/whoami", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestAuthMiddlewareAcceptsSessionCookie(t *testing.T) {
	app, cfg := middlewareApp(t, nil)

	token, err := utils.GenerateToken(cfg.SecretKey, "7", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: cfg.CookieName, Value: token})
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestAuthMiddlewareRejectsBadToken(t *testing.T) {
	app, cfg := middlewareApp(t, nil)

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: cfg.CookieName, Value: "not-a-jwt"})
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestAuthMiddlewareResolvesMemberID(t *testing.T) {
	app, _ := middlewareApp(t, func(mock sqlmock.Sqlmock) {
		mock.ExpectQuery("SELECT id, linkedin_id").
			WithArgs("li-1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "linkedin_id", "name", "email", "access_token"}).
				AddRow(7, "li-1", "Ada", "ada@example.com", "enc"))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/whoami?user_id=li-1", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestAuthMiddlewareUnknownMemberIs404(t *testing.T) {
	app, _ := middlewareApp(t, func(mock sqlmock.Sqlmock) {
		mock.ExpectQuery("SELECT id, linkedin_id").
			WithArgs("ghost").
			WillReturnRows(sqlmock.NewRows([]string{"id", "linkedin_id", "name", "email", "access_token"}))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/whoami?user_id=ghost", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
