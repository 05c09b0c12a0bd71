package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vibast-solutions/ms-go-booking/app/entity"
	"github.com/vibast-solutions/ms-go-booking/app/middleware"
	"github.com/vibast-solutions/ms-go-booking/app/service"
	"github.com/vibast-solutions/ms-go-booking/app/token"

	"github.com/labstack/echo/v4"
)

type fakeAuthenticator struct {
	tokens map[string]*entity.Account
	err    error
}

func (f *fakeAuthenticator) Authenticate(_ context.Context, tokenString string) (*entity.Account, error) {
	if f.err != nil {
		return nil, f.err
	}
	account, ok := f.tokens[tokenString]
	if !ok {
		return nil, token.ErrInvalid
	}
	return account, nil
}

func serve(t *testing.T, auth *fakeAuthenticator, header string, next echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/graphql", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)

	handler := middleware.NewAuthMiddleware(auth).Authenticate(next)
	if err := handler(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec
}

func TestAuthenticate_AnonymousWithoutHeader(t *testing.T) {
	rec := serve(t, &fakeAuthenticator{}, "", func(c echo.Context) error {
		if caller := middleware.CallerFromContext(c.Request().Context()); caller != nil {
			t.Fatalf("expected anonymous request, got %+v", caller)
		}
		return c.NoContent(http.StatusOK)
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}

func TestAuthenticate_InvalidHeaderFormat(t *testing.T) {
	rec := serve(t, &fakeAuthenticator{}, "Token abc", func(c echo.Context) error {
		t.Fatalf("handler should not run")
		return nil
	})

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestAuthenticate_RejectedToken(t *testing.T) {
	for _, err := range []error{token.ErrInvalid, token.ErrExpired, service.ErrAccountNotFound} {
		rec := serve(t, &fakeAuthenticator{err: err}, "Bearer abc", func(c echo.Context) error {
			t.Fatalf("handler should not run")
			return nil
		})

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%v: expected status 401, got %d", err, rec.Code)
		}
	}
}

func TestAuthenticate_StoreFailure(t *testing.T) {
	rec := serve(t, &fakeAuthenticator{err: errors.New("db down")}, "Bearer abc", func(c echo.Context) error {
		t.Fatalf("handler should not run")
		return nil
	})

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
}

func TestAuthenticate_SetsCaller(t *testing.T) {
	account := &entity.Account{ID: 7, Email: "jane@example.com", IsActive: true}
	auth := &fakeAuthenticator{tokens: map[string]*entity.Account{"good": account}}

	rec := serve(t, auth, "bearer good", func(c echo.Context) error {
		if got := middleware.CallerFromContext(c.Request().Context()); got != account {
			t.Fatalf("expected caller in request context, got %+v", got)
		}
		if got, ok := c.Get(middleware.ContextKeyCaller).(*entity.Account); !ok || got.ID != 7 {
			t.Fatalf("expected caller in echo context, got %v", c.Get(middleware.ContextKeyCaller))
		}
		return c.NoContent(http.StatusOK)
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}

func TestBearerToken(t *testing.T) {
	if tok, ok := middleware.BearerToken("Bearer abc.def"); !ok || tok != "abc.def" {
		t.Fatalf("unexpected result %q %v", tok, ok)
	}
	if _, ok := middleware.BearerToken("Bearer"); ok {
		t.Fatalf("expected missing token to be rejected")
	}
}
