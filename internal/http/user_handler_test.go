package http

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"staff-directory/internal/domain"
	"staff-directory/internal/service"
)

func adminTestToken(t *testing.T) string {
	t.Helper()
	tokens := service.NewTokenService("secret", time.Hour)
	return issueTestToken(t, tokens, domain.RoleAdmin)
}

func TestUserHandlerCreateUser_InvitedWithoutPassword(t *testing.T) {
	repo := newMockUserRepo()
	sender := &mockEmailSender{}
	r := newTestRouter(t, repo, sender)
	token := adminTestToken(t)

	rec := doJSON(t, r, http.MethodPost, "/users", token, gin.H{
		"name":     "Bob",
		"email":    "bob@example.com",
		"username": "bob",
		"role":     "user",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if sender.lastTo != "bob@example.com" || len(sender.lastCode) != 6 {
		t.Fatalf("expected 6-digit code emailed, got to=%q code=%q", sender.lastTo, sender.lastCode)
	}

	created, err := repo.GetByUsername(context.Background(), "bob")
	if err != nil {
		t.Fatalf("get created user: %v", err)
	}
	if created.PasswordHash != "" || created.SecureCodeHash == "" || !created.IsFirstLogin {
		t.Fatalf("expected invited account without password, got %+v", created)
	}
}

func TestUserHandlerCreateUser_DuplicateEmail(t *testing.T) {
	repo := newMockUserRepo()
	seedActiveUser(t, repo, "Correct1!")
	r := newTestRouter(t, repo, &mockEmailSender{})
	token := adminTestToken(t)

	rec := doJSON(t, r, http.MethodPost, "/users", token, gin.H{
		"name":     "Impostor",
		"email":    "alice@example.com",
		"username": "impostor",
		"role":     "user",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestUserHandlerRoutes_RejectNonAdminRole(t *testing.T) {
	repo := newMockUserRepo()
	r := newTestRouter(t, repo, &mockEmailSender{})
	tokens := service.NewTokenService("secret", time.Hour)
	token := issueTestToken(t, tokens, domain.RoleUser)

	rec := doJSON(t, r, http.MethodGet, "/users", token, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for user role, got %d", rec.Code)
	}
}

func TestUserHandlerChangePassword(t *testing.T) {
	repo := newMockUserRepo()
	seedActiveUser(t, repo, "Correct1!")
	r := newTestRouter(t, repo, &mockEmailSender{})
	token := adminTestToken(t)

	rec := doJSON(t, r, http.MethodPatch, "/users/u1/change-password", token, gin.H{
		"currentPassword": "Wrong1!",
		"newPassword":     "Updated1!",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 on wrong current password, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, r, http.MethodPatch, "/users/u1/change-password", token, gin.H{
		"currentPassword": "Correct1!",
		"newPassword":     "Updated1!",
	})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}

	login := doJSON(t, r, http.MethodPost, "/auth/login", "", gin.H{
		"username": "alice",
		"password": "Updated1!",
	})
	if login.Code != http.StatusOK {
		t.Fatalf("expected login with new password, got %d: %s", login.Code, login.Body.String())
	}
}

func TestUserHandlerDeactivate_BlocksLogin(t *testing.T) {
	repo := newMockUserRepo()
	seedActiveUser(t, repo, "Correct1!")
	r := newTestRouter(t, repo, &mockEmailSender{})
	token := adminTestToken(t)

	rec := doJSON(t, r, http.MethodPatch, "/users/u1/deactivate", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	login := doJSON(t, r, http.MethodPost, "/auth/login", "", gin.H{
		"username": "alice",
		"password": "Correct1!",
	})
	if login.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for inactive user, got %d", login.Code)
	}

	rec = doJSON(t, r, http.MethodPatch, "/users/u1/activate", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on activate, got %d", rec.Code)
	}
	login = doJSON(t, r, http.MethodPost, "/auth/login", "", gin.H{
		"username": "alice",
		"password": "Correct1!",
	})
	if login.Code != http.StatusOK {
		t.Fatalf("expected login after reactivation, got %d", login.Code)
	}
}

func TestUserHandlerRemoveUser(t *testing.T) {
	repo := newMockUserRepo()
	seedActiveUser(t, repo, "Correct1!")
	r := newTestRouter(t, repo, &mockEmailSender{})
	token := adminTestToken(t)

	rec := doJSON(t, r, http.MethodDelete, "/users/u1", token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, r, http.MethodGet, "/users/u1", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d: %s", rec.Code, rec.Body.String())
	}
}
