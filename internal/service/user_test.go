package service

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/apnisec/backend/internal/apperr"
	"github.com/apnisec/backend/internal/model"
)

func seedUser(t *testing.T, store *fakeUserStore, email, password string) *model.User {
	t.Helper()
	hash, err := NewPasswordService(bcrypt.MinCost).Hash(password)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	user, err := store.CreateUser(context.Background(), "user-"+email, email, hash, nil, model.RoleUser)
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	return user
}

func newTestUserService(store *fakeUserStore) *UserService {
	return NewUserService(store, NewPasswordService(bcrypt.MinCost), zap.NewNop())
}

func TestGetProfileUnknownUser(t *testing.T) {
	svc := newTestUserService(newFakeUserStore())

	if _, err := svc.GetProfile(context.Background(), "missing"); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateProfileEmailConflict(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestUserService(store)
	ctx := context.Background()

	user := seedUser(t, store, "a@b.com", "Passw0rd")
	seedUser(t, store, "taken@b.com", "Passw0rd")

	taken := "taken@b.com"
	_, err := svc.UpdateProfile(ctx, user.ID, model.UpdateProfileRequest{Email: &taken})
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	fresh := "fresh@b.com"
	updated, err := svc.UpdateProfile(ctx, user.ID, model.UpdateProfileRequest{Email: &fresh})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Email != fresh {
		t.Fatalf("email not updated: %+v", updated)
	}
}

func TestUpdateProfileValidation(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestUserService(store)
	user := seedUser(t, store, "a@b.com", "Passw0rd")

	if _, err := svc.UpdateProfile(context.Background(), user.ID, model.UpdateProfileRequest{}); !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("empty update must be rejected, got %v", err)
	}

	bad := "x"
	if _, err := svc.UpdateProfile(context.Background(), user.ID, model.UpdateProfileRequest{Name: &bad}); !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("one-character name must be rejected, got %v", err)
	}

	// One multibyte character is two bytes but still one character.
	multibyte := "ñ"
	if _, err := svc.UpdateProfile(context.Background(), user.ID, model.UpdateProfileRequest{Name: &multibyte}); !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("one-character multibyte name must be rejected, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestUserService(store)
	ctx := context.Background()

	user := seedUser(t, store, "a@b.com", "Passw0rd")

	if err := svc.ChangePassword(ctx, user.ID, "WrongOld1", "NewPassw0rd"); !apperr.IsKind(err, apperr.KindAuthentication) {
		t.Fatalf("wrong old password must be rejected, got %v", err)
	}
	if err := svc.ChangePassword(ctx, user.ID, "Passw0rd", "short"); !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("short new password must be rejected, got %v", err)
	}
	if err := svc.ChangePassword(ctx, user.ID, "Passw0rd", strings.Repeat("a", 100)); !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("overlong new password must be rejected, got %v", err)
	}
	if err := svc.ChangePassword(ctx, user.ID, "Passw0rd", "NewPassw0rd"); err != nil {
		t.Fatalf("change password failed: %v", err)
	}

	// Old password no longer works, new one does.
	passwords := NewPasswordService(bcrypt.MinCost)
	stored, _ := store.GetUserByID(ctx, user.ID)
	if passwords.Verify("Passw0rd", stored.PasswordHash) {
		t.Fatalf("old password still verifies")
	}
	if !passwords.Verify("NewPassw0rd", stored.PasswordHash) {
		t.Fatalf("new password does not verify")
	}
}
