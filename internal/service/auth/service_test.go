package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oculomed/glauco-api/internal/model"
	jwtauth "github.com/oculomed/glauco-api/pkg/auth"
	"github.com/oculomed/glauco-api/pkg/logger"
)

type fakeUserRepo struct {
	users map[string]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	user.ID = uuid.New()
	f.users[user.Email] = user
	return nil
}

func (f *fakeUserRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, fmt.Errorf("user %s not found", id)
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	if u, ok := f.users[email]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("user %s not found", email)
}

func (f *fakeUserRepo) Update(_ context.Context, user *model.User) error {
	f.users[user.Email] = user
	return nil
}

type fakePatientRepo struct {
	created []*model.Patient
}

func (f *fakePatientRepo) Create(_ context.Context, p *model.Patient) error {
	p.ID = uuid.New()
	f.created = append(f.created, p)
	return nil
}

func (f *fakePatientRepo) Get(context.Context, uuid.UUID) (*model.Patient, error) {
	return nil, fmt.Errorf("not implemented")
}

func (f *fakePatientRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*model.Patient, error) {
	for _, p := range f.created {
		if p.UserID == userID {
			return p, nil
		}
	}
	return nil, fmt.Errorf("patient for user %s not found", userID)
}

func (f *fakePatientRepo) Update(context.Context, *model.Patient) error { return nil }

type fakeResetRepo struct {
	tokens map[string]*model.PasswordResetToken
}

func newFakeResetRepo() *fakeResetRepo {
	return &fakeResetRepo{tokens: make(map[string]*model.PasswordResetToken)}
}

func (f *fakeResetRepo) Create(_ context.Context, token *model.PasswordResetToken) error {
	token.ID = uuid.New()
	f.tokens[token.Token] = token
	return nil
}

func (f *fakeResetRepo) GetByToken(_ context.Context, token string) (*model.PasswordResetToken, error) {
	if t, ok := f.tokens[token]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("token not found")
}

func (f *fakeResetRepo) MarkUsed(_ context.Context, id uuid.UUID) error {
	now := time.Now()
	for _, t := range f.tokens {
		if t.ID == id {
			t.UsedAt = &now
		}
	}
	return nil
}

type fakeEmailService struct {
	resetTokens []string
}

func (f *fakeEmailService) SendPasswordReset(_ context.Context, _, token string) error {
	f.resetTokens = append(f.resetTokens, token)
	return nil
}

func (f *fakeEmailService) SendRescheduleAck(context.Context, string, string, string) error {
	return nil
}

func (f *fakeEmailService) SendCustom(context.Context, string, string, string) error { return nil }

func newTestService(users *fakeUserRepo, patients *fakePatientRepo, resets *fakeResetRepo, emails *fakeEmailService) *Service {
	jwtSvc := jwtauth.NewJWTService(jwtauth.JWTConfig{
		Secret:        "test-secret",
		RefreshSecret: "test-refresh-secret",
	})
	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel})
	return NewService(users, patients, resets, jwtSvc, emails, log)
}

func register(t *testing.T, svc *Service) *model.User {
	t.Helper()
	user, err := svc.Register(context.Background(), &model.RegisterRequest{
		Email:     "patient@example.com",
		Password:  "correct-horse",
		FirstName: "Ploy",
		LastName:  "Srisuwan",
	})
	require.NoError(t, err)
	return user
}

func TestRegisterCreatesUserAndProfile(t *testing.T) {
	users := newFakeUserRepo()
	patients := &fakePatientRepo{}
	svc := newTestService(users, patients, newFakeResetRepo(), &fakeEmailService{})

	user := register(t, svc)

	assert.Equal(t, model.UserStatusActive, user.Status)
	assert.NotEqual(t, "correct-horse", user.PasswordHash)
	require.Len(t, patients.created, 1)
	assert.Equal(t, user.ID, patients.created[0].UserID)

	_, err := svc.Register(context.Background(), &model.RegisterRequest{
		Email:    "patient@example.com",
		Password: "another-pass",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLoginSuccessReturnsTokenPair(t *testing.T) {
	users := newFakeUserRepo()
	svc := newTestService(users, &fakePatientRepo{}, newFakeResetRepo(), &fakeEmailService{})
	register(t, svc)

	tokens, err := svc.Login(context.Background(), "patient@example.com", "correct-horse")
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
}

func TestLoginLocksAfterRepeatedFailures(t *testing.T) {
	users := newFakeUserRepo()
	svc := newTestService(users, &fakePatientRepo{}, newFakeResetRepo(), &fakeEmailService{})
	register(t, svc)

	for i := 0; i < maxLoginAttempts; i++ {
		_, err := svc.Login(context.Background(), "patient@example.com", "wrong-password")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}

	// Even the right password is rejected while locked.
	_, err := svc.Login(context.Background(), "patient@example.com", "correct-horse")
	assert.ErrorIs(t, err, ErrAccountLocked)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := newTestService(newFakeUserRepo(), &fakePatientRepo{}, newFakeResetRepo(), &fakeEmailService{})

	_, err := svc.Login(context.Background(), "nobody@example.com", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestForgotPasswordSilentForUnknownEmail(t *testing.T) {
	emails := &fakeEmailService{}
	svc := newTestService(newFakeUserRepo(), &fakePatientRepo{}, newFakeResetRepo(), emails)

	require.NoError(t, svc.ForgotPassword(context.Background(), "nobody@example.com"))
	assert.Empty(t, emails.resetTokens)
}

func TestResetPasswordFlow(t *testing.T) {
	users := newFakeUserRepo()
	resets := newFakeResetRepo()
	emails := &fakeEmailService{}
	svc := newTestService(users, &fakePatientRepo{}, resets, emails)
	register(t, svc)

	require.NoError(t, svc.ForgotPassword(context.Background(), "patient@example.com"))
	require.Len(t, emails.resetTokens, 1)
	token := emails.resetTokens[0]

	require.NoError(t, svc.ResetPassword(context.Background(), token, "new-password"))

	_, err := svc.Login(context.Background(), "patient@example.com", "new-password")
	require.NoError(t, err)

	// A used token cannot be replayed.
	err = svc.ResetPassword(context.Background(), token, "third-password")
	assert.ErrorIs(t, err, ErrInvalidResetToken)
}

func TestResetPasswordUnlocksAccount(t *testing.T) {
	users := newFakeUserRepo()
	resets := newFakeResetRepo()
	emails := &fakeEmailService{}
	svc := newTestService(users, &fakePatientRepo{}, resets, emails)
	register(t, svc)

	for i := 0; i < maxLoginAttempts; i++ {
		_, _ = svc.Login(context.Background(), "patient@example.com", "wrong-password")
	}

	require.NoError(t, svc.ForgotPassword(context.Background(), "patient@example.com"))
	require.NoError(t, svc.ResetPassword(context.Background(), emails.resetTokens[0], "new-password"))

	_, err := svc.Login(context.Background(), "patient@example.com", "new-password")
	require.NoError(t, err, "reset clears the lockout")
}
