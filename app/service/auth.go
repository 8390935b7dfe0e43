package service

import (
	"bytes"
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/taskmaster-solutions/ms-go-tasks/app/dto"
	"github.com/taskmaster-solutions/ms-go-tasks/app/entity"
	"github.com/taskmaster-solutions/ms-go-tasks/app/repository"
	"github.com/taskmaster-solutions/ms-go-tasks/config"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPasswordMismatch   = errors.New("old password is incorrect")
	ErrInvalidResetLink   = errors.New("invalid reset link")
	ErrMailDelivery       = errors.New("failed to send email")
)

//go:embed templates/password_reset_email.html
var templateFS embed.FS

var resetEmailTmpl = template.Must(template.ParseFS(templateFS, "templates/password_reset_email.html"))

type resetEmailData struct {
	FirstName string
	Username  string
	ResetURL  string
}

type AuthService struct {
	db       *sql.DB
	userRepo *repository.UserRepository
	tokens   *TokenService
	mailer   Mailer
	cfg      *config.Config
}

func NewAuthService(
	db *sql.DB,
	userRepo *repository.UserRepository,
	tokens *TokenService,
	mailer Mailer,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		db:       db,
		userRepo: userRepo,
		tokens:   tokens,
		mailer:   mailer,
		cfg:      cfg,
	}
}

type RegisterParams struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

func (s *AuthService) Register(ctx context.Context, params RegisterParams) (*entity.User, error) {
	username := strings.TrimSpace(params.Username)
	email := strings.ToLower(strings.TrimSpace(params.Email))

	fields := ValidationErrors{}

	existing, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		fields["username"] = "a user with that username already exists"
	}

	existing, err = s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		fields["email"] = "a user with that email already exists"
	}

	if err := s.cfg.PasswordPolicy.Validate(params.Password); err != nil {
		fields["password"] = err.Error()
	}

	if len(fields) > 0 {
		return nil, fields
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &entity.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*dto.LoginResult, error) {
	user, err := s.userRepo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	access, refresh, err := s.tokens.IssuePair(ctx, user)
	if err != nil {
		return nil, err
	}

	return &dto.LoginResult{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         user,
	}, nil
}

func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*dto.RefreshResult, error) {
	access, refresh, err := s.tokens.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	return &dto.RefreshResult{
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

func (s *AuthService) Logout(ctx context.Context, userID uint64, refreshToken string) error {
	return s.tokens.Revoke(ctx, userID, refreshToken)
}

func (s *AuthService) Profile(ctx context.Context, userID uint64) (*entity.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

type UpdateProfileParams struct {
	Email     *string
	FirstName *string
	LastName  *string
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID uint64, params UpdateProfileParams) (*entity.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if params.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*params.Email))
		if email != user.Email {
			existing, err := s.userRepo.FindByEmail(ctx, email)
			if err != nil {
				return nil, err
			}
			if existing != nil && existing.ID != user.ID {
				return nil, ValidationErrors{"email": "a user with that email already exists"}
			}
			user.Email = email
		}
	}
	if params.FirstName != nil {
		user.FirstName = *params.FirstName
	}
	if params.LastName != nil {
		user.LastName = *params.LastName
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID uint64, oldPassword, newPassword string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return ErrPasswordMismatch
	}

	if err := s.cfg.PasswordPolicy.Validate(newPassword); err != nil {
		return ValidationErrors{"new_password": err.Error()}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user.PasswordHash = string(hashedPassword)
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	return s.tokens.RevokeAll(ctx, user.ID)
}

// RequestPasswordReset derives a reset token for the account behind the
// email and hands the rendered message to the mailer. The send is bounded
// by cfg.MailTimeout so slow SMTP transports cannot hang the request.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	token := s.tokens.MakeResetToken(user, time.Now())
	resetURL := fmt.Sprintf("%s/reset-password/%s/%s", strings.TrimRight(s.cfg.FrontendURL, "/"), EncodeUID(user.ID), token)

	var body bytes.Buffer
	if err := resetEmailTmpl.Execute(&body, resetEmailData{
		FirstName: user.FirstName,
		Username:  user.Username,
		ResetURL:  resetURL,
	}); err != nil {
		return err
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.cfg.MailTimeout)
	defer cancel()

	if err := s.mailer.Send(sendCtx, user.Email, "Reset your password - TaskMaster", body.String()); err != nil {
		return fmt.Errorf("%w: %v", ErrMailDelivery, err)
	}
	return nil
}

// ConfirmPasswordReset sets a new password if the uid/token pair checks
// out. Bad uid, unknown user, and bad or expired token all collapse into
// ErrInvalidResetLink.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, uid, token, newPassword string) error {
	userID, err := DecodeUID(uid)
	if err != nil {
		return ErrInvalidResetLink
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrInvalidResetLink
	}

	if !s.tokens.CheckResetToken(user, token, time.Now()) {
		return ErrInvalidResetLink
	}

	if err := s.cfg.PasswordPolicy.Validate(newPassword); err != nil {
		return ValidationErrors{"new_password": err.Error()}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user.PasswordHash = string(hashedPassword)
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	return s.tokens.RevokeAll(ctx, user.ID)
}
