package controller

import (
	"errors"
	"net/http"

	dto "github.com/taskmaster-solutions/ms-go-tasks/app/dto/http"
	"github.com/taskmaster-solutions/ms-go-tasks/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type AuthController struct {
	authService *service.AuthService
}

func NewAuthController(authService *service.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

func (c *AuthController) Register(ctx echo.Context) error {
	var req dto.RegisterRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind register request")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}
	if err := ctx.Validate(&req); err != nil {
		logrus.WithField("username", req.Username).Debug("Register validation failed")
		return validationJSON(ctx, err)
	}

	logrus.WithField("username", req.Username).Info("Register request received")
	_, err := c.authService.Register(ctx.Request().Context(), service.RegisterParams{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		var fields service.ValidationErrors
		if errors.As(err, &fields) {
			logrus.WithField("username", req.Username).Warn("Register failed: validation")
			return ctx.JSON(http.StatusBadRequest, dto.ValidationErrorResponse{Errors: fields})
		}
		logrus.WithError(err).WithField("username", req.Username).Error("Register failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	logrus.WithField("username", req.Username).Info("User registered")
	return ctx.JSON(http.StatusCreated, dto.RegisterResponse{Message: "User registered successfully"})
}

func (c *AuthController) Token(ctx echo.Context) error {
	var req dto.LoginRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind login request")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}
	if err := ctx.Validate(&req); err != nil {
		logrus.WithField("username", req.Username).Debug("Login validation failed")
		return validationJSON(ctx, err)
	}

	result, err := c.authService.Login(ctx.Request().Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			logrus.WithField("username", req.Username).Warn("Login failed: invalid credentials")
			return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid credentials"})
		}
		logrus.WithError(err).WithField("username", req.Username).Error("Login failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	logrus.WithField("username", req.Username).Info("Login successful")
	return ctx.JSON(http.StatusOK, dto.TokenResponse{
		Access:  result.AccessToken,
		Refresh: result.RefreshToken,
		User:    dto.NewUserResponse(result.User),
	})
}

func (c *AuthController) RefreshToken(ctx echo.Context) error {
	var req dto.RefreshTokenRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind refresh token request")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}
	if err := ctx.Validate(&req); err != nil {
		logrus.Debug("Refresh token validation failed")
		return validationJSON(ctx, err)
	}

	result, err := c.authService.RefreshToken(ctx.Request().Context(), req.Refresh)
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			logrus.Warn("Refresh token failed: invalid or expired token")
			return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid or expired refresh token"})
		}
		logrus.WithError(err).Error("Refresh token failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, dto.RefreshTokenResponse{
		Access:  result.AccessToken,
		Refresh: result.RefreshToken,
	})
}

func (c *AuthController) Logout(ctx echo.Context) error {
	var req dto.LogoutRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind logout request")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}
	if err := ctx.Validate(&req); err != nil {
		logrus.Debug("Logout validation failed")
		return validationJSON(ctx, err)
	}

	userID, ok := ctx.Get("user_id").(uint64)
	if !ok {
		logrus.Warn("Logout failed: missing user_id in context")
		return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "unauthorized"})
	}

	if err := c.authService.Logout(ctx.Request().Context(), userID, req.Refresh); err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			logrus.WithField("user_id", userID).Warn("Logout failed: invalid refresh token")
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid refresh token"})
		}
		logrus.WithError(err).WithField("user_id", userID).Error("Logout failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	logrus.WithField("user_id", userID).Info("Logout successful")
	return ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "logged out successfully"})
}

func (c *AuthController) Profile(ctx echo.Context) error {
	userID, ok := ctx.Get("user_id").(uint64)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "unauthorized"})
	}

	user, err := c.authService.Profile(ctx.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			logrus.WithField("user_id", userID).Warn("Profile failed: user not found")
			return ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "user not found"})
		}
		logrus.WithError(err).WithField("user_id", userID).Error("Profile failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, dto.NewUserResponse(user))
}

func (c *AuthController) UpdateProfile(ctx echo.Context) error {
	var req dto.UpdateProfileRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind update profile request")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}
	if err := ctx.Validate(&req); err != nil {
		logrus.Debug("Update profile validation failed")
		return validationJSON(ctx, err)
	}

	userID, ok := ctx.Get("user_id").(uint64)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "unauthorized"})
	}

	user, err := c.authService.UpdateProfile(ctx.Request().Context(), userID, service.UpdateProfileParams{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		var fields service.ValidationErrors
		if errors.As(err, &fields) {
			logrus.WithField("user_id", userID).Warn("Update profile failed: validation")
			return ctx.JSON(http.StatusBadRequest, dto.ValidationErrorResponse{Errors: fields})
		}
		if errors.Is(err, service.ErrUserNotFound) {
			logrus.WithField("user_id", userID).Warn("Update profile failed: user not found")
			return ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "user not found"})
		}
		logrus.WithError(err).WithField("user_id", userID).Error("Update profile failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	logrus.WithField("user_id", userID).Info("Profile updated")
	return ctx.JSON(http.StatusOK, dto.NewUserResponse(user))
}

func (c *AuthController) ChangePassword(ctx echo.Context) error {
	var req dto.ChangePasswordRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind change password request")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}
	if err := ctx.Validate(&req); err != nil {
		logrus.Debug("Change password validation failed")
		return validationJSON(ctx, err)
	}

	userID, ok := ctx.Get("user_id").(uint64)
	if !ok {
		logrus.Warn("Change password failed: missing user_id in context")
		return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "unauthorized"})
	}

	err := c.authService.ChangePassword(ctx.Request().Context(), userID, req.OldPassword, req.NewPassword)
	if err != nil {
		var fields service.ValidationErrors
		if errors.As(err, &fields) {
			logrus.WithField("user_id", userID).Warn("Change password failed: weak password")
			return ctx.JSON(http.StatusBadRequest, dto.ValidationErrorResponse{Errors: fields})
		}
		if errors.Is(err, service.ErrPasswordMismatch) {
			logrus.WithField("user_id", userID).Warn("Change password failed: old password mismatch")
			return ctx.JSON(http.StatusBadRequest, dto.ValidationErrorResponse{
				Errors: map[string]string{"old_password": "wrong password"},
			})
		}
		if errors.Is(err, service.ErrUserNotFound) {
			logrus.WithField("user_id", userID).Warn("Change password failed: user not found")
			return ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "user not found"})
		}
		logrus.WithError(err).WithField("user_id", userID).Error("Change password failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	logrus.WithField("user_id", userID).Info("Password changed")
	return ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "Password updated successfully"})
}

func (c *AuthController) RequestPasswordReset(ctx echo.Context) error {
	var req dto.PasswordResetRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind password reset request")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}
	if err := ctx.Validate(&req); err != nil {
		logrus.Debug("Password reset validation failed")
		return validationJSON(ctx, err)
	}

	logrus.WithField("email", req.Email).Info("Password reset requested")
	err := c.authService.RequestPasswordReset(ctx.Request().Context(), req.Email)
	if err != nil {
		// Unknown addresses get the same response as known ones so the
		// endpoint cannot be used to probe for accounts.
		if errors.Is(err, service.ErrUserNotFound) {
			logrus.WithField("email", req.Email).Debug("Password reset requested for unknown email")
			return ctx.JSON(http.StatusOK, dto.MessageResponse{
				Message: "If an account with this email exists, you will receive reset instructions",
			})
		}
		if errors.Is(err, service.ErrMailDelivery) {
			logrus.WithError(err).WithField("email", req.Email).Error("Password reset email delivery failed")
			return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to send email, please try again later"})
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Request password reset failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	logrus.WithField("email", req.Email).Info("Password reset email sent")
	return ctx.JSON(http.StatusOK, dto.MessageResponse{
		Message: "If an account with this email exists, you will receive reset instructions",
	})
}

func (c *AuthController) ConfirmPasswordReset(ctx echo.Context) error {
	var req dto.PasswordResetConfirmRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind password reset confirm request")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}
	if err := ctx.Validate(&req); err != nil {
		logrus.Debug("Password reset confirm validation failed")
		return validationJSON(ctx, err)
	}

	uid := ctx.Param("uid")
	token := ctx.Param("token")

	err := c.authService.ConfirmPasswordReset(ctx.Request().Context(), uid, token, req.NewPassword)
	if err != nil {
		if errors.Is(err, service.ErrInvalidResetLink) {
			logrus.Warn("Password reset confirm failed: invalid link")
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid reset link"})
		}
		var fields service.ValidationErrors
		if errors.As(err, &fields) {
			logrus.Warn("Password reset confirm failed: weak password")
			return ctx.JSON(http.StatusBadRequest, dto.ValidationErrorResponse{Errors: fields})
		}
		logrus.WithError(err).Error("Password reset confirm failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	logrus.Info("Password reset successful")
	return ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "Password has been reset"})
}

// validationJSON writes c.Validate failures as a per-field error map.
func validationJSON(ctx echo.Context, err error) error {
	var fields service.ValidationErrors
	if errors.As(err, &fields) {
		return ctx.JSON(http.StatusBadRequest, dto.ValidationErrorResponse{Errors: fields})
	}
	return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
}
