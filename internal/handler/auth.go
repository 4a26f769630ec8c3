package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/hashicorp/go-hclog"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-review-api/internal/config"
	"github.com/iliyamo/movie-review-api/internal/middleware"
	"github.com/iliyamo/movie-review-api/internal/model"
	"github.com/iliyamo/movie-review-api/internal/repository"
	"github.com/iliyamo/movie-review-api/internal/utils"
)

// AuthHandler bundles dependencies for auth and profile endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  *repository.UserRepo
	Tokens *repository.TokenRepo
	Log    hclog.Logger
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo, logger hclog.Logger) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, Log: logger.Named("auth")}
}

// ----- DTOs -----

type registerReq struct {
	Username             string `json:"username" form:"username" validate:"required,max=50"`
	Email                string `json:"email" form:"email" validate:"required,email,max=100"`
	Password             string `json:"password" form:"password" validate:"required,min=6,eqfield=PasswordConfirmation"`
	PasswordConfirmation string `json:"password_confirmation" form:"password_confirmation"`
}

type loginReq struct {
	Email    string `json:"email" form:"email" validate:"required,email,max=100"`
	Password string `json:"password" form:"password" validate:"required"`
}

type profileReq struct {
	Username *string `json:"username" form:"username" validate:"omitnil,required,max=50"`
}

type changePasswordReq struct {
	CurrentPassword         string `json:"current_password" form:"current_password" validate:"required"`
	NewPassword             string `json:"new_password" form:"new_password" validate:"required,min=6,eqfield=NewPasswordConfirmation"`
	NewPasswordConfirmation string `json:"new_password_confirmation" form:"new_password_confirmation"`
}

type authResp struct {
	User  userResource `json:"user"`
	Token string       `json:"token"`
}

// issue signs a token for u and records its jti so it can be revoked.
func (h *AuthHandler) issue(ctx context.Context, u *model.User) (string, error) {
	tok, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role.String(), h.Cfg.AccessTTLMin)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	if err := h.Tokens.Store(ctx, u.ID, tok.ID, tok.Exp); err != nil {
		return "", fmt.Errorf("store token: %w", err)
	}
	return tok.Token, nil
}

// Register: create a regular user and return a token immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	ve, err := bindRequest(c, &req)
	if err != nil {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if req.Username != "" {
		taken, err := h.Users.UsernameTaken(ctx, req.Username, 0)
		if err != nil {
			return err
		}
		if taken {
			ve.Add("username", "The username has already been taken.")
		}
	}
	if req.Email != "" {
		taken, err := h.Users.EmailTaken(ctx, req.Email)
		if err != nil {
			return err
		}
		if taken {
			ve.Add("email", "The email has already been taken.")
		}
	}
	if !ve.Empty() {
		return ve
	}

	u, err := h.Users.Create(ctx, repository.NewUser{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     model.RoleUser,
	}, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// lost a race against a concurrent registration
			return invalid("email", "The username or email has already been taken.")
		}
		return err
	}

	token, err := h.issue(ctx, u)
	if err != nil {
		return err
	}
	h.Log.Info("user registered", "user_id", u.ID)
	return c.JSON(http.StatusCreated, authResp{User: newUserResource(u), Token: token})
}

// Login: verify credentials and return a fresh token.  Unknown email and
// wrong password are indistinguishable to the client.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	ve, err := bindRequest(c, &req)
	if err != nil {
		return err
	}
	if !ve.Empty() {
		return ve
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	if u == nil || !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return invalid("email", "The provided credentials are incorrect.")
	}

	token, err := h.issue(ctx, u)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, authResp{User: newUserResource(u), Token: token})
}

// Logout revokes only the token used for this request.
func (h *AuthHandler) Logout(c echo.Context) error {
	jti, ok := middleware.TokenID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthenticated.")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Tokens.Revoke(ctx, jti); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Logged out successfully."})
}

// currentUser loads the authenticated user.  A user deleted after the token
// was issued is treated as unauthenticated.
func (h *AuthHandler) currentUser(ctx context.Context, c echo.Context) (*model.User, error) {
	uid, ok := middleware.UserID(c)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Unauthenticated.")
	}
	u, err := h.Users.GetByID(ctx, uid)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Unauthenticated.")
	}
	return u, err
}

// User returns the authenticated user.
func (h *AuthHandler) User(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.currentUser(ctx, c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, single(newUserResource(u)))
}

// UpdateProfile changes the username.  The email is immutable and ignored
// when sent.
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	var req profileReq
	ve, err := bindRequest(c, &req)
	if err != nil {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.currentUser(ctx, c)
	if err != nil {
		return err
	}

	if req.Username == nil {
		ve.Add("general", "Provide at least one field to update (username).")
	} else if ve.Empty() {
		taken, err := h.Users.UsernameTaken(ctx, *req.Username, u.ID)
		if err != nil {
			return err
		}
		if taken {
			ve.Add("username", "The username has already been taken.")
		}
	}
	if !ve.Empty() {
		return ve
	}

	if err := h.Users.UpdateUsername(ctx, u.ID, *req.Username); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return invalid("username", "The username has already been taken.")
		}
		return err
	}
	fresh, err := h.Users.GetByID(ctx, u.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Profile updated successfully.",
		"user":    newUserResource(fresh),
	})
}

// ChangePassword replaces the password and revokes every token of the user,
// including the one used for this request.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req changePasswordReq
	ve, err := bindRequest(c, &req)
	if err != nil {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.currentUser(ctx, c)
	if err != nil {
		return err
	}
	if req.CurrentPassword != "" && !utils.VerifyPassword(u.PasswordHash, req.CurrentPassword) {
		ve.Add("current_password", "The current password is incorrect.")
	}
	if !ve.Empty() {
		return ve
	}

	if err := h.Users.UpdatePassword(ctx, u.ID, req.NewPassword, h.Cfg.BcryptCost); err != nil {
		return err
	}
	if err := h.Tokens.RevokeAllForUser(ctx, u.ID); err != nil {
		return err
	}
	h.Log.Info("password changed, tokens revoked", "user_id", u.ID)
	return c.JSON(http.StatusOK, echo.Map{"message": "Password changed successfully. Please log in again."})
}
