package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/Abdurahmanit/GroupProject/account-service/internal/entity"
	"github.com/Abdurahmanit/GroupProject/account-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/account-service/internal/repository"
	"github.com/Abdurahmanit/GroupProject/account-service/internal/usecase"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AccountService is the use case surface the HTTP handlers depend on.
type AccountService interface {
	EmailTaken(ctx context.Context, email string) (bool, error)
	Register(ctx context.Context, in usecase.RegisterInput) (*entity.Summary, error)
	Login(ctx context.Context, email, password string) (*usecase.LoginResult, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	GetProfile(ctx context.Context, userID string) (*entity.Profile, error)
	UpdateProfile(ctx context.Context, userID string, fields map[string]any) (*entity.Profile, error)
	Authenticate(ctx context.Context, token string) (*entity.Profile, error)
}

type UserHandler struct {
	svc    AccountService
	logger *logger.Logger
}

func NewUserHandler(svc AccountService, log *logger.Logger) *UserHandler {
	return &UserHandler{svc: svc, logger: log.Named("UserHTTPHandler")}
}

type registerResponse struct {
	Message string          `json:"message"`
	User    *entity.Summary `json:"user"`
}

type profileResponse struct {
	User *entity.Profile `json:"user"`
}

func (h *UserHandler) Root(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusOK, "hello world")
}

func (h *UserHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErrors(w, "Invalid request body.")
		return
	}
	req.sanitize()

	verrs := fieldErrors(&req)
	msgs := validationMessages(verrs)
	email := entity.NormalizeEmail(req.Email)
	if !failed(verrs, "Email") {
		taken, err := h.svc.EmailTaken(r.Context(), email)
		if err != nil {
			h.logger.Error("Failed to check email availability", zap.Error(err))
			writeServerError(w, "Server error during registration.", err)
			return
		}
		if taken {
			msgs = insertEmailTaken(msgs, failed(verrs, "Name"))
		}
	}
	if len(msgs) > 0 {
		writeErrors(w, msgs...)
		return
	}

	summary, err := h.svc.Register(r.Context(), usecase.RegisterInput{
		Name:     req.Name,
		Email:    email,
		Password: req.Password,
		Phone:    string(req.Phone),
		Address:  req.address(),
	})
	if err != nil {
		h.logger.Error("Failed to register user", zap.Error(err))
		writeServerError(w, "Server error during registration.", err)
		return
	}
	writeJSON(w, http.StatusCreated, registerResponse{Message: "User registered successfully. Welcome!", User: summary})
}

// insertEmailTaken puts the email-taken message where the email field's message would appear.
func insertEmailTaken(msgs []string, nameFailed bool) []string {
	pos := 0
	if nameFailed {
		pos = 1
	}
	out := make([]string, 0, len(msgs)+1)
	out = append(out, msgs[:pos]...)
	out = append(out, msgEmailTaken)
	return append(out, msgs[pos:]...)
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErrors(w, "Invalid request body.")
		return
	}
	if msgs := validationMessages(fieldErrors(&req)); len(msgs) > 0 {
		writeErrors(w, msgs...)
		return
	}

	res, err := h.svc.Login(r.Context(), entity.NormalizeEmail(req.Email), req.Password)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidCredentials) {
			writeInvalidCredentials(w)
			return
		}
		h.logger.Error("Login failed", zap.Error(err))
		writeServerError(w, "Server error during login.", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *UserHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErrors(w, "Invalid request body.")
		return
	}
	if msgs := validationMessages(fieldErrors(&req)); len(msgs) > 0 {
		writeErrors(w, msgs...)
		return
	}

	err := h.svc.ForgotPassword(r.Context(), entity.NormalizeEmail(req.Email))
	if err != nil {
		var dispatchErr *usecase.DispatchError
		if errors.As(err, &dispatchErr) {
			writeServerError(w, "Email could not be sent.", dispatchErr.Err)
			return
		}
		h.logger.Error("Forgot password failed", zap.Error(err))
		writeServerError(w, "Server error during password reset request.", err)
		return
	}
	writeResetRequested(w)
}

func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErrors(w, "Invalid request body.")
		return
	}
	if msgs := validationMessages(fieldErrors(&req)); len(msgs) > 0 {
		writeErrors(w, msgs...)
		return
	}

	err := h.svc.ResetPassword(r.Context(), chi.URLParam(r, "token"), req.Password)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidOrExpiredToken) {
			writeMessage(w, http.StatusBadRequest, "Password reset token is invalid or has expired.")
			return
		}
		h.logger.Error("Reset password failed", zap.Error(err))
		writeServerError(w, "Server error during password reset.", err)
		return
	}
	writeMessage(w, http.StatusOK, "Password reset successful. Please log in with your new password.")
}

func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, ok := ProfileFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, msgNoToken)
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{User: profile})
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	current, ok := ProfileFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, msgNoToken)
		return
	}

	var fields map[string]any
	if err := decodeJSON(w, r, &fields); err != nil || fields == nil {
		writeErrors(w, "Invalid request body.")
		return
	}

	profile, err := h.svc.UpdateProfile(r.Context(), current.ID, fields)
	if err != nil {
		var fieldErr *usecase.FieldValidationError
		switch {
		case errors.Is(err, usecase.ErrForbiddenFieldUpdate):
			writeMessage(w, http.StatusBadRequest, "Updating role, password, verification status or reset fields is not allowed.")
		case errors.As(err, &fieldErr):
			writeErrors(w, fieldErr.Message)
		case errors.Is(err, repository.ErrDuplicateKey):
			writeMessage(w, http.StatusBadRequest, msgEmailTaken)
		case errors.Is(err, usecase.ErrUserNotFound):
			writeMessage(w, http.StatusNotFound, "User not found.")
		default:
			h.logger.Error("Profile update failed", zap.String("userID", current.ID), zap.Error(err))
			writeServerError(w, "Server error during profile update.", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{User: profile})
}
