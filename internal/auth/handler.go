package auth

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/pnithesh/viralvision-backend/internal/user/entity"
	"github.com/pnithesh/viralvision-backend/pkg/utilities"
)

// Authenticator is what the HTTP handler needs from the service.
type Authenticator interface {
	Register(ctx context.Context, email, password, businessName string) (*Session, error)
	Login(ctx context.Context, email, password string) (*Session, error)
}

// Handler exposes HTTP endpoints for register / login.
type Handler struct {
	svc    Authenticator
	logger *zap.SugaredLogger
}

func NewHandler(svc Authenticator, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// RegisterRequest request body for register endpoint.
type RegisterRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	BusinessName string `json:"businessName"`
}

// LoginRequest login payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse is returned by both register and login.
type SessionResponse struct {
	Token string         `json:"token"`
	User  entity.Profile `json:"user"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := utilities.DecodeJSON(w, r, &req); err != nil {
		h.logger.Debugw("invalid register payload", "err", err)
		utilities.WriteJSON(w, http.StatusBadRequest, messageResponse{Message: "Invalid request body"})
		return
	}
	h.logger.Infow("register request received", "email", req.Email, "businessName", req.BusinessName)

	sess, err := h.svc.Register(r.Context(), req.Email, req.Password, req.BusinessName)
	if err != nil {
		switch {
		case errors.Is(err, ErrPasswordTooLong):
			utilities.WriteJSON(w, http.StatusBadRequest, messageResponse{Message: "Password must be at most 72 bytes"})
		case errors.Is(err, ErrValidation):
			utilities.WriteJSON(w, http.StatusBadRequest, messageResponse{Message: "Email and password are required"})
		case errors.Is(err, ErrDuplicateUser):
			h.logger.Infow("register duplicate email", "email", req.Email)
			utilities.WriteJSON(w, http.StatusBadRequest, messageResponse{Message: "User already exists"})
		default:
			h.logger.Errorw("register failed", "email", req.Email, "err", err)
			utilities.WriteJSON(w, http.StatusInternalServerError, messageResponse{Message: "Server error"})
		}
		return
	}

	h.logger.Infow("user registered", "userId", sess.User.ID)
	utilities.WriteJSON(w, http.StatusCreated, SessionResponse{Token: sess.Token, User: sess.User})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := utilities.DecodeJSON(w, r, &req); err != nil {
		h.logger.Debugw("invalid login payload", "err", err)
		utilities.WriteJSON(w, http.StatusBadRequest, messageResponse{Message: "Invalid request body"})
		return
	}
	h.logger.Infow("login request received", "email", req.Email)

	sess, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			h.logger.Debugw("login rejected", "email", req.Email)
			utilities.WriteJSON(w, http.StatusBadRequest, messageResponse{Message: "Invalid email or password"})
			return
		}
		h.logger.Errorw("login failed", "email", req.Email, "err", err)
		utilities.WriteJSON(w, http.StatusInternalServerError, messageResponse{Message: "Server error"})
		return
	}

	utilities.WriteJSON(w, http.StatusOK, SessionResponse{Token: sess.Token, User: sess.User})
}
