package video

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/pnithesh/viralvision-backend/internal/auth"
	"github.com/pnithesh/viralvision-backend/internal/video/entity"
	"github.com/pnithesh/viralvision-backend/pkg/utilities"
)

// Store is what the HTTP handler needs from the service.
type Store interface {
	List(ctx context.Context, ownerID string) ([]entity.Video, error)
	Get(ctx context.Context, ownerID string, id int64) (*entity.Video, error)
	Create(ctx context.Context, ownerID string, in CreateInput) (*entity.Video, error)
	Update(ctx context.Context, ownerID string, id int64, ch entity.Changes) (*entity.Video, error)
	Delete(ctx context.Context, ownerID string, id int64) error
}

// Handler serves /api/videos. Every route expects auth.RequireAuth upstream.
type Handler struct {
	svc    Store
	logger *zap.SugaredLogger
}

func NewHandler(svc Store, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// CreateRequest is the body of POST /api/videos/. avatarId is accepted as an
// alias of avatarUrl.
type CreateRequest struct {
	Title      string `json:"title"`
	VideoPath  string `json:"videoPath"`
	AvatarURL  string `json:"avatarUrl"`
	AvatarID   string `json:"avatarId"`
	AvatarName string `json:"avatarName"`
	Status     string `json:"status"`
}

// UpdateRequest is the body of PUT /api/videos/{id}. Absent fields keep
// their stored value.
type UpdateRequest struct {
	Title      *string `json:"title"`
	VideoPath  *string `json:"videoPath"`
	AvatarURL  *string `json:"avatarUrl"`
	AvatarID   *string `json:"avatarId"`
	AvatarName *string `json:"avatarName"`
	Status     *string `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	videos, err := h.svc.List(r.Context(), ownerID)
	if err != nil {
		h.logger.Errorw("list videos failed", "userId", ownerID, "err", err)
		utilities.WriteJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to fetch videos"})
		return
	}
	h.logger.Debugw("listed videos", "userId", ownerID, "count", len(videos))
	utilities.WriteJSON(w, http.StatusOK, videos)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	id, ok := videoID(r)
	if !ok {
		writeNotFound(w)
		return
	}
	v, err := h.svc.Get(r.Context(), ownerID, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeNotFound(w)
			return
		}
		h.logger.Errorw("get video failed", "userId", ownerID, "videoId", id, "err", err)
		utilities.WriteJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to fetch video"})
		return
	}
	utilities.WriteJSON(w, http.StatusOK, v)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	var req CreateRequest
	if err := utilities.DecodeJSON(w, r, &req); err != nil {
		h.logger.Debugw("invalid create video payload", "err", err)
		utilities.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}
	h.logger.Infow("create video request received", "userId", ownerID, "title", req.Title)

	avatar := req.AvatarURL
	if avatar == "" {
		avatar = req.AvatarID
	}
	v, err := h.svc.Create(r.Context(), ownerID, CreateInput{
		Title:      req.Title,
		VideoURI:   req.VideoPath,
		AvatarID:   avatar,
		AvatarName: req.AvatarName,
		Status:     req.Status,
	})
	if err != nil {
		if errors.Is(err, ErrValidation) {
			utilities.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		h.logger.Errorw("create video failed", "userId", ownerID, "err", err)
		utilities.WriteJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to create video"})
		return
	}
	utilities.WriteJSON(w, http.StatusCreated, v)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	id, ok := videoID(r)
	if !ok {
		writeNotFound(w)
		return
	}
	var req UpdateRequest
	if err := utilities.DecodeJSON(w, r, &req); err != nil {
		h.logger.Debugw("invalid update video payload", "err", err)
		utilities.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}

	avatar := req.AvatarURL
	if avatar == nil {
		avatar = req.AvatarID
	}
	v, err := h.svc.Update(r.Context(), ownerID, id, entity.Changes{
		Title:      req.Title,
		VideoURI:   req.VideoPath,
		AvatarID:   avatar,
		AvatarName: req.AvatarName,
		Status:     req.Status,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			writeNotFound(w)
		case errors.Is(err, ErrValidation):
			utilities.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		default:
			h.logger.Errorw("update video failed", "userId", ownerID, "videoId", id, "err", err)
			utilities.WriteJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to update video"})
		}
		return
	}
	utilities.WriteJSON(w, http.StatusOK, v)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	id, ok := videoID(r)
	if !ok {
		writeNotFound(w)
		return
	}
	if err := h.svc.Delete(r.Context(), ownerID, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			writeNotFound(w)
			return
		}
		h.logger.Errorw("delete video failed", "userId", ownerID, "videoId", id, "err", err)
		utilities.WriteJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to delete video"})
		return
	}
	h.logger.Infow("video deleted", "userId", ownerID, "videoId", id)
	utilities.WriteJSON(w, http.StatusOK, messageResponse{Message: "Video deleted successfully"})
}

// owner reads the caller's id set by auth.RequireAuth. A missing id means
// the route was mounted without the middleware.
func (h *Handler) owner(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utilities.WriteJSON(w, http.StatusUnauthorized, messageResponse{Message: "No token, authorization denied"})
		return "", false
	}
	return id, true
}

// videoID parses the {id} path parameter. Non-numeric ids cannot match any
// row and are reported as not found.
func videoID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func writeNotFound(w http.ResponseWriter) {
	utilities.WriteJSON(w, http.StatusNotFound, errorResponse{Error: "Video not found"})
}
