// Package rest exposes the directory administration and history-fetch
// endpoints the routing core's collaborators need: profile and channel CRUD
// plus the fetch-on-reconnect history reads.
package rest

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/samber/lo"

	"chatwire/domain"
	"chatwire/errors"
	"chatwire/repositories"
	"chatwire/services"
)

var validate = validator.New()

type Handler struct {
	log      *slog.Logger
	users    repositories.IUserRepository
	channels repositories.IChannelRepository
	chat     services.IChatService
}

func NewHandler(log *slog.Logger, users repositories.IUserRepository,
	channels repositories.IChannelRepository, chat services.IChatService) *Handler {
	return &Handler{log: log, users: users, channels: channels, chat: chat}
}

type createUserRequest struct {
	ID    string `json:"id"`
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name"`
	Image string `json:"image"`
	Color string `json:"color"`
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	profile, err := h.users.Create(domain.Profile{
		ID: req.ID, Email: req.Email, Name: req.Name, Image: req.Image, Color: req.Color,
	})
	if stderrors.Is(err, errors.ErrUserExists) {
		h.writeError(w, http.StatusConflict, "user already exists")
		return
	}
	if err != nil {
		h.log.Error("create user failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}
	h.writeJSON(w, http.StatusCreated, toProfileResponse(profile))
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	profile, err := h.users.Get(id)
	if stderrors.Is(err, errors.ErrUserNotFound) {
		h.writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		h.log.Error("get user failed", "user_id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to fetch user")
		return
	}
	h.writeJSON(w, http.StatusOK, toProfileResponse(profile))
}

type createChannelRequest struct {
	Name    string   `json:"name" validate:"required"`
	Admin   string   `json:"admin" validate:"required"`
	Members []string `json:"members" validate:"required,min=1,dive,required"`
}

func (h *Handler) CreateChannel(w http.ResponseWriter, r *http.Request) {
	var req createChannelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	channel, err := h.channels.Create(domain.Channel{
		Name: req.Name, AdminID: req.Admin, Members: req.Members,
	})
	if err != nil {
		h.log.Error("create channel failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to create channel")
		return
	}
	h.writeJSON(w, http.StatusCreated, toChannelResponse(channel))
}

func (h *Handler) GetChannel(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	channel, err := h.channels.Get(id)
	if stderrors.Is(err, errors.ErrChannelNotFound) {
		h.writeError(w, http.StatusNotFound, "channel not found")
		return
	}
	if err != nil {
		h.log.Error("get channel failed", "channel_id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to fetch channel")
		return
	}
	h.writeJSON(w, http.StatusOK, toChannelResponse(channel))
}

// GetChannelMessages serves the channel history a client replays after
// reconnecting, enriched the same way live pushes are.
func (h *Handler) GetChannelMessages(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	messages, err := h.chat.ChannelHistory(id)
	if err != nil {
		h.log.Error("channel history failed", "channel_id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to fetch messages")
		return
	}
	h.writeJSON(w, http.StatusOK, toMessagesResponse(messages))
}

func (h *Handler) GetDirectMessages(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	messages, err := h.chat.DirectHistory(vars["userA"], vars["userB"])
	if err != nil {
		h.log.Error("direct history failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to fetch messages")
		return
	}
	h.writeJSON(w, http.StatusOK, toMessagesResponse(messages))
}

type profileResponse struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	Image string `json:"image,omitempty"`
	Color string `json:"color,omitempty"`
}

type channelResponse struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Admin    string   `json:"admin"`
	Members  []string `json:"members"`
	Messages []string `json:"messages"`
}

type messageResponse struct {
	ID        string           `json:"id"`
	Sender    profileResponse  `json:"sender"`
	Recipient *profileResponse `json:"recipient,omitempty"`
	ChannelID string           `json:"channelId,omitempty"`
	Kind      string           `json:"kind"`
	Contents  string           `json:"contents,omitempty"`
	FileURL   string           `json:"fileUrl,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
}

func toProfileResponse(p domain.Profile) profileResponse {
	return profileResponse{ID: p.ID, Email: p.Email, Name: p.Name, Image: p.Image, Color: p.Color}
}

func toChannelResponse(c domain.Channel) channelResponse {
	return channelResponse{
		ID:      c.ID,
		Name:    c.Name,
		Admin:   c.AdminID,
		Members: c.Members,
		Messages: lo.Map(c.Messages, func(id uuid.UUID, _ int) string {
			return id.String()
		}),
	}
}

func toMessagesResponse(messages []domain.EnrichedMessage) []messageResponse {
	return lo.Map(messages, func(m domain.EnrichedMessage, _ int) messageResponse {
		resp := messageResponse{
			ID:        m.ID.String(),
			Sender:    toProfileResponse(m.Sender),
			ChannelID: m.ChannelID,
			Kind:      string(m.Kind),
			Contents:  m.Contents,
			FileURL:   m.FileURL,
			CreatedAt: m.CreatedAt,
		}
		if m.Recipient != nil {
			resp.Recipient = lo.ToPtr(toProfileResponse(*m.Recipient))
		}
		return resp
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error("encoding response failed", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
