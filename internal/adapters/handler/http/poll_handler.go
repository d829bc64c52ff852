package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/vncsmyrnk/chainpoll/internal/core/ports"
)

type PollHandler struct {
	service ports.PollService
	log     *zap.Logger
}

func NewPollHandler(service ports.PollService, log *zap.Logger) *PollHandler {
	return &PollHandler{
		service: service,
		log:     log,
	}
}

type createPollRequest struct {
	PollID   string   `json:"poll_id"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	creator, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	var req createPollRequest
	if !decodeBody(w, r, &req) {
		return
	}

	input := ports.CreatePollInput{
		Creator:  creator,
		PollID:   req.PollID,
		Question: req.Question,
		Options:  req.Options,
	}
	if err := h.service.Create(r.Context(), input); err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, struct{}{})
}

func (h *PollHandler) ListPolls(w http.ResponseWriter, r *http.Request) {
	polls, err := h.service.ListPolls(r.Context())
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"polls": polls})
}

func (h *PollHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	poll, err := h.service.GetPoll(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"poll": poll})
}

func (h *PollHandler) DeletePoll(w http.ResponseWriter, r *http.Request) {
	sender, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	writeError(w, h.log, h.service.Delete(r.Context(), sender, chi.URLParam(r, "id")))
}
