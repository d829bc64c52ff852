package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/vncsmyrnk/chainpoll/internal/core/ports"
)

type VoteHandler struct {
	service ports.VoteService
	log     *zap.Logger
}

func NewVoteHandler(service ports.VoteService, log *zap.Logger) *VoteHandler {
	return &VoteHandler{
		service: service,
		log:     log,
	}
}

type voteRequest struct {
	Option string `json:"option"`
}

func (h *VoteHandler) VoteOnPoll(w http.ResponseWriter, r *http.Request) {
	voter, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	var req voteRequest
	if !decodeBody(w, r, &req) {
		return
	}

	input := ports.VoteInput{
		Voter:  voter,
		PollID: chi.URLParam(r, "id"),
		Option: req.Option,
	}
	if _, err := h.service.Vote(r.Context(), input); err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func (h *VoteHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	voter, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	writeError(w, h.log, h.service.Revoke(r.Context(), voter, chi.URLParam(r, "id")))
}

func (h *VoteHandler) GetVote(w http.ResponseWriter, r *http.Request) {
	ballot, err := h.service.GetVote(r.Context(), chi.URLParam(r, "voter"), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"vote": ballot})
}
