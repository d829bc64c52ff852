package http

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/vncsmyrnk/chainpoll/internal/core/ports"
)

type InstanceHandler struct {
	service ports.InstanceService
	log     *zap.Logger
}

func NewInstanceHandler(service ports.InstanceService, log *zap.Logger) *InstanceHandler {
	return &InstanceHandler{
		service: service,
		log:     log,
	}
}

type instantiateRequest struct {
	Admin string `json:"admin"`
}

func (h *InstanceHandler) Instantiate(w http.ResponseWriter, r *http.Request) {
	sender, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	var req instantiateRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}

	cfg, err := h.service.Instantiate(r.Context(), ports.InstantiateInput{Sender: sender, Admin: req.Admin})
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, cfg)
}

func (h *InstanceHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.service.GetConfig(r.Context())
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"config": cfg})
}
