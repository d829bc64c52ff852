package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Auth *Authenticator
	Log  *zap.Logger
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
}

func NewHandler(instanceHandler *InstanceHandler, pollHandler *PollHandler, voteHandler *VoteHandler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(AccessLog(cfg.Log))
	r.Use(middleware.Recoverer)

	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/config", instanceHandler.GetConfig)
		r.Get("/polls", pollHandler.ListPolls)
		r.Get("/polls/{id}", pollHandler.GetPoll)
		r.Get("/polls/{id}/votes/{voter}", voteHandler.GetVote)

		r.Group(func(r chi.Router) {
			r.Use(cfg.Auth.Middleware)

			r.Post("/instantiate", instanceHandler.Instantiate)
			r.Post("/polls", pollHandler.CreatePoll)
			r.Delete("/polls/{id}", pollHandler.DeletePoll)
			r.Post("/polls/{id}/votes", voteHandler.VoteOnPoll)
			r.Delete("/polls/{id}/votes", voteHandler.Revoke)
		})
	})

	return r
}
