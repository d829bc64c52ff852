package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vncsmyrnk/chainpoll/internal/core/domain"
	"github.com/vncsmyrnk/chainpoll/internal/core/ports"
	"github.com/vncsmyrnk/chainpoll/internal/metrics"
)

type instanceService struct {
	store     ports.Store
	publisher ports.EventPublisher
	metrics   *metrics.Metrics
	log       *zap.Logger
}

func NewInstanceService(store ports.Store, publisher ports.EventPublisher, m *metrics.Metrics, log *zap.Logger) ports.InstanceService {
	return &instanceService{
		store:     store,
		publisher: publisher,
		metrics:   m,
		log:       log,
	}
}

func (s *instanceService) Instantiate(ctx context.Context, input ports.InstantiateInput) (cfg *domain.Config, err error) {
	start := time.Now()
	defer func() { s.metrics.Observe("instantiate", start, err) }()

	admin := input.Admin
	if admin == "" {
		admin = input.Sender.String()
	}
	validated, err := domain.ParsePrincipal(admin)
	if err != nil {
		return nil, err
	}

	cfg = &domain.Config{Admin: validated}
	err = s.store.Update(ctx, func(t ports.Tables) error {
		existing, err := t.Config().Get()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if existing != nil {
			return domain.ErrAlreadyInitialized
		}
		return t.Config().Save(cfg)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("instantiated", zap.Stringer("admin", cfg.Admin))
	publish(ctx, s.publisher, s.log, domain.NewEvent(domain.ActionInstantiate, map[string]string{
		"admin": cfg.Admin.String(),
	}))
	return cfg, nil
}

func (s *instanceService) GetConfig(ctx context.Context) (*domain.Config, error) {
	start := time.Now()
	var cfg *domain.Config
	err := s.store.View(ctx, func(t ports.Tables) error {
		var err error
		cfg, err = t.Config().Get()
		return err
	})
	s.metrics.Observe("get_config", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to get config: %w", err)
	}
	return cfg, nil
}
