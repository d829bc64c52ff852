package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/chainpoll/internal/core/domain"
	"github.com/vncsmyrnk/chainpoll/internal/core/ports"
)

func TestInstantiate(t *testing.T) {
	ctx := context.Background()

	t.Run("admin defaults to sender", func(t *testing.T) {
		env := newTestEnv(t)

		cfg, err := env.instance.GetConfig(ctx)
		require.NoError(t, err)
		assert.Nil(t, cfg)

		cfg, err = env.instance.Instantiate(ctx, ports.InstantiateInput{Sender: "creator"})
		require.NoError(t, err)
		assert.Equal(t, domain.Principal("creator"), cfg.Admin)

		stored, err := env.instance.GetConfig(ctx)
		require.NoError(t, err)
		assert.Equal(t, cfg, stored)

		events := env.publisher.published(domain.ActionInstantiate)
		require.Len(t, events, 1)
		assert.Equal(t, "creator", events[0].Attributes["admin"])
	})

	t.Run("explicit admin", func(t *testing.T) {
		env := newTestEnv(t)
		cfg, err := env.instance.Instantiate(ctx, ports.InstantiateInput{Sender: "creator", Admin: "boss"})
		require.NoError(t, err)
		assert.Equal(t, domain.Principal("boss"), cfg.Admin)
	})

	t.Run("invalid admin", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.instance.Instantiate(ctx, ports.InstantiateInput{Sender: "creator", Admin: "Not Valid"})
		require.ErrorIs(t, err, domain.ErrInvalidPrincipal)

		cfg, err := env.instance.GetConfig(ctx)
		require.NoError(t, err)
		assert.Nil(t, cfg)
		assert.Empty(t, env.publisher.published(domain.ActionInstantiate))
	})

	t.Run("only once", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.instance.Instantiate(ctx, ports.InstantiateInput{Sender: "creator"})
		require.NoError(t, err)

		_, err = env.instance.Instantiate(ctx, ports.InstantiateInput{Sender: "mallory"})
		require.ErrorIs(t, err, domain.ErrAlreadyInitialized)

		cfg, err := env.instance.GetConfig(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.Principal("creator"), cfg.Admin)
	})
}
