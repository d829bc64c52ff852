package integration

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"

	"github.com/vncsmyrnk/chainpoll/internal/adapters/event"
	handler "github.com/vncsmyrnk/chainpoll/internal/adapters/handler/http"
	"github.com/vncsmyrnk/chainpoll/internal/adapters/repository/kvstate"
	repo "github.com/vncsmyrnk/chainpoll/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/chainpoll/internal/core/ports"
	"github.com/vncsmyrnk/chainpoll/internal/core/services"
	"github.com/vncsmyrnk/chainpoll/internal/metrics"
)

const jwtSecret = "test-secret"

type TestApp struct {
	DB          *sql.DB
	Store       ports.Store
	Server      *httptest.Server
	Client      *http.Client
	AuditSvc    ports.AuditService
	DBContainer testcontainers.Container
}

func setupPostgresContainer(ctx context.Context) (testcontainers.Container, string, error) {
	pgContainer, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, "", err
	}

	return pgContainer, connStr, nil
}

func setupTestApp(t *testing.T) *TestApp {
	ctx := context.Background()
	dbContainer, dbURL, err := setupPostgresContainer(ctx)
	require.NoError(t, err)

	db, err := sql.Open("postgres", dbURL)
	require.NoError(t, err)
	require.NoError(t, repo.Migrate(ctx, db))

	log := zaptest.NewLogger(t)
	store := kvstate.New(repo.New(db, log))
	publisher := event.NewLogPublisher(log)
	m := metrics.New("chainpoll", prometheus.NewRegistry())

	router := handler.NewHandler(
		handler.NewInstanceHandler(services.NewInstanceService(store, publisher, m, log), log),
		handler.NewPollHandler(services.NewPollService(store, publisher, m, log), log),
		handler.NewVoteHandler(services.NewVoteService(store, publisher, m, log), log),
		handler.RouterConfig{
			Auth: handler.NewAuthenticator([]byte(jwtSecret)),
			Log:  log,
		},
	)
	server := httptest.NewServer(router)

	return &TestApp{
		DB:          db,
		Store:       store,
		Server:      server,
		Client:      server.Client(),
		AuditSvc:    services.NewAuditService(store, log),
		DBContainer: dbContainer,
	}
}

func (app *TestApp) Teardown(t *testing.T) {
	app.Server.Close()
	app.DB.Close()
	if err := app.DBContainer.Terminate(context.Background()); err != nil {
		t.Logf("failed to terminate container: %v", err)
	}
}

func createToken(t *testing.T, principal string) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub": principal,
		"exp": time.Now().Add(15 * time.Minute).Unix(),
		"iat": time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(jwtSecret))
	require.NoError(t, err)
	return signedToken
}
