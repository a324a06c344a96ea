package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventfin.io/eventfin/internal/config"
	"eventfin.io/eventfin/internal/pkg/logger"
)

func init() {
	_ = logger.Init("error", "json")
}

func TestBootstrap_NoDB(t *testing.T) {
	// Bootstrap without a real database should fail at DB connection.
	cfg := &config.Config{
		Database: config.DatabaseConfig{
			Host:     "localhost",
			Port:     65432, // Non-existent port
			User:     "test",
			Password: "test",
			Database: "test",
			SSLMode:  "disable",
			MaxConns: 5,
			MinConns: 1,
		},
		Worker: config.WorkerConfig{
			GeneralPoolSize: 10,
			NotifyPoolSize:  5,
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	app, err := Bootstrap(ctx, cfg)
	require.Error(t, err, "Bootstrap should fail without database")
	assert.Nil(t, app, "Application should be nil on bootstrap failure")
}

func TestApplication_Shutdown_Nil(t *testing.T) {
	app := &Application{}

	assert.NotPanics(t, func() {
		app.Shutdown(context.Background())
	}, "Shutdown on empty Application should not panic")
}

func TestJWTConfig_KeepsRotationKeys(t *testing.T) {
	cfg := &config.Config{Security: config.SecurityConfig{
		JWTSecret:           "current-secret",
		JWTVerificationKeys: []string{"", "current-secret", "previous-secret"},
		JWTIssuer:           "eventfin",
		TokenLifetime:       time.Hour,
	}}

	got := jwtConfig(cfg)
	assert.Equal(t, []byte("current-secret"), got.SigningKey)
	require.Len(t, got.VerificationKeys, 2)
	assert.Equal(t, []byte("previous-secret"), got.VerificationKeys[1])
	assert.Equal(t, "eventfin", got.Issuer)
	assert.Equal(t, time.Hour, got.ExpiresIn)
}
