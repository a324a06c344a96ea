// Package main seeds a development database with organizations, users,
// events, vendors and CRM snapshots, then prints a bearer token per user.
// Every write is an upsert, so the command can be rerun safely.
package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"eventfin.io/eventfin/internal/api/middleware"
	"eventfin.io/eventfin/internal/config"
	"eventfin.io/eventfin/internal/domain"
	"eventfin.io/eventfin/internal/infrastructure"
	"eventfin.io/eventfin/internal/pkg/logger"
)

//go:embed fixture.yaml
var defaultFixture []byte

type fixture struct {
	Organizations []orgFixture `yaml:"organizations"`
}

type orgFixture struct {
	ID      uuid.UUID       `yaml:"id"`
	Name    string          `yaml:"name"`
	Users   []userFixture   `yaml:"users"`
	Vendors []vendorFixture `yaml:"vendors"`
	Events  []eventFixture  `yaml:"events"`
}

type userFixture struct {
	ID       uuid.UUID `yaml:"id"`
	Email    string    `yaml:"email"`
	Name     string    `yaml:"name"`
	Role     string    `yaml:"role"`
	Inactive bool      `yaml:"inactive"`
}

type vendorFixture struct {
	ID   uuid.UUID `yaml:"id"`
	Name string    `yaml:"name"`
}

type eventFixture struct {
	ID     uuid.UUID   `yaml:"id"`
	Name   string      `yaml:"name"`
	Status string      `yaml:"status"`
	CRM    *crmFixture `yaml:"crm"`
}

type crmFixture struct {
	Provider string         `yaml:"provider"`
	Data     map[string]any `yaml:"data"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "seed error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	fixturePath := flag.String("fixture", "", "path to a YAML fixture (defaults to the embedded one)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	raw := defaultFixture
	if *fixturePath != "" {
		if raw, err = os.ReadFile(*fixturePath); err != nil {
			return fmt.Errorf("read fixture: %w", err)
		}
	}
	fx, err := parseFixture(raw)
	if err != nil {
		return err
	}

	ctx := context.Background()
	db, err := infrastructure.NewDatabaseClients(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer db.Close()

	// Schema migrations run before seeding; this command only writes data.
	if err := pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
		return seed(ctx, tx, fx)
	}); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	logger.Info("data seeding completed", zap.Int("organizations", len(fx.Organizations)))

	jwtCfg := middleware.JWTConfig{
		SigningKey: []byte(cfg.Security.JWTSecret),
		Issuer:     cfg.Security.JWTIssuer,
		ExpiresIn:  cfg.Security.TokenLifetime,
	}
	for _, org := range fx.Organizations {
		for _, u := range org.Users {
			if u.Inactive {
				continue
			}
			token, _, err := middleware.GenerateToken(jwtCfg, domain.Principal{
				UserID:         u.ID,
				OrganizationID: org.ID,
				Role:           domain.Role(u.Role),
			})
			if err != nil {
				return fmt.Errorf("token for %s: %w", u.Email, err)
			}
			fmt.Printf("%-8s %-28s %s\n", u.Role, u.Email, token)
		}
	}
	return nil
}

// parseFixture decodes and validates a fixture document.
func parseFixture(raw []byte) (*fixture, error) {
	var fx fixture
	if err := yaml.Unmarshal(raw, &fx); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	seen := make(map[uuid.UUID]struct{})
	claim := func(kind string, id uuid.UUID) error {
		if id == uuid.Nil {
			return fmt.Errorf("%s without id", kind)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("duplicate id %s", id)
		}
		seen[id] = struct{}{}
		return nil
	}

	for _, org := range fx.Organizations {
		if err := claim("organization", org.ID); err != nil {
			return nil, err
		}
		for _, u := range org.Users {
			if err := claim("user", u.ID); err != nil {
				return nil, err
			}
			if _, err := domain.ParseRole(u.Role); err != nil {
				return nil, fmt.Errorf("user %s: %w", u.Email, err)
			}
			if u.Email == "" {
				return nil, fmt.Errorf("user %s without email", u.ID)
			}
		}
		for _, v := range org.Vendors {
			if err := claim("vendor", v.ID); err != nil {
				return nil, err
			}
		}
		for _, ev := range org.Events {
			if err := claim("event", ev.ID); err != nil {
				return nil, err
			}
		}
	}
	return &fx, nil
}

func seed(ctx context.Context, tx pgx.Tx, fx *fixture) error {
	for _, org := range fx.Organizations {
		if _, err := tx.Exec(ctx, `
			INSERT INTO organizations (id, name) VALUES ($1, $2)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`,
			org.ID, org.Name); err != nil {
			return fmt.Errorf("organization %s: %w", org.Name, err)
		}

		for _, u := range org.Users {
			if _, err := tx.Exec(ctx, `
				INSERT INTO users (id, organization_id, email, name, role, is_active)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (id) DO UPDATE SET
					email = EXCLUDED.email, name = EXCLUDED.name,
					role = EXCLUDED.role, is_active = EXCLUDED.is_active`,
				u.ID, org.ID, u.Email, u.Name, u.Role, !u.Inactive); err != nil {
				return fmt.Errorf("user %s: %w", u.Email, err)
			}
		}

		for _, v := range org.Vendors {
			if _, err := tx.Exec(ctx, `
				INSERT INTO vendors (id, organization_id, name) VALUES ($1, $2, $3)
				ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`,
				v.ID, org.ID, v.Name); err != nil {
				return fmt.Errorf("vendor %s: %w", v.Name, err)
			}
		}

		for _, ev := range org.Events {
			status := ev.Status
			if status == "" {
				status = "planning"
			}
			if _, err := tx.Exec(ctx, `
				INSERT INTO events (id, organization_id, name, status) VALUES ($1, $2, $3, $4)
				ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, status = EXCLUDED.status`,
				ev.ID, org.ID, ev.Name, status); err != nil {
				return fmt.Errorf("event %s: %w", ev.Name, err)
			}
			if ev.CRM == nil {
				continue
			}
			data, err := json.Marshal(ev.CRM.Data)
			if err != nil {
				return fmt.Errorf("crm data for %s: %w", ev.Name, err)
			}
			if _, err := tx.Exec(ctx, `
				INSERT INTO crm_syncs (event_id, provider, data, synced_at) VALUES ($1, $2, $3, now())
				ON CONFLICT (event_id) DO UPDATE SET
					provider = EXCLUDED.provider, data = EXCLUDED.data, synced_at = now()`,
				ev.ID, ev.CRM.Provider, data); err != nil {
				return fmt.Errorf("crm sync for %s: %w", ev.Name, err)
			}
		}
	}
	return nil
}
