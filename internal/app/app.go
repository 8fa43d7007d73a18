package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/citizen-portal/citizen_portal/internal/config"
	"github.com/citizen-portal/citizen_portal/internal/identity"
	"github.com/citizen-portal/citizen_portal/internal/infra"
	"github.com/citizen-portal/citizen_portal/internal/notification"
	"github.com/citizen-portal/citizen_portal/internal/session"
)

// Portal is one process's session together with the connections backing it.
type Portal struct {
	Resources *infra.Resources
	Sessions  *session.Manager
}

// Open connects the configured backends, builds the session manager and
// restores the durable slot.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Portal, error) {
	res, err := infra.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := res.Slot(ctx, cfg)
	if err != nil {
		res.Close()
		return nil, fmt.Errorf("open slot: %w", err)
	}

	backend, err := identity.NewDemoBackend()
	if err != nil {
		res.Close()
		return nil, err
	}

	mgr := session.NewManager(session.Deps{
		Slot:     store,
		Backend:  identity.WithLatency(backend, cfg.SimulatedLatency),
		Notifier: notification.NewLoggerNotifier(logger),
		Logger:   logger,
	}, session.Policy{
		OTPTTL:         cfg.OTPTTL,
		ResendCooldown: cfg.OTPResendCooldown,
		EnforceExpiry:  cfg.OTPEnforceExpiry,
	})

	if err := mgr.Restore(ctx); err != nil {
		res.Close()
		return nil, err
	}

	return &Portal{Resources: res, Sessions: mgr}, nil
}

// Close releases the backing connections.
func (p *Portal) Close() error {
	return p.Resources.Close()
}
