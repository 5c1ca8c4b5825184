package handlers

import (
	"github.com/kawaii-gallery/backend/internal/auth"
	"github.com/kawaii-gallery/backend/internal/config"
	"github.com/kawaii-gallery/backend/internal/engagement"
	"github.com/kawaii-gallery/backend/internal/feather"
	"github.com/kawaii-gallery/backend/internal/notifications"
)

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	auth       *auth.Service
	engagement *engagement.Service
	ledger     *feather.Ledger
	notifier   *notifications.Service
	cfg        *config.Config
}

// NewHandlers creates a new handlers instance
func NewHandlers(authService *auth.Service, engagementService *engagement.Service, ledger *feather.Ledger, notifier *notifications.Service, cfg *config.Config) *Handlers {
	return &Handlers{
		auth:       authService,
		engagement: engagementService,
		ledger:     ledger,
		notifier:   notifier,
		cfg:        cfg,
	}
}
