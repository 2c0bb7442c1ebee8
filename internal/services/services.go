// package services implements the HTTP and push channel clients for the automation portal API
package services

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/portal/internal/shared"
)

// Clients bundles everything needed to talk to one portal backend.
type Clients struct {
	API    *APIService
	Portal *PortalService
	Events *EventListener
}

// NewClients builds the REST and push channel clients from cfg.
func NewClients(cfg *shared.Config, client *http.Client, logger *log.Logger) (*Clients, error) {
	eventsURL, err := cfg.EventsEndpoint()
	if err != nil {
		return nil, err
	}

	api := NewAPIService(cfg.API.BaseURL, client).WithRateLimit(cfg.API.RequestsPerSecond)
	return &Clients{
		API:    api,
		Portal: NewPortalService(api),
		Events: NewEventListener(eventsURL, logger),
	}, nil
}
