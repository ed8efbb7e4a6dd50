package main

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/gabrielmiguelok/regform/client"
	"github.com/gabrielmiguelok/regform/internal/website"
	"github.com/gabrielmiguelok/regform/pkg/config"
	"github.com/gabrielmiguelok/regform/pkg/core"
	"github.com/gabrielmiguelok/regform/pkg/health"
	"github.com/gabrielmiguelok/regform/pkg/logging"
	"github.com/gabrielmiguelok/regform/pkg/registration"
	"github.com/gabrielmiguelok/regform/pkg/router"
	"github.com/gabrielmiguelok/regform/pkg/transport"
)

const (
	readHeaderTimeout = 10 * time.Second
	assetPrefix       = "/_live/"
)

type server struct {
	router  *router.Router
	catalog registration.Catalog
}

// newServer wires the registration form, the client script and the
// operational endpoints onto one router.
func newServer(cfg config.Config, logger logging.Logger) (*server, error) {
	catalog, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	checker := health.NewChecker(version)
	checker.AddCriticalCheck("catalog", health.ValidateCheck(catalog.Validate), 0)

	tc := transport.DefaultConfig()
	tc.AllowedOrigins = cfg.AllowedOrigins

	r := router.New(router.Options{
		Logger:          logger,
		Registry:        reg,
		Transport:       tc,
		Codec:           cfg.Codec,
		EventsPerSecond: cfg.EventsPerSecond,
		EventBurst:      cfg.EventBurst,
		MaxSessions:     cfg.MaxSessions,
		Health:          checker,
	})

	ctrl := registration.NewController(catalog)
	page := website.DefaultPageConfig()
	page.ScriptPath = assetPrefix + client.ScriptName

	r.Live("/", func() core.Component {
		return website.NewRegistrationView(website.Options{
			Controller:    ctrl,
			EmailDebounce: cfg.EmailDebounce,
			Page:          page,
			Logger:        logger,
			OnSubmit: func(d registration.Decision) {
				failed := make([]string, len(d.Failed))
				for i, id := range d.Failed {
					failed[i] = string(id)
				}
				r.Metrics().ObserveSubmit(d.Allowed, failed)
			},
		})
	})
	r.Handle(assetPrefix, http.StripPrefix(assetPrefix, client.Handler()))

	return &server{router: r, catalog: catalog}, nil
}
