package providers

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/listenup-metadata/internal/analytics"
	"github.com/listenupapp/listenup-metadata/internal/config"
	"github.com/listenupapp/listenup-metadata/internal/fanout"
	"github.com/listenupapp/listenup-metadata/internal/logger"
	"github.com/listenupapp/listenup-metadata/internal/metadata"
	"github.com/listenupapp/listenup-metadata/internal/metadata/audible"
	"github.com/listenupapp/listenup-metadata/internal/metadata/goodreads"
	"github.com/listenupapp/listenup-metadata/internal/metadata/googlebooks"
	"github.com/listenupapp/listenup-metadata/internal/metadata/hardcover"
	"github.com/listenupapp/listenup-metadata/internal/metadata/itunes"
	"github.com/listenupapp/listenup-metadata/internal/metadata/prh"
	"github.com/listenupapp/listenup-metadata/internal/unify"
)

// ProvideRequester provides the shared outbound HTTP client.
func ProvideRequester(i do.Injector) (*metadata.Requester, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return metadata.NewRequester(cfg.Providers.UserAgent, log.Component("http")), nil
}

// Adapters holds the concrete provider clients.
type Adapters struct {
	Audible     *audible.Client
	ITunes      *itunes.Client
	Goodreads   *goodreads.Client
	PRH         *prh.Client
	Hardcover   *hardcover.Client
	GoogleBooks *googlebooks.Client
}

// ProvideAdapters provides every provider client. Keys from the config are
// fallbacks; stored settings take precedence per request.
func ProvideAdapters(i do.Injector) (*Adapters, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	req := do.MustInvoke[*metadata.Requester](i)

	region := audible.Region(cfg.Providers.AudibleRegion)
	if !region.Valid() {
		log.Warn("Invalid Audible region, falling back to US",
			"configured", cfg.Providers.AudibleRegion,
		)
		region = audible.RegionUS
	}

	adapters := &Adapters{
		Audible:     audible.New(req, audible.Options{Region: region}, log.Component(audible.Name)),
		ITunes:      itunes.NewClient(req, "", log.Component(itunes.Name)),
		Goodreads:   goodreads.NewClient(req, "", log.Component(goodreads.Name)),
		PRH:         prh.NewClient(req, "", cfg.Defaults.PRHKey, log.Component(prh.Name)),
		Hardcover:   hardcover.NewClient(req, "", cfg.Defaults.HardcoverKey, log.Component(hardcover.Name)),
		GoogleBooks: googlebooks.NewClient(req, "", cfg.Defaults.GoogleBooksKey, log.Component(googlebooks.Name)),
	}

	log.Info("Metadata providers initialized", "audible_region", region)
	return adapters, nil
}

// ProvideRegistry provides the adapter registry. Search errors reach the
// orchestrator, which records them as failed provider calls.
func ProvideRegistry(i do.Injector) (*fanout.Registry, error) {
	a := do.MustInvoke[*Adapters](i)
	return fanout.NewRegistry(
		a.Audible,
		a.ITunes,
		a.Goodreads,
		a.PRH,
		a.Hardcover,
		a.GoogleBooks,
	), nil
}

// ProvideOrchestrator provides the fan-out orchestrator.
func ProvideOrchestrator(i do.Injector) (*fanout.Orchestrator, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	db := do.MustInvoke[*DatabaseHandle](i)

	return fanout.New(fanout.Options{
		Timeout:      cfg.Providers.CallTimeout,
		BlockingPool: cfg.Providers.BlockingPoolSize,
	}, db.Store, log.Component("fanout")), nil
}

// ProvideUnifier provides the cross-provider unification engine.
func ProvideUnifier(i do.Injector) (*unify.Engine, error) {
	log := do.MustInvoke[*logger.Logger](i)
	db := do.MustInvoke[*DatabaseHandle](i)

	return unify.New(db.Store, log.Component("unify")), nil
}

// ProvideAttributor provides anonymized caller attribution.
func ProvideAttributor(i do.Injector) (*analytics.Attributor, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	req := do.MustInvoke[*metadata.Requester](i)
	cache := do.MustInvoke[*CacheHandle](i)

	geo := analytics.NewGeoResolver(req, cache.Store, cfg.Analytics.GeoEndpoint, log.Component("geo"))
	return analytics.NewAttributor(cfg.Analytics.DeviceSecret, geo, log.Logger), nil
}
