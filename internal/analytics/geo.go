package analytics

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/listenupapp/listenup-metadata/internal/metadata"
	"github.com/listenupapp/listenup-metadata/internal/store"
)

// Geo lookup defaults.
const (
	DefaultGeoEndpoint = "http://ip-api.com/json"
	GeoTTL             = 30 * 24 * time.Hour
	geoTimeout         = 2 * time.Second
)

type geoResponse struct {
	Status      string `json:"status"`
	CountryCode string `json:"countryCode"`
}

// GeoResolver maps addresses to ISO country codes, caching answers.
type GeoResolver struct {
	req      *metadata.Requester
	cache    *store.Store
	endpoint string
	logger   *slog.Logger
}

// NewGeoResolver creates a resolver. An empty endpoint uses ip-api.com.
func NewGeoResolver(req *metadata.Requester, cache *store.Store, endpoint string, logger *slog.Logger) *GeoResolver {
	if endpoint == "" {
		endpoint = DefaultGeoEndpoint
	}
	return &GeoResolver{
		req:      req,
		cache:    cache,
		endpoint: strings.TrimRight(endpoint, "/"),
		logger:   logger,
	}
}

// Country returns the country code for addr. Loopback and private
// addresses are Local; lookups that fail are Unknown and not cached.
func (g *GeoResolver) Country(ctx context.Context, addr string) string {
	ip, ok := parseAddr(addr)
	if !ok {
		return Unknown
	}
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsUnspecified() {
		return Local
	}

	key := store.GeoPrefix + ip.String()
	if cached, err := g.cache.GetRaw(ctx, key); err == nil && len(cached) > 0 {
		return string(cached)
	} else if err != nil && !errors.Is(err, store.ErrNotFound) {
		g.logger.Warn("geo cache read failed", "error", err)
	}

	ctx, cancel := context.WithTimeout(ctx, geoTimeout)
	defer cancel()

	var resp geoResponse
	if err := g.req.GetJSON(ctx, g.endpoint+"/"+ip.String(), nil, &resp); err != nil {
		g.logger.Debug("geo lookup failed", "error", err)
		return Unknown
	}
	if resp.Status != "success" || resp.CountryCode == "" {
		return Unknown
	}

	if err := g.cache.SetRaw(ctx, key, []byte(resp.CountryCode), GeoTTL); err != nil {
		g.logger.Warn("geo cache write failed", "error", err)
	}
	return resp.CountryCode
}
