package analytics

import (
	"context"
	"log/slog"

	"github.com/listenupapp/listenup-metadata/internal/domain"
)

// Attributor turns a client address into an anonymized caller.
type Attributor struct {
	secret string
	geo    *GeoResolver
}

// NewAttributor creates an attributor. A nil geo resolver attributes every
// caller to Unknown.
func NewAttributor(secret string, geo *GeoResolver, logger *slog.Logger) *Attributor {
	if secret == "" && logger != nil {
		logger.Warn("device secret not configured, device tokens are unkeyed")
	}
	return &Attributor{secret: secret, geo: geo}
}

// Caller resolves addr. The address itself is never retained.
func (a *Attributor) Caller(ctx context.Context, addr string) domain.Caller {
	c := domain.Caller{DeviceToken: DeviceToken(addr, a.secret), Country: Unknown}
	if a.geo != nil {
		c.Country = a.geo.Country(ctx, addr)
	}
	return c
}
