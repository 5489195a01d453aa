package importer

import (
	"context"

	"github.com/listenupapp/listenup-metadata/internal/domain"
	"github.com/listenupapp/listenup-metadata/internal/fanout"
	"github.com/listenupapp/listenup-metadata/internal/gateway"
	"github.com/listenupapp/listenup-metadata/internal/metadata"
)

// DetailFetcher looks up a single record at a provider.
type DetailFetcher interface {
	FetchDetails(ctx context.Context, id string) (*domain.Book, error)
}

// GatewayResolver resolves ids from the storage tiers first and falls back
// to a provider, storing whatever the provider returns.
type GatewayResolver struct {
	gateway *gateway.Gateway
	fetcher DetailFetcher
	bench   *fanout.Benchmarker
}

// NewGatewayResolver creates a resolver. Provider fetches run through
// bench; a nil bench leaves them unrecorded.
func NewGatewayResolver(gw *gateway.Gateway, fetcher DetailFetcher, bench *fanout.Benchmarker) *GatewayResolver {
	if bench == nil {
		bench = &fanout.Benchmarker{}
	}
	return &GatewayResolver{gateway: gw, fetcher: fetcher, bench: bench}
}

// Resolve implements Resolver. Only the provider fetch is recorded; stored
// hits cost no provider call.
func (r *GatewayResolver) Resolve(ctx context.Context, requestID, id string) (*domain.Book, error) {
	entry, err := r.gateway.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry != nil {
		return &entry.Book, nil
	}

	var book *domain.Book
	res := r.bench.Run(ctx, requestID, domain.SourceAudible, func(ctx context.Context) (metadata.Result, error) {
		b, err := r.fetcher.FetchDetails(ctx, id)
		if err != nil || b == nil {
			return metadata.Result{}, err
		}
		book = b
		return metadata.Result{Items: []domain.Book{*b}}, nil
	})
	if res.Err != nil {
		return nil, res.Err
	}
	if book == nil {
		return nil, nil
	}
	if _, err := r.gateway.Upsert(ctx, book, 0); err != nil {
		return nil, err
	}
	return book, nil
}
