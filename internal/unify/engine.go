package unify

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/listenupapp/listenup-metadata/internal/domain"
	"github.com/listenupapp/listenup-metadata/internal/id"
	"github.com/listenupapp/listenup-metadata/internal/store/sqlite"
)

// Engine resolves candidates against stored relations and creates entities
// for the rest.
type Engine struct {
	store  *sqlite.Store
	logger *slog.Logger
	newID  func() (string, error)
}

// New creates a unification engine backed by the durable store.
func New(store *sqlite.Store, logger *slog.Logger) *Engine {
	return &Engine{
		store:  store,
		logger: logger,
		newID:  func() (string, error) { return id.Generate(id.Unified) },
	}
}

type group struct {
	entityID string
	members  []domain.Book
	// fresh relations to append to an existing entity
	pending []domain.Relation
}

// Unify groups books into unified records. Groups already known to the
// store come first, then new groups, each in first-seen order. Running it
// again over the same books creates nothing new.
func (e *Engine) Unify(ctx context.Context, books []domain.Book) ([]domain.UnifiedBook, error) {
	if len(books) == 0 {
		return []domain.UnifiedBook{}, nil
	}

	rels := make([]domain.Relation, len(books))
	for i := range books {
		rels[i] = relationOf(&books[i])
	}
	owners, err := e.store.FindEntities(ctx, rels)
	if err != nil {
		return nil, fmt.Errorf("find entities: %w", err)
	}

	var (
		known    []*group
		byEntity = map[string]*group{}
		byKey    = map[string]*group{}
		fresh    []*group
		seen     = map[domain.Relation]bool{}
	)

	// Stage 1: exact relation hits.
	var unresolved []domain.Book
	for i, b := range books {
		if seen[rels[i]] {
			continue
		}
		seen[rels[i]] = true

		entityID, ok := owners[rels[i]]
		if !ok {
			unresolved = append(unresolved, b)
			continue
		}
		g := byEntity[entityID]
		if g == nil {
			g = &group{entityID: entityID}
			byEntity[entityID] = g
			known = append(known, g)
		}
		g.members = append(g.members, b)
	}
	for _, g := range known {
		for i := range g.members {
			if k := MatchKey(&g.members[i]); byKey[k] == nil {
				byKey[k] = g
			}
		}
	}

	// Stage 2: heuristic keys.
	for _, b := range unresolved {
		k := MatchKey(&b)
		g := byKey[k]
		if g == nil {
			g = &group{}
			byKey[k] = g
			fresh = append(fresh, g)
		} else if g.entityID != "" {
			g.pending = append(g.pending, relationOf(&b))
		}
		g.members = append(g.members, b)
	}

	out := make([]domain.UnifiedBook, 0, len(known)+len(fresh))
	for _, g := range known {
		if len(g.pending) > 0 {
			if err := e.store.AddRelations(ctx, g.entityID, g.pending); err != nil {
				return nil, fmt.Errorf("extend entity %s: %w", g.entityID, err)
			}
		}
		out = append(out, merge(g))
	}
	for _, g := range fresh {
		if err := e.create(ctx, g); err != nil {
			return nil, err
		}
		out = append(out, merge(g))
	}
	return out, nil
}

func (e *Engine) create(ctx context.Context, g *group) error {
	entityID, err := e.newID()
	if err != nil {
		return err
	}
	sortByPriority(g.members)
	primary := &g.members[0]

	ent := &domain.UnifiedEntity{
		ID:      entityID,
		Title:   primary.Title,
		Authors: primary.Authors,
	}
	for i := range g.members {
		ent.Relations = append(ent.Relations, relationOf(&g.members[i]))
	}
	if err := e.store.CreateEntity(ctx, ent); err != nil {
		return fmt.Errorf("create entity: %w", err)
	}
	g.entityID = entityID

	e.logger.Debug("unified entity created",
		"entity_id", entityID,
		"title", ent.Title,
		"members", len(ent.Relations),
	)
	return nil
}

func merge(g *group) domain.UnifiedBook {
	sortByPriority(g.members)
	return domain.NewUnifiedBook(g.entityID, g.members[0], g.members)
}

func sortByPriority(books []domain.Book) {
	slices.SortStableFunc(books, func(a, b domain.Book) int {
		return cmp.Compare(Priority(b.Provider), Priority(a.Provider))
	})
}

func relationOf(b *domain.Book) domain.Relation {
	return domain.Relation{Provider: b.Provider, ProviderID: b.ProviderID}
}
