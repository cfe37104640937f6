// Package resolver batches the reads that turn raw relation edges and
// attachment rows into field values on instances.
package resolver

import (
	"context"
	"fmt"
	"sort"

	"github.com/IgorChugurov/public-api-sdk/internal/model"
)

// Store is the subset of the persistence interface the resolver needs.
type Store interface {
	EdgesBySource(ctx context.Context, sourceID string, fieldIDs []string) ([]*model.Edge, error)
	EdgesByField(ctx context.Context, fieldID string, targetIDs []string) ([]*model.Edge, error)
	EdgeSources(ctx context.Context, pairs []model.FieldTarget) ([]string, error)
	RelatedInstances(ctx context.Context, sourceIDs, fieldIDs []string) ([]*model.RelatedTarget, error)
	GetInstancesByIDs(ctx context.Context, ids []string) ([]*model.Instance, error)
}

// Relations resolves relation field values in batched reads.
type Relations struct {
	store Store
}

// NewRelations creates a relation resolver over the given store.
func NewRelations(st Store) *Relations {
	return &Relations{store: st}
}

// ResolveOne fetches the related instances of a single source, grouped
// by relation field name. Two reads regardless of field count: one for
// the edges, one for the distinct targets.
func (r *Relations) ResolveOne(ctx context.Context, fields []*model.Field, instanceID string) (map[string][]*model.Instance, error) {
	out := map[string][]*model.Instance{}
	if len(fields) == 0 {
		return out, nil
	}

	fieldIDs := make([]string, len(fields))
	byFieldID := make(map[string]*model.Field, len(fields))
	for i, f := range fields {
		fieldIDs[i] = f.ID
		byFieldID[f.ID] = f
	}

	edges, err := r.store.EdgesBySource(ctx, instanceID, fieldIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve relations for %s: %w", instanceID, err)
	}
	if len(edges) == 0 {
		return out, nil
	}

	var targetIDs []string
	seen := map[string]struct{}{}
	for _, e := range edges {
		if _, ok := seen[e.TargetID]; ok {
			continue
		}
		seen[e.TargetID] = struct{}{}
		targetIDs = append(targetIDs, e.TargetID)
	}

	targets, err := r.store.GetInstancesByIDs(ctx, targetIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve relation targets for %s: %w", instanceID, err)
	}
	byID := make(map[string]*model.Instance, len(targets))
	for _, t := range targets {
		byID[t.ID] = t
	}

	for _, e := range edges {
		f := byFieldID[e.FieldID]
		if f == nil {
			continue
		}
		// Edges pointing at deleted targets are skipped.
		t := byID[e.TargetID]
		if t == nil {
			continue
		}
		out[f.Name] = append(out[f.Name], t)
	}
	return out, nil
}

// ResolveMany fetches the related instances of every source in one
// joined read, grouped by source id and then field name.
func (r *Relations) ResolveMany(ctx context.Context, fields []*model.Field, sourceIDs []string) (map[string]map[string][]*model.Instance, error) {
	out := map[string]map[string][]*model.Instance{}
	if len(fields) == 0 || len(sourceIDs) == 0 {
		return out, nil
	}

	fieldIDs := make([]string, len(fields))
	byFieldID := make(map[string]*model.Field, len(fields))
	for i, f := range fields {
		fieldIDs[i] = f.ID
		byFieldID[f.ID] = f
	}

	related, err := r.store.RelatedInstances(ctx, sourceIDs, fieldIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve relations: %w", err)
	}

	for _, rt := range related {
		f := byFieldID[rt.FieldID]
		if f == nil || rt.Target == nil {
			continue
		}
		m := out[rt.SourceID]
		if m == nil {
			m = map[string][]*model.Instance{}
			out[rt.SourceID] = m
		}
		m[f.Name] = append(m[f.Name], rt.Target)
	}
	return out, nil
}

// FilterMode selects how a relation filter combines its targets.
type FilterMode string

const (
	// ModeAny matches sources related to at least one listed target.
	ModeAny FilterMode = "any"
	// ModeAll matches sources related to every listed target.
	ModeAll FilterMode = "all"
)

// RelationFilter restricts a listing to sources related to the given
// targets through one relation field.
type RelationFilter struct {
	Field   *model.Field
	Targets []string
	Mode    FilterMode
}

// AllowedIDs evaluates relation filters down to the set of source ids
// that satisfy all of them. restricted is false when no filter applies.
// An empty restricted set means nothing can match.
func (r *Relations) AllowedIDs(ctx context.Context, filters []RelationFilter) ([]string, bool, error) {
	var (
		anyPairs   []model.FieldTarget
		allFilters []RelationFilter
	)
	for _, f := range filters {
		if len(f.Targets) == 0 {
			continue
		}
		if f.Mode == ModeAll {
			allFilters = append(allFilters, f)
			continue
		}
		for _, target := range f.Targets {
			anyPairs = append(anyPairs, model.FieldTarget{FieldID: f.Field.ID, TargetID: target})
		}
	}
	if len(anyPairs) == 0 && len(allFilters) == 0 {
		return nil, false, nil
	}

	var allowed map[string]struct{}

	// All any-mode filters collapse into a single OR query; a source
	// matching any pair passes.
	if len(anyPairs) > 0 {
		sources, err := r.store.EdgeSources(ctx, anyPairs)
		if err != nil {
			return nil, false, fmt.Errorf("relation filter: %w", err)
		}
		allowed = map[string]struct{}{}
		for _, id := range sources {
			allowed[id] = struct{}{}
		}
	}

	// Each all-mode filter needs its own edge read: a source passes
	// only when it reaches every listed target of the field.
	for _, f := range allFilters {
		edges, err := r.store.EdgesByField(ctx, f.Field.ID, f.Targets)
		if err != nil {
			return nil, false, fmt.Errorf("relation filter %s: %w", f.Field.Name, err)
		}

		bySource := map[string]map[string]struct{}{}
		for _, e := range edges {
			set := bySource[e.SourceID]
			if set == nil {
				set = map[string]struct{}{}
				bySource[e.SourceID] = set
			}
			set[e.TargetID] = struct{}{}
		}

		matching := map[string]struct{}{}
		for sourceID, targets := range bySource {
			covered := true
			for _, required := range f.Targets {
				if _, ok := targets[required]; !ok {
					covered = false
					break
				}
			}
			if covered {
				matching[sourceID] = struct{}{}
			}
		}

		if allowed == nil {
			allowed = matching
			continue
		}
		for id := range allowed {
			if _, ok := matching[id]; !ok {
				delete(allowed, id)
			}
		}
	}

	ids := make([]string, 0, len(allowed))
	for id := range allowed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, true, nil
}
