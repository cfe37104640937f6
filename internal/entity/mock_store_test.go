package entity

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/IgorChugurov/public-api-sdk/internal/model"
	"github.com/IgorChugurov/public-api-sdk/internal/store"
)

// mockStore is an in-memory store.Store for facade tests.
type mockStore struct {
	definitions map[string]*model.Definition
	instances   map[string]*model.Instance
	edges       []*model.Edge
	attachments []*model.Attachment

	definitionCalls int
	failWith        error

	// edgesErr fails edge reads only, leaving writes working.
	edgesErr error
}

var _ store.Store = (*mockStore)(nil)

func newMockStore() *mockStore {
	return &mockStore{
		definitions: map[string]*model.Definition{},
		instances:   map[string]*model.Instance{},
	}
}

func (s *mockStore) GetDefinition(ctx context.Context, definitionID string) (*model.Definition, error) {
	s.definitionCalls++
	if s.failWith != nil {
		return nil, s.failWith
	}
	def, ok := s.definitions[definitionID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return def, nil
}

func (s *mockStore) ListDefinitions(ctx context.Context, projectID string) ([]*model.Definition, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	var out []*model.Definition
	for _, def := range s.definitions {
		if def.ProjectID == projectID {
			out = append(out, def)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *mockStore) GetInstance(ctx context.Context, id, definitionID, projectID string) (*model.Instance, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	inst, ok := s.instances[id]
	if !ok || inst.DefinitionID != definitionID || inst.ProjectID != projectID {
		return nil, sql.ErrNoRows
	}
	return cloneInstance(inst), nil
}

func (s *mockStore) GetInstancesByIDs(ctx context.Context, ids []string) ([]*model.Instance, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	var out []*model.Instance
	for _, id := range ids {
		if inst, ok := s.instances[id]; ok {
			out = append(out, cloneInstance(inst))
		}
	}
	return out, nil
}

func (s *mockStore) ListInstances(ctx context.Context, filter model.InstanceFilter) ([]*model.Instance, int, error) {
	if s.failWith != nil {
		return nil, 0, s.failWith
	}

	allowed := map[string]struct{}{}
	if filter.IDs != nil {
		for _, id := range filter.IDs {
			allowed[id] = struct{}{}
		}
	}

	var matched []*model.Instance
	for _, inst := range s.instances {
		if inst.DefinitionID != filter.DefinitionID || inst.ProjectID != filter.ProjectID {
			continue
		}
		if filter.IDs != nil {
			if _, ok := allowed[inst.ID]; !ok {
				continue
			}
		}
		if !matchesData(inst, filter.Data) {
			continue
		}
		if filter.Search != "" && !matchesSearch(inst, filter.Search, filter.SearchFields) {
			continue
		}
		matched = append(matched, cloneInstance(inst))
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	total := len(matched)

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			matched = nil
		} else {
			matched = matched[filter.Offset:]
		}
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func (s *mockStore) SearchInstances(ctx context.Context, definitionID, projectID, term string, fields, ids []string, limit, offset int) ([]*model.Instance, int, error) {
	return s.ListInstances(ctx, model.InstanceFilter{
		DefinitionID: definitionID,
		ProjectID:    projectID,
		IDs:          ids,
		Search:       term,
		SearchFields: fields,
		Limit:        limit,
		Offset:       offset,
	})
}

func matchesData(inst *model.Instance, data map[string][]string) bool {
	for key, values := range data {
		got := fmt.Sprintf("%v", inst.Data[key])
		ok := false
		for _, v := range values {
			if got == v {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

func matchesSearch(inst *model.Instance, query string, fields []string) bool {
	for _, name := range fields {
		v, _ := inst.Data[name].(string)
		if strings.Contains(strings.ToLower(v), strings.ToLower(query)) {
			return true
		}
	}
	return false
}

func (s *mockStore) SlugExists(ctx context.Context, definitionID, slug string) (bool, error) {
	if s.failWith != nil {
		return false, s.failWith
	}
	for _, inst := range s.instances {
		if inst.DefinitionID == definitionID && inst.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (s *mockStore) CreateInstance(ctx context.Context, inst *model.Instance) error {
	if s.failWith != nil {
		return s.failWith
	}
	s.instances[inst.ID] = cloneInstance(inst)
	return nil
}

func (s *mockStore) UpdateInstanceData(ctx context.Context, id, definitionID, projectID string, data map[string]any) (*model.Instance, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	inst, ok := s.instances[id]
	if !ok || inst.DefinitionID != definitionID || inst.ProjectID != projectID {
		return nil, sql.ErrNoRows
	}
	inst.Data = data
	return cloneInstance(inst), nil
}

func (s *mockStore) DeleteInstance(ctx context.Context, id, definitionID, projectID string) error {
	if s.failWith != nil {
		return s.failWith
	}
	inst, ok := s.instances[id]
	if !ok || inst.DefinitionID != definitionID || inst.ProjectID != projectID {
		return sql.ErrNoRows
	}
	delete(s.instances, id)
	var kept []*model.Edge
	for _, e := range s.edges {
		if e.SourceID != id && e.TargetID != id {
			kept = append(kept, e)
		}
	}
	s.edges = kept
	return nil
}

func (s *mockStore) EdgesBySource(ctx context.Context, sourceID string, fieldIDs []string) ([]*model.Edge, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	if s.edgesErr != nil {
		return nil, s.edgesErr
	}
	fields := toSet(fieldIDs)
	var out []*model.Edge
	for _, e := range s.edges {
		if e.SourceID != sourceID {
			continue
		}
		if _, ok := fields[e.FieldID]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *mockStore) EdgesByField(ctx context.Context, fieldID string, targetIDs []string) ([]*model.Edge, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	targets := toSet(targetIDs)
	var out []*model.Edge
	for _, e := range s.edges {
		if e.FieldID != fieldID {
			continue
		}
		if _, ok := targets[e.TargetID]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *mockStore) EdgeSources(ctx context.Context, pairs []model.FieldTarget) ([]string, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	seen := map[string]struct{}{}
	var out []string
	for _, e := range s.edges {
		for _, p := range pairs {
			if e.FieldID == p.FieldID && e.TargetID == p.TargetID {
				if _, ok := seen[e.SourceID]; !ok {
					seen[e.SourceID] = struct{}{}
					out = append(out, e.SourceID)
				}
			}
		}
	}
	return out, nil
}

func (s *mockStore) RelatedInstances(ctx context.Context, sourceIDs, fieldIDs []string) ([]*model.RelatedTarget, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	sources := toSet(sourceIDs)
	fields := toSet(fieldIDs)
	var out []*model.RelatedTarget
	for _, e := range s.edges {
		if _, ok := sources[e.SourceID]; !ok {
			continue
		}
		if _, ok := fields[e.FieldID]; !ok {
			continue
		}
		if target, ok := s.instances[e.TargetID]; ok {
			out = append(out, &model.RelatedTarget{
				SourceID: e.SourceID,
				FieldID:  e.FieldID,
				Target:   cloneInstance(target),
			})
		}
	}
	return out, nil
}

func (s *mockStore) InsertEdges(ctx context.Context, edges []*model.Edge) error {
	if s.failWith != nil {
		return s.failWith
	}
	s.edges = append(s.edges, edges...)
	return nil
}

func (s *mockStore) DeleteEdges(ctx context.Context, sourceID string, fieldIDs []string) error {
	if s.failWith != nil {
		return s.failWith
	}
	fields := toSet(fieldIDs)
	var kept []*model.Edge
	for _, e := range s.edges {
		if e.SourceID == sourceID {
			if _, ok := fields[e.FieldID]; ok {
				continue
			}
		}
		kept = append(kept, e)
	}
	s.edges = kept
	return nil
}

func (s *mockStore) Attachments(ctx context.Context, instanceIDs, fieldIDs []string) ([]*model.Attachment, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	instances := toSet(instanceIDs)
	fields := toSet(fieldIDs)
	var out []*model.Attachment
	for _, a := range s.attachments {
		if _, ok := instances[a.InstanceID]; !ok {
			continue
		}
		if len(fieldIDs) > 0 {
			if _, ok := fields[a.FieldID]; !ok {
				continue
			}
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *mockStore) AddAttachment(ctx context.Context, att *model.Attachment) error {
	if s.failWith != nil {
		return s.failWith
	}
	s.attachments = append(s.attachments, att)
	return nil
}

func (s *mockStore) RemoveAttachment(ctx context.Context, id string) error {
	if s.failWith != nil {
		return s.failWith
	}
	for i, a := range s.attachments {
		if a.ID == id {
			s.attachments = append(s.attachments[:i], s.attachments[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *mockStore) Close() error { return nil }

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func cloneInstance(inst *model.Instance) *model.Instance {
	cp := *inst
	cp.Data = make(map[string]any, len(inst.Data))
	for k, v := range inst.Data {
		cp.Data[k] = v
	}
	return &cp
}

// capturingPublisher records published events for assertions.
type capturingPublisher struct {
	topics []string
	events []any
}

func (p *capturingPublisher) Publish(ctx context.Context, topic string, event any) error {
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return nil
}

func (p *capturingPublisher) Close() error { return nil }
