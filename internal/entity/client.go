// Package entity is the data-access facade over runtime-defined
// entities: schema-aware CRUD with slug allocation, batched relation
// and attachment resolution, and flattened records on the way out.
package entity

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/IgorChugurov/public-api-sdk/internal/events"
	"github.com/IgorChugurov/public-api-sdk/internal/idgen"
	"github.com/IgorChugurov/public-api-sdk/internal/model"
	"github.com/IgorChugurov/public-api-sdk/internal/resolver"
	"github.com/IgorChugurov/public-api-sdk/internal/schema"
	"github.com/IgorChugurov/public-api-sdk/internal/slug"
	"github.com/IgorChugurov/public-api-sdk/internal/store"
)

// BlobStore persists attachment content outside the database.
type BlobStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	Delete(ctx context.Context, key string) error
}

// Config identifies one client configuration. Clients with equal
// configs are interchangeable, which lets a registry share them.
type Config struct {
	// ProjectID scopes every operation to one tenant project.
	ProjectID string

	// DisableCache makes every operation refetch its schema.
	DisableCache bool

	// CacheTTL overrides the default schema cache lifetime when positive.
	CacheTTL time.Duration
}

// Client exposes the entity operations for one project.
type Client struct {
	store       store.Store
	schemas     *schema.Cache
	relations   *resolver.Relations
	attachments *resolver.Attachments
	pub         events.Publisher
	blobs       BlobStore
	log         *slog.Logger
	projectID   string
}

// Option customizes a Client.
type Option func(*Client)

// WithPublisher emits lifecycle events through pub instead of dropping them.
func WithPublisher(pub events.Publisher) Option {
	return func(c *Client) { c.pub = pub }
}

// WithBlobStore stores attachment content in bs.
func WithBlobStore(bs BlobStore) Option {
	return func(c *Client) { c.blobs = bs }
}

// WithLogger routes the client's logging through log.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// NewClient creates a client over the given store.
func NewClient(st store.Store, cfg Config, opts ...Option) *Client {
	c := &Client{
		store:       st,
		schemas:     schema.New(st, schema.Options{Disabled: cfg.DisableCache, TTL: cfg.CacheTTL}),
		relations:   resolver.NewRelations(st),
		attachments: resolver.NewAttachments(st),
		pub:         &events.NoopPublisher{},
		log:         slog.Default(),
		projectID:   cfg.ProjectID,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Definition returns the schema of one definition, from cache when fresh.
func (c *Client) Definition(ctx context.Context, definitionID string) (*model.Definition, error) {
	def, err := c.schemas.Definition(ctx, definitionID)
	if err != nil {
		return nil, classify("entity.definition", err)
	}
	return def, nil
}

// Definitions lists every definition of the project.
func (c *Client) Definitions(ctx context.Context) ([]*model.Definition, error) {
	defs, err := c.store.ListDefinitions(ctx, c.projectID)
	if err != nil {
		return nil, classify("entity.definitions", err)
	}
	return defs, nil
}

// ClearSchemaCache drops every cached definition. Other SDK processes
// listening on the event stream can react by clearing their own caches.
func (c *Client) ClearSchemaCache(ctx context.Context) {
	c.schemas.Clear()
	c.publish(ctx, events.TopicSchemaCacheCleared, events.SchemaCacheCleared{
		ProjectID: c.projectID,
	})
}

// GetInstance fetches one record with its relation and attachment
// values resolved.
func (c *Client) GetInstance(ctx context.Context, definitionID, instanceID string, opts GetOptions) (model.FlatRecord, error) {
	const op = "entity.get"

	def, err := c.schemas.Definition(ctx, definitionID)
	if err != nil {
		return nil, classify(op, err)
	}

	inst, err := c.store.GetInstance(ctx, instanceID, def.ID, c.projectID)
	if err != nil {
		return nil, classify(op, err)
	}
	if inst.DefinitionID != def.ID {
		return nil, &Error{Kind: KindNotFound, Op: op, Msg: "record not found"}
	}

	return c.buildRecord(ctx, op, def, inst, opts.RelationsAsIDs)
}

// ListInstances returns one page of records matching the params.
func (c *Client) ListInstances(ctx context.Context, definitionID string, params ListParams) (*ListResult, error) {
	const op = "entity.list"

	def, err := c.schemas.Definition(ctx, definitionID)
	if err != nil {
		return nil, classify(op, err)
	}

	page := params.Page
	if page < 1 {
		page = 1
	}
	limit := params.Limit
	if limit <= 0 {
		limit = def.PageSize
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	relFilters, dataFilters := c.partitionFilters(def, params)

	allowed, restricted, err := c.relations.AllowedIDs(ctx, relFilters)
	if err != nil {
		return nil, resolutionError(op, err)
	}
	// No source satisfies the relation filters: skip the main read.
	if restricted && len(allowed) == 0 {
		return &ListResult{Data: []model.FlatRecord{}, Pagination: paginate(page, limit, 0)}, nil
	}

	var (
		instances []*model.Instance
		total     int
	)
	if term := strings.TrimSpace(params.Search); term != "" {
		// Searching delegates to the server-side search path, which
		// scores against the searchable fields only.
		var allowedIDs []string
		if restricted {
			allowedIDs = allowed
		}
		instances, total, err = c.store.SearchInstances(ctx, def.ID, c.projectID, term, def.SearchFields(), allowedIDs, limit, (page-1)*limit)
		if err != nil {
			return nil, resolutionError(op, err)
		}
	} else {
		filter := model.InstanceFilter{
			DefinitionID: def.ID,
			ProjectID:    c.projectID,
			Data:         dataFilters,
			SortBy:       params.SortBy,
			SortOrder:    params.SortOrder,
			Limit:        limit,
			Offset:       (page - 1) * limit,
		}
		if restricted {
			filter.IDs = allowed
		}
		instances, total, err = c.store.ListInstances(ctx, filter)
		if err != nil {
			return nil, classify(op, err)
		}
	}

	ids := make([]string, len(instances))
	for i, inst := range instances {
		ids[i] = inst.ID
	}

	fileFields := def.AttachmentFields()
	if len(fileFields) > 0 && len(ids) > 0 {
		resolved, err := c.attachments.Resolve(ctx, fileFields, ids)
		if err != nil {
			return nil, resolutionError(op, err)
		}
		for _, inst := range instances {
			if byField, ok := resolved[inst.ID]; ok {
				resolver.ApplyAttachments(inst.Data, fileFields, byField)
			}
		}
	}

	// List views resolve only the relation fields shown in tables.
	tableFields := def.TableRelationFields()
	related, err := c.relations.ResolveMany(ctx, tableFields, ids)
	if err != nil {
		return nil, resolutionError(op, err)
	}

	records := make([]model.FlatRecord, len(instances))
	for i, inst := range instances {
		records[i] = flattenRecord(inst, tableFields, related[inst.ID], params.RelationsAsIDs)
	}

	return &ListResult{Data: records, Pagination: paginate(page, limit, total)}, nil
}

// CreateInstance persists a new record, allocates its slug, links its
// relations, and returns the resolved record.
func (c *Client) CreateInstance(ctx context.Context, definitionID string, in CreateData) (model.FlatRecord, error) {
	const op = "entity.create"

	def, err := c.schemas.Definition(ctx, definitionID)
	if err != nil {
		return nil, classify(op, err)
	}

	name, ok := in.Data["name"].(string)
	if !ok || strings.TrimSpace(name) == "" {
		return nil, validationError(op, "data.name must be a non-empty string")
	}

	slugVal, err := slug.Unique(ctx, name, def.ID, c.store.SlugExists)
	if err != nil {
		if errors.Is(err, slug.ErrEmptyName) {
			return nil, validationError(op, "name cannot be reduced to a slug")
		}
		return nil, classify(op, err)
	}

	// Relation values never land in the data blob.
	data := make(map[string]any, len(in.Data))
	for k, v := range in.Data {
		if f := def.Field(k); f != nil && f.Kind.IsRelation() {
			continue
		}
		data[k] = v
	}

	id, err := idgen.Instance()
	if err != nil {
		return nil, classify(op, err)
	}
	now := time.Now().UTC()
	inst := &model.Instance{
		ID:           id,
		Slug:         slugVal,
		DefinitionID: def.ID,
		ProjectID:    c.projectID,
		Data:         data,
		CreatedBy:    ActorFrom(ctx),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := c.store.CreateInstance(ctx, inst); err != nil {
		return nil, classify(op, err)
	}

	if err := c.linkRelations(ctx, op, def, id, in.Relations, now); err != nil {
		return nil, err
	}

	rec, err := c.buildRecord(ctx, op, def, inst, false)
	if err != nil {
		return nil, err
	}

	c.publish(ctx, events.TopicInstanceCreated, events.InstanceCreated{
		DefinitionID: def.ID,
		Record:       rec,
		Actor:        inst.CreatedBy,
	})
	return rec, nil
}

// UpdateInstance shallow-merges the payload over the stored data blob
// and fully replaces the edges of every relation field it names.
func (c *Client) UpdateInstance(ctx context.Context, definitionID, instanceID string, in UpdateData) (model.FlatRecord, error) {
	const op = "entity.update"

	def, err := c.schemas.Definition(ctx, definitionID)
	if err != nil {
		return nil, classify(op, err)
	}

	existing, err := c.store.GetInstance(ctx, instanceID, def.ID, c.projectID)
	if err != nil {
		return nil, classify(op, err)
	}

	merged := make(map[string]any, len(existing.Data)+len(in.Data))
	for k, v := range existing.Data {
		merged[k] = v
	}
	for k, v := range in.Data {
		if f := def.Field(k); f != nil && f.Kind.IsRelation() {
			continue
		}
		merged[k] = v
	}

	updated, err := c.store.UpdateInstanceData(ctx, instanceID, def.ID, c.projectID, merged)
	if err != nil {
		return nil, classify(op, err)
	}

	// Each named relation field is fully replaced: old edges deleted,
	// new targets inserted.
	if len(in.Relations) > 0 {
		now := time.Now().UTC()
		for name := range in.Relations {
			f := def.Field(name)
			if f == nil || !f.Kind.IsRelation() {
				c.log.Warn("skipping unknown relation field", "op", op, "field", name, "definition", def.ID)
				continue
			}
			if err := c.store.DeleteEdges(ctx, instanceID, []string{f.ID}); err != nil {
				return nil, classify(op, err)
			}
		}
		if err := c.linkRelations(ctx, op, def, instanceID, in.Relations, now); err != nil {
			return nil, err
		}
	}

	// Re-resolving relations and attachments for the response is a
	// display nicety; the write already succeeded.
	rec, err := c.buildRecord(ctx, op, def, updated, false)
	if err != nil {
		c.log.Warn("resolving updated record failed", "op", op, "instance", updated.ID, "error", err)
		rec = updated.Flatten()
	}

	c.publish(ctx, events.TopicInstanceUpdated, events.InstanceUpdated{
		DefinitionID: def.ID,
		Record:       rec,
		Changes:      in.Data,
		Actor:        ActorFrom(ctx),
	})
	return rec, nil
}

// DeleteInstance removes a record. Its edges and attachment rows go
// with it by cascade.
func (c *Client) DeleteInstance(ctx context.Context, definitionID, instanceID string) error {
	const op = "entity.delete"

	def, err := c.schemas.Definition(ctx, definitionID)
	if err != nil {
		return classify(op, err)
	}

	if err := c.store.DeleteInstance(ctx, instanceID, def.ID, c.projectID); err != nil {
		return classify(op, err)
	}

	c.publish(ctx, events.TopicInstanceDeleted, events.InstanceDeleted{
		DefinitionID: def.ID,
		InstanceID:   instanceID,
		Actor:        ActorFrom(ctx),
	})
	return nil
}

// buildRecord resolves attachments and relations for one instance and
// flattens it.
func (c *Client) buildRecord(ctx context.Context, op string, def *model.Definition, inst *model.Instance, asIDs bool) (model.FlatRecord, error) {
	fileFields := def.AttachmentFields()
	if len(fileFields) > 0 {
		resolved, err := c.attachments.Resolve(ctx, fileFields, []string{inst.ID})
		if err != nil {
			return nil, resolutionError(op, err)
		}
		resolver.ApplyAttachments(inst.Data, fileFields, resolved[inst.ID])
	}

	relFields := def.RelationFields()
	related, err := c.relations.ResolveOne(ctx, relFields, inst.ID)
	if err != nil {
		return nil, resolutionError(op, err)
	}

	return flattenRecord(inst, relFields, related, asIDs), nil
}

// partitionFilters splits the requested filters into relation filters
// and data-blob filters. Unknown fields and non-filterable scalar
// fields are dropped.
func (c *Client) partitionFilters(def *model.Definition, params ListParams) ([]resolver.RelationFilter, map[string][]string) {
	var relFilters []resolver.RelationFilter
	var dataFilters map[string][]string

	for name, values := range params.Filters {
		f := def.Field(name)
		if f == nil || len(values) == 0 {
			continue
		}
		if f.Kind.IsRelation() {
			mode := resolver.ModeAny
			if params.FilterModes[name] == FilterAll {
				mode = resolver.ModeAll
			}
			relFilters = append(relFilters, resolver.RelationFilter{Field: f, Targets: values, Mode: mode})
			continue
		}
		if f.Filterable {
			if dataFilters == nil {
				dataFilters = map[string][]string{}
			}
			dataFilters[name] = values
		}
	}
	return relFilters, dataFilters
}

// linkRelations inserts the edges of the named relation fields in one
// statement. Names that do not resolve to a relation field are skipped
// with a warning. Single-cardinality fields keep only the first target.
func (c *Client) linkRelations(ctx context.Context, op string, def *model.Definition, sourceID string, relations map[string][]string, now time.Time) error {
	var edges []*model.Edge
	for name, targets := range relations {
		f := def.Field(name)
		if f == nil || !f.Kind.IsRelation() {
			c.log.Warn("skipping unknown relation field", "op", op, "field", name, "definition", def.ID)
			continue
		}
		if f.Kind.IsSingle() && len(targets) > 1 {
			targets = targets[:1]
		}
		for _, target := range targets {
			edgeID, err := idgen.Edge()
			if err != nil {
				return classify(op, err)
			}
			edges = append(edges, &model.Edge{
				ID:        edgeID,
				SourceID:  sourceID,
				TargetID:  target,
				FieldID:   f.ID,
				Kind:      f.Kind,
				CreatedAt: now,
			})
		}
	}
	if err := c.store.InsertEdges(ctx, edges); err != nil {
		return classify(op, err)
	}
	return nil
}

// publish emits a lifecycle event, logging instead of failing the
// operation when the publisher is down.
func (c *Client) publish(ctx context.Context, topic string, event any) {
	if err := c.pub.Publish(ctx, topic, event); err != nil {
		c.log.Warn("publish event failed", "topic", topic, "error", err)
	}
}

func paginate(page, limit, total int) Pagination {
	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Pagination{
		Page:            page,
		Limit:           limit,
		Total:           total,
		TotalPages:      totalPages,
		HasPreviousPage: page > 1,
		HasNextPage:     page < totalPages,
	}
}
