package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/IgorChugurov/public-api-sdk/internal/model"
)

// newMockDB creates a sqlmock database with automatic cleanup and expectation checking.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

// definitionJoinColumns is the column list for joined definition/field reads.
var definitionJoinColumns = []string{
	"id", "project_id", "name", "slug", "description",
	"enable_pagination", "page_size", "enable_filters",
	"max_file_size_mb", "max_files_count", "created_at", "updated_at",
	"f_id", "f_definition_id", "f_name", "f_kind", "f_label",
	"f_required", "f_searchable", "f_filterable", "f_display_in_table",
	"f_display_index", "f_target_definition_id", "f_created_at", "f_updated_at",
}

// instanceRowColumns is the column list for scanInstance results.
var instanceRowColumns = []string{
	"id", "slug", "definition_id", "project_id", "data", "created_by", "created_at", "updated_at",
}

// instanceWithTotalColumns is the column list for queryListInstances results.
var instanceWithTotalColumns = append([]string{"total_count"}, instanceRowColumns...)

// addDefinitionRow adds one joined definition/field row to a sqlmock.Rows.
// Pass empty fieldID for a definition with no fields (NULL field side).
func addDefinitionRow(rows *sqlmock.Rows, defID, projectID, name string, fieldID, fieldName, fieldKind string, displayIndex any, now time.Time) *sqlmock.Rows {
	if fieldID == "" {
		return rows.AddRow(
			defID, projectID, name, name, nil,
			true, nil, true, nil, nil, now, now,
			nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil,
		)
	}
	return rows.AddRow(
		defID, projectID, name, name, nil,
		true, nil, true, nil, nil, now, now,
		fieldID, defID, fieldName, fieldKind, nil,
		false, false, false, true, displayIndex, nil, now, now,
	)
}

func TestQueryGetDefinition(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows(definitionJoinColumns)
	addDefinitionRow(rows, "def-1", "proj-1", "products", "fld-2", "category", "manyToOne", 2, now)
	addDefinitionRow(rows, "def-1", "proj-1", "products", "fld-1", "name", "text", 1, now)
	addDefinitionRow(rows, "def-1", "proj-1", "products", "fld-3", "notes", "text", nil, now)
	mock.ExpectQuery("SELECT .+ FROM entity_definitions d").WithArgs("def-1").WillReturnRows(rows)

	def, err := queryGetDefinition(context.Background(), db, "def-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if def.ID != "def-1" || def.Name != "products" {
		t.Fatalf("got id=%q name=%q", def.ID, def.Name)
	}
	if len(def.Fields) != 3 {
		t.Fatalf("expected 3 fields, got %d", len(def.Fields))
	}
	// Fields come back sorted by display index, NULL index last.
	if def.Fields[0].Name != "name" || def.Fields[1].Name != "category" || def.Fields[2].Name != "notes" {
		t.Fatalf("field order = %q, %q, %q", def.Fields[0].Name, def.Fields[1].Name, def.Fields[2].Name)
	}
	if def.Fields[2].DisplayIndex != model.DisplayIndexUnset {
		t.Errorf("NULL display_index = %d, want sentinel", def.Fields[2].DisplayIndex)
	}
	if def.Fields[1].Kind != model.KindManyToOne {
		t.Errorf("field kind = %q", def.Fields[1].Kind)
	}
}

func TestQueryGetDefinition_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT .+ FROM entity_definitions d").WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(definitionJoinColumns))

	_, err := queryGetDefinition(context.Background(), db, "missing")
	if err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestQueryGetDefinition_NoFields(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows(definitionJoinColumns)
	addDefinitionRow(rows, "def-1", "proj-1", "empty", "", "", "", nil, now)
	mock.ExpectQuery("SELECT .+ FROM entity_definitions d").WithArgs("def-1").WillReturnRows(rows)

	def, err := queryGetDefinition(context.Background(), db, "def-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(def.Fields) != 0 {
		t.Fatalf("expected no fields, got %d", len(def.Fields))
	}
}

func TestQueryListDefinitions(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows(definitionJoinColumns)
	addDefinitionRow(rows, "def-1", "proj-1", "authors", "fld-1", "name", "text", 1, now)
	addDefinitionRow(rows, "def-2", "proj-1", "books", "fld-2", "title", "text", 1, now)
	addDefinitionRow(rows, "def-2", "proj-1", "books", "fld-3", "author", "manyToOne", 2, now)
	mock.ExpectQuery("SELECT .+ FROM entity_definitions d").WithArgs("proj-1").WillReturnRows(rows)

	defs, err := queryListDefinitions(context.Background(), db, "proj-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("expected 2 definitions, got %d", len(defs))
	}
	if defs[0].Name != "authors" || defs[1].Name != "books" {
		t.Fatalf("got %q, %q", defs[0].Name, defs[1].Name)
	}
	if len(defs[1].Fields) != 2 {
		t.Fatalf("books fields = %d, want 2", len(defs[1].Fields))
	}
}

func TestQueryGetInstance(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows(instanceRowColumns).
		AddRow("ei-1", "widget", "def-1", "proj-1", []byte(`{"name":"Widget","price":9.5}`), "alice", now, now)
	mock.ExpectQuery("SELECT .+ FROM entity_instances").WithArgs("ei-1", "def-1", "proj-1").WillReturnRows(rows)

	inst, err := queryGetInstance(context.Background(), db, "ei-1", "def-1", "proj-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inst.Slug != "widget" || inst.CreatedBy != "alice" {
		t.Fatalf("got slug=%q createdBy=%q", inst.Slug, inst.CreatedBy)
	}
	if inst.Data["name"] != "Widget" {
		t.Fatalf("data = %v", inst.Data)
	}
}

func TestQueryGetInstance_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT .+ FROM entity_instances").WithArgs("missing", "def-1", "proj-1").
		WillReturnError(sql.ErrNoRows)

	_, err := queryGetInstance(context.Background(), db, "missing", "def-1", "proj-1")
	if err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestQueryGetInstancesByIDs_Empty(t *testing.T) {
	db, _ := newMockDB(t)
	got, err := queryGetInstancesByIDs(context.Background(), db, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestQueryListInstances(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows(instanceWithTotalColumns).
		AddRow(42, "ei-1", "a", "def-1", "proj-1", []byte(`{"name":"A"}`), nil, now, now).
		AddRow(42, "ei-2", "b", "def-1", "proj-1", []byte(`{"name":"B"}`), nil, now, now)
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) OVER\\(\\) AS total_count, .+ FROM entity_instances").
		WithArgs("def-1", "proj-1", 20).
		WillReturnRows(rows)

	instances, total, err := queryListInstances(context.Background(), db, model.InstanceFilter{
		DefinitionID: "def-1",
		ProjectID:    "proj-1",
		Limit:        20,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 42 {
		t.Fatalf("total = %d, want 42", total)
	}
	if len(instances) != 2 || instances[0].ID != "ei-1" {
		t.Fatalf("instances = %v", instances)
	}
}

func TestQueryListInstances_DataFilterAndSearch(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows(instanceWithTotalColumns).
		AddRow(1, "ei-1", "a", "def-1", "proj-1", []byte(`{"status":"active"}`), nil, now, now)
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) OVER\\(\\) AS total_count, .+ data->>\\$3 = ANY\\(\\$4\\) .+ ILIKE").
		WithArgs("def-1", "proj-1", "status", sqlmock.AnyArg(), "wid", "name", 10, 10).
		WillReturnRows(rows)

	instances, total, err := queryListInstances(context.Background(), db, model.InstanceFilter{
		DefinitionID: "def-1",
		ProjectID:    "proj-1",
		Data:         map[string][]string{"status": {"active", "draft"}},
		Search:       "wid",
		SearchFields: []string{"name"},
		Limit:        10,
		Offset:       10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || len(instances) != 1 {
		t.Fatalf("total=%d instances=%d", total, len(instances))
	}
}

func TestQueryListInstances_IDRestriction(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) OVER\\(\\) AS total_count, .+ id = ANY\\(\\$3\\)").
		WithArgs("def-1", "proj-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(instanceWithTotalColumns))

	instances, total, err := queryListInstances(context.Background(), db, model.InstanceFilter{
		DefinitionID: "def-1",
		ProjectID:    "proj-1",
		IDs:          []string{"ei-1", "ei-2"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 0 || instances != nil {
		t.Fatalf("expected empty result, got total=%d %v", total, instances)
	}
}

func TestQuerySearchInstances(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows(instanceWithTotalColumns).
		AddRow(3, "ei-1", "a", "def-1", "proj-1", []byte(`{"name":"Widget"}`), nil, now, now)
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) OVER\\(\\) AS total_count, .+ ILIKE .+ OR .+ ILIKE").
		WithArgs("def-1", "proj-1", "wid", "name", "description", 5, 5).
		WillReturnRows(rows)

	instances, total, err := querySearchInstances(context.Background(), db, "def-1", "proj-1", "wid", []string{"name", "description"}, nil, 5, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 3 || len(instances) != 1 {
		t.Fatalf("total=%d instances=%d", total, len(instances))
	}
}

func TestQuerySearchInstances_IDRestriction(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("id = ANY\\(\\$3\\).+ILIKE").
		WithArgs("def-1", "proj-1", sqlmock.AnyArg(), "wid", "name").
		WillReturnRows(sqlmock.NewRows(instanceWithTotalColumns))

	instances, total, err := querySearchInstances(context.Background(), db, "def-1", "proj-1", "wid", []string{"name"}, []string{"ei-9"}, 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 0 || instances != nil {
		t.Fatalf("expected empty result, got total=%d %v", total, instances)
	}
}

func TestQuerySlugExists(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT EXISTS").WithArgs("def-1", "widget").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	taken, err := querySlugExists(context.Background(), db, "def-1", "widget")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !taken {
		t.Fatal("expected slug to be taken")
	}
}

func TestQueryCreateInstance(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	inst := &model.Instance{
		ID: "ei-new", Slug: "widget", DefinitionID: "def-1", ProjectID: "proj-1",
		Data:      map[string]any{"name": "Widget"},
		CreatedBy: "alice", CreatedAt: now, UpdatedAt: now,
	}
	mock.ExpectExec("INSERT INTO entity_instances").
		WithArgs("ei-new", "widget", "def-1", "proj-1", []byte(`{"name":"Widget"}`), "alice", now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := queryCreateInstance(context.Background(), db, inst); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestQueryUpdateInstanceData(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows(instanceRowColumns).
		AddRow("ei-1", "widget", "def-1", "proj-1", []byte(`{"name":"New"}`), nil, now, now)
	mock.ExpectQuery("UPDATE entity_instances").
		WithArgs("ei-1", "def-1", "proj-1", []byte(`{"name":"New"}`)).
		WillReturnRows(rows)

	inst, err := queryUpdateInstanceData(context.Background(), db, "ei-1", "def-1", "proj-1", map[string]any{"name": "New"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inst.Data["name"] != "New" {
		t.Fatalf("data = %v", inst.Data)
	}
}

func TestQueryDeleteInstance_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("DELETE FROM entity_instances").WithArgs("missing", "def-1", "proj-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := queryDeleteInstance(context.Background(), db, "missing", "def-1", "proj-1"); err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestQueryEdgesBySource(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{"id", "source_id", "target_id", "field_id", "kind", "created_at"}).
		AddRow("er-1", "ei-1", "ei-t1", "fld-rel", "manyToMany", now).
		AddRow("er-2", "ei-1", "ei-t2", "fld-rel", "manyToMany", now)
	mock.ExpectQuery("SELECT .+ FROM entity_relations").
		WithArgs("ei-1", sqlmock.AnyArg()).
		WillReturnRows(rows)

	edges, err := queryEdgesBySource(context.Background(), db, "ei-1", []string{"fld-rel"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(edges) != 2 || edges[0].TargetID != "ei-t1" {
		t.Fatalf("edges = %v", edges)
	}
	if edges[0].Kind != model.KindManyToMany {
		t.Errorf("kind = %q", edges[0].Kind)
	}
}

func TestQueryEdgesBySource_NoFields(t *testing.T) {
	db, _ := newMockDB(t)
	edges, err := queryEdgesBySource(context.Background(), db, "ei-1", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if edges != nil {
		t.Fatalf("expected nil, got %v", edges)
	}
}

func TestQueryEdgeSources(t *testing.T) {
	db, mock := newMockDB(t)

	rows := sqlmock.NewRows([]string{"source_id"}).AddRow("ei-1").AddRow("ei-2")
	mock.ExpectQuery("SELECT DISTINCT source_id").
		WithArgs("fld-a", "ei-t1", "fld-b", "ei-t2").
		WillReturnRows(rows)

	sources, err := queryEdgeSources(context.Background(), db, []model.FieldTarget{
		{FieldID: "fld-a", TargetID: "ei-t1"},
		{FieldID: "fld-b", TargetID: "ei-t2"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sources) != 2 || sources[0] != "ei-1" {
		t.Fatalf("sources = %v", sources)
	}
}

func TestQueryRelatedInstances(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{
		"source_id", "field_id",
		"id", "slug", "definition_id", "project_id", "data", "created_by", "created_at", "updated_at",
	}).
		AddRow("ei-1", "fld-rel", "ei-t1", "target-one", "def-2", "proj-1", []byte(`{"name":"T1"}`), nil, now, now)
	mock.ExpectQuery("SELECT r.source_id, r.field_id, .+ JOIN entity_instances i").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(rows)

	related, err := queryRelatedInstances(context.Background(), db, []string{"ei-1"}, []string{"fld-rel"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(related) != 1 {
		t.Fatalf("expected 1 row, got %d", len(related))
	}
	rt := related[0]
	if rt.SourceID != "ei-1" || rt.FieldID != "fld-rel" || rt.Target.ID != "ei-t1" {
		t.Fatalf("related = %+v", rt)
	}
	if rt.Target.Data["name"] != "T1" {
		t.Fatalf("target data = %v", rt.Target.Data)
	}
}

func TestQueryInsertEdges(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()

	mock.ExpectExec("INSERT INTO entity_relations").
		WithArgs(
			"er-1", "ei-1", "ei-t1", "fld-rel", "manyToMany", now,
			"er-2", "ei-1", "ei-t2", "fld-rel", "manyToMany", now,
		).
		WillReturnResult(sqlmock.NewResult(0, 2))

	edges := []*model.Edge{
		{ID: "er-1", SourceID: "ei-1", TargetID: "ei-t1", FieldID: "fld-rel", Kind: model.KindManyToMany, CreatedAt: now},
		{ID: "er-2", SourceID: "ei-1", TargetID: "ei-t2", FieldID: "fld-rel", Kind: model.KindManyToMany, CreatedAt: now},
	}
	if err := queryInsertEdges(context.Background(), db, edges); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestQueryInsertEdges_Empty(t *testing.T) {
	db, _ := newMockDB(t)
	if err := queryInsertEdges(context.Background(), db, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestQueryDeleteEdges(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("DELETE FROM entity_relations").
		WithArgs("ei-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 3))

	if err := queryDeleteEdges(context.Background(), db, "ei-1", []string{"fld-rel"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestQueryAttachments(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{
		"id", "instance_id", "field_id", "storage_key", "name", "size", "content_type", "created_at",
	}).
		AddRow("ef-1", "ei-1", "fld-files", "proj-1/ei-1/photo.png", "photo.png", 1024, "image/png", now).
		AddRow("ef-2", "ei-1", "fld-files", "proj-1/ei-1/doc.pdf", "doc.pdf", 2048, nil, now)
	mock.ExpectQuery("SELECT .+ FROM entity_attachments").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(rows)

	atts, err := queryAttachments(context.Background(), db, []string{"ei-1"}, []string{"fld-files"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(atts) != 2 || atts[0].Key != "proj-1/ei-1/photo.png" {
		t.Fatalf("attachments = %v", atts)
	}
	if atts[1].ContentType != "" {
		t.Errorf("content type = %q, want empty", atts[1].ContentType)
	}
}

func TestQueryAddAttachment(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	att := &model.Attachment{
		ID: "ef-1", InstanceID: "ei-1", FieldID: "fld-files",
		Key: "proj-1/ei-1/photo.png", Name: "photo.png", Size: 1024,
		ContentType: "image/png", CreatedAt: now,
	}
	mock.ExpectExec("INSERT INTO entity_attachments").
		WithArgs("ef-1", "ei-1", sqlmock.AnyArg(), "proj-1/ei-1/photo.png", "photo.png", int64(1024), sqlmock.AnyArg(), now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := queryAddAttachment(context.Background(), db, att); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestQueryRemoveAttachment_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("DELETE FROM entity_attachments").WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := queryRemoveAttachment(context.Background(), db, "missing"); err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestParseSortClause(t *testing.T) {
	for _, tc := range []struct {
		sortBy string
		order  model.SortOrder
		want   string
	}{
		{"", "", "created_at DESC"},
		{"created_at", model.SortAsc, "created_at ASC"},
		{"updated_at", model.SortDesc, "updated_at DESC"},
		{"slug", model.SortAsc, "slug ASC"},
		{"data->>'evil'", model.SortAsc, "created_at ASC"},
		{"evil_column", "", "created_at DESC"},
	} {
		if got := parseSortClause(tc.sortBy, tc.order); got != tc.want {
			t.Errorf("parseSortClause(%q, %q) = %q, want %q", tc.sortBy, tc.order, got, tc.want)
		}
	}
}

func TestScanHelpers(t *testing.T) {
	if nullString("").Valid {
		t.Error("nullString(\"\") should be invalid")
	}
	if ns := nullString("hello"); !ns.Valid || ns.String != "hello" {
		t.Errorf("nullString(\"hello\") = %v", ns)
	}

	if got := string(jsonbBytes(nil)); got != "{}" {
		t.Errorf("jsonbBytes(nil) = %s", got)
	}
	if got := string(jsonbBytes(map[string]any{"key": "value"})); got != `{"key":"value"}` {
		t.Errorf("jsonbBytes = %s", got)
	}
}
