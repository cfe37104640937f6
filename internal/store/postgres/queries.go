package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/lib/pq"

	"github.com/IgorChugurov/public-api-sdk/internal/model"
)

// definitionColumns is the column list for joined definition reads.
const definitionColumns = `d.id, d.project_id, d.name, d.slug, d.description,
	d.enable_pagination, d.page_size, d.enable_filters,
	d.max_file_size_mb, d.max_files_count, d.created_at, d.updated_at`

// fieldColumns is the column list for the LEFT JOINed field side; every
// column scans as nullable because a definition may have no fields yet.
const fieldColumns = `f.id, f.definition_id, f.name, f.kind, f.label,
	f.required, f.searchable, f.filterable, f.display_in_table,
	f.display_index, f.target_definition_id, f.created_at, f.updated_at`

// instanceColumns is the column list for SELECT statements on entity_instances.
const instanceColumns = `id, slug, definition_id, project_id, data, created_by, created_at, updated_at`

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func queryGetDefinition(ctx context.Context, db executor, definitionID string) (*model.Definition, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+definitionColumns+`, `+fieldColumns+`
		FROM entity_definitions d
		LEFT JOIN entity_fields f ON f.definition_id = d.id
		WHERE d.id = $1`,
		definitionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	defs, err := scanDefinitionRows(rows)
	if err != nil {
		return nil, err
	}
	if len(defs) == 0 {
		return nil, sql.ErrNoRows
	}
	return defs[0], nil
}

func queryListDefinitions(ctx context.Context, db executor, projectID string) ([]*model.Definition, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+definitionColumns+`, `+fieldColumns+`
		FROM entity_definitions d
		LEFT JOIN entity_fields f ON f.definition_id = d.id
		WHERE d.project_id = $1
		ORDER BY d.name, d.id`,
		projectID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDefinitionRows(rows)
}

func queryGetInstance(ctx context.Context, db executor, id, definitionID, projectID string) (*model.Instance, error) {
	row := db.QueryRowContext(ctx, `
		SELECT `+instanceColumns+`
		FROM entity_instances
		WHERE id = $1 AND definition_id = $2 AND project_id = $3`,
		id, definitionID, projectID,
	)
	return scanInstance(row)
}

func queryGetInstancesByIDs(ctx context.Context, db executor, ids []string) ([]*model.Instance, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := db.QueryContext(ctx, `
		SELECT `+instanceColumns+`
		FROM entity_instances
		WHERE id = ANY($1)`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInstances(rows)
}

func queryListInstances(ctx context.Context, db executor, filter model.InstanceFilter) ([]*model.Instance, int, error) {
	var (
		whereClauses []string
		args         []any
		argIdx       int
	)

	nextArg := func() string {
		argIdx++
		return fmt.Sprintf("$%d", argIdx)
	}

	whereClauses = append(whereClauses, "definition_id = "+nextArg())
	args = append(args, filter.DefinitionID)

	whereClauses = append(whereClauses, "project_id = "+nextArg())
	args = append(args, filter.ProjectID)

	if filter.IDs != nil {
		whereClauses = append(whereClauses, "id = ANY("+nextArg()+")")
		args = append(args, pq.Array(filter.IDs))
	}

	// Sort data filter keys so the generated SQL is deterministic.
	keys := make([]string, 0, len(filter.Data))
	for k := range filter.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		kp := nextArg()
		vp := nextArg()
		whereClauses = append(whereClauses, fmt.Sprintf("data->>%s = ANY(%s)", kp, vp))
		args = append(args, key, pq.Array(filter.Data[key]))
	}

	if filter.Search != "" && len(filter.SearchFields) > 0 {
		p := nextArg()
		args = append(args, filter.Search)
		clauses := make([]string, len(filter.SearchFields))
		for i, name := range filter.SearchFields {
			fp := nextArg()
			args = append(args, name)
			clauses[i] = fmt.Sprintf("data->>%s ILIKE '%%' || %s || '%%'", fp, p)
		}
		whereClauses = append(whereClauses, "("+strings.Join(clauses, " OR ")+")")
	}

	whereSQL := " WHERE " + strings.Join(whereClauses, " AND ")

	// Single query with COUNT(*) OVER() to get total and rows atomically.
	dataQuery := "SELECT COUNT(*) OVER() AS total_count, " + instanceColumns +
		" FROM entity_instances" + whereSQL +
		" ORDER BY " + parseSortClause(filter.SortBy, filter.SortOrder)

	if filter.Limit > 0 {
		dataQuery += " LIMIT " + nextArg()
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		dataQuery += " OFFSET " + nextArg()
		args = append(args, filter.Offset)
	}

	rows, err := db.QueryContext(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list instances: %w", err)
	}
	defer rows.Close()

	var instances []*model.Instance
	var total int
	for rows.Next() {
		inst, t, err := scanInstanceWithTotal(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan instances: %w", err)
		}
		total = t
		instances = append(instances, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("scan instances: %w", err)
	}

	return instances, total, nil
}

// querySearchInstances delegates to the listing query with only the
// search predicate set. Server-side search and ordinary listing share
// the same pagination and counting machinery.
func querySearchInstances(ctx context.Context, db executor, definitionID, projectID, term string, fields, ids []string, limit, offset int) ([]*model.Instance, int, error) {
	return queryListInstances(ctx, db, model.InstanceFilter{
		DefinitionID: definitionID,
		ProjectID:    projectID,
		IDs:          ids,
		Search:       term,
		SearchFields: fields,
		Limit:        limit,
		Offset:       offset,
	})
}

func querySlugExists(ctx context.Context, db executor, definitionID, slug string) (bool, error) {
	var exists bool
	err := db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM entity_instances
			WHERE definition_id = $1 AND slug = $2
		)`,
		definitionID, slug,
	).Scan(&exists)
	return exists, err
}

func queryCreateInstance(ctx context.Context, db executor, inst *model.Instance) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO entity_instances (
			id, slug, definition_id, project_id, data, created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		inst.ID,
		inst.Slug,
		inst.DefinitionID,
		inst.ProjectID,
		jsonbBytes(inst.Data),
		nullString(inst.CreatedBy),
		inst.CreatedAt,
		inst.UpdatedAt,
	)
	return err
}

func queryUpdateInstanceData(ctx context.Context, db executor, id, definitionID, projectID string, data map[string]any) (*model.Instance, error) {
	row := db.QueryRowContext(ctx, `
		UPDATE entity_instances
		SET data = $4, updated_at = NOW()
		WHERE id = $1 AND definition_id = $2 AND project_id = $3
		RETURNING `+instanceColumns,
		id, definitionID, projectID, jsonbBytes(data),
	)
	return scanInstance(row)
}

func queryDeleteInstance(ctx context.Context, db executor, id, definitionID, projectID string) error {
	res, err := db.ExecContext(ctx, `
		DELETE FROM entity_instances
		WHERE id = $1 AND definition_id = $2 AND project_id = $3`,
		id, definitionID, projectID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func queryEdgesBySource(ctx context.Context, db executor, sourceID string, fieldIDs []string) ([]*model.Edge, error) {
	if len(fieldIDs) == 0 {
		return nil, nil
	}
	rows, err := db.QueryContext(ctx, `
		SELECT id, source_id, target_id, field_id, kind, created_at
		FROM entity_relations
		WHERE source_id = $1 AND field_id = ANY($2)
		ORDER BY created_at`,
		sourceID, pq.Array(fieldIDs),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEdges(rows)
}

func queryEdgesByField(ctx context.Context, db executor, fieldID string, targetIDs []string) ([]*model.Edge, error) {
	if len(targetIDs) == 0 {
		return nil, nil
	}
	rows, err := db.QueryContext(ctx, `
		SELECT id, source_id, target_id, field_id, kind, created_at
		FROM entity_relations
		WHERE field_id = $1 AND target_id = ANY($2)`,
		fieldID, pq.Array(targetIDs),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEdges(rows)
}

func queryEdgeSources(ctx context.Context, db executor, pairs []model.FieldTarget) ([]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	var (
		clauses []string
		args    []any
		argIdx  int
	)
	nextArg := func() string {
		argIdx++
		return fmt.Sprintf("$%d", argIdx)
	}
	for _, p := range pairs {
		fp := nextArg()
		tp := nextArg()
		clauses = append(clauses, fmt.Sprintf("(field_id = %s AND target_id = %s)", fp, tp))
		args = append(args, p.FieldID, p.TargetID)
	}

	rows, err := db.QueryContext(ctx, `
		SELECT DISTINCT source_id
		FROM entity_relations
		WHERE `+strings.Join(clauses, " OR "),
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		sources = append(sources, id)
	}
	return sources, rows.Err()
}

func queryRelatedInstances(ctx context.Context, db executor, sourceIDs, fieldIDs []string) ([]*model.RelatedTarget, error) {
	if len(sourceIDs) == 0 || len(fieldIDs) == 0 {
		return nil, nil
	}
	rows, err := db.QueryContext(ctx, `
		SELECT r.source_id, r.field_id, `+prefixColumns("i", instanceColumns)+`
		FROM entity_relations r
		JOIN entity_instances i ON i.id = r.target_id
		WHERE r.source_id = ANY($1) AND r.field_id = ANY($2)
		ORDER BY r.created_at`,
		pq.Array(sourceIDs), pq.Array(fieldIDs),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRelatedTargets(rows)
}

func queryInsertEdges(ctx context.Context, db executor, edges []*model.Edge) error {
	if len(edges) == 0 {
		return nil
	}

	var (
		values []string
		args   []any
		argIdx int
	)
	nextArg := func() string {
		argIdx++
		return fmt.Sprintf("$%d", argIdx)
	}
	for _, e := range edges {
		ps := make([]string, 6)
		for i := range ps {
			ps[i] = nextArg()
		}
		values = append(values, "("+strings.Join(ps, ", ")+")")
		args = append(args, e.ID, e.SourceID, e.TargetID, e.FieldID, string(e.Kind), e.CreatedAt)
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO entity_relations (id, source_id, target_id, field_id, kind, created_at)
		VALUES `+strings.Join(values, ", ")+`
		ON CONFLICT (source_id, field_id, target_id) DO NOTHING`,
		args...,
	)
	return err
}

func queryDeleteEdges(ctx context.Context, db executor, sourceID string, fieldIDs []string) error {
	if len(fieldIDs) == 0 {
		return nil
	}
	_, err := db.ExecContext(ctx, `
		DELETE FROM entity_relations
		WHERE source_id = $1 AND field_id = ANY($2)`,
		sourceID, pq.Array(fieldIDs),
	)
	return err
}

func queryAttachments(ctx context.Context, db executor, instanceIDs, fieldIDs []string) ([]*model.Attachment, error) {
	if len(instanceIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, instance_id, field_id, storage_key, name, size, content_type, created_at
		FROM entity_attachments
		WHERE instance_id = ANY($1)`
	args := []any{pq.Array(instanceIDs)}
	if len(fieldIDs) > 0 {
		query += ` AND field_id = ANY($2)`
		args = append(args, pq.Array(fieldIDs))
	}
	query += ` ORDER BY created_at`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAttachments(rows)
}

func queryAddAttachment(ctx context.Context, db executor, att *model.Attachment) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO entity_attachments (
			id, instance_id, field_id, storage_key, name, size, content_type, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		att.ID,
		att.InstanceID,
		nullString(att.FieldID),
		att.Key,
		att.Name,
		att.Size,
		nullString(att.ContentType),
		att.CreatedAt,
	)
	return err
}

func queryRemoveAttachment(ctx context.Context, db executor, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM entity_attachments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// prefixColumns qualifies each column in a comma-separated list with a
// table alias for use in joined reads.
func prefixColumns(alias, columns string) string {
	cols := strings.Split(columns, ",")
	for i, c := range cols {
		cols[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}

func parseSortClause(sortBy string, order model.SortOrder) string {
	allowed := map[string]bool{
		"created_at": true, "updated_at": true, "slug": true, "id": true,
	}
	if !allowed[sortBy] {
		sortBy = "created_at"
	}
	if order == model.SortAsc {
		return sortBy + " ASC"
	}
	return sortBy + " DESC"
}
