package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/IgorChugurov/public-api-sdk/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanDefinitionRows folds joined definition/field rows into
// definitions, preserving the order definitions first appear in.
// Fields end up sorted by display index.
func scanDefinitionRows(rows *sql.Rows) ([]*model.Definition, error) {
	var (
		defs  []*model.Definition
		byID  = map[string]*model.Definition{}
		order []string
	)

	for rows.Next() {
		var d model.Definition
		var (
			description sql.NullString
			pageSize    sql.NullInt64
			maxFileSize sql.NullInt64
			maxFiles    sql.NullInt64

			fieldID      sql.NullString
			fieldDefID   sql.NullString
			fieldName    sql.NullString
			fieldKind    sql.NullString
			fieldLabel   sql.NullString
			required     sql.NullBool
			searchable   sql.NullBool
			filterable   sql.NullBool
			inTable      sql.NullBool
			displayIndex sql.NullInt64
			targetDefID  sql.NullString
			fieldCreated sql.NullTime
			fieldUpdated sql.NullTime
		)

		err := rows.Scan(
			&d.ID,
			&d.ProjectID,
			&d.Name,
			&d.Slug,
			&description,
			&d.EnablePagination,
			&pageSize,
			&d.EnableFilters,
			&maxFileSize,
			&maxFiles,
			&d.CreatedAt,
			&d.UpdatedAt,
			&fieldID,
			&fieldDefID,
			&fieldName,
			&fieldKind,
			&fieldLabel,
			&required,
			&searchable,
			&filterable,
			&inTable,
			&displayIndex,
			&targetDefID,
			&fieldCreated,
			&fieldUpdated,
		)
		if err != nil {
			return nil, err
		}

		def, ok := byID[d.ID]
		if !ok {
			d.Description = description.String
			d.PageSize = int(pageSize.Int64)
			d.MaxFileSizeMB = int(maxFileSize.Int64)
			d.MaxFilesCount = int(maxFiles.Int64)
			def = &d
			byID[d.ID] = def
			order = append(order, d.ID)
		}

		if fieldID.Valid {
			f := &model.Field{
				ID:                 fieldID.String,
				DefinitionID:       fieldDefID.String,
				Name:               fieldName.String,
				Kind:               model.FieldKind(fieldKind.String),
				Label:              fieldLabel.String,
				Required:           required.Bool,
				Searchable:         searchable.Bool,
				Filterable:         filterable.Bool,
				InTable:            inTable.Bool,
				DisplayIndex:       model.DisplayIndexUnset,
				TargetDefinitionID: targetDefID.String,
				CreatedAt:          fieldCreated.Time,
				UpdatedAt:          fieldUpdated.Time,
			}
			if displayIndex.Valid {
				f.DisplayIndex = int(displayIndex.Int64)
			}
			def.Fields = append(def.Fields, f)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, id := range order {
		def := byID[id]
		def.SortFields()
		defs = append(defs, def)
	}
	return defs, nil
}

// scanInstance scans a single row into a model.Instance. The row must
// contain columns in the order defined by instanceColumns.
func scanInstance(row scannable) (*model.Instance, error) {
	var inst model.Instance
	var (
		data      []byte
		createdBy sql.NullString
	)

	err := row.Scan(
		&inst.ID,
		&inst.Slug,
		&inst.DefinitionID,
		&inst.ProjectID,
		&data,
		&createdBy,
		&inst.CreatedAt,
		&inst.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	inst.CreatedBy = createdBy.String
	if err := unmarshalData(data, &inst); err != nil {
		return nil, err
	}
	return &inst, nil
}

// scanInstanceWithTotal scans a row that has a leading total_count
// column followed by the standard instance columns. Used by
// queryListInstances with COUNT(*) OVER().
func scanInstanceWithTotal(row scannable) (*model.Instance, int, error) {
	var total int
	var inst model.Instance
	var (
		data      []byte
		createdBy sql.NullString
	)

	err := row.Scan(
		&total,
		&inst.ID,
		&inst.Slug,
		&inst.DefinitionID,
		&inst.ProjectID,
		&data,
		&createdBy,
		&inst.CreatedAt,
		&inst.UpdatedAt,
	)
	if err != nil {
		return nil, 0, err
	}

	inst.CreatedBy = createdBy.String
	if err := unmarshalData(data, &inst); err != nil {
		return nil, 0, err
	}
	return &inst, total, nil
}

func scanInstances(rows *sql.Rows) ([]*model.Instance, error) {
	var out []*model.Instance
	for rows.Next() {
		inst, err := scanInstance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	return out, rows.Err()
}

func scanEdges(rows *sql.Rows) ([]*model.Edge, error) {
	var out []*model.Edge
	for rows.Next() {
		var e model.Edge
		var kind string
		err := rows.Scan(&e.ID, &e.SourceID, &e.TargetID, &e.FieldID, &kind, &e.CreatedAt)
		if err != nil {
			return nil, err
		}
		e.Kind = model.FieldKind(kind)
		out = append(out, &e)
	}
	return out, rows.Err()
}

func scanRelatedTargets(rows *sql.Rows) ([]*model.RelatedTarget, error) {
	var out []*model.RelatedTarget
	for rows.Next() {
		var rt model.RelatedTarget
		var inst model.Instance
		var (
			data      []byte
			createdBy sql.NullString
		)
		err := rows.Scan(
			&rt.SourceID,
			&rt.FieldID,
			&inst.ID,
			&inst.Slug,
			&inst.DefinitionID,
			&inst.ProjectID,
			&data,
			&createdBy,
			&inst.CreatedAt,
			&inst.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		inst.CreatedBy = createdBy.String
		if err := unmarshalData(data, &inst); err != nil {
			return nil, err
		}
		rt.Target = &inst
		out = append(out, &rt)
	}
	return out, rows.Err()
}

func scanAttachments(rows *sql.Rows) ([]*model.Attachment, error) {
	var out []*model.Attachment
	for rows.Next() {
		var a model.Attachment
		var (
			fieldID     sql.NullString
			contentType sql.NullString
		)
		err := rows.Scan(&a.ID, &a.InstanceID, &fieldID, &a.Key, &a.Name, &a.Size, &contentType, &a.CreatedAt)
		if err != nil {
			return nil, err
		}
		a.FieldID = fieldID.String
		a.ContentType = contentType.String
		out = append(out, &a)
	}
	return out, rows.Err()
}

func unmarshalData(raw []byte, inst *model.Instance) error {
	inst.Data = map[string]any{}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, &inst.Data); err != nil {
		return fmt.Errorf("decode instance %s data: %w", inst.ID, err)
	}
	return nil
}

// nullString converts an empty string to NULL for insertion.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// jsonbBytes marshals a data map for a JSONB column, defaulting to an
// empty object.
func jsonbBytes(data map[string]any) []byte {
	if len(data) == 0 {
		return []byte("{}")
	}
	b, err := json.Marshal(data)
	if err != nil {
		return []byte("{}")
	}
	return b
}
