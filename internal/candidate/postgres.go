package candidate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/onnwee/mentorfeed/internal/tracing"
)

// DefaultSchema is the PostgreSQL schema holding the mentors and users tables.
const DefaultSchema = "prod"

// PostgresRepository implements Repository using PostgreSQL.
// Mentors live in <schema>.mentors, students in <schema>.users.
type PostgresRepository struct {
	db     *sql.DB
	schema string
}

// NewPostgresRepository creates a new PostgresRepository.
// An empty schema selects DefaultSchema.
func NewPostgresRepository(db *sql.DB, schema string) *PostgresRepository {
	if schema == "" {
		schema = DefaultSchema
	}
	return &PostgresRepository{db: db, schema: schema}
}

func (r *PostgresRepository) table(kind Kind) string {
	name := "mentors"
	if kind == KindStudent {
		name = "users"
	}
	return pq.QuoteIdentifier(r.schema) + "." + pq.QuoteIdentifier(name)
}

// columns returns the select list for kind. Columns absent from a table are
// selected as NULL so both kinds scan into the same Record shape.
func columns(kind Kind) string {
	if kind == KindMentor {
		return `id, login, name, title, description, university, NULL::text[],
		        admission_type::text, avatar_uuid::text, is_active`
	}
	return `id, login, name, NULL::text, description, NULL::text, target_universities,
	        admission_type::text, avatar_uuid::text, is_active`
}

// List returns active profiles of kind matching filter ordered by id, with the
// total matching count computed in the same statement.
func (r *PostgresRepository) List(ctx context.Context, kind Kind, filter *Filter, limit int) (records []*Record, total int, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, string(kind), tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	if limit <= 0 {
		return nil, 0, fmt.Errorf("limit must be positive, got %d", limit)
	}

	var universities []string
	var admission string
	if filter != nil {
		universities = filter.Universities
		admission = filter.AdmissionType
	}

	var universityClause string
	var universityArg interface{}
	if kind == KindMentor {
		universityClause = `(COALESCE(cardinality($1::text[]), 0) = 0 OR university = ANY($1::text[]))`
		universityArg = pq.Array(universities)
	} else {
		first := ""
		if len(universities) > 0 {
			first = universities[0]
		}
		universityClause = `($1::text = '' OR $1::text = ANY(target_universities))`
		universityArg = first
	}

	query := fmt.Sprintf(`
		SELECT %s, COUNT(*) OVER ()
		FROM %s
		WHERE is_active
		  AND %s
		  AND ($2::text = '' OR admission_type::text = $2::text)
		ORDER BY id ASC
		LIMIT $3
	`, columns(kind), r.table(kind), universityClause)

	rows, err := r.db.QueryContext(ctx, query, universityArg, admission, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list %s profiles: %w", kind, err)
	}
	defer rows.Close()

	for rows.Next() {
		rec := &Record{Kind: kind}
		if err := rows.Scan(
			&rec.ID,
			&rec.Login,
			&rec.Name,
			&rec.Title,
			&rec.Description,
			&rec.University,
			pq.Array(&rec.TargetUniversities),
			&rec.AdmissionType,
			&rec.AvatarUUID,
			&rec.IsActive,
			&total,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan %s profile: %w", kind, err)
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating %s profiles: %w", kind, err)
	}

	return records, total, nil
}

// GetByLogin returns the profile of kind with the given login.
func (r *PostgresRepository) GetByLogin(ctx context.Context, kind Kind, login string) (rec *Record, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, string(kind), tracing.DBOperationQuery)
	defer func() {
		if errors.Is(err, ErrNotFound) {
			endSpan(nil)
			return
		}
		endSpan(err)
	}()

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE login = $1`, columns(kind), r.table(kind))

	rec = &Record{Kind: kind}
	err = r.db.QueryRowContext(ctx, query, login).Scan(
		&rec.ID,
		&rec.Login,
		&rec.Name,
		&rec.Title,
		&rec.Description,
		&rec.University,
		pq.Array(&rec.TargetUniversities),
		&rec.AdmissionType,
		&rec.AvatarUUID,
		&rec.IsActive,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s profile: %w", kind, err)
	}
	return rec, nil
}
