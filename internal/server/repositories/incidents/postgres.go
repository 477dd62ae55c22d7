// Package incidents provides the PostgreSQL-backed incident repository.
package incidents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/incidentportal/internal/common"
	"github.com/dmitrijs2005/incidentportal/internal/dbx"
	"github.com/dmitrijs2005/incidentportal/internal/server/models"
)

// constraintMessages maps schema CHECK constraints to client messages.
var constraintMessages = map[string]string{
	"incidents_title_check": "Title must be at least 3 characters long",
	"incidents_type_check":  "Incident type must be Fire, Explosion, or Chemical Spill",
}

const incidentColumns = `id, title, description, incident_type, location, image, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, incident *models.Incident) (*models.Incident, error) {
	query :=
		`INSERT INTO incidents (title, description, incident_type, location, image)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		incident.Title, nullString(incident.Description), string(incident.IncidentType),
		nullString(incident.Location), nullString(incident.Image)).
		Scan(&incident.ID, &incident.CreatedAt, &incident.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}

	return incident, nil
}

// List returns every incident, newest first.
func (r *PostgresRepository) List(ctx context.Context) ([]models.IncidentSummary, error) {
	query :=
		`SELECT id, title, incident_type, created_at, image FROM incidents
		 ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.IncidentSummary, 0)
	for rows.Next() {
		var (
			item  models.IncidentSummary
			image sql.NullString
		)
		if err := rows.Scan(&item.ID, &item.Title, &item.IncidentType, &item.CreatedAt, &image); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		item.Image = image.String
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Incident, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, common.ErrorNotFound
	}

	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE id = $1`

	return scanIncident(r.db.QueryRowContext(ctx, query, uid.String()))
}

// Update replaces title and type, and description/location when the patch
// carries them. The stored image is never changed here.
func (r *PostgresRepository) Update(ctx context.Context, id string, patch models.IncidentPatch) (*models.Incident, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, common.ErrorNotFound
	}

	query :=
		`UPDATE incidents SET
		   title = $2,
		   incident_type = $3,
		   description = COALESCE($4, description),
		   location = COALESCE($5, location),
		   updated_at = now()
		 WHERE id = $1
		 RETURNING ` + incidentColumns

	row := r.db.QueryRowContext(ctx, query, uid.String(),
		patch.Title, string(patch.IncidentType), nullStringPtr(patch.Description), nullStringPtr(patch.Location))

	return scanIncident(row)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) (*models.Incident, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, common.ErrorNotFound
	}

	query := `DELETE FROM incidents WHERE id = $1 RETURNING ` + incidentColumns

	return scanIncident(r.db.QueryRowContext(ctx, query, uid.String()))
}

func scanIncident(row *sql.Row) (*models.Incident, error) {
	var (
		inc                          models.Incident
		description, location, image sql.NullString
	)
	err := row.Scan(&inc.ID, &inc.Title, &description, &inc.IncidentType, &location, &image,
		&inc.CreatedAt, &inc.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}

	inc.Description = description.String
	inc.Location = location.String
	inc.Image = image.String

	return &inc, nil
}

func translate(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrorNotFound
	}
	if name, ok := dbx.CheckViolation(err); ok {
		if msg, known := constraintMessages[name]; known {
			return common.NewValidationError(msg)
		}
		return common.NewValidationError("Invalid incident data")
	}
	return fmt.Errorf("db error: %w", err)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
