package incidents

import (
	"context"

	"github.com/dmitrijs2005/incidentportal/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, incident *models.Incident) (*models.Incident, error)
	List(ctx context.Context) ([]models.IncidentSummary, error)
	GetByID(ctx context.Context, id string) (*models.Incident, error)
	Update(ctx context.Context, id string, patch models.IncidentPatch) (*models.Incident, error)
	// Delete removes the incident and returns the row as it was stored.
	Delete(ctx context.Context, id string) (*models.Incident, error)
}
