package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/incidentportal/internal/common"
	"github.com/dmitrijs2005/incidentportal/internal/dbx"
	"github.com/dmitrijs2005/incidentportal/internal/logging"
	"github.com/dmitrijs2005/incidentportal/internal/server/config"
	"github.com/dmitrijs2005/incidentportal/internal/server/models"
	"github.com/dmitrijs2005/incidentportal/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/incidentportal/internal/server/storage"
	"github.com/dmitrijs2005/incidentportal/internal/server/validation"
)

const msgIncidentNotFound = "Incident not found"

type IncidentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	images      storage.ImageStore
	log         logging.Logger

	maxUploadSize   int64
	uploadURLPrefix string
}

func NewIncidentService(db *sql.DB, m repomanager.RepositoryManager, images storage.ImageStore,
	cfg *config.Config, log logging.Logger) *IncidentService {
	return &IncidentService{
		db:              db,
		repomanager:     m,
		images:          images,
		log:             log.With("module", "incidents"),
		maxUploadSize:   cfg.MaxUploadSize,
		uploadURLPrefix: strings.TrimRight(cfg.UploadURLPrefix, "/"),
	}
}

// Create validates the upload and the payload, then inserts the incident
// and stores its image in one transaction. If anything fails after the
// image was written, the image is removed again.
func (s *IncidentService) Create(ctx context.Context, in validation.IncidentInput, img *models.ImageUpload) (*models.Incident, error) {
	if err := validation.ValidateUpload(img, s.maxUploadSize); err != nil {
		return nil, err
	}
	if err := validation.ValidateIncident(in); err != nil {
		return nil, err
	}

	incident := &models.Incident{
		Title:        strings.TrimSpace(in.Title),
		IncidentType: models.ParseIncidentType(in.IncidentType),
		Description:  trimmed(in.Description),
		Location:     trimmed(in.Location),
	}

	var imageName string
	if img != nil {
		imageName = storage.NewImageName(validation.ImageExtension(img.Filename))
		incident.Image = s.uploadURLPrefix + "/" + imageName
	}

	saved := false
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		incident, err = s.repomanager.Incidents(tx).Create(ctx, incident)
		if err != nil {
			return err
		}
		if img == nil {
			return nil
		}
		if err := s.images.Save(ctx, imageName, img.ContentType, img.Content, img.Size); err != nil {
			return fmt.Errorf("save image: %w", err)
		}
		saved = true
		return nil
	})
	if err != nil {
		if saved {
			s.removeImage(ctx, imageName)
		}
		return nil, err
	}

	s.log.Info(ctx, "incident created", "incident_id", incident.ID, "with_image", img != nil)

	return incident, nil
}

// List returns the projected incident list, newest first.
func (s *IncidentService) List(ctx context.Context) ([]models.IncidentSummary, error) {
	return s.repomanager.Incidents(s.db).List(ctx)
}

func (s *IncidentService) Get(ctx context.Context, id string) (*models.Incident, error) {
	incident, err := s.repomanager.Incidents(s.db).GetByID(ctx, id)
	return incident, notFound(err)
}

// Update re-validates the payload and replaces the stored fields. Optional
// fields left nil keep their stored value.
func (s *IncidentService) Update(ctx context.Context, id string, in validation.IncidentInput) (*models.Incident, error) {
	if err := validation.ValidateIncident(in); err != nil {
		return nil, err
	}

	patch := models.IncidentPatch{
		Title:        strings.TrimSpace(in.Title),
		IncidentType: models.ParseIncidentType(in.IncidentType),
		Description:  trimmedPtr(in.Description),
		Location:     trimmedPtr(in.Location),
	}

	incident, err := s.repomanager.Incidents(s.db).Update(ctx, id, patch)
	return incident, notFound(err)
}

// Delete removes the incident. Its image is removed best-effort.
func (s *IncidentService) Delete(ctx context.Context, id string) error {
	incident, err := s.repomanager.Incidents(s.db).Delete(ctx, id)
	if err != nil {
		return notFound(err)
	}

	if name, ok := s.imageName(incident.Image); ok {
		s.removeImage(ctx, name)
	}

	s.log.Info(ctx, "incident deleted", "incident_id", incident.ID)
	return nil
}

// imageName extracts the stored object name from an image URL.
func (s *IncidentService) imageName(url string) (string, bool) {
	name, ok := strings.CutPrefix(url, s.uploadURLPrefix+"/")
	if !ok || name == "" || strings.Contains(name, "/") {
		return "", false
	}
	return name, true
}

func (s *IncidentService) removeImage(ctx context.Context, name string) {
	if err := s.images.Delete(ctx, name); err != nil {
		s.log.Warn(ctx, "failed to remove image", "image", name, "error", err)
	}
}

func notFound(err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return common.NewError(common.ErrorNotFound, msgIncidentNotFound)
	}
	return err
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func trimmedPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
