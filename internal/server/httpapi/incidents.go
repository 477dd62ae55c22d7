package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/incidentportal/internal/common"
	"github.com/dmitrijs2005/incidentportal/internal/server/models"
	"github.com/dmitrijs2005/incidentportal/internal/server/validation"
)

const (
	msgIncidentCreated = "Incident created successfully"
	msgIncidentUpdated = "Incident updated successfully"
	msgIncidentDeleted = "Incident deleted successfully"

	msgMalformedBody = "Malformed request body"
	msgBodyTooLarge  = "Request body too large"

	// parts beyond this are spooled to temporary files
	multipartMemory = 1 << 20
)

// incidentRequest accepts both incident_type and incidentType.
type incidentRequest struct {
	Title           string  `json:"title"`
	IncidentType    string  `json:"incident_type"`
	IncidentTypeAlt string  `json:"incidentType"`
	Description     *string `json:"description"`
	Location        *string `json:"location"`
}

func (req incidentRequest) input() validation.IncidentInput {
	t := req.IncidentType
	if t == "" {
		t = req.IncidentTypeAlt
	}
	return validation.IncidentInput{
		Title:        req.Title,
		IncidentType: t,
		Description:  req.Description,
		Location:     req.Location,
	}
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return common.NewValidationError(msgBodyTooLarge)
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		return common.NewValidationError(msgMalformedBody)
	}
	return nil
}

func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

// parseCreate reads an incident from a JSON body or from form fields with
// an optional "image" file part. The returned cleanup must always be called.
// A body cut off by the size limit is reported against maxUpload.
func parseCreate(r *http.Request, maxUpload int64) (validation.IncidentInput, *models.ImageUpload, func(), error) {
	noop := func() {}

	if isJSON(r) {
		var req incidentRequest
		if err := decodeJSON(r, &req); err != nil {
			return validation.IncidentInput{}, nil, noop, err
		}
		return req.input(), nil, noop, nil
	}

	err := r.ParseMultipartForm(multipartMemory)
	switch {
	case errors.Is(err, http.ErrNotMultipart):
		if err := r.ParseForm(); err != nil {
			return validation.IncidentInput{}, nil, noop, formError(err, maxUpload)
		}
	case err != nil:
		return validation.IncidentInput{}, nil, noop, formError(err, maxUpload)
	}

	cleanup := func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}

	req := incidentRequest{
		Title:           r.FormValue("title"),
		IncidentType:    r.FormValue("incident_type"),
		IncidentTypeAlt: r.FormValue("incidentType"),
		Description:     optionalForm(r, "description"),
		Location:        optionalForm(r, "location"),
	}

	if r.MultipartForm == nil {
		return req.input(), nil, cleanup, nil
	}

	f, fh, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return req.input(), nil, cleanup, nil
		}
		cleanup()
		return validation.IncidentInput{}, nil, noop, formError(err, maxUpload)
	}

	closeAll := func() {
		_ = f.Close()
		cleanup()
	}

	return req.input(), &models.ImageUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Content:     f,
	}, closeAll, nil
}

// optionalForm returns nil for absent or blank fields.
func optionalForm(r *http.Request, key string) *string {
	v := r.FormValue(key)
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return &v
}

func formError(err error, maxUpload int64) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return common.NewValidationError(validation.FileTooLargeMessage(maxUpload))
	}
	return common.NewValidationError(msgMalformedBody)
}

func (a *api) createIncident(w http.ResponseWriter, r *http.Request) {
	in, img, cleanup, err := parseCreate(r, a.maxUploadSize)
	defer cleanup()
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	incident, err := a.incidents.Create(r.Context(), in, img)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	writeData(w, http.StatusCreated, incident, msgIncidentCreated)
}

func (a *api) listIncidents(w http.ResponseWriter, r *http.Request) {
	list, err := a.incidents.List(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, list, "")
}

func (a *api) getIncident(w http.ResponseWriter, r *http.Request) {
	incident, err := a.incidents.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, incident, "")
}

func (a *api) updateIncident(w http.ResponseWriter, r *http.Request) {
	var req incidentRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	incident, err := a.incidents.Update(r.Context(), chi.URLParam(r, "id"), req.input())
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, incident, msgIncidentUpdated)
}

func (a *api) deleteIncident(w http.ResponseWriter, r *http.Request) {
	if err := a.incidents.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{Success: true, Message: msgIncidentDeleted})
}

func (a *api) serveImage(w http.ResponseWriter, r *http.Request) {
	if err := a.images.Serve(w, r, chi.URLParam(r, "filename")); err != nil {
		a.writeError(w, r, err)
	}
}
