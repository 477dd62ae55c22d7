// Package validation checks request payloads before they reach the
// services' persistence calls. Every failure is a common.ErrorValidation
// carrying the message shown to the client.
package validation

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/incidentportal/internal/common"
	"github.com/dmitrijs2005/incidentportal/internal/server/models"
)

const (
	MsgIncidentRequired = "Title and incident_type are required"
	MsgIncidentType     = "Invalid incident_type"
	MsgTitleTooShort    = "Title must be at least 3 characters long"
	MsgFileType         = "Only image files (jpeg, jpg, png, gif) are allowed!"

	minTitleLength = 3
)

var (
	allowedMIMETypes = map[string]struct{}{
		"image/jpeg": {},
		"image/jpg":  {},
		"image/png":  {},
		"image/gif":  {},
	}
	allowedExtensions = map[string]struct{}{
		".jpeg": {},
		".jpg":  {},
		".png":  {},
		".gif":  {},
	}
)

// IncidentInput is the incident payload as received from a client.
type IncidentInput struct {
	Title        string
	IncidentType string
	Description  *string
	Location     *string
}

// ValidateIncident checks presence, then the type enum, then title length,
// stopping at the first failure.
func ValidateIncident(in IncidentInput) error {
	title := strings.TrimSpace(in.Title)

	if title == "" || in.IncidentType == "" {
		return common.NewValidationError(MsgIncidentRequired)
	}
	if !models.ParseIncidentType(in.IncidentType).Valid() {
		return common.NewValidationError(MsgIncidentType)
	}
	if len([]rune(title)) < minTitleLength {
		return common.NewValidationError(MsgTitleTooShort)
	}

	return nil
}

// ValidateUpload accepts a nil upload. Otherwise the size must not exceed
// maxSize and both the declared MIME type and the file extension must be
// image/jpeg, png or gif.
func ValidateUpload(f *models.ImageUpload, maxSize int64) error {
	if f == nil {
		return nil
	}

	if f.Size > maxSize {
		return common.NewValidationError(FileTooLargeMessage(maxSize))
	}

	mime := strings.ToLower(strings.TrimSpace(strings.SplitN(f.ContentType, ";", 2)[0]))
	if _, ok := allowedMIMETypes[mime]; !ok {
		return common.NewValidationError(MsgFileType)
	}

	if _, ok := allowedExtensions[ImageExtension(f.Filename)]; !ok {
		return common.NewValidationError(MsgFileType)
	}

	return nil
}

// FileTooLargeMessage is the client message for an upload over maxSize
// bytes, e.g. "File too large. Maximum size is 5MB." for 5<<20.
func FileTooLargeMessage(maxSize int64) string {
	var limit string
	switch {
	case maxSize >= 1<<20 && maxSize%(1<<20) == 0:
		limit = fmt.Sprintf("%dMB", maxSize>>20)
	case maxSize >= 1<<10 && maxSize%(1<<10) == 0:
		limit = fmt.Sprintf("%dKB", maxSize>>10)
	default:
		limit = fmt.Sprintf("%d bytes", maxSize)
	}
	return "File too large. Maximum size is " + limit + "."
}

// ImageExtension returns the lower-cased extension of name, dot included.
func ImageExtension(name string) string {
	return strings.ToLower(filepath.Ext(name))
}
