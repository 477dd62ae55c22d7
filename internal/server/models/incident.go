package models

import (
	"io"
	"time"
)

// IncidentType is the closed set of incident categories.
type IncidentType string

const (
	IncidentFire          IncidentType = "Fire"
	IncidentExplosion     IncidentType = "Explosion"
	IncidentChemicalSpill IncidentType = "Chemical Spill"
)

// IncidentTypes lists every accepted IncidentType in display order.
var IncidentTypes = []IncidentType{IncidentFire, IncidentExplosion, IncidentChemicalSpill}

var incidentTypeAliases = map[string]IncidentType{
	"ChemicalSpill": IncidentChemicalSpill,
}

// ParseIncidentType returns the canonical IncidentType for s, mapping
// alternate spellings such as "ChemicalSpill". Other input is returned
// as is and left for Valid to reject.
func ParseIncidentType(s string) IncidentType {
	if t, ok := incidentTypeAliases[s]; ok {
		return t
	}
	return IncidentType(s)
}

// Valid reports whether t is one of IncidentTypes.
func (t IncidentType) Valid() bool {
	for _, v := range IncidentTypes {
		if t == v {
			return true
		}
	}
	return false
}

type Incident struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Description  string       `json:"description,omitempty"`
	IncidentType IncidentType `json:"incident_type"`
	Location     string       `json:"location,omitempty"`
	Image        string       `json:"image,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// IncidentSummary is the list projection of an Incident.
type IncidentSummary struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	IncidentType IncidentType `json:"incident_type"`
	CreatedAt    time.Time    `json:"createdAt"`
	Image        string       `json:"image,omitempty"`
}

// IncidentPatch carries an update. Title and IncidentType are always
// replaced; nil optional fields keep their stored value.
type IncidentPatch struct {
	Title        string
	IncidentType IncidentType
	Description  *string
	Location     *string
}

// ImageUpload is an image attached to an incident-creation request.
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}
