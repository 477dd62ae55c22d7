package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/incidentportal/internal/common"
	"github.com/dmitrijs2005/incidentportal/internal/server/models"
)

func TestValidateIncident(t *testing.T) {
	tests := []struct {
		name    string
		in      IncidentInput
		wantMsg string
	}{
		{name: "valid fire", in: IncidentInput{Title: "Warehouse Fire", IncidentType: "Fire"}},
		{name: "valid chemical spill", in: IncidentInput{Title: "Leak", IncidentType: "Chemical Spill"}},
		{name: "exactly three chars", in: IncidentInput{Title: "abc", IncidentType: "Explosion"}},
		{name: "missing title", in: IncidentInput{IncidentType: "Fire"}, wantMsg: MsgIncidentRequired},
		{name: "blank title", in: IncidentInput{Title: "   ", IncidentType: "Fire"}, wantMsg: MsgIncidentRequired},
		{name: "missing type", in: IncidentInput{Title: "Warehouse Fire"}, wantMsg: MsgIncidentRequired},
		{name: "unknown type", in: IncidentInput{Title: "Flooded", IncidentType: "Flood"}, wantMsg: MsgIncidentType},
		{name: "camel-case spill alias", in: IncidentInput{Title: "Leak", IncidentType: "ChemicalSpill"}},
		{name: "lower-case spill rejected", in: IncidentInput{Title: "Leak", IncidentType: "chemical spill"}, wantMsg: MsgIncidentType},
		{name: "enum checked before length", in: IncidentInput{Title: "ab", IncidentType: "Flood"}, wantMsg: MsgIncidentType},
		{name: "short title", in: IncidentInput{Title: "ab", IncidentType: "Fire"}, wantMsg: MsgTitleTooShort},
		{name: "short after trim", in: IncidentInput{Title: " ab ", IncidentType: "Fire"}, wantMsg: MsgTitleTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIncident(tt.in)
			if tt.wantMsg == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, common.ErrorValidation))
			assert.Equal(t, tt.wantMsg, err.Error())
		})
	}
}

func TestValidateUpload(t *testing.T) {
	const max = 5 << 20

	tests := []struct {
		name    string
		f       *models.ImageUpload
		wantMsg string
	}{
		{name: "absent file is fine", f: nil},
		{name: "jpeg", f: &models.ImageUpload{Filename: "a.jpg", ContentType: "image/jpeg", Size: 10}},
		{name: "upper-case extension", f: &models.ImageUpload{Filename: "A.PNG", ContentType: "image/png", Size: 10}},
		{name: "gif at limit", f: &models.ImageUpload{Filename: "x.gif", ContentType: "image/gif", Size: max}},
		{name: "too large", f: &models.ImageUpload{Filename: "big.jpg", ContentType: "image/jpeg", Size: max + 1}, wantMsg: "File too large. Maximum size is 5MB."},
		{name: "bad mime", f: &models.ImageUpload{Filename: "doc.png", ContentType: "application/pdf", Size: 10}, wantMsg: MsgFileType},
		{name: "spoofed extension", f: &models.ImageUpload{Filename: "evil.exe", ContentType: "image/png", Size: 10}, wantMsg: MsgFileType},
		{name: "no extension", f: &models.ImageUpload{Filename: "photo", ContentType: "image/png", Size: 10}, wantMsg: MsgFileType},
		{name: "webp not allowed", f: &models.ImageUpload{Filename: "p.webp", ContentType: "image/webp", Size: 10}, wantMsg: MsgFileType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUpload(tt.f, max)
			if tt.wantMsg == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, common.ErrorValidation)
			assert.Equal(t, tt.wantMsg, err.Error())
		})
	}
}

func TestValidateUpload_SizeCheckedFirst(t *testing.T) {
	err := ValidateUpload(&models.ImageUpload{Filename: "x.exe", ContentType: "text/plain", Size: 100}, 10)
	assert.EqualError(t, err, "File too large. Maximum size is 10 bytes.")
}

func TestFileTooLargeMessage(t *testing.T) {
	tests := []struct {
		size int64
		want string
	}{
		{5 << 20, "File too large. Maximum size is 5MB."},
		{2 << 20, "File too large. Maximum size is 2MB."},
		{512 << 10, "File too large. Maximum size is 512KB."},
		{1500, "File too large. Maximum size is 1500 bytes."},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FileTooLargeMessage(tt.size))
	}
}

func TestImageExtension(t *testing.T) {
	assert.Equal(t, ".jpeg", ImageExtension("Photo.JPEG"))
	assert.Equal(t, "", ImageExtension("noext"))
}
