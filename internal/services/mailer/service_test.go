package mailer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scriba/internal/common"
)

func TestIsConfigured(t *testing.T) {
	tests := []struct {
		name   string
		config common.SMTPConfig
		want   bool
	}{
		{
			"complete",
			common.SMTPConfig{Host: "smtp.example.com", Username: "u", Password: "p", From: "bot@example.com"},
			true,
		},
		{"missing host", common.SMTPConfig{Username: "u", Password: "p", From: "bot@example.com"}, false},
		{"missing password", common.SMTPConfig{Host: "smtp.example.com", Username: "u", From: "bot@example.com"}, false},
		{"empty", common.SMTPConfig{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewService(tt.config, arbor.NewLogger())
			assert.Equal(t, tt.want, service.IsConfigured())
		})
	}
}

func TestDeliveryFilename(t *testing.T) {
	tests := []struct {
		name       string
		profileURL string
		download   string
		want       string
	}{
		{"profile slug", "https://www.linkedin.com/in/janedoe", "Profile.pdf", "linkedin-janedoe.pdf"},
		{"trailing slash", "https://www.linkedin.com/in/janedoe/", "Profile.pdf", "linkedin-janedoe.pdf"},
		{"query string", "https://www.linkedin.com/in/janedoe?trk=share", "Profile.pdf", "linkedin-janedoe.pdf"},
		{"no slug falls back to download name", "https://www.linkedin.com/feed/", "Profile.pdf", "Profile.pdf"},
		{"nothing usable", "https://www.linkedin.com/feed/", "", "profile.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, deliveryFilename(tt.profileURL, tt.download))
		})
	}
}

func TestEncodeBase64WithLineBreaks(t *testing.T) {
	content := make([]byte, 300)
	for i := range content {
		content[i] = byte(i % 251)
	}

	encoded := encodeBase64WithLineBreaks(content)

	for _, line := range strings.Split(encoded, "\r\n") {
		assert.LessOrEqual(t, len(line), 76)
		assert.NotEmpty(t, line)
	}
}

func TestSendArtifact_Unconfigured(t *testing.T) {
	service := NewService(common.SMTPConfig{}, arbor.NewLogger())

	err := service.SendFailureNotice(t.Context(), "jane@example.com", "login failed")
	assert.Error(t, err)
}
