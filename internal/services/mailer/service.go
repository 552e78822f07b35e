// -----------------------------------------------------------------------
// Mailer Service - SMTP delivery of export outcomes
// -----------------------------------------------------------------------

package mailer

import (
	"context"
	"crypto/rand"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scriba/internal/common"
	"github.com/ternarybob/scriba/internal/models"
)

// Attachment represents an email attachment
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Service sends job outcome emails over SMTP.
type Service struct {
	config common.SMTPConfig
	logger arbor.ILogger
}

// NewService creates a mailer from SMTP configuration.
func NewService(config common.SMTPConfig, logger arbor.ILogger) *Service {
	return &Service{
		config: config,
		logger: logger,
	}
}

// IsConfigured checks whether the minimum required SMTP settings are present.
func (s *Service) IsConfigured() bool {
	return s.config.Host != "" && s.config.Username != "" &&
		s.config.Password != "" && s.config.From != ""
}

// SendArtifact emails the exported profile document to the delivery address.
func (s *Service) SendArtifact(ctx context.Context, to, profileURL string, artifact *models.Artifact) error {
	htmlBody := fmt.Sprintf(
		`<p>Here is the profile PDF you requested:</p><p><a href="%s">%s</a></p>`,
		profileURL, profileURL,
	)
	textBody := fmt.Sprintf("Here is the profile PDF you requested: %s", profileURL)

	attachment := Attachment{
		Filename:    deliveryFilename(profileURL, artifact.Filename),
		ContentType: "application/pdf",
		Content:     artifact.Data,
	}

	err := s.send(ctx, to, "Profile PDF Export", htmlBody, textBody, []Attachment{attachment})
	if err != nil {
		return &models.DeliveryError{To: to, Err: err}
	}

	s.logger.Info().
		Str("to", to).
		Str("filename", attachment.Filename).
		Int("size_bytes", len(artifact.Data)).
		Msg("Artifact delivered")
	return nil
}

// SendFailureNotice emails a failure explanation. Callers treat this as
// best-effort; an error here never changes a job's terminal state.
func (s *Service) SendFailureNotice(ctx context.Context, to, reason string) error {
	textBody := fmt.Sprintf(
		"Your profile export request could not be completed.\n\nReason: %s\n\nYou can submit a new request at any time.",
		reason,
	)

	err := s.send(ctx, to, "Profile PDF Export Failed", "", textBody, nil)
	if err != nil {
		return &models.DeliveryError{To: to, Err: err}
	}

	s.logger.Info().Str("to", to).Msg("Failure notice delivered")
	return nil
}

// deliveryFilename derives the attachment name from the profile slug,
// falling back to the browser's download name.
func deliveryFilename(profileURL, downloadName string) string {
	if idx := strings.Index(profileURL, "/in/"); idx >= 0 {
		slug := strings.Trim(profileURL[idx+len("/in/"):], "/")
		if cut := strings.IndexAny(slug, "/?#"); cut >= 0 {
			slug = slug[:cut]
		}
		if slug != "" {
			return fmt.Sprintf("linkedin-%s.pdf", slug)
		}
	}
	if downloadName != "" {
		return downloadName
	}
	return "profile.pdf"
}

// send builds and transmits a MIME message. A nil attachments slice yields
// a plain multipart/alternative (or text-only) message.
func (s *Service) send(ctx context.Context, to, subject, htmlBody, textBody string, attachments []Attachment) error {
	if !s.IsConfigured() {
		return fmt.Errorf("SMTP not configured")
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s <%s>\r\n", s.config.FromName, s.config.From))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", to))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))

	switch {
	case len(attachments) > 0:
		s.writeMixedBody(&msg, htmlBody, textBody, attachments)
	case htmlBody != "":
		s.writeAlternativeBody(&msg, htmlBody, textBody)
	default:
		msg.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
		msg.WriteString("\r\n")
		msg.WriteString(textBody)
	}

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)

	if s.config.UseTLS {
		return s.sendWithTLS(addr, auth, to, msg.String())
	}

	return smtp.SendMail(addr, auth, s.config.From, []string{to}, []byte(msg.String()))
}

// writeAlternativeBody writes a multipart/alternative body with text and
// HTML parts, base64-encoded per RFC 2045 so long lines survive transit.
func (s *Service) writeAlternativeBody(msg *strings.Builder, htmlBody, textBody string) {
	boundary := generateBoundary()
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=\"%s\"\r\n", boundary))
	msg.WriteString("\r\n")

	if textBody != "" {
		msg.WriteString(fmt.Sprintf("--%s\r\n", boundary))
		msg.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
		msg.WriteString("Content-Transfer-Encoding: base64\r\n")
		msg.WriteString("\r\n")
		msg.WriteString(encodeBase64WithLineBreaks([]byte(textBody)))
		msg.WriteString("\r\n")
	}

	msg.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("Content-Transfer-Encoding: base64\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(encodeBase64WithLineBreaks([]byte(htmlBody)))
	msg.WriteString("\r\n")

	msg.WriteString(fmt.Sprintf("--%s--\r\n", boundary))
}

// writeMixedBody writes a multipart/mixed body with an alternative section
// and file attachments.
func (s *Service) writeMixedBody(msg *strings.Builder, htmlBody, textBody string, attachments []Attachment) {
	mixedBoundary := generateBoundary()
	altBoundary := generateBoundary()

	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString(fmt.Sprintf("Content-Type: multipart/mixed; boundary=\"%s\"\r\n", mixedBoundary))
	msg.WriteString("\r\n")

	msg.WriteString(fmt.Sprintf("--%s\r\n", mixedBoundary))
	msg.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=\"%s\"\r\n", altBoundary))
	msg.WriteString("\r\n")

	if textBody != "" {
		msg.WriteString(fmt.Sprintf("--%s\r\n", altBoundary))
		msg.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
		msg.WriteString("Content-Transfer-Encoding: base64\r\n")
		msg.WriteString("\r\n")
		msg.WriteString(encodeBase64WithLineBreaks([]byte(textBody)))
		msg.WriteString("\r\n")
	}

	if htmlBody != "" {
		msg.WriteString(fmt.Sprintf("--%s\r\n", altBoundary))
		msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
		msg.WriteString("Content-Transfer-Encoding: base64\r\n")
		msg.WriteString("\r\n")
		msg.WriteString(encodeBase64WithLineBreaks([]byte(htmlBody)))
		msg.WriteString("\r\n")
	}

	msg.WriteString(fmt.Sprintf("--%s--\r\n", altBoundary))

	for _, att := range attachments {
		contentType := att.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		msg.WriteString(fmt.Sprintf("--%s\r\n", mixedBoundary))
		msg.WriteString(fmt.Sprintf("Content-Type: %s; name=\"%s\"\r\n", contentType, att.Filename))
		msg.WriteString("Content-Transfer-Encoding: base64\r\n")
		msg.WriteString(fmt.Sprintf("Content-Disposition: attachment; filename=\"%s\"\r\n", att.Filename))
		msg.WriteString("\r\n")
		msg.WriteString(encodeBase64WithLineBreaks(att.Content))
		msg.WriteString("\r\n")
	}

	msg.WriteString(fmt.Sprintf("--%s--\r\n", mixedBoundary))
}

// sendWithTLS sends over a direct TLS connection, falling back to STARTTLS
// if the server doesn't accept implicit TLS on the configured port.
func (s *Service) sendWithTLS(addr string, auth smtp.Auth, to, msg string) error {
	host := strings.Split(addr, ":")[0]

	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: host})
	if err != nil {
		return s.sendWithSTARTTLS(addr, auth, to, msg)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Close()

	return s.transmit(client, auth, to, msg)
}

// sendWithSTARTTLS sends using a STARTTLS upgrade on a plain connection.
func (s *Service) sendWithSTARTTLS(addr string, auth smtp.Auth, to, msg string) error {
	host := strings.Split(addr, ":")[0]

	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer client.Close()

	if err := client.StartTLS(&tls.Config{ServerName: host}); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}

	return s.transmit(client, auth, to, msg)
}

// transmit runs the SMTP envelope and data exchange on an open client.
func (s *Service) transmit(client *smtp.Client, auth smtp.Auth, to, msg string) error {
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}

	if err := client.Mail(s.config.From); err != nil {
		return fmt.Errorf("failed to set mail from: %w", err)
	}

	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set mail recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to start data: %w", err)
	}

	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	return client.Quit()
}

// generateBoundary creates a unique MIME boundary string.
func generateBoundary() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "scriba_boundary_fallback"
	}
	return fmt.Sprintf("scriba_%x", b)
}

// encodeBase64WithLineBreaks encodes content as base64 with 76-char line
// breaks per RFC 2045.
func encodeBase64WithLineBreaks(content []byte) string {
	encoded := base64.StdEncoding.EncodeToString(content)

	var result strings.Builder
	const lineLen = 76

	for i := 0; i < len(encoded); i += lineLen {
		end := i + lineLen
		if end > len(encoded) {
			end = len(encoded)
		}
		result.WriteString(encoded[i:end])
		if end < len(encoded) {
			result.WriteString("\r\n")
		}
	}

	return result.String()
}
