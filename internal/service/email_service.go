package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"mime"
	"mime/multipart"
	"net/textproto"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

type sesSender interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailService sends CSV reports via Amazon SES
type EmailService struct {
	client    sesSender
	fromEmail string
	fromName  string
	enabled   bool
	debug     bool
}

// NewEmailService creates a new email service
func NewEmailService(ctx context.Context, awsRegion, fromEmail, fromName string, debug bool) (*EmailService, error) {
	// If fromEmail is empty, create a disabled service
	if fromEmail == "" {
		log.Println("Email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{
			enabled: false,
			debug:   debug,
		}, nil
	}

	if debug {
		log.Printf("[DEBUG] Initializing email service: region=%s from=%s", awsRegion, fromEmail)
	}

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(awsRegion),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Printf("Email service enabled: from=%s, region=%s", fromEmail, awsRegion)

	return &EmailService{
		client:    sesv2.NewFromConfig(cfg),
		fromEmail: fromEmail,
		fromName:  fromName,
		enabled:   true,
		debug:     debug,
	}, nil
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// Report is an email with one CSV attachment
type Report struct {
	To             string
	Subject        string
	Body           string
	AttachmentName string
	Attachment     []byte
}

// SendReport emails a CSV export as an attachment
func (s *EmailService) SendReport(ctx context.Context, report Report) error {
	if !s.enabled {
		return fmt.Errorf("email service is disabled: SES_FROM_EMAIL not configured")
	}

	raw, err := s.buildRawMessage(report, time.Now())
	if err != nil {
		return err
	}

	if s.debug {
		log.Printf("[DEBUG] Sending report: to=%s subject=%s size=%d bytes", report.To, report.Subject, len(raw))
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.fromAddress()),
		Destination: &types.Destination{
			ToAddresses: []string{report.To},
		},
		Content: &types.EmailContent{
			Raw: &types.RawMessage{Data: raw},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", report.To, err)
	}

	if s.debug && result != nil && result.MessageId != nil {
		log.Printf("[DEBUG] Message ID: %s", *result.MessageId)
	}

	log.Printf("Email sent successfully: to=%s, subject=%s", report.To, report.Subject)
	return nil
}

func (s *EmailService) fromAddress() string {
	if s.fromName != "" {
		return fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", s.fromName), s.fromEmail)
	}
	return s.fromEmail
}

// buildRawMessage renders a multipart/mixed message with a text part and the
// CSV attachment, base64 encoded at 76 columns
func (s *EmailService) buildRawMessage(report Report, now time.Time) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	textPart, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"text/plain; charset=UTF-8"},
		"Content-Transfer-Encoding": {"8bit"},
	})
	if err != nil {
		return nil, err
	}
	textPart.Write([]byte(report.Body))

	attachPart, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {fmt.Sprintf("text/csv; charset=UTF-8; name=%q", report.AttachmentName)},
		"Content-Disposition":       {fmt.Sprintf("attachment; filename=%q", report.AttachmentName)},
		"Content-Transfer-Encoding": {"base64"},
	})
	if err != nil {
		return nil, err
	}
	encoded := base64.StdEncoding.EncodeToString(report.Attachment)
	for len(encoded) > 76 {
		attachPart.Write([]byte(encoded[:76] + "\r\n"))
		encoded = encoded[76:]
	}
	attachPart.Write([]byte(encoded + "\r\n"))

	if err := mw.Close(); err != nil {
		return nil, err
	}

	var msg bytes.Buffer
	headers := []string{
		"From: " + s.fromAddress(),
		"To: " + report.To,
		"Subject: " + mime.QEncoding.Encode("utf-8", report.Subject),
		"Date: " + now.Format(time.RFC1123Z),
		"MIME-Version: 1.0",
		"Content-Type: multipart/mixed; boundary=" + mw.Boundary(),
	}
	msg.WriteString(strings.Join(headers, "\r\n"))
	msg.WriteString("\r\n\r\n")
	msg.Write(body.Bytes())
	return msg.Bytes(), nil
}
