package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/MuthonduG/moti-monolythic/internal/models"
)

// EmailService delivers transactional mail through an HTTP mail API.
type EmailService struct {
	apiURL string
	apiKey string
	sender string
	client *http.Client
}

// NewEmailService creates a new EmailService.
func NewEmailService(apiURL, apiKey, sender string) *EmailService {
	return &EmailService{
		apiURL: apiURL,
		apiKey: apiKey,
		sender: sender,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type mailMessage struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

// Send renders the template for kind and posts it to the mail API. The
// payload is the OTP code for verification and deletion mail, and the
// plaintext temporary password for credential delivery.
func (s *EmailService) Send(user *models.User, kind MailKind, payload string) error {
	msg := mailMessage{
		From: s.sender,
		To:   user.Email,
	}

	switch kind {
	case MailVerification:
		msg.Subject = "Moti Email Verification"
		msg.Text = fmt.Sprintf("Hi %s, your OTP is %s. It expires in one hour.", user.Username, payload)
	case MailCredentials:
		msg.Subject = "Welcome to Moti - Your Login Credentials"
		msg.Text = fmt.Sprintf("Hi %s, your password is: %s. Please do not share it with anyone.", user.Username, payload)
	case MailDeletion:
		msg.Subject = "Sad you are leaving us!"
		msg.Text = fmt.Sprintf("Hi %s, your otp code is: %s. Please do not share it with anyone.", user.Email, payload)
	default:
		return fmt.Errorf("unknown mail kind %q", kind)
	}

	if s.apiKey == "" {
		log.Printf("[Mail] API key not configured, skipping %s mail to %s", kind, user.Email)
		return nil
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, s.apiURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		log.Printf("[Mail] Failed to send %s mail: %v", kind, err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		log.Printf("[Mail] Unexpected status: %d", resp.StatusCode)
		return fmt.Errorf("mail api returned status %d", resp.StatusCode)
	}

	return nil
}
