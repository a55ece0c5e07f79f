package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// SMSService sends OTP messages through a BestSMSBulk compatible gateway
type SMSService struct {
	Username string
	Password string
	SenderID string
	APIPath  string
	Client   *http.Client
}

// SMSResponse represents the response from the gateway
type SMSResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		MessageID string `json:"message_id"`
		Cost      string `json:"cost"`
	} `json:"data"`
}

// NewSMSService reads the gateway settings from the environment
func NewSMSService() *SMSService {
	return &SMSService{
		Username: os.Getenv("SMS_USERNAME"),
		Password: os.Getenv("SMS_PASSWORD"),
		SenderID: os.Getenv("SMS_SENDER_ID"),
		APIPath:  os.Getenv("SMS_API_URL"),
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Configured reports whether a gateway URL is set
func (s *SMSService) Configured() bool {
	return s.APIPath != ""
}

// SendOTP delivers code to phone. Without a configured gateway the code is
// only written to the log, which is what local development relies on.
func (s *SMSService) SendOTP(phone, code string) error {
	if !strings.HasPrefix(phone, "+") {
		phone = "+" + phone
	}
	if !s.Configured() {
		log.Printf("SMS gateway not configured, OTP for %s: %s", phone, code)
		return nil
	}

	params := url.Values{}
	params.Set("username", s.Username)
	params.Set("password", s.Password)
	params.Set("senderid", s.SenderID)
	params.Set("destination", phone)
	params.Set("message", fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, int(OTPTTL.Minutes())))
	params.Set("template", "otp")
	params.Set("variables", code)

	req, err := http.NewRequest(http.MethodPost, s.APIPath+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send SMS request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("SMS API returned status %d: %s", resp.StatusCode, string(body))
	}

	var smsResp SMSResponse
	if err := json.Unmarshal(body, &smsResp); err != nil {
		// some gateway routes answer with plain text on success
		log.Printf("SMS sent to %s (non-JSON response)", phone)
		return nil
	}
	if smsResp.Status == "success" || smsResp.Status == "sent" {
		log.Printf("SMS sent to %s, message ID: %s", phone, smsResp.Data.MessageID)
		return nil
	}
	return fmt.Errorf("SMS sending failed: %s", smsResp.Message)
}
