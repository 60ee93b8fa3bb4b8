// internal/delivery/twilio.go
package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/textloop/textloop-backend/internal/config"
	appErrors "github.com/textloop/textloop-backend/internal/errors"
)

// TwilioSender sends through the Twilio Messages REST API.
type TwilioSender struct {
	accountSID string
	authToken  string
	baseURL    string
	httpClient *http.Client
}

func NewTwilioSender(cfg *config.Config) *TwilioSender {
	return &TwilioSender{
		accountSID: cfg.TwilioAccountSID,
		authToken:  cfg.TwilioAuthToken,
		baseURL:    strings.TrimSuffix(cfg.TwilioBaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.TwilioTimeout},
	}
}

type twilioMessageResponse struct {
	SID          string `json:"sid"`
	Status       string `json:"status"`
	ErrorCode    *int   `json:"error_code"`
	ErrorMessage string `json:"message"` // error payloads use "message"
}

// Send posts the message and returns the Twilio message SID. Transport
// failures and provider 5xx/429 responses come back as *DeliveryError so the
// job queue retries them; 4xx responses are permanent.
func (s *TwilioSender) Send(ctx context.Context, to, body, from string) (string, error) {
	form := url.Values{}
	form.Set("To", to)
	form.Set("From", from)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.baseURL, s.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(s.accountSID, s.authToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", appErrors.NewDelivery(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", appErrors.NewDelivery(err)
	}

	var parsed twilioMessageResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", appErrors.NewDelivery(fmt.Errorf("unexpected twilio response: %s", respBody))
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return parsed.SID, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return "", appErrors.NewDelivery(fmt.Errorf("twilio %d: %s", resp.StatusCode, parsed.ErrorMessage))
	default:
		return "", fmt.Errorf("twilio rejected message (%d): %s", resp.StatusCode, parsed.ErrorMessage)
	}
}

var _ Sender = (*TwilioSender)(nil)
