package comms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/careline/intake-platform/internal/domain"
	"github.com/careline/intake-platform/internal/pkg/httpretry"
	"github.com/careline/intake-platform/internal/pkg/logger"
)

// HTTPSMSSender posts rendered SMS bodies to an HTTP gateway. Requests
// go through the retrying client so transient gateway errors do not
// surface as dispatch failures. An empty endpoint means dry-run mode.
type HTTPSMSSender struct {
	endpoint string
	apiKey   string
	client   httpretry.HTTPDoer
}

type smsPayload struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

// NewHTTPSMSSender creates the SMS sender. A nil doer gets the default
// retry client.
func NewHTTPSMSSender(endpoint, apiKey string, doer httpretry.HTTPDoer) *HTTPSMSSender {
	if doer == nil {
		doer = httpretry.NewRetryClient(nil, 3)
	}
	return &HTTPSMSSender{endpoint: endpoint, apiKey: apiKey, client: doer}
}

func (s *HTTPSMSSender) Channel() domain.Channel { return domain.ChannelSMS }

// Send posts one SMS to the gateway. Subjects are ignored; SMS has no
// subject line.
func (s *HTTPSMSSender) Send(ctx context.Context, c *domain.Customer, msg Message) error {
	if c.Phone == "" {
		return fmt.Errorf("customer %s has no phone number", c.ID)
	}

	if s.endpoint == "" {
		logger.Info("dry-run sms dispatch", "customer_id", c.ID, "phone", c.Phone)
		return nil
	}

	body, err := json.Marshal(smsPayload{To: c.Phone, Body: msg.Body})
	if err != nil {
		return fmt.Errorf("encode sms payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}

	logger.Info("sms dispatched", "customer_id", c.ID, "phone", c.Phone)
	return nil
}
