package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	From       string
	RatePerSec int
	// BaseURL overrides the Twilio API endpoint (tests).
	BaseURL string
}

// TwilioClient sends WhatsApp messages through Twilio's Messages API.
// It satisfies reminder.WhatsAppSender.
type TwilioClient struct {
	cfg     TwilioConfig
	httpc   *http.Client
	limiter *rate.Limiter
	log     zerolog.Logger
}

func NewTwilioClient(cfg TwilioConfig, log zerolog.Logger) *TwilioClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.twilio.com/2010-04-01"
	}
	if !strings.HasPrefix(cfg.From, "whatsapp:") {
		cfg.From = "whatsapp:+14155238886"
	}
	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 3
	}
	return &TwilioClient{
		cfg:     cfg,
		httpc:   &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
		log:     log,
	}
}

func (c *TwilioClient) Configured() bool {
	return c.cfg.AccountSID != "" && c.cfg.AuthToken != ""
}

// AsWhatsApp normalizes a destination into Twilio's "whatsapp:+E164" form.
// Returns "" when no usable number can be derived.
func AsWhatsApp(number string) string {
	number = strings.TrimSpace(number)
	if number == "" {
		return ""
	}
	if strings.HasPrefix(number, "whatsapp:") {
		return number
	}
	if strings.HasPrefix(number, "+") {
		return "whatsapp:" + number
	}
	var digits strings.Builder
	for _, r := range number {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return ""
	}
	return "whatsapp:+" + digits.String()
}

type twilioResponse struct {
	SID     string `json:"sid"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Send delivers body to the given number and returns the Twilio message SID.
func (c *TwilioClient) Send(ctx context.Context, to, body string) (string, error) {
	if !c.Configured() {
		return "", errors.New("twilio not configured")
	}
	toWA := AsWhatsApp(to)
	if toWA == "" {
		return "", errors.New("invalid destination number")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	form := url.Values{}
	form.Set("To", toWA)
	form.Set("From", c.cfg.From)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", c.cfg.BaseURL, c.cfg.AccountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.cfg.AccountSID, c.cfg.AuthToken)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var tr twilioResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("twilio response decode: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("twilio error: status=%d code=%d msg=%s", resp.StatusCode, tr.Code, tr.Message)
	}

	c.log.Debug().Str("to", toWA).Str("sid", tr.SID).Msg("whatsapp message sent")
	return tr.SID, nil
}
