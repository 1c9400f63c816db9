package sms

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// DefaultDialogURL is Dialog's URL-campaign endpoint
const DefaultDialogURL = "https://e-sms.dialog.lk/api/v1/message-via-url/create/url-campaign"

// Gateway sends a single text message
type Gateway interface {
	Send(ctx context.Context, phone, message string) error
	Name() string
}

// DialogGateway sends messages through Dialog's URL method, which
// authenticates with an esmsqk key instead of username/password
type DialogGateway struct {
	client *resty.Client
	apiKey string
	mask   string
}

// DialogConfig holds configuration for the Dialog gateway
type DialogConfig struct {
	URL    string
	APIKey string // esmsqk key from the Dialog portal
	Mask   string // source address
}

// NewDialogGateway creates a new Dialog URL gateway
func NewDialogGateway(cfg DialogConfig) *DialogGateway {
	url := cfg.URL
	if url == "" {
		url = DefaultDialogURL
	}

	client := resty.New().
		SetBaseURL(url).
		SetTimeout(30 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second)

	return &DialogGateway{
		client: client,
		apiKey: cfg.APIKey,
		mask:   cfg.Mask,
	}
}

// Send delivers message to phone. Dialog answers "1" on success or an error id otherwise.
func (d *DialogGateway) Send(ctx context.Context, phone, message string) error {
	formatted, err := FormatPhoneForDialog(phone)
	if err != nil {
		return fmt.Errorf("invalid phone number: %w", err)
	}

	resp, err := d.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"esmsqk":         d.apiKey,
			"list":           formatted,
			"source_address": d.mask,
			"message":        message,
		}).
		Get("")
	if err != nil {
		return fmt.Errorf("failed to send SMS: %w", err)
	}

	body := strings.TrimSpace(resp.String())
	if resp.StatusCode() != 200 {
		return fmt.Errorf("SMS API returned status %d: %s", resp.StatusCode(), body)
	}
	if body != "1" {
		return fmt.Errorf("SMS sending failed with error code: %s", body)
	}

	return nil
}

// Name returns the name of this SMS gateway
func (d *DialogGateway) Name() string {
	return "Dialog URL Gateway"
}

// LogGateway writes messages to the log instead of sending them
type LogGateway struct {
	logger *logrus.Logger
}

// NewLogGateway creates a gateway for development mode
func NewLogGateway(logger *logrus.Logger) *LogGateway {
	return &LogGateway{logger: logger}
}

// Send logs the message
func (l *LogGateway) Send(_ context.Context, phone, message string) error {
	l.logger.WithFields(logrus.Fields{
		"phone":   phone,
		"message": message,
	}).Info("SMS (dev mode, not sent)")
	return nil
}

// Name returns the name of this SMS gateway
func (l *LogGateway) Name() string {
	return "Log Gateway"
}

// FormatPhoneForDialog converts a phone number to Dialog's 9-digit format.
// Accepts "0771234567", "94771234567" or "+94771234567"; returns "771234567".
func FormatPhoneForDialog(phone string) (string, error) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)

	switch {
	case len(digits) == 11 && strings.HasPrefix(digits, "94"):
		digits = digits[2:]
	case len(digits) == 10 && strings.HasPrefix(digits, "0"):
		digits = digits[1:]
	}

	if len(digits) != 9 || digits[0] != '7' {
		return "", fmt.Errorf("unsupported phone number format: %s", phone)
	}
	return digits, nil
}
