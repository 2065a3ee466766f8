// Package mailer sends transactional email through SendGrid.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/VINCENT-bot354/safaribytes/pkg/config"
	pkgerrors "github.com/VINCENT-bot354/safaribytes/pkg/errors"
)

// ErrNotConfigured is returned when no API key or sender is set.
var ErrNotConfigured = errors.New("sendgrid not configured")

// Message is a single-recipient email.
type Message struct {
	ToEmail string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

type sender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// Client wraps the SendGrid v3 send endpoint.
type Client struct {
	sender   sender
	fromAddr string
	fromName string
}

// NewSendGrid builds a client from config. A client without an API key still
// constructs so callers can check Configured and skip sending.
func NewSendGrid(cfg config.SendgridConfig) *Client {
	c := &Client{
		fromAddr: strings.TrimSpace(cfg.DefaultFrom),
		fromName: strings.TrimSpace(cfg.FromName),
	}
	if key := strings.TrimSpace(cfg.APIKey); key != "" {
		c.sender = sendgrid.NewSendClient(key)
	}
	return c
}

func (c *Client) Configured() bool {
	return c != nil && c.sender != nil && c.fromAddr != ""
}

// Send delivers msg. Any non-2xx response is a dependency error.
func (c *Client) Send(ctx context.Context, msg Message) error {
	if !c.Configured() {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, ErrNotConfigured, ErrNotConfigured.Error())
	}
	if strings.TrimSpace(msg.ToEmail) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient email required")
	}

	from := mail.NewEmail(c.fromName, c.fromAddr)
	to := mail.NewEmail(msg.ToName, strings.TrimSpace(msg.ToEmail))
	email := mail.NewSingleEmail(from, msg.Subject, to, msg.Text, msg.HTML)

	resp, err := c.sender.SendWithContext(ctx, email)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sendgrid request failed")
	}
	if resp == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "sendgrid returned no response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body := resp.Body
		if len(body) > 512 {
			body = body[:512]
		}
		return pkgerrors.Wrap(
			pkgerrors.CodeDependency,
			fmt.Errorf("status %d: %s", resp.StatusCode, body),
			fmt.Sprintf("sendgrid returned status %d", resp.StatusCode),
		)
	}
	return nil
}
