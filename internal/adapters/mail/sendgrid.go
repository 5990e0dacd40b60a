package mail

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/bestquark/ml-at-ml-log/internal/domain/model"
	"github.com/bestquark/ml-at-ml-log/pkg/logger"
)

const (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

// SendGridSender delivers messages through the SendGrid v3 API.
type SendGridSender struct {
	key      string
	host     string
	from     *sgmail.Email
	composer Composer
	log      logger.Logger
}

// SendGridOption configures a SendGridSender.
type SendGridOption func(*SendGridSender)

// WithHost overrides the API host.
func WithHost(host string) SendGridOption {
	return func(s *SendGridSender) {
		if host != "" {
			s.host = host
		}
	}
}

// WithLogger sets the sender logger.
func WithLogger(l logger.Logger) SendGridOption {
	return func(s *SendGridSender) {
		if l != nil {
			s.log = l
		}
	}
}

// NewSendGridSender creates a sender authenticated with key.
func NewSendGridSender(key, fromName, fromAddress string, composer Composer, opts ...SendGridOption) *SendGridSender {
	s := &SendGridSender{
		key:      key,
		host:     sendgridHost,
		from:     sgmail.NewEmail(fromName, fromAddress),
		composer: composer,
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SendGridSender) prepare(msg Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = msg.Subject
	p.AddTos(sgmail.NewEmail(msg.ToName, msg.To))

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", msg.Text))
	return m
}

// Send composes n and posts it to SendGrid.
func (s *SendGridSender) Send(ctx context.Context, n model.Notification) error { //nolint:gocritic // queue payload
	msg, err := s.composer.Compose(n)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("send: %w", err)
	}

	req := sendgrid.GetRequest(s.key, sendgridEndpoint, s.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(s.prepare(msg))

	httpReq, err := rest.BuildRequestObject(req)
	if err != nil {
		return fmt.Errorf("sendgrid request: %w", err)
	}
	raw, err := rest.MakeRequest(httpReq.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("sendgrid request: %w", err)
	}
	res, err := rest.BuildResponse(raw)
	if err != nil {
		return fmt.Errorf("sendgrid response: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		s.log.Error(ctx, "sendgrid rejected message",
			logger.Int("status", res.StatusCode),
			logger.String("body", res.Body))
		return fmt.Errorf("sendgrid status %d", res.StatusCode)
	}
	return nil
}
