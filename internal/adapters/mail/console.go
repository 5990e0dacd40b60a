package mail

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/bestquark/ml-at-ml-log/internal/domain/model"
)

// ConsoleSender writes messages to a writer instead of sending them. It
// keeps every message it wrote for inspection.
type ConsoleSender struct {
	w        io.Writer
	from     string
	composer Composer

	mu   sync.Mutex
	sent []Message
}

// NewConsoleSender creates a sender that prints to w.
func NewConsoleSender(w io.Writer, from string, composer Composer) *ConsoleSender {
	return &ConsoleSender{w: w, from: from, composer: composer}
}

// Send composes n and prints it.
func (s *ConsoleSender) Send(ctx context.Context, n model.Notification) error { //nolint:gocritic // queue payload
	msg, err := s.composer.Compose(n)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.w != nil {
		_, err = fmt.Fprintf(s.w, "From: %s\r\nTo: %s <%s>\r\nDate: %s\r\nSubject: %s\r\n\r\n%s\r\n",
			s.from, msg.ToName, msg.To, time.Now().Format(time.RFC1123Z), msg.Subject, msg.Text)
		if err != nil {
			return fmt.Errorf("write message: %w", err)
		}
	}
	s.sent = append(s.sent, msg)
	return nil
}

// Sent returns a copy of the messages written so far.
func (s *ConsoleSender) Sent() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.sent...)
}
