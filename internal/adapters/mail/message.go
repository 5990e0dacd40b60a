// Package mail composes and delivers presenter confirmation requests.
package mail

import (
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/bestquark/ml-at-ml-log/internal/domain/model"
)

// DefaultSubject is the subject line of confirmation requests.
const DefaultSubject = "[Confirmation Required] ML Subgroup"

// ErrNoRecipient is returned for notifications without an address.
var ErrNoRecipient = errors.New("notification has no recipient")

const confirmationText = `Hi {{.Name}},

You have been proposed to present at the ML subgroup meeting on {{.Date}}.

Please confirm your slot by opening the link below:
{{.Link}}

If you cannot make it, reply to this email and we will find another date.

Thanks,
{{.Organizer}}
`

var confirmationTmpl = template.Must(template.New("confirmation").Parse(confirmationText))

// Message is a rendered plain-text email.
type Message struct {
	To      string
	ToName  string
	Subject string
	Text    string
}

// Composer renders notifications into messages.
type Composer struct {
	Organizer string
	Subject   string
}

// Compose renders the confirmation request for n.
func (c Composer) Compose(n model.Notification) (Message, error) { //nolint:gocritic // value semantics match the queue payload
	if strings.TrimSpace(n.Email) == "" {
		return Message{}, fmt.Errorf("%w: %s", ErrNoRecipient, n.Name)
	}
	subject := c.Subject
	if subject == "" {
		subject = DefaultSubject
	}

	var b strings.Builder
	err := confirmationTmpl.Execute(&b, struct {
		Name, Date, Link, Organizer string
	}{
		Name:      n.Name,
		Date:      n.Date.Format("January 02, 2006"),
		Link:      n.Link,
		Organizer: c.Organizer,
	})
	if err != nil {
		return Message{}, fmt.Errorf("render confirmation for %s: %w", n.Name, err)
	}
	return Message{To: n.Email, ToName: n.Name, Subject: subject, Text: b.String()}, nil
}
