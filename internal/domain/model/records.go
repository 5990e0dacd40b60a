package model

import (
	"strconv"
	"time"
)

// Material is a document uploaded for a meeting.
type Material struct {
	ID          string    `json:"id"`
	Date        time.Time `json:"date"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	FileName    string    `json:"file_name"`
	Link        string    `json:"link"`
}

// SlideDeck links a meeting date to its shared presentation.
type SlideDeck struct {
	Date           time.Time `json:"date"`
	PresentationID string    `json:"presentation_id"`
	Link           string    `json:"link"`
}

// Notification is a confirmation request sent to a proposed presenter.
type Notification struct {
	ID       string    `json:"id"`
	Date     time.Time `json:"date"`
	Position int       `json:"position"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Link     string    `json:"link"`
}

// DedupeKey identifies the notification for one proposal.
func (n Notification) DedupeKey() string {
	return n.Date.Format(DateLayout) + "/" + strconv.Itoa(n.Position) + "/" + n.Name
}
