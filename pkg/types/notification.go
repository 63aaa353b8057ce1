package types

import (
	"strings"
	"time"
)

// WantedObject describes the object a notification owner is looking for.
// FoundDate is a floor: the notification only matches objects found on or
// after that date.
type WantedObject struct {
	Category  string    `json:"category"`
	Type      string    `json:"type"`
	FoundDate time.Time `json:"found_date"`
	Fields    []Field   `json:"fields"`
}

// SearchText joins the wanted object's field values with single spaces,
// in field order, skipping empty values.
func (w *WantedObject) SearchText() string {
	var values []string
	for _, f := range w.Fields {
		if f.Value != "" {
			values = append(values, f.Value)
		}
	}
	return strings.Join(values, " ")
}

// Notification is a standing want-registration. Once ObjectFound is set
// the notification is fulfilled and excluded from future matching.
type Notification struct {
	ID           string       `json:"id"`
	Email        string       `json:"email"`
	ObjectToFind WantedObject `json:"object_to_find"`
	ObjectFound  string       `json:"object_found,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

// Fulfilled reports whether the notification has been bound to a found
// object.
func (n *Notification) Fulfilled() bool {
	return n.ObjectFound != ""
}

// Validate checks that a new notification is well-formed enough to
// register.
func (n *Notification) Validate() error {
	if n.Email == "" {
		return ErrMissingEmail
	}
	if n.ObjectToFind.Category == "" {
		return ErrMissingCategory
	}
	if n.ObjectToFind.Type == "" {
		return ErrMissingType
	}
	return nil
}
