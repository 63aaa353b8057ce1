package types

import (
	"strings"
	"time"
)

// ObjectStatus is the lifecycle state of a found object.
// The numeric values are part of the stored representation.
type ObjectStatus int

// Object lifecycle states. An object is registered AVAILABLE, becomes
// SOLICITED when an applicant claims it, and ends DEVOLVED when the
// institution hands it back. DEVOLVED is terminal; a cancelled
// solicitation returns the object to AVAILABLE.
const (
	StatusAvailable ObjectStatus = 0
	StatusSolicited ObjectStatus = 1
	StatusDevolved  ObjectStatus = 2
)

// statusNames maps each recognized status to its display name.
var statusNames = map[ObjectStatus]string{
	StatusAvailable: "available",
	StatusSolicited: "solicited",
	StatusDevolved:  "devolved",
}

// String returns the display name of the status, or "unknown" for
// unrecognized values.
func (s ObjectStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether s is one of the recognized statuses.
func (s ObjectStatus) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

// ParseStatus converts a display name back to a status.
// Returns ErrInvalidStatus for unrecognized names.
func ParseStatus(name string) (ObjectStatus, error) {
	for s, n := range statusNames {
		if n == name {
			return s, nil
		}
	}
	return 0, ErrInvalidStatus
}

// Field is one distinguishing attribute of an object, such as a document
// number or a color. Field order is significant: values are concatenated
// in sequence to build the search text.
type Field struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// Claim bundles the fields that exist only while an object is SOLICITED.
// They are set together by a solicitation and cleared together by a
// cancellation, so an object can never carry a partial claim.
type Claim struct {
	Applicant      string    `json:"applicant"`
	DevolutionCode string    `json:"devolution_code"`
	SolicitedAt    time.Time `json:"solicited_at"`
}

// Interested is one entry in an object's FIFO queue of backup applicants.
type Interested struct {
	ApplicantID string    `json:"applicant_id"`
	Email       string    `json:"email"`
	QueuedAt    time.Time `json:"queued_at"`
}

// Object is a found physical item tracked through its claim lifecycle.
type Object struct {
	ID          string       `json:"id"`
	Category    string       `json:"category"`
	Type        string       `json:"type"`
	Fields      []Field      `json:"fields"`
	FoundDate   time.Time    `json:"found_date"`
	Status      ObjectStatus `json:"status"`
	Institution string       `json:"institution"`

	// Claim is present iff Status is SOLICITED.
	Claim *Claim `json:"claim,omitempty"`

	// DevolvedAt is set iff Status is DEVOLVED.
	DevolvedAt time.Time `json:"devolved_at,omitzero"`

	// InterestedApplicants is the FIFO backup queue, in registration order.
	InterestedApplicants []Interested `json:"interested_applicants,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SearchText joins the object's field values with single spaces, in field
// order, skipping empty values. This is the text that full-text matching
// runs against.
func (o *Object) SearchText() string {
	var values []string
	for _, f := range o.Fields {
		if f.Value != "" {
			values = append(values, f.Value)
		}
	}
	return strings.Join(values, " ")
}

// Consistent reports whether the object's status agrees with its claim
// and devolution fields: a claim present iff SOLICITED, DevolvedAt set
// iff DEVOLVED.
func (o *Object) Consistent() bool {
	if (o.Claim != nil) != (o.Status == StatusSolicited) {
		return false
	}
	if !o.DevolvedAt.IsZero() != (o.Status == StatusDevolved) {
		return false
	}
	if o.Claim != nil {
		return o.Claim.Applicant != "" && o.Claim.DevolutionCode != "" && !o.Claim.SolicitedAt.IsZero()
	}
	return true
}

// Validate checks that a new object is well-formed enough to register.
func (o *Object) Validate() error {
	if o.Category == "" {
		return ErrMissingCategory
	}
	if o.Type == "" {
		return ErrMissingType
	}
	if o.Institution == "" {
		return ErrMissingInstitution
	}
	if !o.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

// ObjectFilter narrows object queries. Zero-valued fields are not applied.
type ObjectFilter struct {
	Category       string
	Type           string
	FoundDateFrom  time.Time // objects found on or after this date
	Institution    string
	Applicant      string
	DevolutionCode string
	Interested     string // applicant queued on the object
	Status         *ObjectStatus
}
