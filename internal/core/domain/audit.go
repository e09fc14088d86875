package domain

import (
	"regexp"
	"time"
)

// Carrier actions as recorded in the audit log and metrics.
const (
	ActionRates   = "rates"
	ActionTrack   = "track"
	ActionTransit = "time"
	ActionLabel   = "label"
)

// RequestRecord is one carrier exchange kept for audit.
type RequestRecord struct {
	ID        string    `json:"id" bson:"_id"`
	Carrier   string    `json:"carrier" bson:"carrier"`
	Action    string    `json:"action" bson:"action"`
	Success   bool      `json:"success" bson:"success"`
	Message   string    `json:"message,omitempty" bson:"message,omitempty"`
	Request   string    `json:"request" bson:"request"`
	Response  string    `json:"response" bson:"response"`
	Error     string    `json:"error,omitempty" bson:"error,omitempty"`
	Duration  int64     `json:"duration_ms" bson:"duration_ms"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// credentialElements matches the carrier request elements that carry secrets.
var credentialElements = regexp.MustCompile(`<(Password|PassPhrase|AccessLicenseNumber)(\s[^>]*)?>[^<]*</(?:Password|PassPhrase|AccessLicenseNumber)>`)

// RedactCredentials blanks the text of every credential element in a carrier
// request document so it can be stored.
func RedactCredentials(doc string) string {
	return credentialElements.ReplaceAllString(doc, "<${1}${2}>[REDACTED]</${1}>")
}
