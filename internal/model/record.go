package model

import (
	"strings"
	"time"
)

// Status markers carried in the UpdatedPhone column. The phone column doubles
// as a status channel: a closed marker means the storefront is permanently
// unavailable, an error marker records the last attempt's failure reason.
const (
	ClosedPrefix = "CLOSED_"
	ErrorPrefix  = "ERROR: "
)

// Record is one row of the backing table, keyed by company name.
type Record struct {
	CompanyName  string `json:"company_name"`
	StoreURL     string `json:"store_url"`
	UpdatedPhone string `json:"updated_phone"`
	UpdatedEmail string `json:"updated_email"`
}

// Closed reports whether the record carries the closed marker.
func (r Record) Closed() bool {
	return strings.HasPrefix(r.UpdatedPhone, ClosedPrefix)
}

// Errored reports whether the record carries an error marker from a previous
// attempt. Errored rows remain eligible for future runs.
func (r Record) Errored() bool {
	return strings.HasPrefix(r.UpdatedPhone, ErrorPrefix)
}

// FullyUpdated reports whether both contact fields hold genuine values.
// A phone column carrying an error marker does not count.
func (r Record) FullyUpdated() bool {
	return strings.TrimSpace(r.UpdatedPhone) != "" &&
		strings.TrimSpace(r.UpdatedEmail) != "" &&
		!r.Errored() &&
		!r.Closed()
}

// ClosedMarker returns the closed status value for the given day.
func ClosedMarker(t time.Time) string {
	return ClosedPrefix + t.Format("20060102")
}

// ErrorMarker returns the error status value for the given message.
func ErrorMarker(msg string) string {
	return ErrorPrefix + msg
}
