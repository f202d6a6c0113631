package datanorm

import (
	"fmt"
	"strings"
	"time"
)

// FileType identifies which export a CSV came from.
type FileType string

const (
	FileKixie           FileType = "kixie"
	FileTelesignWith    FileType = "telesign_with"
	FileTelesignWithout FileType = "telesign_without"
	FilePowerlist       FileType = "powerlist"
)

// FileTypes lists every supported source in display order.
var FileTypes = []FileType{FileKixie, FileTelesignWith, FileTelesignWithout, FilePowerlist}

var fileLabels = map[FileType]string{
	FileKixie:           "Kixie Call History",
	FileTelesignWith:    "Telesign (With Live)",
	FileTelesignWithout: "Telesign (Without Live)",
	FilePowerlist:       "Powerlist Contacts",
}

var fileFolders = map[FileType]string{
	FileKixie:           "kixie_call_history",
	FileTelesignWith:    "telesign_with_live",
	FileTelesignWithout: "telesign_without_live",
	FilePowerlist:       "powerlist_contacts",
}

// Label is the human-facing name used by the admin upload form.
func (f FileType) Label() string { return fileLabels[f] }

// Folder is the storage prefix holding this source's CSV files.
func (f FileType) Folder() string { return fileFolders[f] }

// FileName is the object name an upload of this type is stored under.
func (f FileType) FileName() string { return fileFolders[f] + ".csv" }

// Valid reports whether f is a known source.
func (f FileType) Valid() bool {
	_, ok := fileFolders[f]
	return ok
}

// ParseFileType accepts either the canonical id ("kixie") or the display
// label ("Kixie Call History"), case-insensitively.
func ParseFileType(s string) (FileType, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for _, ft := range FileTypes {
		if v == string(ft) || v == strings.ToLower(ft.Label()) {
			return ft, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFileType, s)
}

// Row is one parsed CSV line keyed by trimmed header name.
type Row map[string]string

// ValidationSource tags which Telesign export a validation row came from.
type ValidationSource string

const (
	SourceWithLive    ValidationSource = "with_live"
	SourceWithoutLive ValidationSource = "without_live"
)

// DefaultReachable is the reachability assumed when a row carries no
// explicit flag.
func (s ValidationSource) DefaultReachable() bool { return s == SourceWithLive }

// CallRecord is one Kixie dialer call in canonical form.
type CallRecord struct {
	Disposition     string     `json:"disposition"`
	ToNumber        string     `json:"to_number"`
	PhoneNormalized string     `json:"phone_normalized,omitempty"`
	Timestamp       *time.Time `json:"datetime,omitempty"`
	Date            string     `json:"date,omitempty"`
	Time            string     `json:"time,omitempty"`
	AgentFirstName  string     `json:"agent_first_name,omitempty"`
	AgentLastName   string     `json:"agent_last_name,omitempty"`
	AgentName       string     `json:"agent_name"`
	Status          string     `json:"status,omitempty"`
	Duration        string     `json:"duration,omitempty"`
	Source          string     `json:"source,omitempty"`

	// Defaulted lists canonical fields that fell back to a default value.
	Defaulted []string `json:"defaulted,omitempty"`
}

// ValidationRecord is one Telesign phone validation in canonical form.
type ValidationRecord struct {
	PhoneE164       string           `json:"phone_e164"`
	PhoneNormalized string           `json:"phone_normalized,omitempty"`
	Reachable       bool             `json:"is_reachable"`
	Carrier         string           `json:"carrier"`
	RiskLevel       string           `json:"risk_level"`
	ValidationType  string           `json:"validation_type"`
	Source          ValidationSource `json:"source_file"`

	Defaulted []string `json:"defaulted,omitempty"`
}

// ContactRecord is one Powerlist contact in canonical form.
type ContactRecord struct {
	PhoneNumber     string `json:"phone_number"`
	PhoneNormalized string `json:"phone_normalized,omitempty"`
	Connected       int    `json:"connected"`
	AttemptCount    int    `json:"attempt_count"`
	ListName        string `json:"list_name"`
	DateAdded       string `json:"date_added,omitempty"`

	Defaulted []string `json:"defaulted,omitempty"`
}

// Dataset holds the three canonical collections for one load.
type Dataset struct {
	Calls       []CallRecord       `json:"kixie"`
	Validations []ValidationRecord `json:"telesign"`
	Contacts    []ContactRecord    `json:"powerlist"`
}
