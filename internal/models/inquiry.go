package models

import (
	"encoding/json"
	"strings"
)

// InquiryStatus tracks whether an admin answered an inquiry.
type InquiryStatus string

const (
	InquiryPending   InquiryStatus = "PENDING"
	InquiryResponded InquiryStatus = "RESPONDED"
)

// UnmarshalJSON implements json.Unmarshaler with case-insensitive ingestion.
func (s *InquiryStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = InquiryStatus(strings.ToUpper(strings.TrimSpace(raw)))
	return nil
}

// Inquiry is a buyer message about one property.
type Inquiry struct {
	ID            int64         `json:"id"`
	Message       string        `json:"message"`
	Status        InquiryStatus `json:"status"`
	AdminResponse string        `json:"adminResponse,omitempty"`
	User          *User         `json:"user,omitempty"`
	Property      *Property     `json:"property,omitempty"`
	CreatedAt     Timestamp     `json:"createdAt"`
	UpdatedAt     Timestamp     `json:"updatedAt"`
}
