package models

import (
	"time"

	"github.com/google/uuid"
)

// Journal statuses
const (
	JournalStatusPending = "pending"
	JournalStatusSent    = "sent"
	JournalStatusFailed  = "failed"
)

// ValidJournalTransitions: from -> []to
var ValidJournalTransitions = map[string][]string{
	JournalStatusPending: {JournalStatusSent, JournalStatusFailed},
	JournalStatusSent:    {},
	JournalStatusFailed:  {},
}

func IsValidJournalTransition(from, to string) bool {
	allowed, ok := ValidJournalTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// JournalEntry records one ActionLog create forwarded to the Platform.
type JournalEntry struct {
	ID               uuid.UUID  `json:"id"`
	RequestID        string     `json:"request_id,omitempty"`
	CallerID         *uuid.UUID `json:"caller_id,omitempty"`
	CallerService    string     `json:"caller_service,omitempty"`
	MoxiWorksAgentID string     `json:"moxi_works_agent_id"`
	PartnerContactID string     `json:"partner_contact_id"`
	AgentUUID        *string    `json:"agent_uuid,omitempty"` // echoed by the Platform once sent
	Title            string     `json:"title"`
	Body             string     `json:"body"`
	Status           string     `json:"status"`
	Error            *string    `json:"error,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}
