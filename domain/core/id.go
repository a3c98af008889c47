package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	// UUID v7 keeps ids sortable by creation time, which matters for the
	// append-only deployment ledger. Falls back to v4 if v7 fails.
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	SessionID    ID
	FrameID      ID
	CandidateID  ID
	DeploymentID ID
	GateName     ID
)

// String conversions for domain IDs
func (id SessionID) String() string    { return ID(id).String() }
func (id FrameID) String() string      { return ID(id).String() }
func (id CandidateID) String() string  { return ID(id).String() }
func (id DeploymentID) String() string { return ID(id).String() }
func (id GateName) String() string     { return ID(id).String() }

// ParseSessionID parses a string into SessionID
func ParseSessionID(s string) (SessionID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("session ID cannot be empty")
	}
	return SessionID(s), nil
}

// ParseGateName parses a string into GateName
func ParseGateName(s string) (GateName, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("gate name cannot be empty")
	}
	return GateName(s), nil
}
