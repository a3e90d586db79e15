package hierarchy

import (
	"github.com/google/uuid"
)

// AncestorRef is one node of a merchant's settlement chain: the merchant
// itself first, then each ancestor organization ordered deepest to root.
type AncestorRef struct {
	EntityID   uuid.UUID
	EntityType string
	EntityPath string
	Level      int
}

// MoveRequest re-parents a merchant under a new organization.
type MoveRequest struct {
	ToOrganizationID uuid.UUID `json:"toOrganizationId" validate:"required"`
	MovedBy          string    `json:"movedBy" validate:"required"`
	Reason           string    `json:"reason"`
}
