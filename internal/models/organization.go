package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Organization types, ordered from the top of the hierarchy down.
type OrganizationType string

const (
	OrgTypeDistributor OrganizationType = "DISTRIBUTOR"
	OrgTypeAgency      OrganizationType = "AGENCY"
	OrgTypeDealer      OrganizationType = "DEALER"
	OrgTypeSeller      OrganizationType = "SELLER"
	OrgTypeVendor      OrganizationType = "VENDOR"
)

// EntityTypeMerchant marks settlement entries owned by a merchant rather
// than an organization.
const EntityTypeMerchant = "MERCHANT"

type OrganizationStatus string

const (
	OrgStatusActive     OrganizationStatus = "ACTIVE"
	OrgStatusSuspended  OrganizationStatus = "SUSPENDED"
	OrgStatusTerminated OrganizationStatus = "TERMINATED"
)

// PathSeparator separates materialized path segments, e.g.
// "master.dist_001.agcy_001".
const PathSeparator = "."

// Organization is a node in the sales hierarchy. Path is the materialized
// ancestor chain including the node's own segment; Level equals the path
// depth below the root.
type Organization struct {
	ID               uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	OrgCode          string             `gorm:"uniqueIndex;not null" json:"orgCode"`
	Name             string             `gorm:"not null" json:"name"`
	OrgType          OrganizationType   `gorm:"not null" json:"orgType"`
	Path             string             `gorm:"uniqueIndex;not null" json:"path"`
	Level            int                `gorm:"not null" json:"level"`
	Status           OrganizationStatus `gorm:"not null;default:'ACTIVE'" json:"status"`
	BusinessEntityID *uuid.UUID         `gorm:"type:uuid" json:"businessEntityId,omitempty"`
	Config           JSON               `gorm:"type:jsonb" json:"config,omitempty"`
	CreatedAt        time.Time          `json:"createdAt"`
	UpdatedAt        time.Time          `json:"updatedAt"`
}

// PathSegments splits a materialized path into its segments.
func PathSegments(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, PathSeparator)
}

// ParentPath returns the path one level up, or "" at the root.
func ParentPath(path string) string {
	idx := strings.LastIndex(path, PathSeparator)
	if idx < 0 {
		return ""
	}
	return path[:idx]
}
