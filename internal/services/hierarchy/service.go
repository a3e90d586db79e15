// Package hierarchy resolves the organization tree for settlement
// attribution. The central guarantee is historical accuracy: an event is
// attributed to the organization chain the merchant belonged to when the
// event occurred, not where it sits today.
package hierarchy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"billpay/internal/models"
	"billpay/internal/repositories"

	"github.com/google/uuid"
)

// Service resolves merchant ancestor chains and owns merchant
// re-parenting.
type Service interface {
	// ResolveAncestors returns the merchant followed by its ancestor
	// organizations ordered deepest to root, using the org path valid at
	// atTime.
	ResolveAncestors(ctx context.Context, merchantID uuid.UUID, atTime time.Time) ([]AncestorRef, error)
	// OrgPathAt returns the merchant's org path valid at atTime.
	OrgPathAt(ctx context.Context, merchantID uuid.UUID, atTime time.Time) (string, error)
	MoveMerchant(ctx context.Context, merchantID uuid.UUID, req MoveRequest) (*models.Merchant, error)
}

type service struct {
	merchants repositories.MerchantRepository
	orgs      repositories.OrganizationRepository
}

// NewService creates a new hierarchy service.
func NewService(merchants repositories.MerchantRepository, orgs repositories.OrganizationRepository) Service {
	if merchants == nil {
		panic("merchant repository is required")
	}
	if orgs == nil {
		panic("organization repository is required")
	}
	return &service{merchants: merchants, orgs: orgs}
}

func (s *service) OrgPathAt(ctx context.Context, merchantID uuid.UUID, atTime time.Time) (string, error) {
	merchant, err := s.merchants.GetByID(merchantID)
	if err != nil {
		if errors.Is(err, repositories.ErrMerchantNotFound) {
			return "", ErrMerchantNotFound
		}
		return "", fmt.Errorf("failed to load merchant: %w", err)
	}

	history, err := s.merchants.OrgHistory(merchantID)
	if err != nil {
		return "", fmt.Errorf("failed to load merchant org history: %w", err)
	}

	return pathAt(merchant.OrgPath, history, atTime), nil
}

// pathAt picks the org path valid at atTime from the move history.
// History is ordered by MovedAt ascending; before the first move the
// merchant lived at that move's FromOrgPath, after the last move at the
// current path.
func pathAt(currentPath string, history []models.MerchantOrgHistory, atTime time.Time) string {
	if len(history) == 0 {
		return currentPath
	}
	if atTime.Before(history[0].MovedAt) {
		return history[0].FromOrgPath
	}
	path := currentPath
	for i := len(history) - 1; i >= 0; i-- {
		if !atTime.Before(history[i].MovedAt) {
			path = history[i].ToOrgPath
			break
		}
	}
	return path
}

func (s *service) ResolveAncestors(ctx context.Context, merchantID uuid.UUID, atTime time.Time) ([]AncestorRef, error) {
	orgPath, err := s.OrgPathAt(ctx, merchantID, atTime)
	if err != nil {
		return nil, err
	}

	segments := models.PathSegments(orgPath)
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: merchant %s has empty org path", ErrInconsistentPath, merchantID)
	}

	// Build every cumulative prefix path. The bare root segment is the
	// implicit platform node with no organization row.
	var prefixes []string
	for i := 2; i <= len(segments); i++ {
		prefixes = append(prefixes, joinSegments(segments[:i]))
	}

	orgs, err := s.orgs.GetByPaths(prefixes)
	if err != nil {
		return nil, fmt.Errorf("failed to load ancestor organizations: %w", err)
	}
	byPath := make(map[string]models.Organization, len(orgs))
	for _, org := range orgs {
		byPath[org.Path] = org
	}

	chain := []AncestorRef{{
		EntityID:   merchantID,
		EntityType: models.EntityTypeMerchant,
		EntityPath: orgPath,
		Level:      len(segments),
	}}

	// Deepest organization first, root-most last.
	for i := len(prefixes) - 1; i >= 0; i-- {
		org, ok := byPath[prefixes[i]]
		if !ok {
			return nil, fmt.Errorf("%w: no organization at path %q", ErrInconsistentPath, prefixes[i])
		}
		chain = append(chain, AncestorRef{
			EntityID:   org.ID,
			EntityType: string(org.OrgType),
			EntityPath: org.Path,
			Level:      org.Level,
		})
	}

	return chain, nil
}

func (s *service) MoveMerchant(ctx context.Context, merchantID uuid.UUID, req MoveRequest) (*models.Merchant, error) {
	merchant, err := s.merchants.GetByID(merchantID)
	if err != nil {
		if errors.Is(err, repositories.ErrMerchantNotFound) {
			return nil, ErrMerchantNotFound
		}
		return nil, fmt.Errorf("failed to load merchant: %w", err)
	}

	target, err := s.orgs.GetByID(req.ToOrganizationID)
	if err != nil {
		if errors.Is(err, repositories.ErrOrganizationNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to load target organization: %w", err)
	}

	if merchant.OrganizationID == target.ID {
		return nil, ErrSameOrganization
	}

	history := &models.MerchantOrgHistory{
		ID:          uuid.New(),
		MerchantID:  merchant.ID,
		FromOrgID:   merchant.OrganizationID,
		FromOrgPath: merchant.OrgPath,
		ToOrgID:     target.ID,
		ToOrgPath:   target.Path,
		MovedAt:     time.Now(),
		MovedBy:     req.MovedBy,
		Reason:      req.Reason,
		CreatedAt:   time.Now(),
	}

	merchant.OrganizationID = target.ID
	merchant.OrgPath = target.Path

	if err := s.merchants.Move(merchant, history); err != nil {
		return nil, fmt.Errorf("failed to move merchant: %w", err)
	}
	return merchant, nil
}

func joinSegments(segments []string) string {
	path := segments[0]
	for _, seg := range segments[1:] {
		path += models.PathSeparator + seg
	}
	return path
}
