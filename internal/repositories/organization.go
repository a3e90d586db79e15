package repositories

import (
	"errors"

	"billpay/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrganizationRepository provides read access to the organization tree.
type OrganizationRepository interface {
	GetByID(id uuid.UUID) (*models.Organization, error)
	GetByPath(path string) (*models.Organization, error)
	// GetByPaths returns the organizations matching the given materialized
	// paths. Missing paths are simply absent from the result.
	GetByPaths(paths []string) ([]models.Organization, error)
	List(orgType models.OrganizationType, search string) ([]models.Organization, error)
	Create(org *models.Organization) error
	Update(org *models.Organization) error
}

type organizationRepository struct {
	db *gorm.DB
}

func NewOrganizationRepository(db *gorm.DB) OrganizationRepository {
	return &organizationRepository{db: db}
}

func (r *organizationRepository) GetByID(id uuid.UUID) (*models.Organization, error) {
	var org models.Organization
	if err := r.db.First(&org, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, err
	}
	return &org, nil
}

func (r *organizationRepository) GetByPath(path string) (*models.Organization, error) {
	var org models.Organization
	if err := r.db.First(&org, "path = ?", path).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, err
	}
	return &org, nil
}

func (r *organizationRepository) GetByPaths(paths []string) ([]models.Organization, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	var orgs []models.Organization
	if err := r.db.Where("path IN ?", paths).Find(&orgs).Error; err != nil {
		return nil, err
	}
	return orgs, nil
}

func (r *organizationRepository) List(orgType models.OrganizationType, search string) ([]models.Organization, error) {
	q := r.db.Model(&models.Organization{})
	if orgType != "" {
		q = q.Where("org_type = ?", orgType)
	}
	if search != "" {
		q = q.Where("name ILIKE ? OR org_code ILIKE ?", "%"+search+"%", "%"+search+"%")
	}
	var orgs []models.Organization
	if err := q.Order("path asc").Find(&orgs).Error; err != nil {
		return nil, err
	}
	return orgs, nil
}

func (r *organizationRepository) Create(org *models.Organization) error {
	return r.db.Create(org).Error
}

func (r *organizationRepository) Update(org *models.Organization) error {
	return r.db.Save(org).Error
}
