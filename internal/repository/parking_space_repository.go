package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/parkingmate/service-parking/internal/common/domain"
	spaceDomain "github.com/parkingmate/service-parking/internal/domain/space"
)

// ParkingSpaceModel is the GORM model for the parking_spaces table.
type ParkingSpaceModel struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OwnerID      uuid.UUID       `gorm:"type:uuid;index;not null"`
	Address      string          `gorm:"size:255;not null"`
	Latitude     *float64        `gorm:""`
	Longitude    *float64        `gorm:""`
	PricePerHour int64           `gorm:"not null"`
	Description  string          `gorm:"size:2000"`
	ImageURLs    json.RawMessage `gorm:"column:image_urls;type:jsonb;not null;default:'[]'"`
	Version      int64           `gorm:"not null;default:1"`
	CreatedAt    time.Time       `gorm:"not null;index"`
	UpdatedAt    time.Time       `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (ParkingSpaceModel) TableName() string { return "parking_spaces" }

// GormParkingSpaceRepository is the GORM-based implementation of ParkingSpaceRepository.
type GormParkingSpaceRepository struct {
	db *gorm.DB
}

// NewGormParkingSpaceRepository creates a new GormParkingSpaceRepository.
func NewGormParkingSpaceRepository(db *gorm.DB) *GormParkingSpaceRepository {
	return &GormParkingSpaceRepository{db: db}
}

var _ spaceDomain.ParkingSpaceRepository = (*GormParkingSpaceRepository)(nil)

func (r *GormParkingSpaceRepository) FindByID(ctx context.Context, id uuid.UUID) (*spaceDomain.ParkingSpace, error) {
	var model ParkingSpaceModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("parking space", id.String())
		}
		return nil, fmt.Errorf("failed to find parking space by ID: %w", err)
	}
	return toDomainSpace(&model)
}

func (r *GormParkingSpaceRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*spaceDomain.ParkingSpace, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var models []ParkingSpaceModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find parking spaces by IDs: %w", err)
	}
	return toDomainSpaces(models)
}

func (r *GormParkingSpaceRepository) FindByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]*spaceDomain.ParkingSpace, error) {
	var models []ParkingSpaceModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find owner parking spaces: %w", err)
	}
	return toDomainSpaces(models)
}

func (r *GormParkingSpaceRepository) FindWithCoordinates(ctx context.Context) ([]*spaceDomain.ParkingSpace, error) {
	var models []ParkingSpaceModel
	if err := r.db.WithContext(ctx).
		Where("latitude IS NOT NULL AND longitude IS NOT NULL").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find parking spaces with coordinates: %w", err)
	}
	return toDomainSpaces(models)
}

// Search pages through spaces whose address contains filter.Address (case-insensitive).
func (r *GormParkingSpaceRepository) Search(ctx context.Context, filter spaceDomain.ListFilter) ([]*spaceDomain.ParkingSpace, int64, error) {
	page, size := domain.NormalizePagination(filter.Page, filter.Size)

	query := r.db.WithContext(ctx).Model(&ParkingSpaceModel{})
	if filter.Address != "" {
		query = query.Where("address ILIKE ?", "%"+escapeLike(filter.Address)+"%")
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count parking spaces: %w", err)
	}

	var models []ParkingSpaceModel
	if err := query.
		Order(orderClause(filter.Sort)).
		Order("id DESC").
		Offset(page * size).
		Limit(size).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to search parking spaces: %w", err)
	}

	spaces, err := toDomainSpaces(models)
	if err != nil {
		return nil, 0, err
	}
	return spaces, total, nil
}

func orderClause(sort spaceDomain.SortOrder) string {
	switch sort {
	case spaceDomain.SortPriceAsc:
		return "price_per_hour ASC"
	case spaceDomain.SortPriceDesc:
		return "price_per_hour DESC"
	default:
		return "created_at DESC"
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (r *GormParkingSpaceRepository) Save(ctx context.Context, s *spaceDomain.ParkingSpace) error {
	model, err := toSpaceModel(s)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save parking space: %w", err)
	}
	return nil
}

// Update replaces the editable columns; the stored row must be at version-1.
func (r *GormParkingSpaceRepository) Update(ctx context.Context, s *spaceDomain.ParkingSpace) error {
	model, err := toSpaceModel(s)
	if err != nil {
		return err
	}

	result := r.db.WithContext(ctx).
		Model(&ParkingSpaceModel{}).
		Where("id = ? AND version = ?", model.ID, s.Version()-1).
		Updates(map[string]interface{}{
			"address":        model.Address,
			"latitude":       model.Latitude,
			"longitude":      model.Longitude,
			"price_per_hour": model.PricePerHour,
			"description":    model.Description,
			"image_urls":     model.ImageURLs,
			"version":        model.Version,
			"updated_at":     model.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update parking space: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("parking space was modified by another transaction")
	}
	return nil
}

// --- Conversions ---

func toSpaceModel(s *spaceDomain.ParkingSpace) (*ParkingSpaceModel, error) {
	images, err := json.Marshal(s.ImageURLs())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal image URLs: %w", err)
	}
	return &ParkingSpaceModel{
		ID:           s.ID(),
		OwnerID:      s.OwnerID(),
		Address:      s.Address(),
		Latitude:     s.Latitude(),
		Longitude:    s.Longitude(),
		PricePerHour: s.PricePerHour(),
		Description:  s.Description(),
		ImageURLs:    images,
		Version:      s.Version(),
		CreatedAt:    s.CreatedAt(),
		UpdatedAt:    s.UpdatedAt(),
	}, nil
}

func toDomainSpace(m *ParkingSpaceModel) (*spaceDomain.ParkingSpace, error) {
	var images []string
	if len(m.ImageURLs) > 0 {
		if err := json.Unmarshal(m.ImageURLs, &images); err != nil {
			return nil, fmt.Errorf("failed to unmarshal image URLs: %w", err)
		}
	}
	return spaceDomain.ReconstructParkingSpace(m.ID, m.OwnerID, spaceDomain.Details{
		Address:      m.Address,
		Latitude:     m.Latitude,
		Longitude:    m.Longitude,
		PricePerHour: m.PricePerHour,
		Description:  m.Description,
		ImageURLs:    images,
	}, m.Version, m.CreatedAt, m.UpdatedAt), nil
}

func toDomainSpaces(models []ParkingSpaceModel) ([]*spaceDomain.ParkingSpace, error) {
	spaces := make([]*spaceDomain.ParkingSpace, len(models))
	for i := range models {
		s, err := toDomainSpace(&models[i])
		if err != nil {
			return nil, err
		}
		spaces[i] = s
	}
	return spaces, nil
}
