package repository

import (
	"github.com/booktime/booktime-backend/internal/app/model"
	"github.com/booktime/booktime-backend/pkg/logger"
	"gorm.io/gorm"
)

type TagRepository interface {
	Create(tag *model.ProductTag) error
	FindBySlug(slug string) (*model.ProductTag, error)
	FindBySlugs(slugs []string) ([]model.ProductTag, error)
	FindAll(activeOnly bool) ([]model.ProductTag, error)
	Update(tag *model.ProductTag) error
}

type tagRepository struct {
	db *gorm.DB
}

func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) Create(tag *model.ProductTag) error {
	logger.Debug("Creating product tag", map[string]interface{}{
		"slug": tag.Slug,
	})
	return r.db.Create(tag).Error
}

// FindBySlug resolves a tag by its natural key.
func (r *tagRepository) FindBySlug(slug string) (*model.ProductTag, error) {
	var tag model.ProductTag
	if err := r.db.Where("slug = ?", slug).First(&tag).Error; err != nil {
		logNotFoundOrError("Failed to find tag by slug", err, map[string]interface{}{
			"slug": slug,
		})
		return nil, err
	}
	return &tag, nil
}

func (r *tagRepository) FindBySlugs(slugs []string) ([]model.ProductTag, error) {
	var tags []model.ProductTag
	if len(slugs) == 0 {
		return tags, nil
	}
	err := r.db.Where("slug IN ?", slugs).Order("slug ASC").Find(&tags).Error
	return tags, err
}

func (r *tagRepository) FindAll(activeOnly bool) ([]model.ProductTag, error) {
	var tags []model.ProductTag
	query := r.db.Order("name ASC")
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	if err := query.Find(&tags).Error; err != nil {
		logger.Error("Failed to list tags", err)
		return nil, err
	}
	return tags, nil
}

func (r *tagRepository) Update(tag *model.ProductTag) error {
	return r.db.Save(tag).Error
}
