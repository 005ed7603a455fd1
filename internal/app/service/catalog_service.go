package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/booktime/booktime-backend/internal/app/model"
	"github.com/booktime/booktime-backend/internal/app/repository"
	"github.com/booktime/booktime-backend/pkg/logger"
	"github.com/booktime/booktime-backend/pkg/util"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AllTags is the tag segment that disables tag filtering.
const AllTags = "all"

const DefaultPageSize = 4

type ProductListResult struct {
	Products []model.Product
	Tag      *model.ProductTag
	Total    int64
	Page     int
	PageSize int
}

type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Slug        string
	Active      bool
	InStock     bool
	TagSlugs    []string
}

type TagInput struct {
	Name        string
	Slug        string
	Description string
	Active      bool
}

type CatalogService interface {
	ListActive(ctx context.Context, tagSlug string, page, pageSize int) (*ProductListResult, error)
	GetActiveProduct(ctx context.Context, slug string) (*model.Product, error)
	GetProduct(ctx context.Context, id uint) (*model.Product, error)
	CreateProduct(ctx context.Context, in ProductInput) (*model.Product, error)
	UpdateProduct(ctx context.Context, id uint, in ProductInput) (*model.Product, error)
	DeleteProduct(ctx context.Context, id uint) error
	ListTags(ctx context.Context, activeOnly bool) ([]model.ProductTag, error)
	CreateTag(ctx context.Context, in TagInput) (*model.ProductTag, error)
}

type catalogService struct {
	productRepo repository.ProductRepository
	tagRepo     repository.TagRepository
}

func NewCatalogService(productRepo repository.ProductRepository, tagRepo repository.TagRepository) CatalogService {
	return &catalogService{
		productRepo: productRepo,
		tagRepo:     tagRepo,
	}
}

// ListActive pages through active products by name. tagSlug "all" or ""
// lists everything; an unknown tag is ErrTagNotFound.
func (s *catalogService) ListActive(ctx context.Context, tagSlug string, page, pageSize int) (*ProductListResult, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	result := &ProductListResult{Page: page, PageSize: pageSize}
	q := repository.ProductQuery{Offset: (page - 1) * pageSize, Limit: pageSize}

	if tagSlug != "" && tagSlug != AllTags {
		tag, err := s.tagRepo.FindBySlug(tagSlug)
		if err != nil {
			return nil, notFound(err, ErrTagNotFound)
		}
		result.Tag = tag
		q.TagID = &tag.ID
	}

	products, total, err := s.productRepo.ListActive(q)
	if err != nil {
		return nil, err
	}
	result.Products = products
	result.Total = total
	return result, nil
}

func (s *catalogService) GetActiveProduct(ctx context.Context, slug string) (*model.Product, error) {
	product, err := s.productRepo.FindActiveBySlug(slug)
	if err != nil {
		return nil, notFound(err, ErrProductNotFound)
	}
	return product, nil
}

func (s *catalogService) GetProduct(ctx context.Context, id uint) (*model.Product, error) {
	product, err := s.productRepo.FindByID(id)
	if err != nil {
		return nil, notFound(err, ErrProductNotFound)
	}
	return product, nil
}

// Column bounds shared by the catalog forms and the admin panel.
const (
	MaxNameLength = 32
	MaxSlugLength = 48
)

// MaxProductPrice is the largest value a decimal(6,2) price column holds.
var MaxProductPrice = decimal.New(999999, -2)

func checkName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrRequired
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return "", ErrNameTooLong
	}
	return name, nil
}

// checkSlug slugifies slug, or fallback when slug is blank.
func checkSlug(slug, fallback string) (string, error) {
	if strings.TrimSpace(slug) == "" {
		slug = fallback
	}
	out := util.Slugify(slug)
	if out == "" {
		return "", ErrInvalidSlug
	}
	if utf8.RuneCountInString(out) > MaxSlugLength {
		return "", ErrSlugTooLong
	}
	return out, nil
}

func checkPrice(price decimal.Decimal) (decimal.Decimal, error) {
	price = price.Round(2)
	if price.IsNegative() {
		return price, ErrInvalidPrice
	}
	if price.GreaterThan(MaxProductPrice) {
		return price, ErrPriceTooHigh
	}
	return price, nil
}

func validateProduct(in *ProductInput) error {
	verr := &ValidationError{}
	name, err := checkName(in.Name)
	if err != nil {
		verr.Add("name", err)
	}
	in.Name = name
	if in.Price, err = checkPrice(in.Price); err != nil {
		verr.Add("price", err)
	}
	slug, err := checkSlug(in.Slug, in.Name)
	if err != nil && (strings.TrimSpace(in.Slug) != "" || verr.Fields["name"] == "") {
		verr.Add("slug", err)
	}
	in.Slug = slug
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

func (s *catalogService) resolveTags(slugs []string) ([]model.ProductTag, error) {
	tags, err := s.tagRepo.FindBySlugs(slugs)
	if err != nil {
		return nil, err
	}
	if len(tags) != len(uniqueStrings(slugs)) {
		return nil, ErrTagNotFound
	}
	return tags, nil
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func (s *catalogService) CreateProduct(ctx context.Context, in ProductInput) (*model.Product, error) {
	if err := validateProduct(&in); err != nil {
		return nil, err
	}
	tags, err := s.resolveTags(in.TagSlugs)
	if err != nil {
		return nil, err
	}

	product := &model.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Slug:        in.Slug,
		Active:      in.Active,
		InStock:     in.InStock,
		Tags:        tags,
	}
	if err := s.productRepo.Create(product); err != nil {
		return nil, conflictOnDuplicate(err, ErrDuplicateSlug)
	}

	logger.Info("Product created", map[string]interface{}{
		"product_id": product.ID,
		"slug":       product.Slug,
	})
	return s.GetProduct(ctx, product.ID)
}

func (s *catalogService) UpdateProduct(ctx context.Context, id uint, in ProductInput) (*model.Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validateProduct(&in); err != nil {
		return nil, err
	}
	tags, err := s.resolveTags(in.TagSlugs)
	if err != nil {
		return nil, err
	}

	product.Name = in.Name
	product.Description = in.Description
	product.Price = in.Price
	product.Slug = in.Slug
	product.Active = in.Active
	product.InStock = in.InStock
	if err := s.productRepo.Update(product); err != nil {
		return nil, conflictOnDuplicate(err, ErrDuplicateSlug)
	}
	if err := s.productRepo.ReplaceTags(product, tags); err != nil {
		return nil, err
	}

	logger.Info("Product updated", map[string]interface{}{
		"product_id": product.ID,
	})
	return s.GetProduct(ctx, product.ID)
}

// DeleteProduct refuses while order items still reference the product.
func (s *catalogService) DeleteProduct(ctx context.Context, id uint) error {
	if _, err := s.GetProduct(ctx, id); err != nil {
		return err
	}
	count, err := s.productRepo.CountOrderItems(id)
	if err != nil {
		return err
	}
	if count > 0 {
		logger.Warn("Product delete blocked by order items", map[string]interface{}{
			"product_id":  id,
			"order_items": count,
		})
		return ErrProductInUse
	}
	if err := s.productRepo.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return ErrProductInUse
		}
		return err
	}
	logger.Info("Product deleted", map[string]interface{}{
		"product_id": id,
	})
	return nil
}

func (s *catalogService) ListTags(ctx context.Context, activeOnly bool) ([]model.ProductTag, error) {
	return s.tagRepo.FindAll(activeOnly)
}

func (s *catalogService) CreateTag(ctx context.Context, in TagInput) (*model.ProductTag, error) {
	verr := &ValidationError{}
	name, err := checkName(in.Name)
	if err != nil {
		verr.Add("name", err)
	}
	slug, err := checkSlug(in.Slug, name)
	if err != nil && (strings.TrimSpace(in.Slug) != "" || verr.Fields["name"] == "") {
		verr.Add("slug", err)
	}
	if len(verr.Fields) > 0 {
		return nil, verr
	}
	tag := &model.ProductTag{
		Name:        name,
		Slug:        slug,
		Description: in.Description,
		Active:      in.Active,
	}
	if err := s.tagRepo.Create(tag); err != nil {
		return nil, conflictOnDuplicate(err, ErrDuplicateSlug)
	}
	logger.Info("Product tag created", map[string]interface{}{
		"tag_id": tag.ID,
		"slug":   tag.Slug,
	})
	return tag, nil
}
