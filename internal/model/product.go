package model

import (
	"time"

	"github.com/google/uuid"
)

// Product is a catalogue entry. Reviews are embedded and Rating/NumReviews
// are derived from them.
type Product struct {
	ID            uuid.UUID `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	Brand         string    `json:"brand" db:"brand"`
	Category      string    `json:"category" db:"category"`
	SubCategory   string    `json:"subCategory,omitempty" db:"sub_category"`
	Description   string    `json:"description" db:"description"`
	Price         float64   `json:"price" db:"price"`
	DiscountPrice float64   `json:"discountPrice" db:"discount_price"`
	Images        []string  `json:"images" db:"images"`
	Tags          []string  `json:"tags" db:"tags"`
	Variants      []Variant `json:"variants" db:"variants"`
	Stock         int       `json:"stock" db:"stock"`
	Sold          int       `json:"sold" db:"sold"`
	Rating        float64   `json:"rating" db:"rating"`
	NumReviews    int       `json:"numReviews" db:"num_reviews"`
	Reviews       []Review  `json:"reviews" db:"reviews"`
	IsFeatured    bool      `json:"isFeatured" db:"is_featured"`
	IsNew         bool      `json:"isNew" db:"is_new"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}

// Variant is a purchasable option of a product such as a shade or size.
type Variant struct {
	Name  string  `json:"name"`
	Price float64 `json:"price,omitempty"`
	Stock int     `json:"stock,omitempty"`
	SKU   string  `json:"sku,omitempty"`
}

// Review is a customer review embedded in a product.
type Review struct {
	ID               uuid.UUID `json:"id"`
	UserID           uuid.UUID `json:"user"`
	Name             string    `json:"name"`
	Rating           int       `json:"rating"`
	Comment          string    `json:"comment"`
	VerifiedPurchase bool      `json:"verifiedPurchase"`
	CreatedAt        time.Time `json:"createdAt"`
}

// ActualPrice is the price a customer pays: the discount price when set.
func (p *Product) ActualPrice() float64 {
	if p.DiscountPrice > 0 {
		return p.DiscountPrice
	}
	return p.Price
}

// UnitPrice is the price of one unit of the given variant, falling back to
// ActualPrice when the variant is unknown or has no own price.
func (p *Product) UnitPrice(variant string) float64 {
	if variant != "" {
		for _, v := range p.Variants {
			if v.Name == variant && v.Price > 0 {
				return v.Price
			}
		}
	}
	return p.ActualPrice()
}

// PrimaryImage returns the first image or an empty string.
func (p *Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// AddReview appends a review and recomputes the aggregate rating. Each user
// may review a product once.
func (p *Product) AddReview(r Review) error {
	if r.Rating < 1 || r.Rating > 5 {
		return ErrInvalidRating
	}
	for _, existing := range p.Reviews {
		if existing.UserID == r.UserID {
			return ErrAlreadyReviewed
		}
	}
	p.Reviews = append(p.Reviews, r)
	p.RecomputeRating()
	return nil
}

// RecomputeRating sets Rating to the arithmetic mean of all reviews and
// NumReviews to their count. Products without reviews keep their values.
func (p *Product) RecomputeRating() {
	if len(p.Reviews) == 0 {
		return
	}
	sum := 0
	for _, r := range p.Reviews {
		sum += r.Rating
	}
	p.Rating = float64(sum) / float64(len(p.Reviews))
	p.NumReviews = len(p.Reviews)
}

// Normalise replaces nil collections with empty ones.
func (p *Product) Normalise() {
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.Variants == nil {
		p.Variants = []Variant{}
	}
	if p.Reviews == nil {
		p.Reviews = []Review{}
	}
}

// ProductRequest is the admin payload for creating or replacing a product.
type ProductRequest struct {
	Name          string    `json:"name" validate:"required"`
	Brand         string    `json:"brand" validate:"required"`
	Category      string    `json:"category" validate:"required"`
	SubCategory   string    `json:"subCategory"`
	Description   string    `json:"description" validate:"required"`
	Price         float64   `json:"price" validate:"gte=0"`
	DiscountPrice float64   `json:"discountPrice" validate:"gte=0"`
	Images        []string  `json:"images"`
	Tags          []string  `json:"tags"`
	Variants      []Variant `json:"variants"`
	Stock         int       `json:"stock" validate:"gte=0"`
	IsFeatured    bool      `json:"isFeatured"`
	IsNew         bool      `json:"isNew"`
}

// ReviewRequest is the payload for reviewing a product.
type ReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment" validate:"required"`
}

// Sort orders accepted by the product listing.
const (
	SortNewest    = "newest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortRating    = "rating"
	SortPopular   = "popular"
)

// ProductFilter narrows and pages the product listing.
type ProductFilter struct {
	Keyword   string
	Category  string
	Brands    []string
	MinPrice  *float64
	MaxPrice  *float64
	MinRating *float64
	Featured  *bool
	Sort      string
	Page      int
	PageSize  int
}

// ProductPage is a page of products with paging metadata.
type ProductPage struct {
	Products []Product `json:"products"`
	Page     int       `json:"page"`
	Pages    int       `json:"pages"`
	Total    int       `json:"total"`
}

// PageCount returns the number of pages needed for total items.
func PageCount(total, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}
