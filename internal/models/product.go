package models

// GalleryType classifies which gallery a product is shown in.
type GalleryType string

const (
	GalleryArt         GalleryType = "art"
	GalleryDesigns     GalleryType = "designs"
	GalleryBooks       GalleryType = "books"
	GalleryPhotography GalleryType = "photography"
	GallerySculpture   GalleryType = "sculpture"
)

// GalleryTypes lists every accepted gallery type.
var GalleryTypes = []GalleryType{GalleryArt, GalleryDesigns, GalleryBooks, GalleryPhotography, GallerySculpture}

// ProductStatus controls public visibility of a product.
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
	ProductStatusDraft    ProductStatus = "draft"
)

// Product is the canonical catalog record. It lives inside the site-state
// document rather than in its own table; ExtraFields carries any keys the
// canonical schema does not know about.
type Product struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	GalleryType GalleryType    `json:"gallery_type"`
	Category    string         `json:"category"`
	Status      ProductStatus  `json:"status"`
	SortOrder   int            `json:"sort_order"`
	OwnerUserID *uint          `json:"owner_user_id"`
	Artist      string         `json:"artist"`
	Medium      string         `json:"medium"`
	Dimensions  string         `json:"dimensions"`
	Year        *int           `json:"year"`
	Price       *float64       `json:"price"`
	SalePrice   *float64       `json:"sale_price"`
	Currency    string         `json:"currency"`
	Description string         `json:"description"`
	ImageURL    string         `json:"image_url"`
	Images      []string       `json:"images"`
	Tags        []string       `json:"tags"`
	Featured    bool           `json:"featured"`
	Inventory   *int           `json:"inventory"`
	ExtraFields map[string]any `json:"extra_fields"`
	CreatedAt   string         `json:"created_at"`
	UpdatedAt   string         `json:"updated_at"`
}

// OwnedBy reports whether the product belongs to accountID.
func (p *Product) OwnedBy(accountID uint) bool {
	return p.OwnerUserID != nil && *p.OwnerUserID == accountID
}
