package service

import (
	"context"
	"fmt"
	"time"

	"atelier/internal/models"
	"atelier/internal/pagination"
	"atelier/internal/repository"
	"atelier/internal/validation"
)

// LikeStatus is the like summary of one product for the caller.
type LikeStatus struct {
	ProductID string `json:"productId"`
	Count     int64  `json:"count"`
	Liked     bool   `json:"liked"`
}

// CommentView is the public shape of a product comment.
type CommentView struct {
	ID         uint      `json:"id"`
	ProductID  string    `json:"productId"`
	AuthorID   uint      `json:"authorId"`
	AuthorName string    `json:"authorName"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"createdAt"`
}

// CommentPage is one page of comments, newest first.
type CommentPage struct {
	Items  []CommentView     `json:"items"`
	Paging pagination.Paging `json:"paging"`
}

// CartLine pairs a cart item with its current catalog product. Product is nil
// when the product has left the catalog or is no longer visible.
type CartLine struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Product   *models.Product `json:"product"`
	LineTotal *float64        `json:"lineTotal"`
}

// Cart is the caller's cart with totals over priced, available lines.
type Cart struct {
	Items         []CartLine `json:"items"`
	TotalQuantity int        `json:"totalQuantity"`
	Subtotal      float64    `json:"subtotal"`
}

// EngagementService handles likes, comments and carts. Every operation first
// checks that the caller can see the product.
type EngagementService struct {
	products      *ProductService
	repo          repository.EngagementRepository
	commentWindow time.Duration
	now           func() time.Time
}

// NewEngagementService returns an EngagementService. commentWindow is the
// minimum gap between two comments by the same account.
func NewEngagementService(products *ProductService, repo repository.EngagementRepository, commentWindow time.Duration) *EngagementService {
	return &EngagementService{
		products:      products,
		repo:          repo,
		commentWindow: commentWindow,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// LikeStatus returns the like count and whether actor (possibly nil) liked the product.
func (s *EngagementService) LikeStatus(ctx context.Context, actor *models.Account, productID string) (*LikeStatus, error) {
	if _, err := s.products.Get(ctx, actor, productID); err != nil {
		return nil, err
	}
	count, err := s.repo.LikeCount(ctx, productID)
	if err != nil {
		return nil, err
	}
	status := &LikeStatus{ProductID: productID, Count: count}
	if actor != nil {
		if status.Liked, err = s.repo.HasLiked(ctx, productID, actor.ID); err != nil {
			return nil, err
		}
	}
	return status, nil
}

// Like records a like. Repeating it is a no-op.
func (s *EngagementService) Like(ctx context.Context, actor *models.Account, productID string) (*LikeStatus, error) {
	if _, err := s.products.Get(ctx, actor, productID); err != nil {
		return nil, err
	}
	if err := s.repo.Like(ctx, productID, actor.ID); err != nil {
		return nil, err
	}
	return s.LikeStatus(ctx, actor, productID)
}

// Unlike removes a like if present.
func (s *EngagementService) Unlike(ctx context.Context, actor *models.Account, productID string) (*LikeStatus, error) {
	if _, err := s.products.Get(ctx, actor, productID); err != nil {
		return nil, err
	}
	if err := s.repo.Unlike(ctx, productID, actor.ID); err != nil {
		return nil, err
	}
	return s.LikeStatus(ctx, actor, productID)
}

// ListComments pages through a product's comments.
func (s *EngagementService) ListComments(ctx context.Context, actor *models.Account, productID string, req pagination.Request) (*CommentPage, error) {
	if _, err := s.products.Get(ctx, actor, productID); err != nil {
		return nil, err
	}

	req = req.Normalize()
	offset := (req.Page - 1) * req.PageSize
	comments, total, err := s.repo.ListComments(ctx, productID, offset, req.PageSize)
	if err != nil {
		return nil, err
	}
	paging, start, _ := pagination.Compute(int(total), req)
	if start != offset {
		if comments, _, err = s.repo.ListComments(ctx, productID, start, req.PageSize); err != nil {
			return nil, err
		}
	}

	items := make([]CommentView, 0, len(comments))
	for _, c := range comments {
		items = append(items, toCommentView(c))
	}
	return &CommentPage{Items: items, Paging: paging}, nil
}

// AddComment posts a comment. An account may comment at most once per
// comment window; the check compares against its latest comment only.
func (s *EngagementService) AddComment(ctx context.Context, actor *models.Account, productID, body string) (*CommentView, error) {
	if _, err := s.products.Get(ctx, actor, productID); err != nil {
		return nil, err
	}
	body, err := validation.RequiredText("comment", body, validation.MaxCommentLength)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	if s.commentWindow > 0 {
		last, err := s.repo.LatestCommentAt(ctx, actor.ID)
		if err != nil {
			return nil, err
		}
		if last != nil {
			if wait := s.commentWindow - s.now().Sub(*last); wait > 0 {
				return nil, models.NewRateLimitedError(fmt.Sprintf("Please wait %d seconds before commenting again", int(wait.Seconds())+1))
			}
		}
	}

	comment := &models.ProductComment{ProductID: productID, AccountID: actor.ID, Body: body, CreatedAt: s.now()}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	comment.Account = actor
	v := toCommentView(*comment)
	return &v, nil
}

func toCommentView(c models.ProductComment) CommentView {
	v := CommentView{ID: c.ID, ProductID: c.ProductID, AuthorID: c.AccountID, Body: c.Body, CreatedAt: c.CreatedAt}
	if c.Account != nil {
		v.AuthorName = c.Account.Name
	}
	return v
}

// Cart returns the actor's cart resolved against the live catalog.
func (s *EngagementService) Cart(ctx context.Context, actor *models.Account) (*Cart, error) {
	items, err := s.repo.ListCart(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.products.Lookup(ctx, actor, ids)
	if err != nil {
		return nil, err
	}

	cart := &Cart{Items: make([]CartLine, 0, len(items))}
	for _, item := range items {
		line := CartLine{ProductID: item.ProductID, Quantity: item.Quantity}
		if p, ok := products[item.ProductID]; ok {
			line.Product = &p
			if price := effectivePrice(&p); price != nil {
				total := *price * float64(item.Quantity)
				line.LineTotal = &total
				cart.Subtotal += total
			}
		}
		cart.TotalQuantity += item.Quantity
		cart.Items = append(cart.Items, line)
	}
	return cart, nil
}

// AddToCart adds quantity of an active product, merging with an existing line.
func (s *EngagementService) AddToCart(ctx context.Context, actor *models.Account, productID string, quantity int) (*Cart, error) {
	if quantity == 0 {
		quantity = 1
	}
	p, err := s.products.Get(ctx, actor, productID)
	if err != nil {
		return nil, err
	}
	if p.Status != models.ProductStatusActive {
		return nil, models.NewValidationError("Product is not available")
	}

	item, err := s.repo.GetCartItem(ctx, actor.ID, productID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		item = &models.CartItem{AccountID: actor.ID, ProductID: productID}
	}
	item.Quantity += quantity
	if err := validation.ValidateQuantity(item.Quantity); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := s.repo.SaveCartItem(ctx, item); err != nil {
		return nil, err
	}
	return s.Cart(ctx, actor)
}

// SetCartQuantity replaces the quantity of an existing line.
func (s *EngagementService) SetCartQuantity(ctx context.Context, actor *models.Account, productID string, quantity int) (*Cart, error) {
	if err := validation.ValidateQuantity(quantity); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	item, err := s.repo.GetCartItem(ctx, actor.ID, productID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, models.NewNotFoundError("Cart item", productID)
	}
	item.Quantity = quantity
	if err := s.repo.SaveCartItem(ctx, item); err != nil {
		return nil, err
	}
	return s.Cart(ctx, actor)
}

// RemoveFromCart drops one line.
func (s *EngagementService) RemoveFromCart(ctx context.Context, actor *models.Account, productID string) (*Cart, error) {
	removed, err := s.repo.DeleteCartItem(ctx, actor.ID, productID)
	if err != nil {
		return nil, err
	}
	if !removed {
		return nil, models.NewNotFoundError("Cart item", productID)
	}
	return s.Cart(ctx, actor)
}

// ClearCart empties the cart.
func (s *EngagementService) ClearCart(ctx context.Context, actor *models.Account) (*Cart, error) {
	if err := s.repo.ClearCart(ctx, actor.ID); err != nil {
		return nil, err
	}
	return &Cart{Items: []CartLine{}}, nil
}

func effectivePrice(p *models.Product) *float64 {
	if p.SalePrice != nil {
		return p.SalePrice
	}
	return p.Price
}
