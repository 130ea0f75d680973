package auth

import "atelier/internal/models"

// Allowed reports whether actor holds one of roles. A nil actor is never allowed.
func Allowed(actor *models.Account, roles ...models.Role) bool {
	if actor == nil {
		return false
	}
	for _, r := range roles {
		if actor.Role == r {
			return true
		}
	}
	return false
}

// Require distinguishes a missing identity from a wrong role.
func Require(actor *models.Account, roles ...models.Role) error {
	if actor == nil {
		return models.NewUnauthenticatedError("Authentication required")
	}
	if !Allowed(actor, roles...) {
		return models.NewForbiddenError("You do not have access to this resource")
	}
	return nil
}

// CanViewProduct applies product read scoping: admins see everything,
// vendors only their own products, everyone else only active products.
func CanViewProduct(actor *models.Account, p *models.Product) bool {
	if actor != nil {
		switch actor.Role {
		case models.RoleAdmin:
			return true
		case models.RoleVendor:
			return p.OwnedBy(actor.ID)
		}
	}
	return p.Status == models.ProductStatusActive
}

// CanEditProduct reports whether actor may change p directly without review.
func CanEditProduct(actor *models.Account, _ *models.Product) bool {
	return Allowed(actor, models.RoleAdmin)
}
