package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
	"unicode"

	"atelier/internal/auth"
	"atelier/internal/cache"
	"atelier/internal/catalog"
	"atelier/internal/featureflags"
	"atelier/internal/models"
	"atelier/internal/notifications"
	"atelier/internal/pagination"
	"atelier/internal/repository"
	"atelier/internal/validation"

	"gorm.io/gorm"
)

// AuthResult is returned by signup and signin.
type AuthResult struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expiresAt"`
	Account   *models.Account `json:"account"`
}

// SignUpInput registers a new account with Role.
type SignUpInput struct {
	Name     string
	Email    string
	Password string
	Role     models.Role
}

// SignInInput authenticates by email. A non-empty Role restricts which
// accounts may sign in through the endpoint.
type SignInInput struct {
	Email    string
	Password string
	Role     models.Role
}

// AccountQuery filters an admin account listing.
type AccountQuery struct {
	Status string
	Search string
	Sort   string
	Desc   bool
	Page   pagination.Request
}

// AccountPage is one page of accounts.
type AccountPage struct {
	Items  []models.Account  `json:"items"`
	Paging pagination.Paging `json:"paging"`
}

// AccountUpdate is a partial admin edit. Nil fields are left unchanged.
type AccountUpdate struct {
	Name   *string
	Email  *string
	Status *models.AccountStatus
}

// AccountService handles registration, authentication and account administration.
type AccountService struct {
	db          *gorm.DB
	accounts    repository.AccountRepository
	submissions repository.SubmissionRepository
	engagement  repository.EngagementRepository
	content     *ContentService
	issuer      *auth.TokenIssuer
	flags       *featureflags.Manager
	notifier    *notifications.Notifier
	now         func() time.Time
}

// NewAccountService returns an AccountService.
func NewAccountService(
	db *gorm.DB,
	accounts repository.AccountRepository,
	submissions repository.SubmissionRepository,
	engagement repository.EngagementRepository,
	content *ContentService,
	issuer *auth.TokenIssuer,
	flags *featureflags.Manager,
	notifier *notifications.Notifier,
) *AccountService {
	if flags == nil {
		flags = featureflags.NewManager("")
	}
	return &AccountService{
		db:          db,
		accounts:    accounts,
		submissions: submissions,
		engagement:  engagement,
		content:     content,
		issuer:      issuer,
		flags:       flags,
		notifier:    notifier,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// SignUp creates a vendor or user account and signs it in. Admin accounts
// are never self-registered.
func (s *AccountService) SignUp(ctx context.Context, in SignUpInput) (*AuthResult, error) {
	switch in.Role {
	case "":
		in.Role = models.RoleUser
	case models.RoleUser, models.RoleVendor:
	default:
		return nil, models.NewValidationError("Role must be user or vendor")
	}
	if in.Role == models.RoleVendor && !s.flags.Enabled(featureflags.VendorSignup, 0) {
		return nil, models.NewForbiddenError("Vendor registration is currently closed")
	}

	acc, err := s.newAccount(in.Name, in.Email, in.Password, in.Role)
	if err != nil {
		return nil, err
	}
	if err := s.accounts.Create(ctx, acc); err != nil {
		return nil, err
	}
	return s.issue(acc)
}

// CreateAccount inserts an account of any role without signing in. Used by
// bootstrap and the admin CLI.
func (s *AccountService) CreateAccount(ctx context.Context, name, email, password string, role models.Role) (*models.Account, error) {
	if !role.Valid() {
		return nil, models.NewValidationError("Unknown role")
	}
	acc, err := s.newAccount(name, email, password, role)
	if err != nil {
		return nil, err
	}
	if err := s.accounts.Create(ctx, acc); err != nil {
		return nil, err
	}
	return acc, nil
}

func (s *AccountService) newAccount(name, email, password string, role models.Role) (*models.Account, error) {
	name = strings.TrimSpace(name)
	email = validation.NormalizeEmail(email)
	if err := validation.ValidateName(name); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &models.Account{
		Name:           name,
		Email:          email,
		PasswordHash:   hash,
		Role:           role,
		Status:         models.AccountStatusActive,
		Slug:           validation.Slugify(name),
		SessionVersion: 1,
	}, nil
}

// SignIn verifies credentials and issues a token.
func (s *AccountService) SignIn(ctx context.Context, in SignInInput) (*AuthResult, error) {
	email := validation.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, models.NewValidationError("Email and password are required")
	}

	acc, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, models.NewUnauthenticatedError("Invalid credentials")
	}
	ok, err := auth.VerifyPassword(acc.PasswordHash, in.Password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if !ok {
		return nil, models.NewUnauthenticatedError("Invalid credentials")
	}
	if in.Role != "" && acc.Role != in.Role {
		return nil, models.NewForbiddenError(fmt.Sprintf("This sign-in is for %s accounts", in.Role))
	}
	if !acc.IsActive() {
		return nil, models.NewForbiddenError("Account is disabled")
	}

	now := s.now()
	acc.LastLoginAt = &now
	if err := s.accounts.TouchLastLogin(ctx, acc); err != nil {
		return nil, err
	}
	return s.issue(acc)
}

// SignOut ends the caller's sessions. Tokens are stateless, so a plain
// sign-out is client-side; all=true revokes every token of the account.
func (s *AccountService) SignOut(ctx context.Context, actor *models.Account, all bool) error {
	if !all {
		return nil
	}
	return s.accounts.BumpSessionVersion(ctx, actor.ID)
}

func (s *AccountService) issue(acc *models.Account) (*AuthResult, error) {
	token, claims, err := s.issuer.Issue(acc)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &AuthResult{Token: token, ExpiresAt: claims.ExpiresAt, Account: acc}, nil
}

// Get returns an account of role. Accounts of another role are reported missing.
func (s *AccountService) Get(ctx context.Context, role models.Role, id uint) (*models.Account, error) {
	acc, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if role != "" && acc.Role != role {
		return nil, models.NewNotFoundError(roleResource(role), id)
	}
	return acc, nil
}

// List pages through accounts of role.
func (s *AccountService) List(ctx context.Context, role models.Role, q AccountQuery) (*AccountPage, error) {
	filter := repository.AccountFilter{Role: role, Search: q.Search, Sort: q.Sort, Desc: q.Desc}
	if q.Status != "" {
		status := models.AccountStatus(strings.ToLower(q.Status))
		if status != models.AccountStatusActive && status != models.AccountStatusDisabled {
			return nil, models.NewValidationError(fmt.Sprintf("Unknown status %q", q.Status))
		}
		filter.Status = status
	}

	req := q.Page.Normalize()
	filter.Limit = req.PageSize
	filter.Offset = (req.Page - 1) * req.PageSize
	items, total, err := s.accounts.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	paging, start, _ := pagination.Compute(int(total), req)
	if start != filter.Offset {
		filter.Offset = start
		if items, _, err = s.accounts.List(ctx, filter); err != nil {
			return nil, err
		}
	}
	return &AccountPage{Items: items, Paging: paging}, nil
}

// Update applies an admin edit. Disabling an account revokes its sessions.
func (s *AccountService) Update(ctx context.Context, admin *models.Account, role models.Role, id uint, in AccountUpdate) (*models.Account, error) {
	acc, err := s.Get(ctx, role, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if err := validation.ValidateName(name); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		acc.Name = name
		acc.Slug = validation.Slugify(name)
	}
	if in.Email != nil {
		email := validation.NormalizeEmail(*in.Email)
		if err := validation.ValidateEmail(email); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		acc.Email = email
	}
	if in.Status != nil {
		switch *in.Status {
		case models.AccountStatusActive, models.AccountStatusDisabled:
		default:
			return nil, models.NewValidationError("Status must be active or disabled")
		}
		if *in.Status != acc.Status && *in.Status == models.AccountStatusDisabled {
			acc.SessionVersion++
		}
		acc.Status = *in.Status
	}

	if err := s.accounts.Update(ctx, acc); err != nil {
		return nil, err
	}
	recordActivity(ctx, s.notifier, notifications.ActivityEvent{
		Type:      notifications.EventAccountUpdated,
		ActorID:   admin.ID,
		SubjectID: fmt.Sprint(acc.ID),
		Summary:   fmt.Sprintf("%s %q updated", acc.Role, acc.Name),
		Details:   map[string]any{"status": acc.Status},
	})
	return acc, nil
}

// RevokeSessions invalidates every token issued to the account.
func (s *AccountService) RevokeSessions(ctx context.Context, admin *models.Account, role models.Role, id uint) error {
	acc, err := s.Get(ctx, role, id)
	if err != nil {
		return err
	}
	if err := s.accounts.BumpSessionVersion(ctx, acc.ID); err != nil {
		return err
	}
	recordActivity(ctx, s.notifier, notifications.ActivityEvent{
		Type:      notifications.EventSessionsRevoked,
		ActorID:   admin.ID,
		SubjectID: fmt.Sprint(acc.ID),
		Summary:   fmt.Sprintf("Sessions revoked for %q", acc.Name),
	})
	return nil
}

// ResetPassword replaces the password with a generated one, revokes existing
// sessions and returns the temporary password.
func (s *AccountService) ResetPassword(ctx context.Context, admin *models.Account, role models.Role, id uint) (string, error) {
	acc, err := s.Get(ctx, role, id)
	if err != nil {
		return "", err
	}
	temp, err := temporaryPassword()
	if err != nil {
		return "", models.NewInternalError(err)
	}
	hash, err := auth.HashPassword(temp)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	acc.PasswordHash = hash
	acc.SessionVersion++
	if err := s.accounts.Update(ctx, acc); err != nil {
		return "", err
	}
	recordActivity(ctx, s.notifier, notifications.ActivityEvent{
		Type:      notifications.EventPasswordReset,
		ActorID:   admin.ID,
		SubjectID: fmt.Sprint(acc.ID),
		Summary:   fmt.Sprintf("Password reset for %q", acc.Name),
	})
	return temp, nil
}

// Delete removes an account. Deleting a vendor also clears ownership of its
// products and removes its submissions; engagement rows go with any account.
func (s *AccountService) Delete(ctx context.Context, admin *models.Account, role models.Role, id uint) error {
	acc, err := s.Get(ctx, role, id)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if acc.Role == models.RoleVendor {
			if _, err := s.submissions.WithTx(tx).DeleteByVendor(ctx, acc.ID); err != nil {
				return err
			}
			if _, err := s.content.WithTx(tx).UpdateCatalog(ctx, &admin.ID, OriginCleanup, func(products []models.Product) ([]models.Product, error) {
				out, _ := catalog.ClearOwner(products, acc.ID)
				return out, nil
			}); err != nil {
				return err
			}
		}
		if err := s.engagement.WithTx(tx).DeleteByAccount(ctx, acc.ID); err != nil {
			return err
		}
		return s.accounts.WithTx(tx).Delete(ctx, acc.ID)
	})
	if err != nil {
		return err
	}
	// A read between the in-transaction invalidation and the commit can
	// repopulate the cache with the deleted row.
	cache.InvalidateAccount(ctx, acc.ID)

	recordActivity(ctx, s.notifier, notifications.ActivityEvent{
		Type:      notifications.EventAccountDeleted,
		ActorID:   admin.ID,
		SubjectID: fmt.Sprint(acc.ID),
		Summary:   fmt.Sprintf("%s %q deleted", acc.Role, acc.Name),
	})
	return nil
}

func roleResource(role models.Role) string {
	switch role {
	case models.RoleVendor:
		return "Vendor"
	case models.RoleUser:
		return "User"
	}
	return "Account"
}

const tempPasswordAlphabet = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// temporaryPassword returns a random 16 character password that satisfies
// validation.ValidatePassword.
func temporaryPassword() (string, error) {
	max := big.NewInt(int64(len(tempPasswordAlphabet)))
	for {
		var b strings.Builder
		var hasLetter, hasDigit bool
		for i := 0; i < 16; i++ {
			n, err := rand.Int(rand.Reader, max)
			if err != nil {
				return "", fmt.Errorf("generate password: %w", err)
			}
			c := tempPasswordAlphabet[n.Int64()]
			hasLetter = hasLetter || unicode.IsLetter(rune(c))
			hasDigit = hasDigit || unicode.IsDigit(rune(c))
			b.WriteByte(c)
		}
		if hasLetter && hasDigit {
			return b.String(), nil
		}
	}
}
