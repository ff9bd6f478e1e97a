package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/auth"
	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// UserPageSize is the number of users per admin listing page.
const UserPageSize = 20

// userService implements UserService.
type userService struct {
	userRepo    repository.UserRepository
	productRepo repository.ProductRepository
	logger      zerolog.Logger
}

// NewUserService creates a new user service.
func NewUserService(userRepo repository.UserRepository, productRepo repository.ProductRepository, logger zerolog.Logger) UserService {
	return &userService{
		userRepo:    userRepo,
		productRepo: productRepo,
		logger:      logger.With().Str("service", "user").Logger(),
	}
}

func (s *userService) load(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", id.String()).Msg("failed to get user")
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, model.ErrUserNotFound
	}
	return user, nil
}

func (s *userService) Profile(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return s.load(ctx, id)
}

// UpdateProfile applies the non-empty fields of req.
func (s *userService) UpdateProfile(ctx context.Context, id uuid.UUID, req *model.UpdateProfileRequest) (*model.User, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		user.Name = name
	}
	if req.Email != "" {
		user.Email = normaliseEmail(req.Email)
	}
	if req.Phone != "" {
		user.Phone = req.Phone
	}
	if req.Avatar != "" {
		user.Avatar = req.Avatar
	}

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, model.ErrEmailTaken) || errors.Is(err, model.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	if req.Password != "" {
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			return nil, err
		}
		if err := s.userRepo.UpdatePassword(ctx, user.ID, hash); err != nil {
			return nil, fmt.Errorf("failed to update password: %w", err)
		}
		user.PasswordHash = hash
	}

	s.logger.Info().Str("user_id", id.String()).Msg("profile updated")
	return user, nil
}

// AddAddress appends an address. A default address clears the flag on the others.
func (s *userService) AddAddress(ctx context.Context, id uuid.UUID, addr model.Address) ([]model.Address, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	addr.ID = uuid.New()
	if addr.Country == "" {
		addr.Country = model.DefaultCountry
	}
	addresses := append(user.Addresses, addr)
	if addr.IsDefault {
		model.SetDefaultAddress(addresses, addr.ID)
	}

	return s.saveAddresses(ctx, id, addresses)
}

// UpdateAddress replaces the address with addressID, keeping its id.
func (s *userService) UpdateAddress(ctx context.Context, id, addressID uuid.UUID, addr model.Address) ([]model.Address, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range user.Addresses {
		if user.Addresses[i].ID == addressID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, model.ErrAddressNotFound
	}

	addr.ID = addressID
	if addr.Country == "" {
		addr.Country = user.Addresses[idx].Country
	}
	user.Addresses[idx] = addr
	if addr.IsDefault {
		model.SetDefaultAddress(user.Addresses, addressID)
	}

	return s.saveAddresses(ctx, id, user.Addresses)
}

// DeleteAddress removes the address with addressID if present.
func (s *userService) DeleteAddress(ctx context.Context, id, addressID uuid.UUID) ([]model.Address, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	kept := make([]model.Address, 0, len(user.Addresses))
	for _, a := range user.Addresses {
		if a.ID != addressID {
			kept = append(kept, a)
		}
	}
	return s.saveAddresses(ctx, id, kept)
}

func (s *userService) saveAddresses(ctx context.Context, id uuid.UUID, addresses []model.Address) ([]model.Address, error) {
	if err := s.userRepo.UpdateAddresses(ctx, id, addresses); err != nil {
		return nil, fmt.Errorf("failed to save addresses: %w", err)
	}
	return addresses, nil
}

// Wishlist returns the wishlisted products that still exist.
func (s *userService) Wishlist(ctx context.Context, id uuid.UUID) ([]model.Product, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(user.Wishlist) == 0 {
		return []model.Product{}, nil
	}

	products, err := s.productRepo.GetByIDs(ctx, user.Wishlist)
	if err != nil {
		return nil, fmt.Errorf("failed to load wishlist: %w", err)
	}
	return products, nil
}

// AddToWishlist adds a product once; repeated adds are no-ops.
func (s *userService) AddToWishlist(ctx context.Context, id, productID uuid.UUID) ([]uuid.UUID, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, pid := range user.Wishlist {
		if pid == productID {
			return user.Wishlist, nil
		}
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, model.ErrProductNotFound
	}

	wishlist := append(user.Wishlist, productID)
	if err := s.userRepo.UpdateWishlist(ctx, id, wishlist); err != nil {
		return nil, fmt.Errorf("failed to update wishlist: %w", err)
	}
	return wishlist, nil
}

func (s *userService) RemoveFromWishlist(ctx context.Context, id, productID uuid.UUID) ([]uuid.UUID, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	wishlist := make([]uuid.UUID, 0, len(user.Wishlist))
	for _, pid := range user.Wishlist {
		if pid != productID {
			wishlist = append(wishlist, pid)
		}
	}
	if err := s.userRepo.UpdateWishlist(ctx, id, wishlist); err != nil {
		return nil, fmt.Errorf("failed to update wishlist: %w", err)
	}
	return wishlist, nil
}

func (s *userService) List(ctx context.Context, page int) (*model.UserPage, error) {
	page = normalisePage(page)
	users, total, err := s.userRepo.List(ctx, UserPageSize, (page-1)*UserPageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return &model.UserPage{
		Users: users,
		Page:  page,
		Pages: model.PageCount(total, UserPageSize),
		Total: total,
	}, nil
}

func (s *userService) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return s.load(ctx, id)
}

// Update applies an administrator's changes to name, email and role.
func (s *userService) Update(ctx context.Context, id uuid.UUID, req *model.AdminUpdateUserRequest) (*model.User, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		user.Name = name
	}
	if req.Email != "" {
		user.Email = normaliseEmail(req.Email)
	}
	if req.IsAdmin != nil {
		user.IsAdmin = *req.IsAdmin
	}

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, model.ErrEmailTaken) || errors.Is(err, model.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.logger.Info().Str("user_id", id.String()).Bool("is_admin", user.IsAdmin).Msg("user updated by admin")
	return user, nil
}

func (s *userService) Deactivate(ctx context.Context, id uuid.UUID) error {
	if err := s.userRepo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("failed to deactivate user: %w", err)
	}
	s.logger.Info().Str("user_id", id.String()).Msg("user deactivated by admin")
	return nil
}
