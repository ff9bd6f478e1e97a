package handler

import (
	"context"
	"io"
	"net/http"
	"time"

	"storefront/internal/auth"
	"storefront/internal/middleware"
	"storefront/internal/model"
	"storefront/internal/payment"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// asUser wraps next so that every request carries user as the signed-in user.
func asUser(user *model.User, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user != nil {
			r = r.WithContext(middleware.WithUser(r.Context(), user))
		}
		next.ServeHTTP(w, r)
	})
}

// MockProductService is a mock implementation of ProductService.
type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) List(ctx context.Context, filter model.ProductFilter) (*model.ProductPage, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ProductPage), args.Error(1)
}

func (m *MockProductService) Get(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) Create(ctx context.Context, req *model.ProductRequest) (*model.Product, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) Update(ctx context.Context, id uuid.UUID, req *model.ProductRequest) (*model.Product, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockProductService) AddReview(ctx context.Context, productID uuid.UUID, user *model.User, req *model.ReviewRequest) (*model.Product, error) {
	args := m.Called(ctx, productID, user, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) Top(ctx context.Context) ([]model.Product, error) {
	return m.products(m.Called(ctx))
}

func (m *MockProductService) Featured(ctx context.Context) ([]model.Product, error) {
	return m.products(m.Called(ctx))
}

func (m *MockProductService) New(ctx context.Context) ([]model.Product, error) {
	return m.products(m.Called(ctx))
}

func (m *MockProductService) products(args mock.Arguments) ([]model.Product, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductService) Brands(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockProductService) Categories(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockProductService) ByCategory(ctx context.Context, category string, page int) (*model.ProductPage, error) {
	args := m.Called(ctx, category, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ProductPage), args.Error(1)
}

// MockOrderService is a mock implementation of OrderService.
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) order(args mock.Arguments) (*model.Order, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) Create(ctx context.Context, buyer *model.User, req *model.OrderRequest) (*model.Order, error) {
	return m.order(m.Called(ctx, buyer, req))
}

func (m *MockOrderService) Get(ctx context.Context, id uuid.UUID, viewer *model.User, guestEmail string) (*model.Order, error) {
	return m.order(m.Called(ctx, id, viewer, guestEmail))
}

func (m *MockOrderService) Mine(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderService) GuestOrders(ctx context.Context, email string) ([]model.Order, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderService) List(ctx context.Context, status model.OrderStatus, page int) (*model.OrderPage, error) {
	args := m.Called(ctx, status, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OrderPage), args.Error(1)
}

func (m *MockOrderService) Pay(ctx context.Context, id uuid.UUID, viewer *model.User, result model.PaymentResult) (*model.Order, error) {
	return m.order(m.Called(ctx, id, viewer, result))
}

func (m *MockOrderService) Deliver(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return m.order(m.Called(ctx, id))
}

func (m *MockOrderService) UpdateStatus(ctx context.Context, id uuid.UUID, req *model.UpdateStatusRequest) (*model.Order, error) {
	return m.order(m.Called(ctx, id, req))
}

func (m *MockOrderService) Cancel(ctx context.Context, id uuid.UUID, viewer *model.User, guestEmail string) (*model.Order, error) {
	return m.order(m.Called(ctx, id, viewer, guestEmail))
}

func (m *MockOrderService) Stats(ctx context.Context) (*model.OrderStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OrderStats), args.Error(1)
}

// MockAuthService is a mock implementation of AuthService.
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) session(args mock.Arguments) (*model.AuthResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AuthResponse), args.Error(1)
}

func (m *MockAuthService) Register(ctx context.Context, req *model.RegisterRequest) (*model.AuthResponse, error) {
	return m.session(m.Called(ctx, req))
}

func (m *MockAuthService) Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResponse, error) {
	return m.session(m.Called(ctx, req))
}

func (m *MockAuthService) Logout(ctx context.Context, userID uuid.UUID) {
	m.Called(ctx, userID)
}

func (m *MockAuthService) Authenticate(ctx context.Context, token string) (*model.User, *auth.Claims, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*model.User), args.Get(1).(*auth.Claims), args.Error(2)
}

func (m *MockAuthService) RefreshIfNeeded(claims *auth.Claims, userID uuid.UUID) (string, time.Time, bool, error) {
	args := m.Called(claims, userID)
	return args.String(0), args.Get(1).(time.Time), args.Bool(2), args.Error(3)
}

func (m *MockAuthService) ForgotPassword(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *MockAuthService) ResetPassword(ctx context.Context, token, password string) (*model.AuthResponse, error) {
	return m.session(m.Called(ctx, token, password))
}

func (m *MockAuthService) VerifyEmail(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *MockAuthService) ResendVerification(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockAuthService) CheckEmailAvailable(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockAuthService) UpdatePassword(ctx context.Context, user *model.User, req *model.UpdatePasswordRequest) (*model.AuthResponse, error) {
	return m.session(m.Called(ctx, user, req))
}

func (m *MockAuthService) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

// MockCartService is a mock implementation of CartService.
type MockCartService struct {
	mock.Mock
}

func (m *MockCartService) view(args mock.Arguments) (*model.CartView, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CartView), args.Error(1)
}

func (m *MockCartService) Get(ctx context.Context, userID uuid.UUID) (*model.CartView, error) {
	return m.view(m.Called(ctx, userID))
}

func (m *MockCartService) Add(ctx context.Context, userID uuid.UUID, req *model.AddToCartRequest) (*model.CartView, error) {
	return m.view(m.Called(ctx, userID, req))
}

func (m *MockCartService) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*model.CartView, error) {
	return m.view(m.Called(ctx, userID, itemID, quantity))
}

func (m *MockCartService) Remove(ctx context.Context, userID, itemID uuid.UUID) (*model.CartView, error) {
	return m.view(m.Called(ctx, userID, itemID))
}

func (m *MockCartService) Clear(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *MockCartService) Sync(ctx context.Context, userID uuid.UUID, guestCart []model.GuestCartItem) (*model.CartView, error) {
	return m.view(m.Called(ctx, userID, guestCart))
}

func (m *MockCartService) PriceGuestCart(ctx context.Context, items []model.GuestCartItem) (*model.CartView, error) {
	return m.view(m.Called(ctx, items))
}

// MockPaymentService is a mock implementation of PaymentService.
type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) CreateCardIntent(ctx context.Context, userID uuid.UUID, amount float64, currency string) (*payment.Intent, error) {
	args := m.Called(ctx, userID, amount, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Intent), args.Error(1)
}

func (m *MockPaymentService) ChargeWallet(ctx context.Context, method model.PaymentMethod, amount float64, phone string) (*payment.WalletResult, error) {
	args := m.Called(ctx, method, amount, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.WalletResult), args.Error(1)
}

func (m *MockPaymentService) Verify(ctx context.Context, method model.PaymentMethod, transactionID string) (*payment.VerifyResult, error) {
	args := m.Called(ctx, method, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.VerifyResult), args.Error(1)
}

// MockStore is a mock implementation of storage.Store.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Save(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	args := m.Called(ctx, name, contentType, string(body))
	return args.String(0), args.Error(1)
}

// MockCategoryService is a mock implementation of CategoryService.
type MockCategoryService struct {
	mock.Mock
}

func (m *MockCategoryService) category(args mock.Arguments) (*model.Category, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Category), args.Error(1)
}

func (m *MockCategoryService) List(ctx context.Context) ([]model.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Category), args.Error(1)
}

func (m *MockCategoryService) Tree(ctx context.Context) ([]*model.CategoryNode, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.CategoryNode), args.Error(1)
}

func (m *MockCategoryService) GetBySlug(ctx context.Context, slug string) (*model.Category, error) {
	return m.category(m.Called(ctx, slug))
}

func (m *MockCategoryService) Create(ctx context.Context, req *model.CategoryRequest) (*model.Category, error) {
	return m.category(m.Called(ctx, req))
}

func (m *MockCategoryService) Update(ctx context.Context, id uuid.UUID, req *model.CategoryRequest) (*model.Category, error) {
	return m.category(m.Called(ctx, id, req))
}

func (m *MockCategoryService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockUserService is a mock implementation of UserService.
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) user(args mock.Arguments) (*model.User, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) addresses(args mock.Arguments) ([]model.Address, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Address), args.Error(1)
}

func (m *MockUserService) ids(args mock.Arguments) ([]uuid.UUID, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockUserService) Profile(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return m.user(m.Called(ctx, id))
}

func (m *MockUserService) UpdateProfile(ctx context.Context, id uuid.UUID, req *model.UpdateProfileRequest) (*model.User, error) {
	return m.user(m.Called(ctx, id, req))
}

func (m *MockUserService) AddAddress(ctx context.Context, id uuid.UUID, addr model.Address) ([]model.Address, error) {
	return m.addresses(m.Called(ctx, id, addr))
}

func (m *MockUserService) UpdateAddress(ctx context.Context, id, addressID uuid.UUID, addr model.Address) ([]model.Address, error) {
	return m.addresses(m.Called(ctx, id, addressID, addr))
}

func (m *MockUserService) DeleteAddress(ctx context.Context, id, addressID uuid.UUID) ([]model.Address, error) {
	return m.addresses(m.Called(ctx, id, addressID))
}

func (m *MockUserService) Wishlist(ctx context.Context, id uuid.UUID) ([]model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockUserService) AddToWishlist(ctx context.Context, id, productID uuid.UUID) ([]uuid.UUID, error) {
	return m.ids(m.Called(ctx, id, productID))
}

func (m *MockUserService) RemoveFromWishlist(ctx context.Context, id, productID uuid.UUID) ([]uuid.UUID, error) {
	return m.ids(m.Called(ctx, id, productID))
}

func (m *MockUserService) List(ctx context.Context, page int) (*model.UserPage, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserPage), args.Error(1)
}

func (m *MockUserService) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return m.user(m.Called(ctx, id))
}

func (m *MockUserService) Update(ctx context.Context, id uuid.UUID, req *model.AdminUpdateUserRequest) (*model.User, error) {
	return m.user(m.Called(ctx, id, req))
}

func (m *MockUserService) Deactivate(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}
