package model

import "net/http"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON          = "INVALID_JSON"
	ErrCodeValidationFailed     = "VALIDATION_FAILED"
	ErrCodeInvalidID            = "INVALID_ID"
	ErrCodeInvalidQuantity      = "INVALID_QUANTITY"
	ErrCodeEmptyOrder           = "EMPTY_ORDER"
	ErrCodeInvalidRating        = "INVALID_RATING"
	ErrCodeInvalidStatus        = "INVALID_STATUS"
	ErrCodeInvalidPayment       = "INVALID_PAYMENT_METHOD"
	ErrCodeOwnerRequired        = "ORDER_OWNER_REQUIRED"
	ErrCodeEmailTaken           = "EMAIL_TAKEN"
	ErrCodeSlugTaken            = "SLUG_TAKEN"
	ErrCodeInsufficientStock    = "INSUFFICIENT_STOCK"
	ErrCodeOrderNotCancellable  = "ORDER_NOT_CANCELLABLE"
	ErrCodeAlreadyReviewed      = "ALREADY_REVIEWED"
	ErrCodeCategoryInUse        = "CATEGORY_IN_USE"
	ErrCodeInvalidCredentials   = "INVALID_CREDENTIALS"
	ErrCodeAccountLocked        = "ACCOUNT_LOCKED"
	ErrCodeAccountDeactivated   = "ACCOUNT_DEACTIVATED"
	ErrCodeIncorrectPassword    = "INCORRECT_PASSWORD"
	ErrCodeInvalidToken         = "INVALID_TOKEN"
	ErrCodeTokenExpired         = "TOKEN_EXPIRED"
	ErrCodeInvalidResetToken    = "INVALID_RESET_TOKEN"
	ErrCodeInvalidVerifyToken   = "INVALID_VERIFICATION_TOKEN"
	ErrCodeUnauthorised         = "UNAUTHORIZED"
	ErrCodeForbidden            = "FORBIDDEN"
	ErrCodeUserNotFound         = "USER_NOT_FOUND"
	ErrCodeProductNotFound      = "PRODUCT_NOT_FOUND"
	ErrCodeOrderNotFound        = "ORDER_NOT_FOUND"
	ErrCodeCategoryNotFound     = "CATEGORY_NOT_FOUND"
	ErrCodeCartItemNotFound     = "CART_ITEM_NOT_FOUND"
	ErrCodeAddressNotFound      = "ADDRESS_NOT_FOUND"
	ErrCodeUnsupportedFile      = "UNSUPPORTED_FILE"
	ErrCodeTooManyRequests      = "TOO_MANY_REQUESTS"
	ErrCodePaymentFailed        = "PAYMENT_FAILED"
	ErrCodeInternalError        = "INTERNAL_ERROR"
	ErrCodeNotFound             = "NOT_FOUND"
	ErrCodeMethodNotAllowed     = "METHOD_NOT_ALLOWED"
	ErrCodeVerificationRequired = "VERIFICATION_REQUIRED"
)

// DomainError is a business error carrying a stable code and the HTTP status
// it is reported with.
type DomainError struct {
	Code    string
	Message string
	Status  int
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError with the same code, so that
// errors built with a custom message still match their sentinel.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error reported as 400 Bad Request.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Status:  http.StatusBadRequest,
	}
}

func newStatusError(status int, code, message string) *DomainError {
	return &DomainError{Code: code, Message: message, Status: status}
}

// NewValidationError reports a malformed or missing request field.
func NewValidationError(message string) *DomainError {
	return NewDomainError(ErrCodeValidationFailed, message)
}

// NewInsufficientStockError names the product whose stock cannot cover the request.
func NewInsufficientStockError(productName string) *DomainError {
	return NewDomainError(ErrCodeInsufficientStock, "Insufficient stock for "+productName)
}

// Common domain errors
var (
	ErrInvalidQuantity     = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be greater than zero")
	ErrEmptyOrder          = NewDomainError(ErrCodeEmptyOrder, "No order items")
	ErrInvalidRating       = NewDomainError(ErrCodeInvalidRating, "Rating must be between 1 and 5")
	ErrInvalidStatus       = NewDomainError(ErrCodeInvalidStatus, "Unknown order status")
	ErrInvalidPayment      = NewDomainError(ErrCodeInvalidPayment, "Unknown payment method")
	ErrOwnerRequired       = NewDomainError(ErrCodeOwnerRequired, "Guest checkout requires guest name and email")
	ErrEmailTaken          = NewDomainError(ErrCodeEmailTaken, "User already exists")
	ErrSlugTaken           = NewDomainError(ErrCodeSlugTaken, "Category already exists")
	ErrInsufficientStock   = NewDomainError(ErrCodeInsufficientStock, "Insufficient stock")
	ErrOrderNotCancellable = NewDomainError(ErrCodeOrderNotCancellable, "Order cannot be cancelled at this stage")
	ErrAlreadyReviewed     = NewDomainError(ErrCodeAlreadyReviewed, "Product already reviewed")
	ErrCategoryInUse       = NewDomainError(ErrCodeCategoryInUse, "Cannot delete category with products, move products first")
	ErrIncorrectPassword   = NewDomainError(ErrCodeIncorrectPassword, "Current password is incorrect")
	ErrInvalidResetToken   = NewDomainError(ErrCodeInvalidResetToken, "Invalid or expired token")
	ErrInvalidVerifyToken  = NewDomainError(ErrCodeInvalidVerifyToken, "Invalid or expired verification token")
	ErrUnsupportedFile     = NewDomainError(ErrCodeUnsupportedFile, "Images only (jpeg, png, webp up to 5MB)")

	ErrInvalidCredentials = newStatusError(http.StatusUnauthorized, ErrCodeInvalidCredentials, "Invalid email or password")
	ErrAccountLocked      = newStatusError(http.StatusUnauthorized, ErrCodeAccountLocked, "Account temporarily locked due to too many failed login attempts")
	ErrAccountInactive    = newStatusError(http.StatusUnauthorized, ErrCodeAccountDeactivated, "Account is deactivated")
	ErrInvalidToken       = newStatusError(http.StatusUnauthorized, ErrCodeInvalidToken, "Invalid token")
	ErrTokenExpired       = newStatusError(http.StatusUnauthorized, ErrCodeTokenExpired, "Token expired")
	ErrUnauthorised       = newStatusError(http.StatusUnauthorized, ErrCodeUnauthorised, "Not authorized to access this route")
	ErrTokenUserNotFound  = newStatusError(http.StatusUnauthorized, ErrCodeUserNotFound, "User not found")
	ErrForbidden          = newStatusError(http.StatusForbidden, ErrCodeForbidden, "Not authorized")

	ErrUserNotFound     = newStatusError(http.StatusNotFound, ErrCodeUserNotFound, "User not found")
	ErrProductNotFound  = newStatusError(http.StatusNotFound, ErrCodeProductNotFound, "Product not found")
	ErrOrderNotFound    = newStatusError(http.StatusNotFound, ErrCodeOrderNotFound, "Order not found")
	ErrCategoryNotFound = newStatusError(http.StatusNotFound, ErrCodeCategoryNotFound, "Category not found")
	ErrCartItemNotFound = newStatusError(http.StatusNotFound, ErrCodeCartItemNotFound, "Cart item not found")
	ErrAddressNotFound  = newStatusError(http.StatusNotFound, ErrCodeAddressNotFound, "Address not found")

	ErrPaymentFailed = newStatusError(http.StatusBadGateway, ErrCodePaymentFailed, "Payment gateway request failed")
)
