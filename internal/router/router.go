package router

import (
	"net/http"
	"time"

	"storefront/internal/handler"
	"storefront/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers mounted under /api.
type Handlers struct {
	Health   *handler.HealthHandler
	Auth     *handler.AuthHandler
	User     *handler.UserHandler
	Product  *handler.ProductHandler
	Category *handler.CategoryHandler
	Cart     *handler.CartHandler
	Order    *handler.OrderHandler
	Upload   *handler.UploadHandler
	Payment  *handler.PaymentHandler
}

// Options configures the cross-cutting middleware and static files.
type Options struct {
	AllowedOrigins      []string
	RateLimitRequests   int
	RateLimitWindow     time.Duration
	LoginLimit          RouteLimit
	RegisterLimit       RouteLimit
	ForgotPasswordLimit RouteLimit
	UploadDir           string
	UploadPrefix        string
}

// RouteLimit is a per-IP limit on a single route. Zero Requests disables it.
type RouteLimit struct {
	Requests int
	Window   time.Duration
}

func limitRoute(r chi.Router, limit RouteLimit, message string, logger zerolog.Logger) chi.Router {
	if limit.Requests <= 0 {
		return r
	}
	return r.With(middleware.RateLimitWithMessage(limit.Requests, limit.Window, message, logger))
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, auth *middleware.Auth, opts Options, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Recovery -> Logging -> CORS
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS(opts.AllowedOrigins))

	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	if opts.UploadDir != "" {
		prefix := opts.UploadPrefix
		r.Handle(prefix+"/*", http.StripPrefix(prefix+"/", http.FileServer(http.Dir(opts.UploadDir))))
	}

	r.Route("/api", func(r chi.Router) {
		if opts.RateLimitRequests > 0 {
			r.Use(middleware.RateLimit(opts.RateLimitRequests, opts.RateLimitWindow, logger))
		}

		r.Get("/health", h.Health.Check)

		r.Route("/auth", func(r chi.Router) {
			limitRoute(r, opts.RegisterLimit, "Too many accounts created from this IP, please try again after an hour", logger).
				Post("/register", h.Auth.Register)
			limitRoute(r, opts.LoginLimit, "Too many login attempts from this IP, please try again after 15 minutes", logger).
				Post("/login", h.Auth.Login)
			limitRoute(r, opts.ForgotPasswordLimit, "Too many password reset requests from this IP, please try again after 15 minutes", logger).
				Post("/forgot-password", h.Auth.ForgotPassword)
			r.Post("/check-email", h.Auth.CheckEmail)
			r.Put("/reset-password/{token}", h.Auth.ResetPassword)
			r.Get("/verify-email/{token}", h.Auth.VerifyEmail)

			r.Group(func(r chi.Router) {
				r.Use(auth.Require, auth.Refresh)
				r.Post("/logout", h.Auth.Logout)
				r.Get("/me", h.Auth.Me)
				r.Put("/updatedetails", h.Auth.UpdateDetails)
				r.Put("/updatepassword", h.Auth.UpdatePassword)
				r.Post("/resend-verification", h.Auth.ResendVerification)
				r.Delete("/deleteaccount", h.Auth.DeleteAccount)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(auth.Require, auth.Refresh)
			r.Get("/profile", h.User.Profile)
			r.Put("/profile", h.User.UpdateProfile)
			r.Post("/addresses", h.User.AddAddress)
			r.Put("/addresses/{addressId}", h.User.UpdateAddress)
			r.Delete("/addresses/{addressId}", h.User.DeleteAddress)
			r.Get("/wishlist", h.User.Wishlist)
			r.Post("/wishlist/{productId}", h.User.AddToWishlist)
			r.Delete("/wishlist/{productId}", h.User.RemoveFromWishlist)

			r.Group(func(r chi.Router) {
				r.Use(auth.Admin)
				r.Get("/", h.User.List)
				r.Get("/{id}", h.User.Get)
				r.Put("/{id}", h.User.Update)
				r.Delete("/{id}", h.User.Deactivate)
			})
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.Product.List)
			r.Get("/top", h.Product.Top)
			r.Get("/featured", h.Product.Featured)
			r.Get("/new", h.Product.New)
			r.Get("/brands", h.Product.Brands)
			r.Get("/categories", h.Product.Categories)
			r.Get("/category/{category}", h.Product.ByCategory)
			r.Get("/{id}", h.Product.Get)

			r.Group(func(r chi.Router) {
				r.Use(auth.Require, auth.Refresh)
				r.Post("/{id}/reviews", h.Product.AddReview)

				r.Group(func(r chi.Router) {
					r.Use(auth.Admin)
					r.Post("/", h.Product.Create)
					r.Put("/{id}", h.Product.Update)
					r.Delete("/{id}", h.Product.Delete)
				})
			})
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", h.Category.List)
			r.Get("/tree", h.Category.Tree)
			r.Get("/slug/{slug}", h.Category.GetBySlug)

			r.Group(func(r chi.Router) {
				r.Use(auth.Require, auth.Admin)
				r.Post("/", h.Category.Create)
				r.Put("/{id}", h.Category.Update)
				r.Delete("/{id}", h.Category.Delete)
			})
		})

		r.Route("/cart", func(r chi.Router) {
			r.Post("/guest", h.Cart.Guest)

			r.Group(func(r chi.Router) {
				r.Use(auth.Require, auth.Refresh)
				r.Get("/", h.Cart.Get)
				r.Post("/", h.Cart.Add)
				r.Delete("/", h.Cart.Clear)
				r.Post("/sync", h.Cart.Sync)
				r.Put("/{itemId}", h.Cart.Update)
				r.Delete("/{itemId}", h.Cart.Remove)
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(auth.Optional, auth.Refresh)
				r.Post("/", h.Order.Create)
				r.Get("/guest/{email}", h.Order.Guest)
				r.Get("/{id}", h.Order.Get)
				r.Put("/{id}/cancel", h.Order.Cancel)
			})

			r.Group(func(r chi.Router) {
				r.Use(auth.Require, auth.Refresh)
				r.Get("/myorders", h.Order.Mine)
				r.Put("/{id}/pay", h.Order.Pay)

				r.Group(func(r chi.Router) {
					r.Use(auth.Admin)
					r.Get("/", h.Order.List)
					r.Get("/stats", h.Order.Stats)
					r.Put("/{id}/deliver", h.Order.Deliver)
					r.Put("/{id}/status", h.Order.UpdateStatus)
				})
			})
		})

		r.Route("/upload", func(r chi.Router) {
			r.Use(auth.Require, auth.Admin)
			r.Post("/", h.Upload.Single)
			r.Post("/multiple", h.Upload.Multiple)
		})

		r.Route("/payment", func(r chi.Router) {
			r.Use(auth.Require, auth.Refresh)
			r.Post("/create-payment-intent", h.Payment.CreateIntent)
			r.Post("/jazzcash", h.Payment.JazzCash)
			r.Post("/easypaisa", h.Payment.Easypaisa)
			r.Post("/verify", h.Payment.Verify)
		})
	})

	return r
}
