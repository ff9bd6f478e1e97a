package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"storefront/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newProductRouter(svc *MockProductService, user *model.User) http.Handler {
	h := NewProductHandler(svc, zerolog.Nop())
	r := chi.NewRouter()
	r.Get("/api/products", h.List)
	r.Get("/api/products/top", h.Top)
	r.Get("/api/products/category/{category}", h.ByCategory)
	r.Get("/api/products/{id}", h.Get)
	r.Post("/api/products", h.Create)
	r.Post("/api/products/{id}/reviews", h.AddReview)
	return asUser(user, r)
}

func TestProductHandler_List(t *testing.T) {
	minPrice, rating := 100.0, 4.0

	tests := []struct {
		name           string
		query          string
		expectedFilter *model.ProductFilter
		expectedStatus int
	}{
		{
			name:           "No parameters",
			query:          "",
			expectedFilter: &model.ProductFilter{},
			expectedStatus: http.StatusOK,
		},
		{
			name:  "All filters",
			query: "?keyword=+lip+&category=Lips&brand=Maybelline,%20Loreal,&minPrice=100&rating=4&sort=price_asc&pageNumber=2&pageSize=24",
			expectedFilter: &model.ProductFilter{
				Keyword:   "lip",
				Category:  "Lips",
				Brands:    []string{"Maybelline", "Loreal"},
				MinPrice:  &minPrice,
				MinRating: &rating,
				Sort:      model.SortPriceAsc,
				Page:      2,
				PageSize:  24,
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Invalid price",
			query:          "?minPrice=cheap",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Invalid page",
			query:          "?pageNumber=two",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockProductService)
			if tt.expectedFilter != nil {
				svc.On("List", mock.Anything, *tt.expectedFilter).
					Return(&model.ProductPage{Products: []model.Product{{Name: "Lip Tint"}}, Page: 1, Pages: 1, Total: 1}, nil)
			}

			w := httptest.NewRecorder()
			newProductRouter(svc, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products"+tt.query, nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedFilter == nil {
				assert.Contains(t, w.Body.String(), model.ErrCodeValidationFailed)
				svc.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
				return
			}
			var page model.ProductPage
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
			assert.Equal(t, "Lip Tint", page.Products[0].Name)
			svc.AssertExpectations(t)
		})
	}
}

func TestProductHandler_Get(t *testing.T) {
	productID := uuid.New()

	tests := []struct {
		name           string
		path           string
		mockReturn     *model.Product
		mockError      error
		expectService  bool
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "Success",
			path:           "/api/products/" + productID.String(),
			mockReturn:     &model.Product{ID: productID, Name: "Mascara"},
			expectService:  true,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Invalid ID",
			path:           "/api/products/not-a-uuid",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidID,
		},
		{
			name:           "Not found",
			path:           "/api/products/" + productID.String(),
			mockError:      model.ErrProductNotFound,
			expectService:  true,
			expectedStatus: http.StatusNotFound,
			expectedCode:   model.ErrCodeProductNotFound,
		},
		{
			name:           "Store failure",
			path:           "/api/products/" + productID.String(),
			mockError:      errors.New("connection reset"),
			expectService:  true,
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   model.ErrCodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockProductService)
			if tt.expectService {
				svc.On("Get", mock.Anything, productID).Return(tt.mockReturn, tt.mockError)
			}

			w := httptest.NewRecorder()
			newProductRouter(svc, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				var resp model.ErrorResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, tt.expectedCode, resp.Error)
				assert.NotEmpty(t, resp.Message)
			}
			if !tt.expectService {
				svc.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestProductHandler_Create(t *testing.T) {
	svc := new(MockProductService)
	svc.On("Create", mock.Anything, mock.MatchedBy(func(req *model.ProductRequest) bool {
		return req.Name == "Blush" && req.Stock == 7
	})).Return(&model.Product{ID: uuid.New(), Name: "Blush", Stock: 7}, nil)

	body := `{"name":"Blush","brand":"Nars","category":"Face","description":"Peachy","price":3200,"stock":7}`
	w := httptest.NewRecorder()
	newProductRouter(svc, nil).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(body)))
	assert.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	newProductRouter(svc, nil).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(`{"name":"Blush"}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "brand is required")

	w = httptest.NewRecorder()
	newProductRouter(svc, nil).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(`{"name":`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), model.ErrCodeInvalidJSON)

	svc.AssertNumberOfCalls(t, "Create", 1)
}

func TestProductHandler_AddReview(t *testing.T) {
	productID := uuid.New()
	user := &model.User{ID: uuid.New(), Name: "Ayesha"}

	svc := new(MockProductService)
	svc.On("AddReview", mock.Anything, productID, user, &model.ReviewRequest{Rating: 5, Comment: "Lovely"}).
		Return(&model.Product{ID: productID}, nil).Once()
	svc.On("AddReview", mock.Anything, productID, user, mock.Anything).
		Return(nil, model.ErrAlreadyReviewed).Once()

	path := "/api/products/" + productID.String() + "/reviews"
	body := `{"rating":5,"comment":"Lovely"}`

	w := httptest.NewRecorder()
	newProductRouter(svc, user).ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)))
	assert.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	newProductRouter(svc, user).ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), model.ErrCodeAlreadyReviewed)
	svc.AssertExpectations(t)
}

func TestProductHandler_Collections(t *testing.T) {
	svc := new(MockProductService)
	svc.On("Top", mock.Anything).Return([]model.Product{{Name: "Best"}}, nil)
	svc.On("ByCategory", mock.Anything, "Skin Care", 3).Return(&model.ProductPage{Page: 3}, nil)

	w := httptest.NewRecorder()
	newProductRouter(svc, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products/top", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Best")

	w = httptest.NewRecorder()
	newProductRouter(svc, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products/category/Skin%20Care?pageNumber=3", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}
