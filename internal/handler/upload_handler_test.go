package handler

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"storefront/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type uploadPart struct {
	field       string
	filename    string
	contentType string
	body        string
}

func multipartRequest(t *testing.T, path string, parts ...uploadPart) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range parts {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, p.field, p.filename))
		h.Set("Content-Type", p.contentType)
		w, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = w.Write([]byte(p.body))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadHandler_Single(t *testing.T) {
	tests := []struct {
		name           string
		part           uploadPart
		expectStore    bool
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "PNG image",
			part:           uploadPart{field: "image", filename: "lipstick.png", contentType: "image/png", body: "png-bytes"},
			expectStore:    true,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Text file",
			part:           uploadPart{field: "image", filename: "notes.txt", contentType: "text/plain", body: "hello"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeUnsupportedFile,
		},
		{
			name:           "Extension and type disagree",
			part:           uploadPart{field: "image", filename: "fake.png", contentType: "image/gif", body: "gif"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeUnsupportedFile,
		},
		{
			name:           "Too large",
			part:           uploadPart{field: "image", filename: "big.jpg", contentType: "image/jpeg", body: strings.Repeat("x", 65)},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeUnsupportedFile,
		},
		{
			name:           "Wrong field",
			part:           uploadPart{field: "photo", filename: "a.png", contentType: "image/png", body: "png"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeValidationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockStore)
			if tt.expectStore {
				store.On("Save", mock.Anything, mock.MatchedBy(func(name string) bool {
					return strings.HasPrefix(name, "image-") && strings.HasSuffix(name, ".png")
				}), "image/png", tt.part.body).Return("/uploads/image-1.png", nil)
			}
			h := NewUploadHandler(store, 64, 10, zerolog.Nop())

			w := httptest.NewRecorder()
			h.Single(w, multipartRequest(t, "/api/upload", tt.part))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				assert.Contains(t, w.Body.String(), tt.expectedCode)
				store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
				return
			}
			assert.JSONEq(t, `{"success":true,"image":"/uploads/image-1.png"}`, w.Body.String())
			store.AssertExpectations(t)
		})
	}
}

func TestUploadHandler_Multiple(t *testing.T) {
	store := new(MockStore)
	store.On("Save", mock.Anything, mock.Anything, "image/jpeg", "one").Return("/uploads/a.jpg", nil)
	store.On("Save", mock.Anything, mock.Anything, "image/webp", "two").Return("/uploads/b.webp", nil)
	h := NewUploadHandler(store, 64, 2, zerolog.Nop())

	w := httptest.NewRecorder()
	h.Multiple(w, multipartRequest(t, "/api/upload/multiple",
		uploadPart{field: "images", filename: "a.jpg", contentType: "image/jpeg", body: "one"},
		uploadPart{field: "images", filename: "b.webp", contentType: "image/webp", body: "two"},
	))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"images":["/uploads/a.jpg","/uploads/b.webp"]}`, w.Body.String())

	w = httptest.NewRecorder()
	h.Multiple(w, multipartRequest(t, "/api/upload/multiple",
		uploadPart{field: "images", filename: "a.jpg", contentType: "image/jpeg", body: "one"},
		uploadPart{field: "images", filename: "b.jpg", contentType: "image/jpeg", body: "one"},
		uploadPart{field: "images", filename: "c.jpg", contentType: "image/jpeg", body: "one"},
	))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	store.AssertNumberOfCalls(t, "Save", 2)
}

func TestUploadHandler_RemovesSpilledParts(t *testing.T) {
	h := NewUploadHandler(new(MockStore), 64, 10, zerolog.Nop())

	// Larger than the in-memory limit, so the part is written to a temp file.
	req := multipartRequest(t, "/api/upload",
		uploadPart{field: "image", filename: "big.jpg", contentType: "image/jpeg", body: strings.Repeat("x", 4096)})
	w := httptest.NewRecorder()
	h.Single(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, req.MultipartForm)
	files := req.MultipartForm.File["image"]
	require.Len(t, files, 1)

	_, err := files[0].Open()
	assert.Error(t, err, "temp file should be gone after the request")
}
