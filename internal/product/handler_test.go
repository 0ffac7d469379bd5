// AngelaMos | 2026
// handler_test.go

package product

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (chi.Router, *fakeRepo) {
	t.Helper()

	svc, repo, _ := newTestService(t)
	handler := NewHandler(svc)

	router := chi.NewRouter()
	handler.RegisterRoutes(router)
	router.Route("/admin", func(r chi.Router) {
		handler.RegisterAdminRoutes(r)
	})
	return router, repo
}

func multipartBody(
	t *testing.T,
	fields map[string]string,
	imageName string,
	imageType string,
	imageBytes []byte,
) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for key, value := range fields {
		require.NoError(t, w.WriteField(key, value))
	}

	if imageBytes != nil {
		header := make(textproto.MIMEHeader)
		header.Set(
			"Content-Disposition",
			`form-data; name="image"; filename="`+imageName+`"`,
		)
		header.Set("Content-Type", imageType)

		part, err := w.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(imageBytes)
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	data, _ := body["data"].(map[string]any)
	return data
}

func TestHandler_CreateWithImage(t *testing.T) {
	router, _ := newTestRouter(t)

	body, contentType := multipartBody(t, map[string]string{
		"title":       "Mechanical Keyboard",
		"description": "Clacky.",
		"price_cents": "12999",
	}, "kb.png", "image/png", pngBytes)

	req := httptest.NewRequest(http.MethodPost, "/admin/products", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	data := decodeData(t, rec)
	assert.Equal(t, "Mechanical Keyboard", data["title"])
	assert.Equal(t, float64(12999), data["price_cents"])
	assert.Contains(t, data["image_url"], "/uploads/admin/products/")
}

func TestHandler_CreateWithoutDescription(t *testing.T) {
	router, _ := newTestRouter(t)

	body, contentType := multipartBody(t, map[string]string{
		"title":       "Sticker Pack",
		"price_cents": "499",
	}, "pack.png", "image/png", pngBytes)

	req := httptest.NewRequest(http.MethodPost, "/admin/products", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	data := decodeData(t, rec)
	assert.Equal(t, "Sticker Pack", data["title"])
	assert.Equal(t, "", data["description"])
}

func TestHandler_CreateMissingImage(t *testing.T) {
	router, _ := newTestRouter(t)

	body, contentType := multipartBody(t, map[string]string{
		"title":       "Poster",
		"description": "A3 print.",
		"price_cents": "1500",
	}, "", "", nil)

	req := httptest.NewRequest(http.MethodPost, "/admin/products", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "image is required")
}

func TestHandler_CreateValidation(t *testing.T) {
	router, _ := newTestRouter(t)

	body, contentType := multipartBody(t, map[string]string{
		"title":       "",
		"description": "No title.",
		"price_cents": "100",
	}, "", "", nil)

	req := httptest.NewRequest(http.MethodPost, "/admin/products", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandler_CreateBadPrice(t *testing.T) {
	router, _ := newTestRouter(t)

	body, contentType := multipartBody(t, map[string]string{
		"title":       "Lamp",
		"description": "Bright.",
		"price_cents": "twelve",
	}, "", "", nil)

	req := httptest.NewRequest(http.MethodPost, "/admin/products", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandler_CreateUnsupportedImage(t *testing.T) {
	router, _ := newTestRouter(t)

	body, contentType := multipartBody(t, map[string]string{
		"title":       "Manual",
		"description": "PDF upload.",
		"price_cents": "100",
	}, "doc.pdf", "image/png", []byte("%PDF-1.7 definitely a pdf"))

	req := httptest.NewRequest(http.MethodPost, "/admin/products", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandler_GetNotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/products/missing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_ListPagination(t *testing.T) {
	router, repo := newTestRouter(t)

	repo.products["p1"] = &Product{ID: "p1", Title: "One"}
	repo.products["p2"] = &Product{ID: "p2", Title: "Two"}

	req := httptest.NewRequest(http.MethodGet, "/products?page=1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	meta := body["meta"].(map[string]any)
	assert.Equal(t, float64(2), meta["total"])
}

func TestHandler_UpdatePartialFields(t *testing.T) {
	router, repo := newTestRouter(t)
	repo.products["p1"] = &Product{
		ID:          "p1",
		Title:       "Mug",
		Description: "Ceramic.",
		PriceCents:  800,
	}

	body, contentType := multipartBody(t, map[string]string{
		"price_cents": "650",
	}, "", "", nil)

	req := httptest.NewRequest(http.MethodPut, "/admin/products/p1", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	data := decodeData(t, rec)
	assert.Equal(t, float64(650), data["price_cents"])
	assert.Equal(t, "Mug", data["title"])
}

func TestHandler_Delete(t *testing.T) {
	router, repo := newTestRouter(t)
	repo.products["p1"] = &Product{ID: "p1", Title: "Mug"}

	req := httptest.NewRequest(http.MethodDelete, "/admin/products/p1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, repo.products)
}
