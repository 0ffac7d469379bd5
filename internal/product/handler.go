// AngelaMos | 2026
// handler.go

package product

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/storefront-api/internal/core"
)

// multipart form memory threshold; larger parts spill to temp files.
const maxMultipartMemory = 4 << 20

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterRoutes mounts the public catalog. No auth; anyone may browse.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
	})
}

func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	params := ListProductsParams{
		Page:     queryInt(r, "page", 1),
		PageSize: queryInt(r, "page_size", 20),
		Search:   r.URL.Query().Get("search"),
	}
	params.Normalize()

	products, total, err := h.service.List(r.Context(), params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(
		w,
		h.service.ToResponseList(products),
		params.Page,
		params.PageSize,
		total,
	)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "product")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, h.service.ToResponse(product))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		core.BadRequest(w, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	priceCents, err := strconv.ParseInt(r.FormValue("price_cents"), 10, 64)
	if err != nil {
		core.ValidationError(w, "price_cents must be an integer")
		return
	}

	req := CreateProductRequest{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		PriceCents:  priceCents,
	}

	if err := h.validator.Struct(req); err != nil {
		core.ValidationError(w, core.FormatValidationError(err))
		return
	}

	image, cleanup, err := h.imagePart(r)
	if err != nil {
		core.BadRequest(w, "invalid image part")
		return
	}
	defer cleanup()

	if image == nil {
		core.ValidationError(w, "image is required")
		return
	}

	product, err := h.service.Create(r.Context(), req, image)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	core.Created(w, h.service.ToResponse(product))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		core.BadRequest(w, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	var req UpdateProductRequest

	if v, ok := formValue(r, "title"); ok {
		req.Title = &v
	}
	if v, ok := formValue(r, "description"); ok {
		req.Description = &v
	}
	if v, ok := formValue(r, "price_cents"); ok {
		priceCents, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			core.ValidationError(w, "price_cents must be an integer")
			return
		}
		req.PriceCents = &priceCents
	}

	if err := h.validator.Struct(req); err != nil {
		core.ValidationError(w, core.FormatValidationError(err))
		return
	}

	image, cleanup, err := h.imagePart(r)
	if err != nil {
		core.BadRequest(w, "invalid image part")
		return
	}
	defer cleanup()

	product, err := h.service.Update(
		r.Context(),
		chi.URLParam(r, "id"),
		req,
		image,
	)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	core.OK(w, h.service.ToResponse(product))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "product")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrImageTooLarge):
		core.ValidationError(w, "image exceeds the 2 MiB limit")
	case errors.Is(err, ErrUnsupportedImage):
		core.ValidationError(
			w,
			"image must be jpeg, png, gif, webp or svg",
		)
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "product")
	default:
		core.InternalServerError(w, err)
	}
}

// imagePart extracts the optional "image" file part. A nil upload with
// a nil error means the client sent no image.
func (h *Handler) imagePart(
	r *http.Request,
) (*ImageUpload, func(), error) {
	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, err
	}

	upload := &ImageUpload{
		Reader:      file,
		Size:        header.Size,
		ContentType: partContentType(header),
	}

	return upload, func() { file.Close() }, nil
}

func partContentType(header *multipart.FileHeader) string {
	if header == nil {
		return ""
	}
	return header.Header.Get("Content-Type")
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func formValue(r *http.Request, key string) (string, bool) {
	if r.MultipartForm == nil {
		return "", false
	}
	values, ok := r.MultipartForm.Value[key]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}
