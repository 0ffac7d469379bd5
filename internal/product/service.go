// AngelaMos | 2026
// service.go

package product

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/storefront-api/internal/storage"
)

const MaxImageSize = 2 << 20 // 2 MiB

var (
	ErrImageTooLarge    = errors.New("image exceeds maximum size")
	ErrUnsupportedImage = errors.New("unsupported image type")
)

// imageExtensions maps a sniffed content type to the stored extension.
// The map doubles as the upload allow-list.
var imageExtensions = map[string]string{
	"image/jpeg":    "jpg",
	"image/png":     "png",
	"image/gif":     "gif",
	"image/webp":    "webp",
	"image/svg+xml": "svg",
}

// ImageUpload carries one uploaded image part through validation.
type ImageUpload struct {
	Reader      io.Reader
	Size        int64
	ContentType string
}

type Service struct {
	repo  Repository
	store storage.Store
}

func NewService(repo Repository, store storage.Store) *Service {
	return &Service{
		repo:  repo,
		store: store,
	}
}

func (s *Service) GetByID(ctx context.Context, id string) (*Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(
	ctx context.Context,
	params ListProductsParams,
) ([]Product, int, error) {
	return s.repo.List(ctx, params)
}

func (s *Service) Create(
	ctx context.Context,
	req CreateProductRequest,
	image *ImageUpload,
) (*Product, error) {
	product := &Product{
		ID:          uuid.New().String(),
		Title:       req.Title,
		Description: req.Description,
		PriceCents:  req.PriceCents,
	}

	if image != nil {
		key, err := s.storeImage(ctx, image)
		if err != nil {
			return nil, err
		}
		product.ImageKey = key
	}

	if err := s.repo.Create(ctx, product); err != nil {
		// The row never landed, so the blob is an orphan.
		if product.ImageKey != "" {
			s.removeImage(ctx, product.ImageKey)
		}
		return nil, err
	}

	return product, nil
}

// Update applies scalar fields and, when a new image arrives, swaps the
// stored blob. The previous blob is removed only after the row commits
// so a failed update never strands the product without an image.
func (s *Service) Update(
	ctx context.Context,
	id string,
	req UpdateProductRequest,
	image *ImageUpload,
) (*Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		product.Title = *req.Title
	}

	if req.Description != nil {
		product.Description = *req.Description
	}

	if req.PriceCents != nil {
		product.PriceCents = *req.PriceCents
	}

	oldKey := product.ImageKey
	if image != nil {
		key, err := s.storeImage(ctx, image)
		if err != nil {
			return nil, err
		}
		product.ImageKey = key
	}

	if err := s.repo.Update(ctx, product); err != nil {
		if image != nil {
			s.removeImage(ctx, product.ImageKey)
		}
		return nil, err
	}

	if image != nil && oldKey != "" && oldKey != product.ImageKey {
		s.removeImage(ctx, oldKey)
	}

	return product, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if product.ImageKey != "" {
		s.removeImage(ctx, product.ImageKey)
	}

	return nil
}

func (s *Service) ToResponse(p *Product) ProductResponse {
	resp := ProductResponse{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		PriceCents:  p.PriceCents,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.HasImage() {
		resp.ImageURL = s.store.URL(p.ImageKey)
	}
	return resp
}

func (s *Service) ToResponseList(products []Product) []ProductResponse {
	responses := make([]ProductResponse, 0, len(products))
	for i := range products {
		responses = append(responses, s.ToResponse(&products[i]))
	}
	return responses
}

// storeImage validates size and content type by sniffing the first
// bytes, then writes the blob under a fresh uuid key. The declared
// multipart content type is never trusted on its own.
func (s *Service) storeImage(
	ctx context.Context,
	image *ImageUpload,
) (string, error) {
	if image.Size > MaxImageSize {
		return "", ErrImageTooLarge
	}

	limited := io.LimitReader(image.Reader, MaxImageSize+1)

	head := make([]byte, 512)
	n, err := io.ReadFull(limited, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) &&
		!errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read image: %w", err)
	}
	head = head[:n]

	contentType := sniffImageType(head, image.ContentType)
	ext, ok := imageExtensions[contentType]
	if !ok {
		return "", ErrUnsupportedImage
	}

	body := io.MultiReader(bytes.NewReader(head), limited)
	counted := &countingReader{r: body}

	key := path.Join("admin", "products", uuid.New().String()+"."+ext)
	if err := s.store.Save(ctx, key, contentType, counted); err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}

	if counted.n > MaxImageSize {
		s.removeImage(ctx, key)
		return "", ErrImageTooLarge
	}

	return key, nil
}

func (s *Service) removeImage(ctx context.Context, key string) {
	if err := s.store.Delete(ctx, key); err != nil &&
		!errors.Is(err, storage.ErrObjectNotFound) {
		slog.Warn("remove image failed", "key", key, "error", err)
	}
}

// sniffImageType detects the real content type from the leading bytes.
// SVG is XML, which the sniffer reports as text, so it is accepted only
// when the client also declared it.
func sniffImageType(head []byte, declared string) string {
	detected := http.DetectContentType(head)

	if strings.HasPrefix(detected, "text/xml") ||
		strings.HasPrefix(detected, "text/plain") {
		if declared == "image/svg+xml" && looksLikeSVG(head) {
			return "image/svg+xml"
		}
	}

	return strings.Split(detected, ";")[0]
}

func looksLikeSVG(head []byte) bool {
	trimmed := bytes.TrimLeft(head, " \t\r\n\xef\xbb\xbf")
	return bytes.HasPrefix(trimmed, []byte("<svg")) ||
		bytes.HasPrefix(trimmed, []byte("<?xml"))
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
