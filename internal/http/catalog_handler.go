package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/jathuRSHAN/Skyup-Ecommerce/internal/catalog"
)

// CatalogStore is the slice of the catalog repository the handlers need.
type CatalogStore interface {
	CreateItem(ctx context.Context, it *catalog.Item) error
	GetItem(ctx context.Context, id string) (*catalog.Item, error)
	ListItems(ctx context.Context) ([]catalog.Item, error)
	UpdateItem(ctx context.Context, it *catalog.Item) error
	DeleteItem(ctx context.Context, id string) error

	CreateBrand(ctx context.Context, b *catalog.Brand) error
	GetBrand(ctx context.Context, id string) (*catalog.Brand, error)
	GetBrandByName(ctx context.Context, name string) (*catalog.Brand, error)
	ListBrands(ctx context.Context) ([]catalog.Brand, error)
	UpdateBrand(ctx context.Context, b *catalog.Brand) error
	DeleteBrand(ctx context.Context, id string) error

	CreateSubCategory(ctx context.Context, sc *catalog.SubCategory) error
	GetSubCategory(ctx context.Context, id string) (*catalog.SubCategory, error)
	GetSubCategoryByName(ctx context.Context, name string) (*catalog.SubCategory, error)
	ListSubCategories(ctx context.Context) ([]catalog.SubCategory, error)
	UpdateSubCategory(ctx context.Context, sc *catalog.SubCategory) error
	DeleteSubCategory(ctx context.Context, id string) error
}

type CatalogHandler struct {
	store CatalogStore
}

func NewCatalogHandler(store CatalogStore) *CatalogHandler {
	return &CatalogHandler{store: store}
}

// --- items ---

type itemRequest struct {
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Price           decimal.Decimal `json:"price"`
	SubCategoryName string          `json:"subCategoryName"`
	Stock           int             `json:"stock"`
	BrandName       string          `json:"brandName"`
	Image           string          `json:"image"`
}

// resolveItem validates the request and resolves brand/subcategory names to
// their ids, the way admin clients submit items.
func (h *CatalogHandler) resolveItem(ctx context.Context, req itemRequest) (*catalog.Item, int, string) {
	if req.Name == "" || req.Description == "" || req.SubCategoryName == "" {
		return nil, http.StatusBadRequest, "missing required fields"
	}
	if !req.Price.IsPositive() {
		return nil, http.StatusBadRequest, "price must be positive"
	}
	if req.Stock < 0 {
		return nil, http.StatusBadRequest, "stock must not be negative"
	}

	sc, err := h.store.GetSubCategoryByName(ctx, req.SubCategoryName)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, http.StatusNotFound, "subcategory not found"
		}
		return nil, http.StatusInternalServerError, "failed to resolve subcategory"
	}

	it := &catalog.Item{
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		Stock:         req.Stock,
		SubCategoryID: sc.ID,
		Image:         req.Image,
	}

	if req.BrandName != "" {
		b, err := h.store.GetBrandByName(ctx, req.BrandName)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				return nil, http.StatusNotFound, "brand not found"
			}
			return nil, http.StatusInternalServerError, "failed to resolve brand"
		}
		it.BrandID = b.ID
	}

	return it, 0, ""
}

func (h *CatalogHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	it, status, msg := h.resolveItem(r.Context(), req)
	if it == nil {
		writeError(w, status, msg)
		return
	}

	if err := h.store.CreateItem(r.Context(), it); err != nil {
		if errors.Is(err, catalog.ErrNameTaken) {
			writeError(w, http.StatusConflict, "item name already in use")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create item")
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

func (h *CatalogHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	it, err := h.store.GetItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "item not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load item")
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (h *CatalogHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListItems(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load items")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *CatalogHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	it, status, msg := h.resolveItem(r.Context(), req)
	if it == nil {
		writeError(w, status, msg)
		return
	}
	it.ID = chi.URLParam(r, "id")

	if err := h.store.UpdateItem(r.Context(), it); err != nil {
		switch {
		case errors.Is(err, catalog.ErrNotFound):
			writeError(w, http.StatusNotFound, "item not found")
		case errors.Is(err, catalog.ErrNameTaken):
			writeError(w, http.StatusConflict, "item name already in use")
		default:
			writeError(w, http.StatusInternalServerError, "failed to update item")
		}
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (h *CatalogHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteItem(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "item not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete item")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "item deleted successfully"})
}

// --- brands ---

type brandRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *CatalogHandler) CreateBrand(w http.ResponseWriter, r *http.Request) {
	var req brandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	b := &catalog.Brand{Name: req.Name, Description: req.Description}
	if err := h.store.CreateBrand(r.Context(), b); err != nil {
		if errors.Is(err, catalog.ErrNameTaken) {
			writeError(w, http.StatusConflict, "brand name already in use")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create brand")
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *CatalogHandler) GetBrand(w http.ResponseWriter, r *http.Request) {
	b, err := h.store.GetBrand(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "brand not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load brand")
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *CatalogHandler) ListBrands(w http.ResponseWriter, r *http.Request) {
	brands, err := h.store.ListBrands(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load brands")
		return
	}
	writeJSON(w, http.StatusOK, brands)
}

func (h *CatalogHandler) UpdateBrand(w http.ResponseWriter, r *http.Request) {
	var req brandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	b := &catalog.Brand{ID: chi.URLParam(r, "id"), Name: req.Name, Description: req.Description}
	if err := h.store.UpdateBrand(r.Context(), b); err != nil {
		switch {
		case errors.Is(err, catalog.ErrNotFound):
			writeError(w, http.StatusNotFound, "brand not found")
		case errors.Is(err, catalog.ErrNameTaken):
			writeError(w, http.StatusConflict, "brand name already in use")
		default:
			writeError(w, http.StatusInternalServerError, "failed to update brand")
		}
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *CatalogHandler) DeleteBrand(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteBrand(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "brand not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete brand")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "brand deleted successfully"})
}

// --- subcategories ---

type subCategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

func (h *CatalogHandler) CreateSubCategory(w http.ResponseWriter, r *http.Request) {
	var req subCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	sc := &catalog.SubCategory{Name: req.Name, Description: req.Description, Category: req.Category}
	if err := h.store.CreateSubCategory(r.Context(), sc); err != nil {
		if errors.Is(err, catalog.ErrNameTaken) {
			writeError(w, http.StatusConflict, "subcategory name already in use")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create subcategory")
		return
	}
	writeJSON(w, http.StatusCreated, sc)
}

func (h *CatalogHandler) GetSubCategory(w http.ResponseWriter, r *http.Request) {
	sc, err := h.store.GetSubCategory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "subcategory not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load subcategory")
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

func (h *CatalogHandler) ListSubCategories(w http.ResponseWriter, r *http.Request) {
	subCategories, err := h.store.ListSubCategories(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load subcategories")
		return
	}
	writeJSON(w, http.StatusOK, subCategories)
}

func (h *CatalogHandler) UpdateSubCategory(w http.ResponseWriter, r *http.Request) {
	var req subCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	sc := &catalog.SubCategory{
		ID:          chi.URLParam(r, "id"),
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
	}
	if err := h.store.UpdateSubCategory(r.Context(), sc); err != nil {
		switch {
		case errors.Is(err, catalog.ErrNotFound):
			writeError(w, http.StatusNotFound, "subcategory not found")
		case errors.Is(err, catalog.ErrNameTaken):
			writeError(w, http.StatusConflict, "subcategory name already in use")
		default:
			writeError(w, http.StatusInternalServerError, "failed to update subcategory")
		}
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

func (h *CatalogHandler) DeleteSubCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteSubCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "subcategory not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete subcategory")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "subcategory deleted successfully"})
}
