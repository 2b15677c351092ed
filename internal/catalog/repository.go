package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrNameTaken = errors.New("name already in use")
)

// DB matches the methods we use from *pgxpool.Pool.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type Repository struct {
	db DB
}

func NewRepository(db DB) *Repository {
	return &Repository{db: db}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Lookup ids feed uuid columns; Postgres rejects malformed ids with a type
// syntax error rather than an empty result, so they short-circuit here.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// --- items ---

const itemColumns = `id, name, description, price, stock, sub_category_id, brand_id, image, created_at, updated_at`

func (r *Repository) CreateItem(ctx context.Context, it *Item) error {
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	var brandID *string
	if it.BrandID != "" {
		brandID = &it.BrandID
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO items (id, name, description, price, stock, sub_category_id, brand_id, image)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, it.ID, it.Name, it.Description, it.Price, it.Stock, it.SubCategoryID, brandID, it.Image)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrNameTaken
		}
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

func (r *Repository) GetItem(ctx context.Context, id string) (*Item, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id)
	return scanItem(row)
}

func (r *Repository) ListItems(ctx context.Context) ([]Item, error) {
	rows, err := r.db.Query(ctx, `SELECT `+itemColumns+` FROM items ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("select items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return items, nil
}

func (r *Repository) UpdateItem(ctx context.Context, it *Item) error {
	if !validID(it.ID) {
		return ErrNotFound
	}
	var brandID *string
	if it.BrandID != "" {
		brandID = &it.BrandID
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE items
		SET name=$2, description=$3, price=$4, stock=$5, sub_category_id=$6, brand_id=$7, image=$8, updated_at=now()
		WHERE id=$1
	`, it.ID, it.Name, it.Description, it.Price, it.Stock, it.SubCategoryID, brandID, it.Image)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrNameTaken
		}
		return fmt.Errorf("update item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteItem(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanItem(row pgx.Row) (*Item, error) {
	var it Item
	var brandID *string
	err := row.Scan(&it.ID, &it.Name, &it.Description, &it.Price, &it.Stock,
		&it.SubCategoryID, &brandID, &it.Image, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan item: %w", err)
	}
	if brandID != nil {
		it.BrandID = *brandID
	}
	return &it, nil
}

// --- brands ---

func (r *Repository) CreateBrand(ctx context.Context, b *Brand) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO brands (id, name, description) VALUES ($1, $2, $3)`,
		b.ID, b.Name, b.Description)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrNameTaken
		}
		return fmt.Errorf("insert brand: %w", err)
	}
	return nil
}

func (r *Repository) GetBrand(ctx context.Context, id string) (*Brand, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	return scanBrand(r.db.QueryRow(ctx, `SELECT id, name, description FROM brands WHERE id = $1`, id))
}

func (r *Repository) GetBrandByName(ctx context.Context, name string) (*Brand, error) {
	return scanBrand(r.db.QueryRow(ctx, `SELECT id, name, description FROM brands WHERE name = $1`, name))
}

func (r *Repository) ListBrands(ctx context.Context) ([]Brand, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, description FROM brands ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("select brands: %w", err)
	}
	defer rows.Close()

	var brands []Brand
	for rows.Next() {
		var b Brand
		if err := rows.Scan(&b.ID, &b.Name, &b.Description); err != nil {
			return nil, fmt.Errorf("scan brand: %w", err)
		}
		brands = append(brands, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return brands, nil
}

func (r *Repository) UpdateBrand(ctx context.Context, b *Brand) error {
	if !validID(b.ID) {
		return ErrNotFound
	}
	tag, err := r.db.Exec(ctx,
		`UPDATE brands SET name=$2, description=$3 WHERE id=$1`,
		b.ID, b.Name, b.Description)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrNameTaken
		}
		return fmt.Errorf("update brand: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteBrand(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM brands WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete brand: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanBrand(row pgx.Row) (*Brand, error) {
	var b Brand
	if err := row.Scan(&b.ID, &b.Name, &b.Description); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan brand: %w", err)
	}
	return &b, nil
}

// --- subcategories ---

func (r *Repository) CreateSubCategory(ctx context.Context, sc *SubCategory) error {
	if sc.ID == "" {
		sc.ID = uuid.NewString()
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO sub_categories (id, name, description, category) VALUES ($1, $2, $3, $4)`,
		sc.ID, sc.Name, sc.Description, sc.Category)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrNameTaken
		}
		return fmt.Errorf("insert subcategory: %w", err)
	}
	return nil
}

func (r *Repository) GetSubCategory(ctx context.Context, id string) (*SubCategory, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	return scanSubCategory(r.db.QueryRow(ctx,
		`SELECT id, name, description, category FROM sub_categories WHERE id = $1`, id))
}

func (r *Repository) GetSubCategoryByName(ctx context.Context, name string) (*SubCategory, error) {
	return scanSubCategory(r.db.QueryRow(ctx,
		`SELECT id, name, description, category FROM sub_categories WHERE name = $1`, name))
}

func (r *Repository) ListSubCategories(ctx context.Context) ([]SubCategory, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, description, category FROM sub_categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("select subcategories: %w", err)
	}
	defer rows.Close()

	var subCategories []SubCategory
	for rows.Next() {
		var sc SubCategory
		if err := rows.Scan(&sc.ID, &sc.Name, &sc.Description, &sc.Category); err != nil {
			return nil, fmt.Errorf("scan subcategory: %w", err)
		}
		subCategories = append(subCategories, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return subCategories, nil
}

func (r *Repository) UpdateSubCategory(ctx context.Context, sc *SubCategory) error {
	if !validID(sc.ID) {
		return ErrNotFound
	}
	tag, err := r.db.Exec(ctx,
		`UPDATE sub_categories SET name=$2, description=$3, category=$4 WHERE id=$1`,
		sc.ID, sc.Name, sc.Description, sc.Category)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrNameTaken
		}
		return fmt.Errorf("update subcategory: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteSubCategory(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM sub_categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete subcategory: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanSubCategory(row pgx.Row) (*SubCategory, error) {
	var sc SubCategory
	if err := row.Scan(&sc.ID, &sc.Name, &sc.Description, &sc.Category); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan subcategory: %w", err)
	}
	return &sc, nil
}
