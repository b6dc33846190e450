package products

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockroom-app/stockroom/internal/catalog/shared"
	"github.com/stockroom-app/stockroom/internal/catalog/suppliers"
	internalShared "github.com/stockroom-app/stockroom/internal/shared"
)

// Repository defines persistence operations for the products module.
type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error)
	Get(ctx context.Context, id int64) (Product, error)
	Create(ctx context.Context, product Product) (Product, error)
	Update(ctx context.Context, id int64, product Product) error
	SoftDelete(ctx context.Context, id int64) error
	SKUTaken(ctx context.Context, sku string, excludeID int64) (bool, error)
	SupplierExists(ctx context.Context, id int64) (bool, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

// Supplier columns ride along on every read. There is no foreign key on
// supplier_id, so the join may come back empty. The join does not filter
// on is_active: a product keeps displaying its supplier's fields after
// the supplier is deactivated, until it is reassigned.
const productSelect = `SELECT p.id, p.name, p.price, p.quantity, p.supplier_id, p.category, p.sku, p.description,
	p.is_active, p.created_at, p.updated_at, s.id, s.name, s.address, s.phone
	FROM products p
	LEFT JOIN suppliers s ON s.id = p.supplier_id`

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error) {
	where := ` WHERE p.is_active`
	args := []interface{}{}

	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		n := strconv.Itoa(len(args))
		where += ` AND (p.name ILIKE $` + n + ` OR p.description ILIKE $` + n + ` OR p.category ILIKE $` + n + `)`
	}
	if filters.SupplierID != nil {
		args = append(args, *filters.SupplierID)
		where += ` AND p.supplier_id = $` + strconv.Itoa(len(args))
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products p`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := productSelect + where + ` ORDER BY p.created_at DESC`
	args = append(args, filters.Limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))
	args = append(args, filters.Offset())
	query += ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, p)
	}
	return list, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Product, error) {
	row := r.db.QueryRow(ctx, productSelect+` WHERE p.id = $1 AND p.is_active`, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, internalShared.NotFound("Product not found")
		}
		return Product{}, err
	}
	return p, nil
}

func (r *repository) Create(ctx context.Context, product Product) (Product, error) {
	query := `INSERT INTO products (name, price, quantity, supplier_id, category, sku, description, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, $8, $8) RETURNING id`
	now := time.Now().UTC()
	err := r.db.QueryRow(ctx, query, product.Name, product.Price, product.Quantity, product.SupplierID,
		product.Category, product.SKU, product.Description, now).Scan(&product.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return Product{}, internalShared.Conflict("A product with this SKU already exists")
		}
		return Product{}, err
	}
	product.IsActive = true
	product.CreatedAt = now
	product.UpdatedAt = now
	return product, nil
}

func (r *repository) Update(ctx context.Context, id int64, product Product) error {
	query := `UPDATE products SET name = $1, price = $2, quantity = $3, supplier_id = $4, category = $5,
		sku = $6, description = $7, updated_at = $8 WHERE id = $9 AND is_active`
	tag, err := r.db.Exec(ctx, query, product.Name, product.Price, product.Quantity, product.SupplierID,
		product.Category, product.SKU, product.Description, time.Now().UTC(), id)
	if err != nil {
		if isUniqueViolation(err) {
			return internalShared.Conflict("A product with this SKU already exists")
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return internalShared.NotFound("Product not found")
	}
	return nil
}

// SoftDelete deactivates a product. The record is matched by id alone,
// so repeating the call on an already inactive product still succeeds.
func (r *repository) SoftDelete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE products SET is_active = FALSE, updated_at = $1 WHERE id = $2`, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return internalShared.NotFound("Product not found")
	}
	return nil
}

// SKUTaken reports whether an active product other than excludeID
// already uses the SKU.
func (r *repository) SKUTaken(ctx context.Context, sku string, excludeID int64) (bool, error) {
	var taken bool
	query := `SELECT EXISTS (SELECT 1 FROM products WHERE sku = $1 AND is_active AND id <> $2)`
	if err := r.db.QueryRow(ctx, query, sku, excludeID).Scan(&taken); err != nil {
		return false, err
	}
	return taken, nil
}

// SupplierExists reports whether an active supplier with the id exists.
func (r *repository) SupplierExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM suppliers WHERE id = $1 AND is_active)`
	if err := r.db.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	var refID *int64
	var refName, refAddress, refPhone *string
	err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Quantity, &p.SupplierID, &p.Category, &p.SKU, &p.Description,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt, &refID, &refName, &refAddress, &refPhone)
	if err != nil {
		return Product{}, err
	}
	if refID != nil {
		p.Supplier = &suppliers.Ref{ID: *refID}
		if refName != nil {
			p.Supplier.Name = *refName
		}
		if refAddress != nil {
			p.Supplier.Address = *refAddress
		}
		if refPhone != nil {
			p.Supplier.Phone = *refPhone
		}
	}
	return p, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
