package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cart-server/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type PostgresProductRepository struct {
	db *sql.DB
}

func NewPostgresProductRepository(db *sql.DB) *PostgresProductRepository {
	return &PostgresProductRepository{db: db}
}

func (r *PostgresProductRepository) Create(ctx context.Context, product *models.Product) error {
	query := `INSERT INTO products (id, name, price)
	          VALUES ($1, $2, $3)
	          RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, product.ID, product.Name, product.Price).
		Scan(&product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (r *PostgresProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	query := `SELECT id, name, price, created_at, updated_at FROM products WHERE id = $1`
	var product models.Product
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&product.ID, &product.Name, &product.Price, &product.CreatedAt, &product.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product: %w", err)
	}
	return &product, nil
}

func (r *PostgresProductRepository) List(ctx context.Context) ([]models.Product, error) {
	query := `SELECT id, name, price, created_at, updated_at FROM products ORDER BY created_at ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		var product models.Product
		if err := rows.Scan(&product.ID, &product.Name, &product.Price, &product.CreatedAt, &product.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

func (r *PostgresProductRepository) Update(ctx context.Context, product *models.Product) error {
	query := `UPDATE products SET name = $2, price = $3, updated_at = now() WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, product.ID, product.Name, product.Price)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *PostgresProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		// cart_items.product_id does not cascade; a referenced product
		// cannot be deleted out from under a cart.
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return ErrProductInUse
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrProductNotFound
	}
	return nil
}

type PostgresCartRepository struct {
	db *sql.DB
}

func NewPostgresCartRepository(db *sql.DB) *PostgresCartRepository {
	return &PostgresCartRepository{db: db}
}

func (r *PostgresCartRepository) CreateCart(ctx context.Context) (*models.Cart, error) {
	query := `INSERT INTO carts (id, total_price) VALUES ($1, 0)
	          RETURNING id, total_price, abandoned, last_interaction_at, created_at, updated_at`
	var cart models.Cart
	err := r.db.QueryRowContext(ctx, query, uuid.New()).Scan(
		&cart.ID, &cart.TotalPrice, &cart.Abandoned, &cart.LastInteractionAt,
		&cart.CreatedAt, &cart.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}
	return &cart, nil
}

func (r *PostgresCartRepository) GetCart(ctx context.Context, id uuid.UUID) (*models.Cart, error) {
	query := `SELECT id, total_price, abandoned, last_interaction_at, created_at, updated_at
	          FROM carts WHERE id = $1`
	var cart models.Cart
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&cart.ID, &cart.TotalPrice, &cart.Abandoned, &cart.LastInteractionAt,
		&cart.CreatedAt, &cart.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrCartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch cart: %w", err)
	}
	return &cart, nil
}

// AddItem upserts the cart item and recomputes the cart total in one
// transaction. An existing item for the product has its quantity
// incremented; otherwise a new item is inserted.
func (r *PostgresCartRepository) AddItem(ctx context.Context, cartID, productID uuid.UUID, quantity int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// The cart may have been swept away while the session still holds
	// its id; surface that as the cart being gone, not as an FK failure.
	if err := cartExists(ctx, tx, cartID); err != nil {
		return err
	}

	var existingQuantity int
	existingQuery := `SELECT quantity FROM cart_items WHERE cart_id = $1 AND product_id = $2`
	err = tx.QueryRowContext(ctx, existingQuery, cartID, productID).Scan(&existingQuantity)

	switch {
	case err == sql.ErrNoRows:
		insertQuery := `INSERT INTO cart_items (id, cart_id, product_id, quantity) VALUES ($1, $2, $3, $4)`
		if _, err := tx.ExecContext(ctx, insertQuery, uuid.New(), cartID, productID, quantity); err != nil {
			return fmt.Errorf("failed to add cart item: %w", err)
		}
	case err != nil:
		return fmt.Errorf("failed to fetch cart item: %w", err)
	default:
		updateQuery := `UPDATE cart_items SET quantity = $3 WHERE cart_id = $1 AND product_id = $2`
		if _, err := tx.ExecContext(ctx, updateQuery, cartID, productID, existingQuantity+quantity); err != nil {
			return fmt.Errorf("failed to update cart item: %w", err)
		}
	}

	if err := recalculateTotal(ctx, tx, cartID); err != nil {
		return err
	}
	return tx.Commit()
}

// RemoveItem deletes the cart item and recomputes the cart total in one
// transaction. Returns ErrItemNotFound and leaves the cart untouched when
// the product is not in the cart.
func (r *PostgresCartRepository) RemoveItem(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := cartExists(ctx, tx, cartID); err != nil {
		return nil, err
	}

	deleteQuery := `DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2
	                RETURNING id, cart_id, product_id, quantity, added_at`
	var item models.CartItem
	err = tx.QueryRowContext(ctx, deleteQuery, cartID, productID).Scan(
		&item.ID, &item.CartID, &item.ProductID, &item.Quantity, &item.AddedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to remove cart item: %w", err)
	}

	if err := recalculateTotal(ctx, tx, cartID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &item, nil
}

func cartExists(ctx context.Context, tx *sql.Tx, cartID uuid.UUID) error {
	var id uuid.UUID
	err := tx.QueryRowContext(ctx, `SELECT id FROM carts WHERE id = $1`, cartID).Scan(&id)
	if err == sql.ErrNoRows {
		return ErrCartNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to fetch cart: %w", err)
	}
	return nil
}

// recalculateTotal derives the authoritative total from the current item
// set; it is never patched incrementally.
func recalculateTotal(ctx context.Context, tx *sql.Tx, cartID uuid.UUID) error {
	query := `
		UPDATE carts
		SET total_price = COALESCE((
			SELECT SUM(p.price * ci.quantity)
			FROM cart_items ci
			JOIN products p ON ci.product_id = p.id
			WHERE ci.cart_id = carts.id
		), 0), updated_at = now()
		WHERE id = $1`
	result, err := tx.ExecContext(ctx, query, cartID)
	if err != nil {
		return fmt.Errorf("failed to recalculate cart total: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrCartNotFound
	}
	return nil
}

func (r *PostgresCartRepository) GetLines(ctx context.Context, cartID uuid.UUID) ([]models.CartLine, error) {
	query := `
		SELECT ci.product_id, p.name, p.price, ci.quantity
		FROM cart_items ci
		JOIN products p ON ci.product_id = p.id
		WHERE ci.cart_id = $1
		ORDER BY ci.added_at ASC`
	rows, err := r.db.QueryContext(ctx, query, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch cart items: %w", err)
	}
	defer rows.Close()

	lines := []models.CartLine{}
	for rows.Next() {
		var line models.CartLine
		if err := rows.Scan(&line.ProductID, &line.ProductName, &line.UnitPrice, &line.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func (r *PostgresCartRepository) TouchInteraction(ctx context.Context, cartID uuid.UUID, at time.Time) error {
	query := `UPDATE carts SET last_interaction_at = $2, updated_at = now() WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, cartID, at)
	if err != nil {
		return fmt.Errorf("failed to touch cart: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrCartNotFound
	}
	return nil
}

// MarkAbandoned flags every active cart idle since the cutoff in a single
// bulk update. NULL last_interaction_at never satisfies the comparison, so
// never-touched carts are exempt.
func (r *PostgresCartRepository) MarkAbandoned(ctx context.Context, idleSince time.Time) (int64, error) {
	query := `UPDATE carts SET abandoned = true, updated_at = now()
	          WHERE abandoned = false AND last_interaction_at <= $1`
	result, err := r.db.ExecContext(ctx, query, idleSince)
	if err != nil {
		return 0, fmt.Errorf("failed to mark abandoned carts: %w", err)
	}
	return result.RowsAffected()
}

func (r *PostgresCartRepository) ListRemovableAbandoned(ctx context.Context, abandonedSince time.Time) ([]uuid.UUID, error) {
	query := `SELECT id FROM carts WHERE abandoned = true AND last_interaction_at <= $1`
	rows, err := r.db.QueryContext(ctx, query, abandonedSince)
	if err != nil {
		return nil, fmt.Errorf("failed to list removable carts: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan cart id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteCart removes the cart; its items go with it via ON DELETE CASCADE.
func (r *PostgresCartRepository) DeleteCart(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM carts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrCartNotFound
	}
	return nil
}

var _ ProductRepository = (*PostgresProductRepository)(nil)
var _ CartRepository = (*PostgresCartRepository)(nil)
