package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/textloop/textloop-backend/internal/model"
)

// CustomerRepositoryInterface defines methods used by services
type CustomerRepositoryInterface interface {
	GetByID(ctx context.Context, id int) (*model.Customer, error)
	ListByBusiness(ctx context.Context, businessID int) ([]model.Customer, error)
	CreateBatch(ctx context.Context, customers []model.Customer) ([]model.Customer, error)
	GetByPhone(ctx context.Context, businessID int, phone string) (*model.Customer, error)
	SetSubscribed(ctx context.Context, id int, subscribed bool) error
}

// CustomerRepository is the concrete implementation
type CustomerRepository struct {
	DB *sql.DB
}

// GetByID fetches a customer by ID, nil when not found
func (r *CustomerRepository) GetByID(ctx context.Context, id int) (*model.Customer, error) {
	query := `
        SELECT id, business_id, phone, first_name, last_name, timezone, subscribed, opted_out_at, created_at
        FROM customers
        WHERE id = $1
    `
	row := r.DB.QueryRowContext(ctx, query, id)

	var c model.Customer
	if err := row.Scan(&c.ID, &c.BusinessID, &c.Phone, &c.FirstName, &c.LastName, &c.Timezone, &c.Subscribed, &c.OptedOutAt, &c.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // not found
		}
		return nil, err
	}
	return &c, nil
}

// ListByBusiness fetches every customer belonging to a business
func (r *CustomerRepository) ListByBusiness(ctx context.Context, businessID int) ([]model.Customer, error) {
	query := `
        SELECT id, business_id, phone, first_name, last_name, timezone, subscribed, opted_out_at, created_at
        FROM customers
        WHERE business_id = $1
        ORDER BY id
    `
	rows, err := r.DB.QueryContext(ctx, query, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := []model.Customer{}
	for rows.Next() {
		var c model.Customer
		if err := rows.Scan(&c.ID, &c.BusinessID, &c.Phone, &c.FirstName, &c.LastName, &c.Timezone, &c.Subscribed, &c.OptedOutAt, &c.CreatedAt); err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

// CreateBatch inserts an imported batch of customers in one transaction.
// Duplicate phones within a business are skipped via ON CONFLICT.
func (r *CustomerRepository) CreateBatch(ctx context.Context, customers []model.Customer) ([]model.Customer, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	query := `
        INSERT INTO customers (business_id, phone, first_name, last_name, timezone, subscribed, created_at)
        VALUES ($1, $2, $3, $4, $5, TRUE, $6)
        ON CONFLICT (business_id, phone) DO NOTHING
        RETURNING id, created_at
    `

	created := []model.Customer{}
	now := time.Now().UTC()
	for _, c := range customers {
		c.Subscribed = true
		err := tx.QueryRowContext(ctx, query, c.BusinessID, c.Phone, c.FirstName, c.LastName, c.Timezone, now).
			Scan(&c.ID, &c.CreatedAt)
		if err == sql.ErrNoRows {
			continue // already imported
		}
		if err != nil {
			return nil, err
		}
		created = append(created, c)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return created, nil
}

// GetByPhone looks a customer up by phone within a business, nil when not found
func (r *CustomerRepository) GetByPhone(ctx context.Context, businessID int, phone string) (*model.Customer, error) {
	query := `
        SELECT id, business_id, phone, first_name, last_name, timezone, subscribed, opted_out_at, created_at
        FROM customers
        WHERE business_id = $1 AND phone = $2
    `
	var c model.Customer
	err := r.DB.QueryRowContext(ctx, query, businessID, phone).
		Scan(&c.ID, &c.BusinessID, &c.Phone, &c.FirstName, &c.LastName, &c.Timezone, &c.Subscribed, &c.OptedOutAt, &c.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// SetSubscribed flips the consent flag, stamping opted_out_at on opt-out
func (r *CustomerRepository) SetSubscribed(ctx context.Context, id int, subscribed bool) error {
	query := `
        UPDATE customers
        SET subscribed = $1,
            opted_out_at = CASE WHEN $1 THEN NULL ELSE NOW() END
        WHERE id = $2
    `
	_, err := r.DB.ExecContext(ctx, query, subscribed, id)
	return err
}

var _ CustomerRepositoryInterface = (*CustomerRepository)(nil)
