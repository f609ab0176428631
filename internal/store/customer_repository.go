package store

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finflow/payments-service/internal/domain"
)

const customerEmailConstraint = "uq_customers_email"

// PostgresCustomerRepository is the PostgreSQL implementation of the CustomerRepository.
type PostgresCustomerRepository struct {
	db *pgxpool.Pool
}

// NewPostgresCustomerRepository creates a new instance of PostgresCustomerRepository.
func NewPostgresCustomerRepository(db *pgxpool.Pool) *PostgresCustomerRepository {
	return &PostgresCustomerRepository{db: db}
}

const customerColumns = `id, full_name, email, created_at, updated_at`

func scanCustomer(row pgx.Row) (*domain.Customer, error) {
	var c domain.Customer
	if err := row.Scan(&c.ID, &c.FullName, &c.Email, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// Insert persists a new customer profile. A violation of the email constraint
// maps to ErrDuplicateCustomerEmail; this also covers concurrent creates that
// slip past the application-level lookup.
func (r *PostgresCustomerRepository) Insert(ctx context.Context, customer *domain.Customer) (*domain.Customer, error) {
	query := `
        INSERT INTO customers (id, full_name, email)
        VALUES ($1, $2, $3)
        RETURNING ` + customerColumns
	inserted, err := scanCustomer(r.db.QueryRow(ctx, query, customer.ID, customer.FullName, customer.Email))
	if err != nil {
		if isUniqueViolation(err, customerEmailConstraint) {
			return nil, ErrDuplicateCustomerEmail
		}
		log.Printf("level=error component=customer_repository msg=\"insert failed\" email=%s err=%v", customer.Email, err)
		return nil, err
	}
	return inserted, nil
}

// FindByID retrieves a customer by id.
func (r *PostgresCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	customer, err := scanCustomer(r.db.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	return customer, nil
}

// FindByEmail retrieves a customer by normalized email.
func (r *PostgresCustomerRepository) FindByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	customer, err := scanCustomer(r.db.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE email = $1`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	return customer, nil
}

// UpdateProfile writes a new display name and bumps updated_at.
func (r *PostgresCustomerRepository) UpdateProfile(ctx context.Context, id uuid.UUID, fullName string, updatedAt time.Time) (*domain.Customer, error) {
	query := `
		UPDATE customers
		SET full_name = $2, updated_at = $3
		WHERE id = $1
		RETURNING ` + customerColumns
	customer, err := scanCustomer(r.db.QueryRow(ctx, query, id, fullName, updatedAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	return customer, nil
}
