package recipients

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists saved recipients.
type Repository interface {
	Create(ctx context.Context, r Recipient) error
	ListByUser(ctx context.Context, userID string) ([]Recipient, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed recipient repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, rec Recipient) error {
	id, err := uuid.Parse(rec.ID)
	if err != nil {
		return fmt.Errorf("invalid recipient id: %w", err)
	}
	userID, err := uuid.Parse(rec.UserID)
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}
	_, err = r.db.Exec(ctx, `
        INSERT INTO recipients (id, user_id, first_name, last_name, country, bank_name, account_number, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id, userID, rec.FirstName, rec.LastName, rec.Country, rec.BankName, rec.AccountNumber, rec.CreatedAt)
	return err
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]Recipient, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, `
        SELECT id, user_id, first_name, last_name, country, bank_name, account_number, created_at
        FROM recipients
        WHERE user_id = $1
        ORDER BY created_at`, uid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Recipient
	for rows.Next() {
		var (
			rec       Recipient
			id, owner uuid.UUID
		)
		if err := rows.Scan(&id, &owner, &rec.FirstName, &rec.LastName, &rec.Country, &rec.BankName, &rec.AccountNumber, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan recipient: %w", err)
		}
		rec.ID, rec.UserID = id.String(), owner.String()
		out = append(out, rec)
	}
	return out, rows.Err()
}
