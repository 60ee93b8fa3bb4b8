package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/textloop/textloop-backend/internal/model"
)

type BusinessRepositoryInterface interface {
	Create(ctx context.Context, b *model.Business) error
	GetByID(ctx context.Context, id int) (*model.Business, error)
	GetByPhone(ctx context.Context, phone string) (*model.Business, error)
}

type BusinessRepository struct {
	DB *sql.DB
}

func (r *BusinessRepository) Create(ctx context.Context, b *model.Business) error {
	b.CreatedAt = time.Now().UTC()
	if b.Timezone == "" {
		b.Timezone = "UTC"
	}
	query := `
        INSERT INTO businesses (name, phone, timezone, voice_profile, created_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id
    `
	return r.DB.QueryRowContext(ctx, query, b.Name, b.Phone, b.Timezone, b.VoiceProfile, b.CreatedAt).Scan(&b.ID)
}

// GetByID fetches a business, nil when not found
func (r *BusinessRepository) GetByID(ctx context.Context, id int) (*model.Business, error) {
	query := `
        SELECT id, name, phone, timezone, voice_profile, created_at, updated_at
        FROM businesses WHERE id = $1
    `
	var b model.Business
	err := r.DB.QueryRowContext(ctx, query, id).
		Scan(&b.ID, &b.Name, &b.Phone, &b.Timezone, &b.VoiceProfile, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

// GetByPhone resolves the business owning a sender number (inbound webhook path)
func (r *BusinessRepository) GetByPhone(ctx context.Context, phone string) (*model.Business, error) {
	query := `
        SELECT id, name, phone, timezone, voice_profile, created_at, updated_at
        FROM businesses WHERE phone = $1
    `
	var b model.Business
	err := r.DB.QueryRowContext(ctx, query, phone).
		Scan(&b.ID, &b.Name, &b.Phone, &b.Timezone, &b.VoiceProfile, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

var _ BusinessRepositoryInterface = (*BusinessRepository)(nil)
