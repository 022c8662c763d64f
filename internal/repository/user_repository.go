package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/maheshrc27/postloom/internal/models"
)

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*models.User, bool, error)
	GetByLinkedinID(ctx context.Context, linkedinID string) (*models.User, bool, error)
	Create(ctx context.Context, tx *sql.Tx, user *models.User) (int64, error)
	UpdateByLinkedinID(ctx context.Context, user *models.User) error
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, bool, error) {
	var user models.User
	query := "SELECT id, linkedin_id, name, email, access_token FROM users WHERE id = $1"
	err := r.db.QueryRowContext(ctx, query, id).Scan(&user.ID, &user.LinkedinID, &user.Name, &user.Email, &user.AccessToken)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		slog.Info(err.Error())
		return nil, false, err
	}
	return &user, true, nil
}

func (r *userRepository) GetByLinkedinID(ctx context.Context, linkedinID string) (*models.User, bool, error) {
	var user models.User
	query := "SELECT id, linkedin_id, name, email, access_token FROM users WHERE linkedin_id = $1"
	err := r.db.QueryRowContext(ctx, query, linkedinID).Scan(&user.ID, &user.LinkedinID, &user.Name, &user.Email, &user.AccessToken)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		slog.Info(err.Error())
		return nil, false, err
	}
	return &user, true, nil
}

func (r *userRepository) Create(ctx context.Context, tx *sql.Tx, user *models.User) (int64, error) {
	query := "INSERT INTO users (linkedin_id, name, email, access_token) VALUES ($1, $2, $3, $4) RETURNING id"

	var err error
	var id int64

	if tx != nil {
		err = tx.QueryRowContext(ctx, query, user.LinkedinID, user.Name, user.Email, user.AccessToken).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, user.LinkedinID, user.Name, user.Email, user.AccessToken).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

// UpdateByLinkedinID refreshes name, email and token for a returning user.
// linkedin_id is the stable key; the internal id never changes.
func (r *userRepository) UpdateByLinkedinID(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET name = $1,
			email = $2,
			access_token = $3,
			updated_at = $4
		WHERE linkedin_id = $5
	`
	_, err := r.db.ExecContext(ctx, query, user.Name, user.Email, user.AccessToken, time.Now(), user.LinkedinID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}
