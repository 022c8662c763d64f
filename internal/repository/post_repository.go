package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/maheshrc27/postloom/internal/models"
)

type PostRepository interface {
	GetByID(ctx context.Context, id int64) (*models.GeneratedPost, error)
	Create(ctx context.Context, tx *sql.Tx, post *models.GeneratedPost) (int64, error)
	GetByUserID(ctx context.Context, userID int64) ([]*models.GeneratedPost, error)
	CheckByUserID(ctx context.Context, postID, userID int64) (bool, error)
	MarkPosted(ctx context.Context, postID int64, linkedinPostID string) error
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, tx *sql.Tx, post *models.GeneratedPost) (int64, error) {
	query := `
		INSERT INTO generated_posts (user_id, generated_text, original_text, length, note)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	var id int64
	var err error

	if tx != nil {
		err = tx.QueryRowContext(ctx, query, post.UserID, post.GeneratedText, post.OriginalText, post.Length, post.Note).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, post.UserID, post.GeneratedText, post.OriginalText, post.Length, post.Note).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *postRepository) GetByID(ctx context.Context, id int64) (*models.GeneratedPost, error) {
	query := `SELECT id, user_id, generated_text, original_text, length, note, posted, linkedin_post_id, created_at, updated_at FROM generated_posts WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var post models.GeneratedPost
	err := row.Scan(&post.ID, &post.UserID, &post.GeneratedText, &post.OriginalText, &post.Length, &post.Note, &post.Posted, &post.LinkedinPostID, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &post, nil
}

func (r *postRepository) GetByUserID(ctx context.Context, userID int64) ([]*models.GeneratedPost, error) {
	query := `SELECT id, user_id, generated_text, original_text, length, note, posted, linkedin_post_id, created_at, updated_at FROM generated_posts WHERE user_id = $1`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.GeneratedPost
	for rows.Next() {
		var post models.GeneratedPost
		err := rows.Scan(&post.ID, &post.UserID, &post.GeneratedText, &post.OriginalText, &post.Length, &post.Note, &post.Posted, &post.LinkedinPostID, &post.CreatedAt, &post.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, &post)
	}
	return posts, nil
}

func (r *postRepository) CheckByUserID(ctx context.Context, postID, userID int64) (bool, error) {
	query := "SELECT 1 FROM generated_posts WHERE id = $1 AND user_id = $2"

	var result int
	err := r.db.QueryRowContext(ctx, query, postID, userID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}

// MarkPosted sets posted and the platform post id in one statement so a posted
// row can never be missing its linkedin_post_id.
func (r *postRepository) MarkPosted(ctx context.Context, postID int64, linkedinPostID string) error {
	query := `
		UPDATE generated_posts
		SET posted = true,
			linkedin_post_id = $1,
			updated_at = $2
		WHERE id = $3
	`
	_, err := r.db.ExecContext(ctx, query, linkedinPostID, time.Now(), postID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
