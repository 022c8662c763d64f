package service

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"strings"
	"time"

	"github.com/h2non/filetype"
	config "github.com/maheshrc27/postloom/configs"
	"github.com/maheshrc27/postloom/internal/models"
	"github.com/maheshrc27/postloom/internal/repository"
	"github.com/maheshrc27/postloom/internal/transfer"
	"github.com/maheshrc27/postloom/pkg/utils"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	maxImageSize = 10 * 1024 * 1024 // 10 MiB per file

	scheduledTimeLayout = "2006-01-02T15:04"
)

type PublishService interface {
	Publish(ctx context.Context, userID, postID int64, text string, files []*multipart.FileHeader) (*transfer.PublishResult, error)
	Schedule(ctx context.Context, userID, postID int64, scheduledTime string, files []*multipart.FileHeader) (time.Duration, error)
	PublishArchived(ctx context.Context, userID, postID int64, text string) (*transfer.PublishResult, error)
}

type publishService struct {
	cfg config.Config
	db  *sql.DB
	u   repository.UserRepository
	p   repository.PostRepository
	ma  repository.MediaAssetRepository
	pm  repository.PostMediaRepository
	r2  *R2Service
	li  LinkedinService
}

func NewPublishService(
	cfg config.Config,
	db *sql.DB,
	u repository.UserRepository,
	p repository.PostRepository,
	ma repository.MediaAssetRepository,
	pm repository.PostMediaRepository,
	r2 *R2Service,
	li LinkedinService) PublishService {
	return &publishService{
		cfg: cfg,
		db:  db,
		u:   u,
		p:   p,
		ma:  ma,
		pm:  pm,
		r2:  r2,
		li:  li,
	}
}

// Publish pushes a generated post to LinkedIn right away. Files are validated
// before any network call. On a successful publish the stored post transitions
// to posted exactly once, and the images are archived best-effort.
func (s *publishService) Publish(ctx context.Context, userID, postID int64, text string, files []*multipart.FileHeader) (*transfer.PublishResult, error) {
	post, user, err := s.loadPostAndUser(ctx, userID, postID)
	if err != nil {
		return nil, err
	}

	uploads, err := validateFiles(files)
	if err != nil {
		return nil, err
	}

	if text == "" {
		text = post.GeneratedText
	}

	result, err := s.publishFiles(ctx, user, text, uploads)
	if err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, &PublishRejected{Detail: result.ErrorDetail}
	}

	if err := s.p.MarkPosted(ctx, post.ID, result.PostID); err != nil {
		return nil, &PersistenceError{Op: "mark posted", Cause: err}
	}
	s.archive(ctx, user.ID, post.ID, uploads)

	return result, nil
}

// Schedule archives the image bytes and defers the publish. The override text
// travels with the task payload so the stored post is only ever mutated when
// it is actually published.
func (s *publishService) Schedule(ctx context.Context, userID, postID int64, scheduledTime string, files []*multipart.FileHeader) (time.Duration, error) {
	if _, _, err := s.loadPostAndUser(ctx, userID, postID); err != nil {
		return 0, err
	}

	uploads, err := validateFiles(files)
	if err != nil {
		return 0, err
	}

	fireAt, err := time.Parse(scheduledTimeLayout, scheduledTime)
	if err != nil {
		return 0, &ValidationError{Detail: fmt.Sprintf("invalid scheduled time format: %v", err)}
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, &PersistenceError{Op: "begin schedule transaction", Cause: err}
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for i, upload := range uploads {
		key, nerr := gonanoid.New()
		if nerr != nil {
			err = nerr
			return 0, err
		}

		if err = s.r2.Upload(ctx, key, upload.Content, upload.ContentType); err != nil {
			return 0, fmt.Errorf("error archiving file %d: %w", i+1, err)
		}

		assetID, aerr := s.ma.Create(ctx, tx, &models.MediaAsset{
			UserID:    userID,
			FileName:  upload.FileName,
			FileType:  upload.ContentType,
			FileSize:  int64(len(upload.Content)),
			ObjectKey: key,
		})
		if aerr != nil {
			err = &PersistenceError{Op: "media asset insert", Cause: aerr}
			return 0, err
		}

		if err = s.pm.Create(ctx, tx, &models.PostMedia{
			PostID:       postID,
			AssetID:      assetID,
			DisplayOrder: i,
		}); err != nil {
			err = &PersistenceError{Op: "post media insert", Cause: err}
			return 0, err
		}
	}

	if err = tx.Commit(); err != nil {
		err = &PersistenceError{Op: "commit schedule transaction", Cause: err}
		return 0, err
	}

	delay := time.Until(fireAt)
	if delay < 0 {
		delay = 0
	}

	return delay, nil
}

// PublishArchived runs the deferred half of a scheduled publish: pull the
// archived bytes back in display order and push the post out.
func (s *publishService) PublishArchived(ctx context.Context, userID, postID int64, text string) (*transfer.PublishResult, error) {
	post, user, err := s.loadPostAndUser(ctx, userID, postID)
	if err != nil {
		return nil, err
	}

	postMedias, err := s.pm.ListByPostID(ctx, postID)
	if err != nil {
		return nil, &PersistenceError{Op: "post media lookup", Cause: err}
	}

	uploads := make([]transfer.UploadFile, 0, len(postMedias))
	for _, pmRow := range postMedias {
		asset, err := s.ma.GetByID(ctx, pmRow.AssetID)
		if err != nil {
			return nil, &PersistenceError{Op: "media asset lookup", Cause: err}
		}
		if asset == nil {
			return nil, &NotFoundError{What: "archived media asset"}
		}

		content, err := s.r2.Download(ctx, asset.ObjectKey)
		if err != nil {
			return nil, fmt.Errorf("error restoring archived file: %w", err)
		}

		uploads = append(uploads, transfer.UploadFile{
			FileName:    asset.FileName,
			ContentType: asset.FileType,
			Content:     content,
		})
	}

	if text == "" {
		text = post.GeneratedText
	}

	result, err := s.publishFiles(ctx, user, text, uploads)
	if err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, &PublishRejected{Detail: result.ErrorDetail}
	}

	if err := s.p.MarkPosted(ctx, post.ID, result.PostID); err != nil {
		return nil, &PersistenceError{Op: "mark posted", Cause: err}
	}

	return result, nil
}

func (s *publishService) loadPostAndUser(ctx context.Context, userID, postID int64) (*models.GeneratedPost, *models.User, error) {
	isOwner, err := s.p.CheckByUserID(ctx, postID, userID)
	if err != nil {
		return nil, nil, &PersistenceError{Op: "post ownership check", Cause: err}
	}
	if !isOwner {
		return nil, nil, &NotFoundError{What: "post"}
	}

	post, err := s.p.GetByID(ctx, postID)
	if err != nil {
		return nil, nil, &PersistenceError{Op: "post lookup", Cause: err}
	}
	if post == nil {
		return nil, nil, &NotFoundError{What: "post"}
	}

	user, isExist, err := s.u.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, &PersistenceError{Op: "user lookup", Cause: err}
	}
	if !isExist {
		return nil, nil, &NotFoundError{What: "user"}
	}

	return post, user, nil
}

func (s *publishService) publishFiles(ctx context.Context, user *models.User, text string, uploads []transfer.UploadFile) (*transfer.PublishResult, error) {
	accessToken, err := utils.Decrypt(user.AccessToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return nil, err
	}

	personURN := PersonURN(user.LinkedinID)

	assets, err := s.li.UploadAll(ctx, accessToken, personURN, uploads)
	if err != nil {
		return nil, err
	}

	return s.li.Publish(ctx, accessToken, personURN, text, assets)
}

// archive copies published images into the R2 media library. Failures are
// logged and never fail the publish that already happened.
func (s *publishService) archive(ctx context.Context, userID, postID int64, uploads []transfer.UploadFile) {
	for i, upload := range uploads {
		key, err := gonanoid.New()
		if err != nil {
			slog.Info("media archive skipped", "error", err.Error())
			return
		}

		if err := s.r2.Upload(ctx, key, upload.Content, upload.ContentType); err != nil {
			slog.Info("media archive upload failed", "error", err.Error())
			continue
		}

		assetID, err := s.ma.Create(ctx, nil, &models.MediaAsset{
			UserID:    userID,
			FileName:  upload.FileName,
			FileType:  upload.ContentType,
			FileSize:  int64(len(upload.Content)),
			ObjectKey: key,
		})
		if err != nil {
			slog.Info("media archive record failed", "error", err.Error())
			continue
		}

		if err := s.pm.Create(ctx, nil, &models.PostMedia{PostID: postID, AssetID: assetID, DisplayOrder: i}); err != nil {
			slog.Info("media archive link failed", "error", err.Error())
		}
	}
}

// validateFiles enforces the upload boundary before anything touches the
// network: declared image content type, sniffed image bytes, 10 MiB cap.
func validateFiles(files []*multipart.FileHeader) ([]transfer.UploadFile, error) {
	uploads := make([]transfer.UploadFile, 0, len(files))

	for _, file := range files {
		contentType := file.Header.Get("Content-Type")
		if !strings.HasPrefix(contentType, "image/") {
			return nil, &ValidationError{Detail: fmt.Sprintf("file %q is not an image", file.Filename)}
		}

		if file.Size > maxImageSize {
			return nil, &ValidationError{Detail: fmt.Sprintf("file %q is too large (max 10MB)", file.Filename)}
		}

		fileContent, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("error opening file: %w", err)
		}

		content, err := io.ReadAll(fileContent)
		fileContent.Close()
		if err != nil {
			return nil, fmt.Errorf("error reading file content: %w", err)
		}

		if len(content) > maxImageSize {
			return nil, &ValidationError{Detail: fmt.Sprintf("file %q is too large (max 10MB)", file.Filename)}
		}

		if !filetype.IsImage(content) {
			return nil, &ValidationError{Detail: fmt.Sprintf("file %q is not an image", file.Filename)}
		}

		uploads = append(uploads, transfer.UploadFile{
			FileName:    file.Filename,
			ContentType: contentType,
			Content:     content,
		})
	}

	return uploads, nil
}
