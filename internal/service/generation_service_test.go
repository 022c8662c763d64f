package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	config "github.com/maheshrc27/postloom/configs"
	"github.com/maheshrc27/postloom/internal/models"
	"github.com/maheshrc27/postloom/internal/repository"
)

// modelBackend fakes the chat completion endpoint and counts invocations.
func modelBackend(t *testing.T, content string, status int, calls *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			fmt.Fprint(w, `{"error":{"message":"backend unavailable"}}`)
			return
		}
		fmt.Fprintf(w, `{"choices":[{"message":{"role":"assistant","content":%q}}]}`, content)
	}))
}

func newTestGenerationService(backendURL string, repo repository.PostRepository) GenerationService {
	cfg := config.Config{
		OpenAIAPIKey:  "test-key",
		OpenAIBaseURL: backendURL + "/v1",
		OpenAIModel:   "gpt-4o-mini",
	}
	return NewGenerationService(cfg, repo)
}

const insertGeneratedPost = "INSERT INTO generated_posts"

func TestGenerateStoresAndReturnsPost(t *testing.T) {
	var calls int32
	srv := modelBackend(t, "First line.\n\nSecond line.", http.StatusOK, &calls)
	defer srv.Close()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectQuery(insertGeneratedPost).
		WithArgs(int64(3), "First line.\n\nSecond line.", "our launch", models.LengthShort, "casual").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(21))

	svc := newTestGenerationService(srv.URL, repository.NewPostRepository(db))
	result, err := svc.Generate(context.Background(), 3, "our launch", models.LengthShort, "casual")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.PostID != 21 {
		t.Fatalf("expected post id 21, got %d", result.PostID)
	}
	if result.GeneratedText != "First line.\n\nSecond line." {
		t.Fatalf("unexpected text %q", result.GeneratedText)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGenerateStripsQuotes(t *testing.T) {
	var calls int32
	srv := modelBackend(t, `"Quoted" and “curly” text`, http.StatusOK, &calls)
	defer srv.Close()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectQuery(insertGeneratedPost).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))

	svc := newTestGenerationService(srv.URL, repository.NewPostRepository(db))
	result, err := svc.Generate(context.Background(), 1, "topic", models.LengthMedium, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.GeneratedText != "Quoted and curly text" {
		t.Fatalf("expected quotes stripped, got %q", result.GeneratedText)
	}
}

func TestGenerateRejectsUnknownLength(t *testing.T) {
	var calls int32
	srv := modelBackend(t, "unused", http.StatusOK, &calls)
	defer srv.Close()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	svc := newTestGenerationService(srv.URL, repository.NewPostRepository(db))
	_, err = svc.Generate(context.Background(), 1, "topic", "gigantic", "")

	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
	if genErr.Kind != GenerationCallerError {
		t.Fatalf("expected caller error kind, got %d", genErr.Kind)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Fatalf("invalid input must be rejected before the model call, got %d calls", calls)
	}
	// nothing was expected of the store either
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected store traffic: %v", err)
	}
}

func TestGenerateBackendFailure(t *testing.T) {
	var calls int32
	srv := modelBackend(t, "", http.StatusServiceUnavailable, &calls)
	defer srv.Close()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	svc := newTestGenerationService(srv.URL, repository.NewPostRepository(db))
	_, err = svc.Generate(context.Background(), 1, "topic", models.LengthLong, "")

	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
	if genErr.Kind != GenerationBackendError {
		t.Fatalf("expected backend error kind, got %d", genErr.Kind)
	}
	// a failed generation must not reach the store
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected store traffic: %v", err)
	}
}

func TestListReturnsUserPosts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT id, user_id, generated_text").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "generated_text", "original_text", "length", "note",
			"posted", "linkedin_post_id", "created_at", "updated_at",
		}).
			AddRow(1, 3, "first", "t1", models.LengthShort, "", false, nil, time.Now(), time.Now()).
			AddRow(2, 3, "second", "t2", models.LengthLong, "", true, "urn:li:share:9", time.Now(), time.Now()))

	svc := newTestGenerationService("http://model.invalid", repository.NewPostRepository(db))
	posts, err := svc.List(context.Background(), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(posts) != 2 || posts[0].GeneratedText != "first" || !posts[1].Posted {
		t.Fatalf("unexpected posts %+v", posts)
	}
}

func TestListStoreFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT id, user_id, generated_text").
		WillReturnError(fmt.Errorf("connection reset"))

	svc := newTestGenerationService("http://model.invalid", repository.NewPostRepository(db))
	_, err = svc.List(context.Background(), 3)

	var persistErr *PersistenceError
	if !errors.As(err, &persistErr) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
}

func TestGenerateStoreFailureSurfaces(t *testing.T) {
	var calls int32
	srv := modelBackend(t, "some text", http.StatusOK, &calls)
	defer srv.Close()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectQuery(insertGeneratedPost).
		WillReturnError(fmt.Errorf("disk full"))

	svc := newTestGenerationService(srv.URL, repository.NewPostRepository(db))
	_, err = svc.Generate(context.Background(), 1, "topic", models.LengthShort, "note")

	var persistErr *PersistenceError
	if !errors.As(err, &persistErr) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	if persistErr.Op != "generated post insert" {
		t.Fatalf("unexpected op %q", persistErr.Op)
	}
}
