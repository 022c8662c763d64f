package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/maheshrc27/postloom/internal/transfer"
	"github.com/maheshrc27/postloom/pkg/httpretry"
)

// linkedinStub fakes the assets and ugcPosts endpoints and records traffic.
type linkedinStub struct {
	mu            sync.Mutex
	registerCalls int
	putCalls      int
	publishCalls  int

	failRegisterAt int // 1-based call number to fail, 0 = never
	putStatus      int
	publishStatus  int

	lastPublish transfer.UGCPostRequest
}

func newLinkedinStub() *linkedinStub {
	return &linkedinStub{putStatus: http.StatusCreated, publishStatus: http.StatusCreated}
}

func (s *linkedinStub) server(t *testing.T) *httptest.Server {
	t.Helper()

	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		switch {
		case strings.HasPrefix(r.URL.Path, "/v2/assets"):
			s.registerCalls++
			if s.failRegisterAt != 0 && s.registerCalls == s.failRegisterAt {
				w.WriteHeader(http.StatusInternalServerError)
				fmt.Fprint(w, `{"message":"registration exploded"}`)
				return
			}
			resp := transfer.RegisterUploadResponse{}
			resp.Value.UploadMechanism.MediaUploadHTTPRequest.UploadURL = srv.URL + "/upload"
			resp.Value.Asset = fmt.Sprintf("urn:li:digitalmediaAsset:asset-%d", s.registerCalls)
			json.NewEncoder(w).Encode(resp)

		case r.URL.Path == "/upload" && r.Method == http.MethodPut:
			s.putCalls++
			w.WriteHeader(s.putStatus)

		case r.URL.Path == "/v2/ugcPosts" && r.Method == http.MethodPost:
			s.publishCalls++
			json.NewDecoder(r.Body).Decode(&s.lastPublish)
			w.WriteHeader(s.publishStatus)
			if s.publishStatus == http.StatusCreated {
				fmt.Fprint(w, `{"id":"urn:li:share:42"}`)
			} else {
				fmt.Fprint(w, `{"message":"not allowed"}`)
			}

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	return srv
}

func newTestLinkedinService(apiBase string) *linkedinService {
	return &linkedinService{
		apiBase:      apiBase,
		uploadClient: httpretry.New(3, time.Millisecond),
		apiClient:    httpretry.NewOneShot(),
	}
}

func testFiles(n int) []transfer.UploadFile {
	files := make([]transfer.UploadFile, 0, n)
	for i := 0; i < n; i++ {
		files = append(files, transfer.UploadFile{
			FileName:    fmt.Sprintf("photo-%d.jpg", i+1),
			ContentType: "image/jpeg",
			Content:     []byte{0xff, 0xd8, 0xff, byte(i)},
		})
	}
	return files
}

func TestUploadAllPreservesOrder(t *testing.T) {
	stub := newLinkedinStub()
	srv := stub.server(t)
	defer srv.Close()

	svc := newTestLinkedinService(srv.URL)
	assets, err := svc.UploadAll(context.Background(), "token", "urn:li:person:abc", testFiles(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(assets) != 3 {
		t.Fatalf("expected 3 assets, got %d", len(assets))
	}
	for i, asset := range assets {
		want := fmt.Sprintf("urn:li:digitalmediaAsset:asset-%d", i+1)
		if asset.Asset != want {
			t.Errorf("asset %d: expected %s, got %s", i, want, asset.Asset)
		}
		if asset.Status != "READY" {
			t.Errorf("asset %d: expected READY status, got %s", i, asset.Status)
		}
	}

	// one registration per file, no more
	if stub.registerCalls != 3 {
		t.Fatalf("expected 3 register calls, got %d", stub.registerCalls)
	}
	if stub.putCalls != 3 {
		t.Fatalf("expected 3 uploads, got %d", stub.putCalls)
	}
}

func TestUploadAllAbortsOnFailure(t *testing.T) {
	stub := newLinkedinStub()
	stub.failRegisterAt = 2
	srv := stub.server(t)
	defer srv.Close()

	svc := newTestLinkedinService(srv.URL)
	assets, err := svc.UploadAll(context.Background(), "token", "urn:li:person:abc", testFiles(3))
	if assets != nil {
		t.Fatal("expected no partial asset list")
	}

	var uploadErr *MediaUploadError
	if !errors.As(err, &uploadErr) {
		t.Fatalf("expected MediaUploadError, got %T: %v", err, err)
	}
	if uploadErr.Index != 1 {
		t.Fatalf("expected failure at index 1 (second image), got %d", uploadErr.Index)
	}
	if !strings.Contains(uploadErr.Error(), "image 2") {
		t.Fatalf("expected error to name image 2, got %q", uploadErr.Error())
	}

	// third file never registered, nothing published
	if stub.registerCalls != 2 {
		t.Fatalf("expected 2 register calls, got %d", stub.registerCalls)
	}
	if stub.publishCalls != 0 {
		t.Fatalf("expected no publish calls after a failed upload, got %d", stub.publishCalls)
	}
}

func TestUploadAllDoesNotRetryRejectedPut(t *testing.T) {
	stub := newLinkedinStub()
	stub.putStatus = http.StatusForbidden
	srv := stub.server(t)
	defer srv.Close()

	svc := newTestLinkedinService(srv.URL)
	_, err := svc.UploadAll(context.Background(), "token", "urn:li:person:abc", testFiles(1))

	var uploadErr *MediaUploadError
	if !errors.As(err, &uploadErr) {
		t.Fatalf("expected MediaUploadError, got %v", err)
	}
	if uploadErr.Index != 0 {
		t.Fatalf("expected index 0, got %d", uploadErr.Index)
	}
	if stub.putCalls != 1 {
		t.Fatalf("a rejected upload must not be retried, got %d attempts", stub.putCalls)
	}
}

func TestPublishWithImages(t *testing.T) {
	stub := newLinkedinStub()
	srv := stub.server(t)
	defer srv.Close()

	svc := newTestLinkedinService(srv.URL)
	assets := []transfer.UploadedAsset{
		{Asset: "urn:li:digitalmediaAsset:a1", Description: "one.jpg", Status: "READY"},
		{Asset: "urn:li:digitalmediaAsset:a2", Description: "two.jpg", Status: "READY"},
	}

	result, err := svc.Publish(context.Background(), "token", "urn:li:person:abc", "hello world", assets)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.PostID != "urn:li:share:42" {
		t.Fatalf("unexpected post id %q", result.PostID)
	}
	if result.MediaCount != 2 {
		t.Fatalf("expected media_count 2, got %d", result.MediaCount)
	}

	share := stub.lastPublish.SpecificContent.ShareContent
	if share.ShareMediaCategory != "IMAGE" {
		t.Fatalf("expected IMAGE category, got %s", share.ShareMediaCategory)
	}
	if len(share.Media) != 2 || share.Media[0].Media != "urn:li:digitalmediaAsset:a1" {
		t.Fatalf("expected media in input order, got %+v", share.Media)
	}
	if stub.lastPublish.LifecycleState != "PUBLISHED" {
		t.Fatalf("expected PUBLISHED lifecycle, got %s", stub.lastPublish.LifecycleState)
	}
	if stub.lastPublish.Visibility.MemberNetworkVisibility != "PUBLIC" {
		t.Fatalf("expected PUBLIC visibility")
	}
}

func TestPublishWithoutImages(t *testing.T) {
	stub := newLinkedinStub()
	srv := stub.server(t)
	defer srv.Close()

	svc := newTestLinkedinService(srv.URL)
	result, err := svc.Publish(context.Background(), "token", "urn:li:person:abc", "text only", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.MediaCount != 0 {
		t.Fatalf("expected media_count 0, got %d", result.MediaCount)
	}
	share := stub.lastPublish.SpecificContent.ShareContent
	if share.ShareMediaCategory != "NONE" {
		t.Fatalf("expected NONE category, got %s", share.ShareMediaCategory)
	}
	if len(share.Media) != 0 {
		t.Fatalf("expected empty media list, got %+v", share.Media)
	}
}

func TestPublishRejectionIsSoftFailure(t *testing.T) {
	stub := newLinkedinStub()
	stub.publishStatus = http.StatusUnprocessableEntity
	srv := stub.server(t)
	defer srv.Close()

	svc := newTestLinkedinService(srv.URL)
	result, err := svc.Publish(context.Background(), "token", "urn:li:person:abc", "nope", nil)
	if err != nil {
		t.Fatalf("a platform rejection must not be a raised fault, got %v", err)
	}

	if result.Success {
		t.Fatal("expected soft failure")
	}
	if !strings.Contains(result.ErrorDetail, "not allowed") {
		t.Fatalf("expected platform detail in result, got %q", result.ErrorDetail)
	}
	if stub.publishCalls != 1 {
		t.Fatalf("publish must be submitted exactly once, got %d", stub.publishCalls)
	}
}
