package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/maheshrc27/postloom/internal/transfer"
	"github.com/maheshrc27/postloom/pkg/httpretry"
)

const (
	linkedinAPIBase = "https://api.linkedin.com"

	feedshareRecipe = "urn:li:digitalmediaRecipe:feedshare-image"
	ugcIdentifier   = "urn:li:userGeneratedContent"

	restliHeader  = "X-Restli-Protocol-Version"
	restliVersion = "2.0.0"
)

type LinkedinService interface {
	UploadAll(ctx context.Context, accessToken, personURN string, files []transfer.UploadFile) ([]transfer.UploadedAsset, error)
	Publish(ctx context.Context, accessToken, personURN, text string, assets []transfer.UploadedAsset) (*transfer.PublishResult, error)
}

type linkedinService struct {
	apiBase string
	// uploadClient retries PUTs on transport failures; apiClient makes exactly
	// one attempt so registration and publish calls are never duplicated.
	uploadClient *http.Client
	apiClient    *http.Client
}

func NewLinkedinService() LinkedinService {
	return &linkedinService{
		apiBase:      linkedinAPIBase,
		uploadClient: httpretry.New(3, time.Second),
		apiClient:    httpretry.NewOneShot(),
	}
}

// UploadAll registers and uploads each image in order. The first failure
// aborts the remaining files and no partial asset list is returned. Output
// order matches input order; downstream publish uses the list verbatim.
func (s *linkedinService) UploadAll(ctx context.Context, accessToken, personURN string, files []transfer.UploadFile) ([]transfer.UploadedAsset, error) {
	assets := make([]transfer.UploadedAsset, 0, len(files))

	for i, file := range files {
		uploadURL, assetURN, err := s.registerUpload(ctx, accessToken, personURN)
		if err != nil {
			return nil, &MediaUploadError{Index: i, Detail: err.Error(), Cause: err}
		}

		if err := s.putFile(ctx, accessToken, uploadURL, file.Content); err != nil {
			return nil, &MediaUploadError{Index: i, Detail: err.Error(), Cause: err}
		}

		description := file.FileName
		if description == "" {
			description = fmt.Sprintf("Image %d", i+1)
		}

		assets = append(assets, transfer.UploadedAsset{
			Asset:       assetURN,
			Description: description,
			Status:      "READY",
		})
	}

	return assets, nil
}

func (s *linkedinService) registerUpload(ctx context.Context, accessToken, personURN string) (uploadURL, assetURN string, err error) {
	payload := transfer.RegisterUploadRequest{
		RegisterUploadRequest: transfer.RegisterUploadBody{
			Owner:   personURN,
			Recipes: []string{feedshareRecipe},
			ServiceRelationships: []transfer.ServiceRelationship{
				{RelationshipType: "OWNER", Identifier: ugcIdentifier},
			},
			SupportedUploadMechanism: []string{"SYNCHRONOUS_UPLOAD"},
		},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", "", err
	}

	registerURL := s.apiBase + "/v2/assets?action=registerUpload"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, registerURL, bytes.NewReader(jsonData))
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(restliHeader, restliVersion)

	resp, err := s.apiClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return "", "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", "", fmt.Errorf("registration returned status %d: %s", resp.StatusCode, string(body))
	}

	var registered transfer.RegisterUploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&registered); err != nil {
		slog.Info(err.Error())
		return "", "", fmt.Errorf("failed to decode registration response: %w", err)
	}

	uploadURL = registered.Value.UploadMechanism.MediaUploadHTTPRequest.UploadURL
	assetURN = registered.Value.Asset
	if uploadURL == "" || assetURN == "" {
		return "", "", fmt.Errorf("registration response missing upload URL or asset reference")
	}

	return uploadURL, assetURN, nil
}

// putFile sends the raw bytes to the platform-supplied upload URL. Transport
// failures are retried by the client; a non-201 status is terminal.
func (s *linkedinService) putFile(ctx context.Context, accessToken, uploadURL string, content []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(content))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.uploadClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("upload returned status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

// Publish submits the assembled share exactly once. A response with a
// non-created status is a soft failure carried in the result; only transport
// errors are returned as errors.
func (s *linkedinService) Publish(ctx context.Context, accessToken, personURN, text string, assets []transfer.UploadedAsset) (*transfer.PublishResult, error) {
	mediaCategory := "NONE"
	media := make([]transfer.ShareMedia, 0, len(assets))
	if len(assets) > 0 {
		mediaCategory = "IMAGE"
		for _, asset := range assets {
			media = append(media, transfer.ShareMedia{
				Status:      asset.Status,
				Description: transfer.TextAttr{Text: asset.Description},
				Media:       asset.Asset,
				Title:       transfer.TextAttr{Text: asset.Description},
			})
		}
	}

	payload := transfer.UGCPostRequest{
		Author:         personURN,
		LifecycleState: "PUBLISHED",
		SpecificContent: transfer.SpecificContent{
			ShareContent: transfer.ShareContent{
				ShareCommentary:    transfer.TextAttr{Text: text},
				ShareMediaCategory: mediaCategory,
				Media:              media,
			},
		},
		Visibility: transfer.Visibility{MemberNetworkVisibility: "PUBLIC"},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiBase+"/v2/ugcPosts", bytes.NewReader(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(restliHeader, restliVersion)

	resp, err := s.apiClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		detail := string(body)
		if detail == "" {
			detail = fmt.Sprintf("status %d", resp.StatusCode)
		}
		slog.Info("post rejected by platform", "status", resp.StatusCode)
		return &transfer.PublishResult{
			Success:     false,
			ErrorDetail: detail,
			MediaCount:  len(media),
		}, nil
	}

	var created transfer.UGCPostResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return &transfer.PublishResult{
		Success:    true,
		PostID:     created.ID,
		MediaCount: len(media),
	}, nil
}
