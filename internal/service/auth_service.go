package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	config "github.com/maheshrc27/postloom/configs"
	"github.com/maheshrc27/postloom/internal/models"
	"github.com/maheshrc27/postloom/internal/repository"
	"github.com/maheshrc27/postloom/internal/transfer"
	"github.com/maheshrc27/postloom/pkg/httpretry"
	"github.com/maheshrc27/postloom/pkg/utils"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/linkedin"
)

const linkedinUserInfoURL = "https://api.linkedin.com/v2/userinfo"

var linkedinScopes = []string{"openid", "profile", "email", "w_member_social"}

type AuthService interface {
	AuthURL(state string) string
	LoginCallback(ctx context.Context, code string) (*transfer.IdentityInfo, int64, error)
}

type authService struct {
	cfg         config.Config
	u           repository.UserRepository
	client      *http.Client
	endpoint    oauth2.Endpoint
	userInfoURL string
}

func NewAuthService(cfg config.Config, u repository.UserRepository) AuthService {
	return &authService{
		cfg:         cfg,
		u:           u,
		client:      httpretry.New(3, 0),
		endpoint:    linkedin.Endpoint,
		userInfoURL: linkedinUserInfoURL,
	}
}

func (s *authService) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.cfg.LinkedinClientID,
		ClientSecret: s.cfg.LinkedinClientSecret,
		RedirectURL:  s.cfg.LinkedinRedirectURI,
		Scopes:       linkedinScopes,
		Endpoint:     s.endpoint,
	}
}

func (s *authService) AuthURL(state string) string {
	return s.oauthConfig().AuthCodeURL(state)
}

// LoginCallback walks the linear OAuth steps: exchange the authorization code,
// fetch the profile, upsert the identity. The upsert is best-effort; a store
// failure is logged and the identity is still returned (userID 0 in that
// case). The access token never leaves the service.
func (s *authService) LoginCallback(ctx context.Context, code string) (*transfer.IdentityInfo, int64, error) {
	if code == "" {
		err := errors.New("authorization code is empty")
		slog.Info(err.Error())
		return nil, 0, &TokenExchangeError{Detail: err.Error()}
	}

	oauth2Config := s.oauthConfig()
	if oauth2Config.ClientID == "" || oauth2Config.ClientSecret == "" || oauth2Config.RedirectURL == "" {
		err := errors.New("OAuth2 configuration is incomplete")
		slog.Info(err.Error())
		return nil, 0, &TokenExchangeError{Detail: err.Error()}
	}

	// The exchange goes through the retrying client so transient transport
	// failures are absorbed before surfacing.
	exchangeCtx := context.WithValue(ctx, oauth2.HTTPClient, s.client)
	token, err := oauth2Config.Exchange(exchangeCtx, code)
	if err != nil {
		slog.Info(err.Error())
		return nil, 0, &TokenExchangeError{Detail: err.Error()}
	}
	if token.AccessToken == "" {
		return nil, 0, &TokenExchangeError{Detail: "no access token in response"}
	}

	userInfo, err := s.fetchUserInfo(ctx, token.AccessToken)
	if err != nil {
		return nil, 0, err
	}

	identity := &transfer.IdentityInfo{
		LinkedinID: userInfo.Sub,
		Name:       userInfo.Name,
		Email:      userInfo.Email,
	}
	if identity.Email == "" {
		identity.Email = fmt.Sprintf("user_%s@linkedin.local", userInfo.Sub)
	}

	userID, err := s.upsertUser(ctx, identity, token.AccessToken)
	if err != nil {
		// Explicit partial-failure tolerance: the login still succeeds with
		// the profile data even when the store is unavailable.
		slog.Info("identity upsert failed, continuing", "error", err.Error())
		return identity, 0, nil
	}

	return identity, userID, nil
}

func (s *authService) fetchUserInfo(ctx context.Context, accessToken string) (*transfer.LinkedinUserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.userInfoURL, nil)
	if err != nil {
		slog.Info(err.Error())
		return nil, &ProfileFetchError{Detail: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &ProfileFetchError{Detail: fmt.Sprintf("status %d: %s", resp.StatusCode, string(body))}
	}

	var userInfo transfer.LinkedinUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		slog.Info(err.Error())
		return nil, &ProfileFetchError{Detail: err.Error()}
	}
	if userInfo.Sub == "" {
		return nil, &ProfileFetchError{Detail: "profile response has no subject id"}
	}

	return &userInfo, nil
}

// upsertUser inserts a new identity or refreshes name/email/token for a known
// linkedin_id. The linkedin_id keeps exactly one row per member.
func (s *authService) upsertUser(ctx context.Context, identity *transfer.IdentityInfo, accessToken string) (int64, error) {
	encryptedToken, err := utils.Encrypt([]byte(accessToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return 0, &PersistenceError{Op: "token encryption", Cause: err}
	}

	user := &models.User{
		LinkedinID:  identity.LinkedinID,
		Name:        identity.Name,
		Email:       identity.Email,
		AccessToken: encryptedToken,
	}

	existing, isExist, err := s.u.GetByLinkedinID(ctx, identity.LinkedinID)
	if err != nil {
		return 0, &PersistenceError{Op: "identity lookup", Cause: err}
	}

	if isExist {
		if err := s.u.UpdateByLinkedinID(ctx, user); err != nil {
			return 0, &PersistenceError{Op: "identity update", Cause: err}
		}
		return existing.ID, nil
	}

	userID, err := s.u.Create(ctx, nil, user)
	if err != nil {
		return 0, &PersistenceError{Op: "identity insert", Cause: err}
	}
	return userID, nil
}
