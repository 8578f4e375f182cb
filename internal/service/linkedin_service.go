package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	config "github.com/maheshrc27/postqueue/configs"
	"github.com/maheshrc27/postqueue/internal/models"
	"github.com/maheshrc27/postqueue/internal/repository"
	"github.com/maheshrc27/postqueue/internal/transfer"
	"github.com/maheshrc27/postqueue/pkg/utils"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/linkedin"
	"golang.org/x/time/rate"
)

var mediaRecipes = map[models.MediaKind]string{
	models.MediaKindImage:    "urn:li:digitalmediaRecipe:feedshare-image",
	models.MediaKindVideo:    "urn:li:digitalmediaRecipe:feedshare-video",
	models.MediaKindDocument: "urn:li:digitalmediaRecipe:feedshare-document",
}

// LinkedInService links LinkedIn members and publishes posts on their behalf.
type LinkedInService interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	UserInfo(ctx context.Context, token *oauth2.Token) (*transfer.LinkedInUserInfo, error)
	Publish(ctx context.Context, account *models.SocialAccount, content string, media []*models.MediaAsset) (string, error)
	RefreshToken(ctx context.Context, account *models.SocialAccount) error
}

type linkedInService struct {
	cfg       config.LinkedIn
	secretKey string
	oauth     *oauth2.Config
	sa        repository.SocialAccountRepository
	limiter   *rate.Limiter
	http      *http.Client

	now func() time.Time
}

func NewLinkedInService(cfg config.Config, sa repository.SocialAccountRepository, httpClient *http.Client) LinkedInService {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.LinkedIn.RatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.LinkedIn.RatePerSec), cfg.LinkedIn.RatePerSec)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: time.Minute}
	}

	return &linkedInService{
		cfg:       cfg.LinkedIn,
		secretKey: cfg.SecretKey,
		oauth: &oauth2.Config{
			ClientID:     cfg.LinkedIn.ClientID,
			ClientSecret: cfg.LinkedIn.ClientSecret,
			RedirectURL:  cfg.LinkedIn.RedirectURI,
			Scopes:       []string{"openid", "profile", "email", "w_member_social"},
			Endpoint:     linkedin.Endpoint,
		},
		sa:      sa,
		limiter: limiter,
		http:    httpClient,
		now:     time.Now,
	}
}

func (s *linkedInService) AuthCodeURL(state string) string {
	return s.oauth.AuthCodeURL(state)
}

func (s *linkedInService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := s.oauth.Exchange(s.clientContext(ctx), code)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return token, nil
}

func (s *linkedInService) UserInfo(ctx context.Context, token *oauth2.Token) (*transfer.LinkedInUserInfo, error) {
	client := s.oauth.Client(s.clientContext(ctx), token)

	var info transfer.LinkedInUserInfo
	if _, err := s.do(ctx, client, http.MethodGet, s.cfg.APIURL+"/v2/userinfo", nil, &info); err != nil {
		return nil, err
	}
	if info.Sub == "" {
		return nil, errors.New("linkedin userinfo: empty subject")
	}
	return &info, nil
}

// Publish uploads the media of a post, creates the post and returns its
// LinkedIn URN.
func (s *linkedInService) Publish(ctx context.Context, account *models.SocialAccount, content string, media []*models.MediaAsset) (string, error) {
	if !account.TokenExpiresAt.IsZero() && !s.now().Before(account.TokenExpiresAt) {
		return "", ErrTokenExpired
	}

	accessToken, err := utils.Decrypt(account.AccessToken, []byte(s.secretKey))
	if err != nil {
		return "", fmt.Errorf("decrypting access token: %w", err)
	}
	client := s.oauth.Client(s.clientContext(ctx), &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})

	author := "urn:li:person:" + account.AccountID

	var assets []transfer.LinkedInMedia
	for _, m := range media {
		urn, err := s.uploadMedia(ctx, client, author, m)
		if err != nil {
			return "", err
		}
		item := transfer.LinkedInMedia{ID: urn}
		if m.Kind() == models.MediaKindDocument {
			item.Title = m.FileName
		}
		assets = append(assets, item)
	}

	post := transfer.LinkedInPost{
		Author:     author,
		Commentary: content,
		Visibility: "PUBLIC",
		Distribution: transfer.LinkedInDistribution{
			FeedDistribution:               "MAIN_FEED",
			TargetEntities:                 []string{},
			ThirdPartyDistributionChannels: []string{},
		},
		LifecycleState: "PUBLISHED",
	}
	if len(assets) > 0 {
		post.Content = &transfer.LinkedInPostContent{Media: assets}
	}

	var resp transfer.LinkedInPostResponse
	header, err := s.do(ctx, client, http.MethodPost, s.cfg.APIURL+"/rest/posts", post, &resp)
	if err != nil {
		return "", err
	}

	id := header.Get("X-Restli-Id")
	if id == "" {
		id = resp.ID
	}
	if id == "" {
		return "", fmt.Errorf("%w: linkedin returned no post id", ErrPublishAdapter)
	}
	return id, nil
}

func (s *linkedInService) uploadMedia(ctx context.Context, client *http.Client, owner string, asset *models.MediaAsset) (string, error) {
	var reg transfer.LinkedInRegisterUploadRequest
	reg.RegisterUploadRequest.Recipes = []string{mediaRecipes[asset.Kind()]}
	reg.RegisterUploadRequest.Owner = owner
	reg.RegisterUploadRequest.ServiceRelationships = []transfer.LinkedInServiceRelationship{{
		RelationshipType: "OWNER",
		Identifier:       "urn:li:userGeneratedContent",
	}}

	var registered transfer.LinkedInRegisterUploadResponse
	if _, err := s.do(ctx, client, http.MethodPost, s.cfg.APIURL+"/rest/assets?action=registerUpload", reg, &registered); err != nil {
		return "", err
	}
	uploadURL := registered.Value.UploadMechanism.HTTPRequest.UploadURL
	if uploadURL == "" || registered.Value.Asset == "" {
		return "", fmt.Errorf("%w: linkedin returned no upload url", ErrPublishAdapter)
	}

	data, err := s.download(ctx, asset.FileURL)
	if err != nil {
		return "", err
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	resp, err := client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("%w: uploading media: %v", ErrPublishAdapter, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("%w: uploading media: status %d", ErrPublishAdapter, resp.StatusCode)
	}

	return registered.Value.Asset, nil
}

func (s *linkedInService) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("downloading media: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("downloading media: status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (s *linkedInService) do(ctx context.Context, client *http.Client, method, url string, body, out any) (http.Header, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("LinkedIn-Version", s.cfg.APIVersion)
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")

	resp, err := client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("%w: %v", ErrPublishAdapter, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("%w: %s %s: status %d: %s", ErrPublishAdapter, method, req.URL.Path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decoding linkedin response: %w", err)
		}
	}
	return resp.Header, nil
}

// RefreshToken trades the stored refresh token for a new access token.
func (s *linkedInService) RefreshToken(ctx context.Context, account *models.SocialAccount) error {
	refreshToken, err := utils.Decrypt(account.RefreshToken, []byte(s.secretKey))
	if err != nil {
		return err
	}

	expired := &oauth2.Token{RefreshToken: refreshToken, Expiry: s.now().Add(-time.Minute)}
	token, err := s.oauth.TokenSource(s.clientContext(ctx), expired).Token()
	if err != nil {
		slog.Info(err.Error(), "account_id", account.ID)
		return err
	}

	access, err := utils.Encrypt([]byte(token.AccessToken), []byte(s.secretKey))
	if err != nil {
		return err
	}
	var refresh string
	if token.RefreshToken != "" && token.RefreshToken != refreshToken {
		refresh, err = utils.Encrypt([]byte(token.RefreshToken), []byte(s.secretKey))
		if err != nil {
			return err
		}
	}

	return s.sa.SetToken(ctx, account.ID, access, refresh, token.Expiry)
}

func (s *linkedInService) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, s.http)
}
