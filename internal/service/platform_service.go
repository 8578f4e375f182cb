package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	config "github.com/maheshrc27/postqueue/configs"
	"github.com/maheshrc27/postqueue/internal/models"
	"github.com/maheshrc27/postqueue/internal/repository"
	"github.com/maheshrc27/postqueue/internal/slots"
	"github.com/maheshrc27/postqueue/internal/statestore"
	"github.com/maheshrc27/postqueue/pkg/utils"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

type PlatformService interface {
	GetAuthURL(ctx context.Context, userID int64, timezone string) (string, error)
	Callback(ctx context.Context, code, state string) (*models.SocialAccount, error)
	List(ctx context.Context, userID int64) ([]*models.SocialAccount, error)
	UpdateTimezone(ctx context.Context, userID, accountID int64, timezone string) error
	Delete(ctx context.Context, userID, accountID int64) error
}

type platformService struct {
	cfg   config.Config
	tx    repository.Transactor
	sa    repository.SocialAccountRepository
	cr    repository.CalendarRepository
	li    LinkedInService
	state statestore.Store
}

func NewPlatformService(
	cfg config.Config,
	tx repository.Transactor,
	sa repository.SocialAccountRepository,
	cr repository.CalendarRepository,
	li LinkedInService,
	state statestore.Store) PlatformService {
	return &platformService{
		cfg:   cfg,
		tx:    tx,
		sa:    sa,
		cr:    cr,
		li:    li,
		state: state,
	}
}

// GetAuthURL starts linking a LinkedIn account. The timezone is remembered
// with the OAuth state and stored on the account once linking completes.
func (s *platformService) GetAuthURL(ctx context.Context, userID int64, timezone string) (string, error) {
	if _, err := slots.LoadLocation(timezone); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidTimezone, err)
	}

	state, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	if err := s.state.Put(ctx, state, statestore.Entry{UserID: userID, Timezone: timezone}); err != nil {
		return "", err
	}

	return s.li.AuthCodeURL(state), nil
}

func (s *platformService) Callback(ctx context.Context, code, state string) (*models.SocialAccount, error) {
	if code == "" || state == "" {
		err := errors.New("code or state is empty")
		slog.Info(err.Error())
		return nil, ErrInvalidState
	}

	entry, err := s.state.Take(ctx, state)
	if err != nil {
		if errors.Is(err, statestore.ErrNotFound) {
			return nil, ErrInvalidState
		}
		return nil, err
	}

	token, err := s.li.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	info, err := s.li.UserInfo(ctx, token)
	if err != nil {
		return nil, err
	}

	accessToken, err := utils.Encrypt([]byte(token.AccessToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return nil, err
	}
	var refreshToken string
	if token.RefreshToken != "" {
		refreshToken, err = utils.Encrypt([]byte(token.RefreshToken), []byte(s.cfg.SecretKey))
		if err != nil {
			return nil, err
		}
	}

	timezone := entry.Timezone
	if timezone == "" {
		timezone = "UTC"
	}

	account := &models.SocialAccount{
		UserID:         entry.UserID,
		Platform:       models.PlatformLinkedIn,
		AccountID:      info.Sub,
		AccountName:    info.Name,
		ProfilePicture: info.Picture,
		AccessToken:    accessToken,
		RefreshToken:   refreshToken,
		TokenExpiresAt: token.Expiry,
		Timezone:       timezone,
	}

	err = s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		id, inserted, err := s.sa.Upsert(ctx, tx, account)
		if err != nil {
			return err
		}
		account.ID = id
		if !inserted {
			return nil
		}
		_, err = s.cr.Upsert(ctx, tx, models.DefaultCalendar(id))
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("linkedin account linked", "account_id", account.ID, "user_id", account.UserID)
	return account, nil
}

func (s *platformService) List(ctx context.Context, userID int64) ([]*models.SocialAccount, error) {
	accounts, err := s.sa.ListInfoByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting social accounts: %w", err)
	}
	return accounts, nil
}

// UpdateTimezone changes the zone the account's calendar is read in. Posts
// already scheduled keep their instants.
func (s *platformService) UpdateTimezone(ctx context.Context, userID, accountID int64, timezone string) error {
	if _, err := slots.LoadLocation(timezone); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTimezone, err)
	}
	if err := s.checkAccount(ctx, userID, accountID); err != nil {
		return err
	}
	return s.sa.UpdateTimezone(ctx, accountID, timezone)
}

// Delete disconnects an account. Its calendar, queue and posts go with it.
func (s *platformService) Delete(ctx context.Context, userID, accountID int64) error {
	if err := s.checkAccount(ctx, userID, accountID); err != nil {
		return err
	}

	if err := s.sa.Remove(ctx, accountID); err != nil {
		return fmt.Errorf("error removing account: %w", err)
	}
	return nil
}

func (s *platformService) checkAccount(ctx context.Context, userID, accountID int64) error {
	isValid, err := s.sa.CheckByUserID(ctx, accountID, userID)
	if err != nil {
		return err
	}
	if !isValid {
		slog.Info("social account doesn't exist", "account_id", accountID)
		return ErrNotFound
	}
	return nil
}
