package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/betclient/internal/client/models"
)

var (
	ErrInvalidBet    = errors.New("invalid bet")
	ErrInvalidConfig = errors.New("invalid bet config")
)

// Requester issues authenticated calls; *client.Gateway implements it.
type Requester interface {
	Do(ctx context.Context, method, path string, body, out any) error
}

// BettingService is the consumer API used by the presentation layer. Every
// call may fail with client.ErrSessionExpired.
type BettingService interface {
	UserInfo(ctx context.Context) (*models.UserInfo, error)
	BetConfig(ctx context.Context) (*models.BetConfig, error)
	UpdateBetConfig(ctx context.Context, cfg models.BetConfig) (*models.BetConfig, error)
	Matches(ctx context.Context, sport string) ([]models.Match, error)
	PlaceBet(ctx context.Context, bet models.BetRequest) (*models.BetReceipt, error)
	AutoExecute(ctx context.Context, enabled bool) (*models.AutoExecuteResponse, error)
}

type bettingService struct {
	api Requester
}

func NewBettingService(api Requester) BettingService {
	return &bettingService{api: api}
}

func (s *bettingService) UserInfo(ctx context.Context) (*models.UserInfo, error) {
	var out models.UserInfo
	if err := s.api.Do(ctx, http.MethodGet, "/api/user-info", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *bettingService) BetConfig(ctx context.Context) (*models.BetConfig, error) {
	var out models.BetConfig
	if err := s.api.Do(ctx, http.MethodGet, "/api/bet-config", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *bettingService) UpdateBetConfig(ctx context.Context, cfg models.BetConfig) (*models.BetConfig, error) {
	if cfg.Stake <= 0 {
		return nil, fmt.Errorf("%w: stake must be positive", ErrInvalidConfig)
	}
	if cfg.MinOdds < 1 || cfg.MaxOdds < cfg.MinOdds {
		return nil, fmt.Errorf("%w: need 1 <= min odds <= max odds", ErrInvalidConfig)
	}

	var out models.BetConfig
	if err := s.api.Do(ctx, http.MethodPut, "/api/bet-config", cfg, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Matches lists upcoming matches, all sports when sport is empty.
func (s *bettingService) Matches(ctx context.Context, sport string) ([]models.Match, error) {
	path := "/api/matches"
	if sport != "" {
		path += "?" + url.Values{"sport": {sport}}.Encode()
	}

	var out []models.Match
	if err := s.api.Do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *bettingService) PlaceBet(ctx context.Context, bet models.BetRequest) (*models.BetReceipt, error) {
	switch {
	case bet.MatchID == "":
		return nil, fmt.Errorf("%w: match id is required", ErrInvalidBet)
	case !bet.Selection.Valid():
		return nil, fmt.Errorf("%w: unknown selection %q", ErrInvalidBet, bet.Selection)
	case bet.Stake <= 0:
		return nil, fmt.Errorf("%w: stake must be positive", ErrInvalidBet)
	}

	var out models.BetReceipt
	if err := s.api.Do(ctx, http.MethodPost, "/api/bets", bet, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *bettingService) AutoExecute(ctx context.Context, enabled bool) (*models.AutoExecuteResponse, error) {
	var out models.AutoExecuteResponse
	if err := s.api.Do(ctx, http.MethodPost, "/api/auto-execute", models.AutoExecuteRequest{Enabled: enabled}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
