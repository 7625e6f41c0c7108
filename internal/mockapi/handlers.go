package mockapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/betclient/internal/client/models"
	"github.com/dmitrijs2005/betclient/internal/common"
	"github.com/google/uuid"
)

type ctxKey string

const claimsKey ctxKey = "claims"

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Message: msg})
}

func claimsFrom(ctx context.Context) *Claims {
	c, _ := ctx.Value(claimsKey).(*Claims)
	return c
}

func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests[r.URL.Path]++
		s.mu.Unlock()
		s.log.Debug(r.Context(), "request", "method", r.Method, "path", r.URL.Path,
			"request_id", r.Header.Get(common.RequestIDHeaderName))
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		forced := s.unauthorized > 0
		if forced {
			s.unauthorized--
		}
		s.mu.Unlock()
		if forced {
			writeError(w, http.StatusUnauthorized, "token rejected")
			return
		}

		raw, ok := strings.CutPrefix(r.Header.Get(common.AuthorizationHeaderName), common.BearerScheme+" ")
		if !ok || raw == "" {
			writeError(w, http.StatusUnauthorized, "missing token")
			return
		}

		claims, err := ParseToken(raw, s.secret, s.now)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		s.mu.Lock()
		revoked := s.revoked[claims.ID]
		_, known := s.users[claims.UserLogin]
		s.mu.Unlock()
		if revoked {
			writeError(w, http.StatusUnauthorized, "token revoked")
			return
		}
		if !known {
			writeError(w, http.StatusForbidden, "unknown user")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request")
		return
	}

	s.mu.Lock()
	s.loginCalls++
	failing := s.failLogins > 0
	if failing {
		s.failLogins--
	}
	u, ok := s.users[req.BetLogin]
	s.mu.Unlock()

	if failing {
		writeError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}
	if !ok || u.password != req.BetPassword {
		writeJSON(w, http.StatusOK, models.LoginResponse{Success: false, Message: "invalid login or password"})
		return
	}

	token, _, err := GenerateToken(req.BetLogin, s.secret, s.now(), s.tokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token generation failed")
		return
	}

	writeJSON(w, http.StatusOK, models.LoginResponse{
		Success:   true,
		Message:   "welcome",
		UserLogin: req.BetLogin,
		Token:     token,
		UserRole:  u.role,
		IsAdmin:   u.isAdmin,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	s.mu.Lock()
	s.revoked[claims.ID] = true
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, errorResponse{Success: true, Message: "logged out"})
}

func (s *Server) handleUserInfo(w http.ResponseWriter, r *http.Request) {
	login := claimsFrom(r.Context()).UserLogin

	s.mu.Lock()
	u := s.users[login]
	info := models.UserInfo{UserLogin: login, UserRole: u.role, IsAdmin: u.isAdmin, Balance: u.balance}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleGetBetConfig(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	cfg := s.users[claimsFrom(r.Context()).UserLogin].config
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handlePutBetConfig(w http.ResponseWriter, r *http.Request) {
	var cfg models.BetConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request")
		return
	}
	if cfg.Stake <= 0 || cfg.MinOdds < 1 || cfg.MaxOdds < cfg.MinOdds {
		writeError(w, http.StatusUnprocessableEntity, "invalid bet config")
		return
	}

	s.mu.Lock()
	u := s.users[claimsFrom(r.Context()).UserLogin]
	cfg.AutoExecute = u.config.AutoExecute
	u.config = cfg
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleMatches(w http.ResponseWriter, r *http.Request) {
	sport := r.URL.Query().Get("sport")

	s.mu.Lock()
	out := make([]models.Match, 0, len(s.matches))
	for _, m := range s.matches {
		if sport == "" || m.Sport == sport {
			out = append(out, m)
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePlaceBet(w http.ResponseWriter, r *http.Request) {
	var req models.BetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request")
		return
	}
	if !req.Selection.Valid() || req.Stake <= 0 {
		writeError(w, http.StatusUnprocessableEntity, "invalid bet")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var match *models.Match
	for i := range s.matches {
		if s.matches[i].ID == req.MatchID {
			match = &s.matches[i]
			break
		}
	}
	if match == nil {
		writeError(w, http.StatusNotFound, "match not found")
		return
	}

	u := s.users[claimsFrom(r.Context()).UserLogin]
	if req.Stake > u.balance {
		writeError(w, http.StatusConflict, "insufficient balance")
		return
	}
	u.balance -= req.Stake

	odds := match.Odds.Home
	switch req.Selection {
	case models.SelectionDraw:
		odds = match.Odds.Draw
	case models.SelectionAway:
		odds = match.Odds.Away
	}

	writeJSON(w, http.StatusCreated, models.BetReceipt{BetID: uuid.NewString(), Status: "accepted", AcceptedOdds: odds})
}

func (s *Server) handleAutoExecute(w http.ResponseWriter, r *http.Request) {
	var req models.AutoExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request")
		return
	}

	s.mu.Lock()
	s.users[claimsFrom(r.Context()).UserLogin].config.AutoExecute = req.Enabled
	s.mu.Unlock()

	msg := "auto-execute disabled"
	if req.Enabled {
		msg = "auto-execute enabled"
	}
	writeJSON(w, http.StatusOK, models.AutoExecuteResponse{Enabled: req.Enabled, Message: msg})
}
