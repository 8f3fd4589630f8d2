package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/accountability-bet-platform/internal/bet-service/cache"
	"github.com/radieske/accountability-bet-platform/internal/bet-service/dto"
	"github.com/radieske/accountability-bet-platform/internal/bet-service/repo"
	"github.com/radieske/accountability-bet-platform/internal/bet-service/ws"
	"github.com/radieske/accountability-bet-platform/internal/payout"
	"github.com/radieske/accountability-bet-platform/internal/resolution"
)

const snapshotTTL = 30 * time.Second

// Reads são as leituras compartilhadas com o engine de resolução
type Reads interface {
	GetBet(ctx context.Context, betID string) (*resolution.Bet, error)
	ListSides(ctx context.Context, betID string) ([]resolution.BetSide, error)
}

// Server expõe a API pública de apostas
type Server struct {
	log    *zap.Logger
	repo   *repo.Postgres
	reads  Reads
	engine *resolution.Engine
	cache  *cache.Cache
	hub    *ws.Hub
}

func NewServer(log *zap.Logger, r *repo.Postgres, reads Reads, e *resolution.Engine, c *cache.Cache, hub *ws.Hub) *Server {
	return &Server{log: log, repo: r, reads: reads, engine: e, cache: c, hub: hub}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Post("/v1/bets", s.createBet)
	r.Get("/v1/bets/{id}", s.getBet)
	r.Get("/v1/bets/{id}/payout", s.getPayout)
	r.Post("/v1/bets/{id}/sides", s.joinSide)
	r.Post("/v1/bets/{id}/accept", s.acceptH2H)
	r.Post("/v1/bets/{id}/decline", s.declineH2H)
	r.Get("/v1/groups/{id}/bets", s.listGroupBets)
	r.Get("/ws", s.hub.HandleWS)
	return r
}

// userID identifica o usuário autenticado (resolvido pelo gateway upstream)
func userID(r *http.Request) string {
	return r.Header.Get("X-User-ID")
}

func (s *Server) createBet(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	var req dto.CreateBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.GroupID == "" || req.Title == "" || req.Deadline.IsZero() {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	switch resolution.StakeType(req.StakeType) {
	case resolution.StakeMoney, resolution.StakeBoth:
		if req.StakeMoneyCents <= 0 {
			http.Error(w, "stake_money_cents required", http.StatusBadRequest)
			return
		}
	case resolution.StakePunishment:
	default:
		http.Error(w, "invalid stake_type", http.StatusBadRequest)
		return
	}
	if req.BetType == "" {
		req.BetType = "standard"
	}
	if req.BetType == "h2h" && (req.H2HOpponentID == nil || *req.H2HOpponentID == "" || *req.H2HOpponentID == uid) {
		http.Error(w, "h2h_opponent_id required", http.StatusBadRequest)
		return
	}

	betID, err := s.repo.Create(r.Context(), &resolution.Bet{
		ClaimantID:            uid,
		GroupID:               req.GroupID,
		Title:                 req.Title,
		Category:              req.Category,
		BetType:               req.BetType,
		Deadline:              req.Deadline,
		StakeType:             resolution.StakeType(req.StakeType),
		StakeMoneyCents:       req.StakeMoneyCents,
		StakePunishmentID:     req.StakePunishmentID,
		StakeCustomPunishment: req.StakeCustomPunishment,
		H2HOpponentID:         req.H2HOpponentID,
		IsPublic:              req.IsPublic,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	status := resolution.StatusActive
	if req.BetType == "h2h" {
		status = resolution.StatusPending
	}
	writeJSON(w, http.StatusCreated, dto.CreateBetResponse{BetID: betID, Status: string(status)})
}

func (s *Server) getBet(w http.ResponseWriter, r *http.Request) {
	betID := chi.URLParam(r, "id")

	var cached dto.BetResponse
	if ok, _ := s.cache.GetBet(r.Context(), betID, &cached); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	resp, err := s.snapshot(r.Context(), betID)
	if err != nil {
		s.respondErr(w, err)
		return
	}

	_ = s.cache.SetBet(r.Context(), betID, resp, snapshotTTL)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getPayout(w http.ResponseWriter, r *http.Request) {
	betID := chi.URLParam(r, "id")

	outcome, err := s.repo.GetOutcome(r.Context(), betID)
	if errors.Is(err, resolution.ErrNotFound) {
		http.Error(w, "bet not resolved", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	bet, err := s.reads.GetBet(r.Context(), betID)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	sides, err := s.reads.ListSides(r.Context(), betID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// payout é sempre recalculado, nunca persistido
	p := payout.Compute(outcome.Result, bet.ClaimantID, sides, payout.Stake{
		Type:             bet.StakeType,
		MoneyCents:       bet.StakeMoneyCents,
		PunishmentID:     bet.StakePunishmentID,
		CustomPunishment: bet.StakeCustomPunishment,
	})
	writeJSON(w, http.StatusOK, dto.PayoutResponse{
		BetID:  betID,
		Result: string(outcome.Result),
		Payout: p,
	})
}

func (s *Server) joinSide(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	betID := chi.URLParam(r, "id")

	var req dto.JoinSideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	side := resolution.Side(req.Side)
	if side != resolution.SideRider && side != resolution.SideDoubter {
		http.Error(w, "invalid side", http.StatusBadRequest)
		return
	}

	bet, err := s.reads.GetBet(r.Context(), betID)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	if bet.Status != resolution.StatusActive {
		http.Error(w, "bet not open for joining", http.StatusConflict)
		return
	}
	if bet.ClaimantID == uid {
		// claimant já é rider implícito, não entra como lado
		http.Error(w, "claimant cannot join a side", http.StatusConflict)
		return
	}

	if err := s.repo.JoinSide(r.Context(), betID, uid, side); err != nil {
		if errors.Is(err, repo.ErrAlreadyJoined) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	_ = s.cache.InvalidateBet(r.Context(), betID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) acceptH2H(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	betID := chi.URLParam(r, "id")

	if err := s.repo.AcceptH2H(r.Context(), betID, uid); err != nil {
		switch {
		case errors.Is(err, resolution.ErrNotFound):
			http.Error(w, "not found", http.StatusNotFound)
		case errors.Is(err, repo.ErrNotPendingH2H), errors.Is(err, repo.ErrNotOpponent):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	_ = s.cache.InvalidateBet(r.Context(), betID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) declineH2H(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	betID := chi.URLParam(r, "id")

	bet, err := s.reads.GetBet(r.Context(), betID)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	if bet.Status != resolution.StatusPending || bet.H2HOpponentID == nil || *bet.H2HOpponentID != uid {
		http.Error(w, "not a pending challenge for this user", http.StatusConflict)
		return
	}

	if err := s.engine.ResolveOutcome(r.Context(), betID, resolution.ResultVoided, "h2h_decline"); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	_ = s.cache.InvalidateBet(r.Context(), betID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listGroupBets(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "id")

	bets, err := s.repo.ListGroupBets(r.Context(), groupID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, bets)
}

// snapshot monta o BetResponse completo (aposta + lados + outcome)
func (s *Server) snapshot(ctx context.Context, betID string) (*dto.BetResponse, error) {
	bet, err := s.reads.GetBet(ctx, betID)
	if err != nil {
		return nil, err
	}
	sides, err := s.reads.ListSides(ctx, betID)
	if err != nil {
		return nil, err
	}

	resp := &dto.BetResponse{
		BetID:                 bet.ID,
		ClaimantID:            bet.ClaimantID,
		GroupID:               bet.GroupID,
		Title:                 bet.Title,
		Category:              bet.Category,
		BetType:               bet.BetType,
		Deadline:              bet.Deadline,
		StakeType:             string(bet.StakeType),
		StakeMoneyCents:       bet.StakeMoneyCents,
		StakePunishmentID:     bet.StakePunishmentID,
		StakeCustomPunishment: bet.StakeCustomPunishment,
		Status:                string(bet.Status),
		H2HOpponentID:         bet.H2HOpponentID,
		IsPublic:              bet.IsPublic,
	}
	for _, side := range sides {
		resp.Sides = append(resp.Sides, dto.SideResponse{
			UserID:   side.UserID,
			Side:     string(side.Side),
			JoinedAt: side.JoinedAt,
		})
	}

	outcome, err := s.repo.GetOutcome(ctx, betID)
	if err == nil {
		resp.Outcome = &dto.OutcomeResponse{
			Result:     string(outcome.Result),
			ResolvedAt: outcome.ResolvedAt,
		}
	} else if !errors.Is(err, resolution.ErrNotFound) {
		return nil, err
	}

	return resp, nil
}

func (s *Server) respondErr(w http.ResponseWriter, err error) {
	if errors.Is(err, resolution.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

// writeJSON serializa e envia resposta JSON
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
