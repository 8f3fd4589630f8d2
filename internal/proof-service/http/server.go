package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/accountability-bet-platform/internal/proof-service/dto"
	"github.com/radieske/accountability-bet-platform/internal/proof-service/media"
	"github.com/radieske/accountability-bet-platform/internal/resolution"
)

// limite do form multipart de submissão de prova (mídia em memória)
const maxProofFormSize = 32 << 20

// Reads são as leituras de prova compartilhadas com o engine
type Reads interface {
	GetProof(ctx context.Context, proofID string) (*resolution.Proof, error)
	CountVotes(ctx context.Context, proofID string) (confirms, disputes int, err error)
}

// Server expõe a API de provas e votos
type Server struct {
	log      *zap.Logger
	engine   *resolution.Engine
	reads    Reads
	uploader *media.Uploader
}

func NewServer(log *zap.Logger, e *resolution.Engine, reads Reads, u *media.Uploader) *Server {
	return &Server{log: log, engine: e, reads: reads, uploader: u}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Post("/v1/bets/{betID}/proofs", s.submitProof)
	r.Post("/v1/bets/{betID}/deadline-check", s.deadlineCheck)
	r.Get("/v1/proofs/{id}", s.getProof)
	r.Post("/v1/proofs/{id}/votes", s.voteOnProof)
	r.Patch("/v1/proofs/{id}/caption", s.updateCaption)
	return r
}

func userID(r *http.Request) string {
	return r.Header.Get("X-User-ID")
}

// submitProof recebe multipart: campos proof_type, caption, ruling e arquivos
// "media". Uploads rodam em fan-out; a submissão só falha de vez quando
// nenhuma mídia subiu e não há legenda.
func (s *Server) submitProof(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	betID := chi.URLParam(r, "betID")

	if err := r.ParseMultipartForm(maxProofFormSize); err != nil {
		http.Error(w, "bad multipart form", http.StatusBadRequest)
		return
	}

	var ruling *resolution.Ruling
	if v := r.FormValue("ruling"); v != "" {
		rv := resolution.Ruling(v)
		ruling = &rv
	}

	files := readFiles(r)
	urls := s.uploader.Upload(r.Context(), betID, uid, files)

	proof, err := s.engine.SubmitProof(r.Context(), resolution.SubmitProofInput{
		BetID:       betID,
		SubmittedBy: uid,
		MediaURLs:   urls,
		ProofType:   r.FormValue("proof_type"),
		Caption:     r.FormValue("caption"),
		Ruling:      ruling,
	})
	if err != nil {
		s.respondErr(w, err)
		return
	}

	resp := dto.SubmitProofResponse{
		ProofID:        proof.ID,
		BetID:          proof.BetID,
		MediaURLs:      proof.MediaURLs,
		RulingDeadline: proof.RulingDeadline,
	}
	if proof.Ruling != nil {
		rs := string(*proof.Ruling)
		resp.Ruling = &rs
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) voteOnProof(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	proofID := chi.URLParam(r, "id")

	var req dto.VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	if err := s.engine.VoteOnProof(r.Context(), proofID, uid, resolution.Vote(req.Vote)); err != nil {
		s.respondErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) updateCaption(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	proofID := chi.URLParam(r, "id")

	var req dto.CaptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	if err := s.engine.UpdateCaption(r.Context(), proofID, req.Caption); err != nil {
		s.respondErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// deadlineCheck dispara o fallback de pluralidade da prova vigente.
// No-op (204) quando o deadline não passou ou a aposta já foi resolvida.
func (s *Server) deadlineCheck(w http.ResponseWriter, r *http.Request) {
	betID := chi.URLParam(r, "betID")
	if err := s.engine.CheckDeadlineResolution(r.Context(), betID); err != nil {
		s.respondErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getProof(w http.ResponseWriter, r *http.Request) {
	proofID := chi.URLParam(r, "id")

	proof, err := s.reads.GetProof(r.Context(), proofID)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	confirms, disputes, err := s.reads.CountVotes(r.Context(), proofID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := dto.ProofResponse{
		ProofID:        proof.ID,
		BetID:          proof.BetID,
		SubmittedBy:    proof.SubmittedBy,
		MediaURLs:      proof.MediaURLs,
		ProofType:      proof.ProofType,
		Caption:        proof.Caption,
		RulingDeadline: proof.RulingDeadline,
		CreatedAt:      proof.CreatedAt,
		Confirms:       confirms,
		Disputes:       disputes,
	}
	if proof.Ruling != nil {
		rs := string(*proof.Ruling)
		resp.Ruling = &rs
	}
	writeJSON(w, http.StatusOK, resp)
}

// readFiles materializa os arquivos "media" do form em memória
func readFiles(r *http.Request) []media.File {
	if r.MultipartForm == nil {
		return nil
	}
	var out []media.File
	for _, fh := range r.MultipartForm.File["media"] {
		f, err := fh.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			continue
		}
		out = append(out, media.File{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return out
}

func (s *Server) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, resolution.ErrNotAuthenticated):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, resolution.ErrNoContent),
		errors.Is(err, resolution.ErrInvalidVote),
		errors.Is(err, resolution.ErrInvalidRuling):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, resolution.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// writeJSON serializa e envia resposta JSON
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
