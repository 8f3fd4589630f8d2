package resolution

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/accountability-bet-platform/pkg/contracts/events"
)

// fakeStore guarda tudo em memória, replicando a semântica do Postgres
// (unicidade de outcome por aposta, upsert de voto, evento de stat único)
type fakeStore struct {
	bets      map[string]*Bet
	sides     map[string][]BetSide
	proofs    map[string]*Proof
	votes     map[string]map[string]Vote // proofID -> userID -> voto
	outcomes  map[string]Outcome
	statEvts  map[string]bool // userID+"/"+betID -> won
	statCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		bets:     make(map[string]*Bet),
		sides:    make(map[string][]BetSide),
		proofs:   make(map[string]*Proof),
		votes:    make(map[string]map[string]Vote),
		outcomes: make(map[string]Outcome),
		statEvts: make(map[string]bool),
	}
}

func (f *fakeStore) GetBet(_ context.Context, betID string) (*Bet, error) {
	b, ok := f.bets[betID]
	if !ok {
		return nil, ErrNotFound
	}
	return b, nil
}

func (f *fakeStore) ListSides(_ context.Context, betID string) ([]BetSide, error) {
	return f.sides[betID], nil
}

func (f *fakeStore) UpdateBetStatus(_ context.Context, betID string, status BetStatus) error {
	if b, ok := f.bets[betID]; ok {
		b.Status = status
	}
	return nil
}

func (f *fakeStore) InsertProof(_ context.Context, p *Proof) error {
	cp := *p
	f.proofs[p.ID] = &cp
	return nil
}

func (f *fakeStore) GetProof(_ context.Context, proofID string) (*Proof, error) {
	p, ok := f.proofs[proofID]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) LatestRulingProof(_ context.Context, betID string) (*Proof, error) {
	var latest *Proof
	for _, p := range f.proofs {
		if p.BetID != betID || p.Ruling == nil {
			continue
		}
		if latest == nil || p.CreatedAt.After(latest.CreatedAt) {
			latest = p
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	return latest, nil
}

func (f *fakeStore) UpdateProofCaption(_ context.Context, proofID, caption string) error {
	if p, ok := f.proofs[proofID]; ok {
		p.Caption = caption
	}
	return nil
}

func (f *fakeStore) UpsertVote(_ context.Context, v ProofVote) error {
	if f.votes[v.ProofID] == nil {
		f.votes[v.ProofID] = make(map[string]Vote)
	}
	f.votes[v.ProofID][v.UserID] = v.Vote
	return nil
}

func (f *fakeStore) CountVotes(_ context.Context, proofID string) (int, int, error) {
	var confirms, disputes int
	for _, v := range f.votes[proofID] {
		if v == VoteConfirm {
			confirms++
		} else {
			disputes++
		}
	}
	return confirms, disputes, nil
}

func (f *fakeStore) HasOutcome(_ context.Context, betID string) (bool, error) {
	_, ok := f.outcomes[betID]
	return ok, nil
}

func (f *fakeStore) InsertOutcome(_ context.Context, o Outcome) (bool, error) {
	if _, ok := f.outcomes[o.BetID]; ok {
		return false, nil
	}
	f.outcomes[o.BetID] = o
	return true, nil
}

func (f *fakeStore) RecordStatEvent(_ context.Context, userID, betID string, won bool) error {
	f.statCalls++
	f.statEvts[userID+"/"+betID] = won
	return nil
}

type fakePublisher struct {
	proofs   []events.ProofSubmitted
	resolved []events.BetResolved
}

func (f *fakePublisher) PublishProofSubmitted(_ context.Context, e events.ProofSubmitted) error {
	f.proofs = append(f.proofs, e)
	return nil
}

func (f *fakePublisher) PublishBetResolved(_ context.Context, e events.BetResolved) error {
	f.resolved = append(f.resolved, e)
	return nil
}

func ruling(r Ruling) *Ruling { return &r }

// seedBet monta uma aposta ativa com claimant "c1" e n doubters d1..dn
func seedBet(store *fakeStore, betID string, doubters int) {
	store.bets[betID] = &Bet{
		ID:         betID,
		ClaimantID: "c1",
		GroupID:    "g1",
		BetType:    "standard",
		StakeType:  StakeMoney,
		Status:     StatusActive,
	}
	for i := 0; i < doubters; i++ {
		store.sides[betID] = append(store.sides[betID], BetSide{
			BetID:  betID,
			UserID: "d" + string(rune('1'+i)),
			Side:   SideDoubter,
		})
	}
}

func newTestEngine(store *fakeStore, publ *fakePublisher) *Engine {
	e := NewEngine(zap.NewNop(), store, publ)
	e.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return e
}

func TestSubmitProof(t *testing.T) {
	ctx := context.Background()

	t.Run("sem usuario rejeita", func(t *testing.T) {
		e := newTestEngine(newFakeStore(), &fakePublisher{})
		_, err := e.SubmitProof(ctx, SubmitProofInput{BetID: "b1", Caption: "feito"})
		assert.ErrorIs(t, err, ErrNotAuthenticated)
	})

	t.Run("sem midia e sem legenda rejeita", func(t *testing.T) {
		e := newTestEngine(newFakeStore(), &fakePublisher{})
		_, err := e.SubmitProof(ctx, SubmitProofInput{BetID: "b1", SubmittedBy: "c1"})
		assert.ErrorIs(t, err, ErrNoContent)
	})

	t.Run("ruling invalido rejeita", func(t *testing.T) {
		e := newTestEngine(newFakeStore(), &fakePublisher{})
		_, err := e.SubmitProof(ctx, SubmitProofInput{
			BetID: "b1", SubmittedBy: "c1", Caption: "feito", Ruling: ruling("maybe"),
		})
		assert.ErrorIs(t, err, ErrInvalidRuling)
	})

	t.Run("prova sem ruling nao abre janela nem muda status", func(t *testing.T) {
		store := newFakeStore()
		publ := &fakePublisher{}
		seedBet(store, "b1", 2)
		e := newTestEngine(store, publ)

		p, err := e.SubmitProof(ctx, SubmitProofInput{BetID: "b1", SubmittedBy: "c1", Caption: "progresso"})
		require.NoError(t, err)

		assert.Nil(t, p.RulingDeadline)
		assert.Equal(t, StatusActive, store.bets["b1"].Status)
		assert.Empty(t, publ.proofs)
	})

	t.Run("prova com ruling abre janela de 24h e publica evento", func(t *testing.T) {
		store := newFakeStore()
		publ := &fakePublisher{}
		seedBet(store, "b1", 2)
		e := newTestEngine(store, publ)

		p, err := e.SubmitProof(ctx, SubmitProofInput{
			BetID: "b1", SubmittedBy: "c1",
			MediaURLs: []string{"https://cdn/x.jpg"},
			Ruling:    ruling(RulingRidersWin),
		})
		require.NoError(t, err)

		require.NotNil(t, p.RulingDeadline)
		assert.Equal(t, e.now().Add(RulingWindow), *p.RulingDeadline)
		assert.Equal(t, StatusProofSubmitted, store.bets["b1"].Status)

		require.Len(t, publ.proofs, 1)
		assert.Equal(t, "b1", publ.proofs[0].BetID)
		assert.ElementsMatch(t, []string{"c1", "d1", "d2"}, publ.proofs[0].ParticipantIDs)
	})
}

func TestVoteOnProof(t *testing.T) {
	ctx := context.Background()

	submit := func(t *testing.T, e *Engine, betID string, r Ruling) *Proof {
		t.Helper()
		p, err := e.SubmitProof(ctx, SubmitProofInput{
			BetID: betID, SubmittedBy: "c1", Caption: "feito", Ruling: ruling(r),
		})
		require.NoError(t, err)
		return p
	}

	t.Run("voto invalido rejeita", func(t *testing.T) {
		e := newTestEngine(newFakeStore(), &fakePublisher{})
		assert.ErrorIs(t, e.VoteOnProof(ctx, "p1", "d1", "abstain"), ErrInvalidVote)
		assert.ErrorIs(t, e.VoteOnProof(ctx, "p1", "", VoteConfirm), ErrNotAuthenticated)
	})

	t.Run("maioria de confirms aplica o ruling", func(t *testing.T) {
		store := newFakeStore()
		publ := &fakePublisher{}
		seedBet(store, "b1", 3) // N=4, maioria=3
		e := newTestEngine(store, publ)
		p := submit(t, e, "b1", RulingRidersWin)

		require.NoError(t, e.VoteOnProof(ctx, p.ID, "d1", VoteConfirm))
		require.NoError(t, e.VoteOnProof(ctx, p.ID, "d2", VoteConfirm))
		assert.Empty(t, store.outcomes, "2 de 4 ainda nao e maioria")

		require.NoError(t, e.VoteOnProof(ctx, p.ID, "d3", VoteConfirm))
		require.Contains(t, store.outcomes, "b1")
		assert.Equal(t, ResultClaimantSucceeded, store.outcomes["b1"].Result)
		assert.Equal(t, StatusCompleted, store.bets["b1"].Status)

		require.Len(t, publ.resolved, 1)
		assert.Equal(t, "vote_majority", publ.resolved[0].Source)
	})

	t.Run("maioria de disputes inverte o ruling", func(t *testing.T) {
		store := newFakeStore()
		publ := &fakePublisher{}
		seedBet(store, "b1", 2) // N=3, maioria=2
		e := newTestEngine(store, publ)
		p := submit(t, e, "b1", RulingRidersWin)

		require.NoError(t, e.VoteOnProof(ctx, p.ID, "d1", VoteDispute))
		require.NoError(t, e.VoteOnProof(ctx, p.ID, "d2", VoteDispute))

		assert.Equal(t, ResultClaimantFailed, store.outcomes["b1"].Result)
	})

	t.Run("re-voto sobrescreve em vez de acumular", func(t *testing.T) {
		store := newFakeStore()
		seedBet(store, "b1", 3) // N=4, maioria=3
		e := newTestEngine(store, &fakePublisher{})
		p := submit(t, e, "b1", RulingRidersWin)

		require.NoError(t, e.VoteOnProof(ctx, p.ID, "d1", VoteConfirm))
		require.NoError(t, e.VoteOnProof(ctx, p.ID, "d1", VoteConfirm))
		require.NoError(t, e.VoteOnProof(ctx, p.ID, "d1", VoteConfirm))

		assert.Empty(t, store.outcomes, "um unico eleitor nao atinge maioria")

		confirms, _, err := store.CountVotes(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, confirms)
	})

	t.Run("aposta solo nunca auto-resolve", func(t *testing.T) {
		store := newFakeStore()
		seedBet(store, "b1", 0) // so o claimant, N=1
		e := newTestEngine(store, &fakePublisher{})
		p := submit(t, e, "b1", RulingRidersWin)

		require.NoError(t, e.VoteOnProof(ctx, p.ID, "c1", VoteConfirm))
		assert.Empty(t, store.outcomes)
	})

	t.Run("aposta ja resolvida ignora votos novos", func(t *testing.T) {
		store := newFakeStore()
		seedBet(store, "b1", 2)
		e := newTestEngine(store, &fakePublisher{})
		p := submit(t, e, "b1", RulingRidersWin)

		require.NoError(t, e.VoteOnProof(ctx, p.ID, "d1", VoteConfirm))
		require.NoError(t, e.VoteOnProof(ctx, p.ID, "d2", VoteConfirm))
		first := store.outcomes["b1"]

		require.NoError(t, e.VoteOnProof(ctx, p.ID, "c1", VoteDispute))
		assert.Equal(t, first, store.outcomes["b1"], "outcome e imutavel")
	})
}

func TestCheckDeadlineResolution(t *testing.T) {
	ctx := context.Background()

	setup := func(doubters int) (*fakeStore, *fakePublisher, *Engine, *Proof) {
		store := newFakeStore()
		publ := &fakePublisher{}
		seedBet(store, "b1", doubters)
		e := newTestEngine(store, publ)
		p, err := e.SubmitProof(ctx, SubmitProofInput{
			BetID: "b1", SubmittedBy: "c1", Caption: "feito", Ruling: ruling(RulingRidersWin),
		})
		require.NoError(t, err)
		return store, publ, e, p
	}

	expire := func(e *Engine) {
		base := e.now()
		e.now = func() time.Time { return base.Add(RulingWindow + time.Minute) }
	}

	t.Run("janela ainda aberta e no-op", func(t *testing.T) {
		store, _, e, _ := setup(2)
		require.NoError(t, e.CheckDeadlineResolution(ctx, "b1"))
		assert.Empty(t, store.outcomes)
	})

	t.Run("sem prova com ruling e no-op", func(t *testing.T) {
		store := newFakeStore()
		seedBet(store, "b1", 2)
		e := newTestEngine(store, &fakePublisher{})
		require.NoError(t, e.CheckDeadlineResolution(ctx, "b1"))
		assert.Empty(t, store.outcomes)
	})

	t.Run("empate ou menos disputes mantem o ruling", func(t *testing.T) {
		store, publ, e, p := setup(4)
		require.NoError(t, e.VoteOnProof(ctx, p.ID, "d1", VoteConfirm))
		require.NoError(t, e.VoteOnProof(ctx, p.ID, "d2", VoteDispute))
		expire(e)

		require.NoError(t, e.CheckDeadlineResolution(ctx, "b1"))
		assert.Equal(t, ResultClaimantSucceeded, store.outcomes["b1"].Result)
		require.Len(t, publ.resolved, 1)
		assert.Equal(t, "deadline_plurality", publ.resolved[0].Source)
	})

	t.Run("mais disputes que confirms inverte o ruling", func(t *testing.T) {
		store, _, e, p := setup(4)
		require.NoError(t, e.VoteOnProof(ctx, p.ID, "d1", VoteConfirm))
		require.NoError(t, e.VoteOnProof(ctx, p.ID, "d2", VoteDispute))
		require.NoError(t, e.VoteOnProof(ctx, p.ID, "d3", VoteDispute))
		expire(e)

		require.NoError(t, e.CheckDeadlineResolution(ctx, "b1"))
		assert.Equal(t, ResultClaimantFailed, store.outcomes["b1"].Result)
	})

	t.Run("zero votos aplica o ruling como dado", func(t *testing.T) {
		store, _, e, _ := setup(2)
		expire(e)

		require.NoError(t, e.CheckDeadlineResolution(ctx, "b1"))
		assert.Equal(t, ResultClaimantSucceeded, store.outcomes["b1"].Result)
	})

	t.Run("outcome existente nao e sobrescrito", func(t *testing.T) {
		store, publ, e, p := setup(2)
		require.NoError(t, e.VoteOnProof(ctx, p.ID, "d1", VoteDispute))
		require.NoError(t, e.VoteOnProof(ctx, p.ID, "d2", VoteDispute))
		require.Len(t, publ.resolved, 1)
		expire(e)

		require.NoError(t, e.CheckDeadlineResolution(ctx, "b1"))
		assert.Equal(t, ResultClaimantFailed, store.outcomes["b1"].Result)
		assert.Len(t, publ.resolved, 1, "nenhum evento duplicado")
	})
}

func TestResolveOutcome(t *testing.T) {
	ctx := context.Background()

	t.Run("resolucao registra stats e publica evento", func(t *testing.T) {
		store := newFakeStore()
		publ := &fakePublisher{}
		seedBet(store, "b1", 2)
		e := newTestEngine(store, publ)

		require.NoError(t, e.ResolveOutcome(ctx, "b1", ResultClaimantFailed, "sweep_no_proof"))

		won, ok := store.statEvts["d1/b1"]
		require.True(t, ok)
		assert.True(t, won)
		won, ok = store.statEvts["c1/b1"]
		require.True(t, ok)
		assert.False(t, won)

		require.Len(t, publ.resolved, 1)
		ev := publ.resolved[0]
		assert.Equal(t, "sweep_no_proof", ev.Source)
		assert.ElementsMatch(t, []string{"d1", "d2"}, ev.WinnerIDs)
		assert.Equal(t, []string{"c1"}, ev.LoserIDs)
	})

	t.Run("voided nao gera stats nem vencedores", func(t *testing.T) {
		store := newFakeStore()
		publ := &fakePublisher{}
		seedBet(store, "b1", 2)
		e := newTestEngine(store, publ)

		require.NoError(t, e.ResolveOutcome(ctx, "b1", ResultVoided, "sweep_stale_proof"))

		assert.Equal(t, StatusVoided, store.bets["b1"].Status)
		assert.Zero(t, store.statCalls)
		require.Len(t, publ.resolved, 1)
		assert.Empty(t, publ.resolved[0].WinnerIDs)
		assert.Empty(t, publ.resolved[0].LoserIDs)
	})

	t.Run("dupla resolucao e no-op silencioso", func(t *testing.T) {
		store := newFakeStore()
		publ := &fakePublisher{}
		seedBet(store, "b1", 2)
		e := newTestEngine(store, publ)

		require.NoError(t, e.ResolveOutcome(ctx, "b1", ResultClaimantFailed, "sweep_no_proof"))
		require.NoError(t, e.ResolveOutcome(ctx, "b1", ResultClaimantSucceeded, "vote_majority"))

		assert.Equal(t, ResultClaimantFailed, store.outcomes["b1"].Result)
		assert.Len(t, publ.resolved, 1)
	})
}

func TestParticipants(t *testing.T) {
	t.Run("claimant implicito conta uma vez", func(t *testing.T) {
		got := Participants("c1", []BetSide{
			{UserID: "c1", Side: SideRider},
			{UserID: "d1", Side: SideDoubter},
		})
		assert.Equal(t, []string{"c1", "d1"}, got)
	})

	t.Run("maioria e floor(n/2)+1", func(t *testing.T) {
		assert.Equal(t, 2, MajorityThreshold(2))
		assert.Equal(t, 2, MajorityThreshold(3))
		assert.Equal(t, 3, MajorityThreshold(4))
		assert.Equal(t, 3, MajorityThreshold(5))
	})
}
