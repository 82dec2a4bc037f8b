package engine

import (
	"strings"
	"testing"
)

// newLobbyGame builds a session in the lobby with players p1..pN (p1 admin)
// and gifts g1..gM, ready to start.
func newLobbyGame(t *testing.T, players, gifts int, cfg Config) *GameState {
	t.Helper()
	g := NewGame("TESTCODE", "p1", "Player 1", cfg, 42)
	if _, err := g.OpenLobby(); err != nil {
		t.Fatalf("OpenLobby: %v", err)
	}
	for i := 2; i <= players; i++ {
		id := PlayerID("p" + string(rune('0'+i)))
		if _, err := g.AddPlayer(id, "Player "+string(rune('0'+i))); err != nil {
			t.Fatalf("AddPlayer %s: %v", id, err)
		}
	}
	for i := 1; i <= gifts; i++ {
		id := GiftID("g" + string(rune('0'+i)))
		if _, err := g.AddGift(id); err != nil {
			t.Fatalf("AddGift %s: %v", id, err)
		}
	}
	return &g
}

// newActiveGame builds a started game with join-order turn sequence.
func newActiveGame(t *testing.T, players, gifts int, cfg Config) *GameState {
	t.Helper()
	g := newLobbyGame(t, players, gifts, cfg)
	if _, err := g.StartGame(); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	return g
}

func TestNewGameCreatesAdminInSetup(t *testing.T) {
	g := NewGame("ABCD2345", "p1", "Host", DefaultConfig(), 7)
	if g.Phase != PhaseSetup {
		t.Fatalf("Phase = %s, want %s", g.Phase, PhaseSetup)
	}
	admin := g.Admin()
	if admin == nil {
		t.Fatal("Admin() = nil, want the creating player")
	}
	if admin.ID != "p1" || admin.OrderIndex != 0 {
		t.Errorf("admin = %+v, want ID p1 at order 0", admin)
	}
	if len(g.Players) != 1 {
		t.Errorf("len(Players) = %d, want 1", len(g.Players))
	}
}

func TestSessionCodeAlphabet(t *testing.T) {
	for i := 0; i < 50; i++ {
		code := NewSessionCode()
		if len(code) != SessionCodeLength {
			t.Fatalf("len(code) = %d, want %d", len(code), SessionCodeLength)
		}
		for _, c := range code {
			if !strings.ContainsRune(sessionCodeChars, c) {
				t.Fatalf("code %q contains %q, outside the restricted alphabet", code, c)
			}
		}
		for _, ambiguous := range "0O1ILl" {
			if strings.ContainsRune(code, ambiguous) {
				t.Fatalf("code %q contains visually ambiguous %q", code, ambiguous)
			}
		}
	}
}

func TestCloneIsIndependent(t *testing.T) {
	g := newActiveGame(t, 2, 2, DefaultConfig())
	snap := g.Clone()

	if _, err := g.PickGift("g1", "p1"); err != nil {
		t.Fatalf("PickGift: %v", err)
	}

	if snap.GiftByID("g1").Status != GiftHidden {
		t.Error("clone gift mutated by action on original")
	}
	if snap.PlayerByID("p1").HasCompletedTurn {
		t.Error("clone player mutated by action on original")
	}
	if len(snap.History) != 0 {
		t.Errorf("clone history len = %d, want 0", len(snap.History))
	}
}

func TestWasJustStolenFromChecksOnlyMostRecentSteal(t *testing.T) {
	g := newActiveGame(t, 2, 1, DefaultConfig())
	g.History = []ActionRecord{
		{Type: ActionPick, Player: "p1", Gift: "g1"},
		{Type: ActionSteal, Player: "p2", Gift: "g1", PrevOwner: "p1"},
		{Type: ActionSteal, Player: "p1", Gift: "g1", PrevOwner: "p2"},
	}
	if g.wasJustStolenFrom("g1", "p1") {
		t.Error("p1 blocked by an older steal; only the most recent counts")
	}
	if !g.wasJustStolenFrom("g1", "p2") {
		t.Error("p2 was the most recent victim and should be blocked")
	}
}

func TestShuffleOrderDeterministicPerSeed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RandomizeOrder = true

	order := func(seed uint64) []int {
		g := NewGame("TESTCODE", "p1", "Player 1", cfg, seed)
		g.OpenLobby()
		g.AddPlayer("p2", "Player 2")
		g.AddPlayer("p3", "Player 3")
		g.AddPlayer("p4", "Player 4")
		g.AddGift("g1")
		if _, err := g.StartGame(); err != nil {
			t.Fatalf("StartGame: %v", err)
		}
		out := make([]int, 0, len(g.Players))
		for _, p := range g.Players {
			out = append(out, p.OrderIndex)
		}
		return out
	}

	a, b := order(99), order(99)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed produced different orders: %v vs %v", a, b)
		}
	}

	// Each index 0..n-1 must appear exactly once.
	seen := make(map[int]bool)
	for _, idx := range a {
		if seen[idx] {
			t.Fatalf("duplicate order index %d in %v", idx, a)
		}
		seen[idx] = true
	}
	for i := 0; i < len(a); i++ {
		if !seen[i] {
			t.Fatalf("order index %d missing from %v", i, a)
		}
	}
}

func TestSeedZeroIsRemapped(t *testing.T) {
	var g GameState
	g.Seed(0)
	if g.rng == 0 {
		t.Fatal("zero seed kept; xorshift64 is stuck at state 0")
	}
	if got := g.nextRand(); got == 0 {
		t.Fatal("nextRand returned 0 after zero seed")
	}

	g.Seed(42)
	if g.rng != 42 {
		t.Errorf("rng = %d, want 42", g.rng)
	}
}

func TestStartGameActiveMatchesLowestOrderIndex(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RandomizeOrder = true
	g := newLobbyGame(t, 3, 3, cfg)
	if _, err := g.StartGame(); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	var first *Player
	for i := range g.Players {
		if g.Players[i].OrderIndex == 0 {
			first = &g.Players[i]
		}
	}
	if first == nil {
		t.Fatal("no player with order index 0 after shuffle")
	}
	if g.ActivePlayer != first.ID || g.FirstPlayer != first.ID {
		t.Errorf("ActivePlayer=%s FirstPlayer=%s, want both %s", g.ActivePlayer, g.FirstPlayer, first.ID)
	}
}
