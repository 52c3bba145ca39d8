package memory

import (
	"context"
	"testing"
	"time"

	"knowledge-quiz/internal/domain"
)

// stepClock returns a clock that advances one second per call.
func stepClock() func() time.Time {
	current := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}

func TestCreateOrUpdatePlayerIsIdempotentByName(t *testing.T) {
	ctx := context.Background()
	store := NewPlayerStoreWithClock(stepClock())

	first, err := store.CreateOrUpdatePlayer(ctx, "Ann")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.ID == "" || first.Score != 0 || first.TotalAnswers != 0 {
		t.Fatalf("unexpected new player %+v", first)
	}

	if _, err := store.UpdatePlayerStats(ctx, first.ID, 3, 10); err != nil {
		t.Fatalf("update: %v", err)
	}

	again, err := store.CreateOrUpdatePlayer(ctx, " Ann ")
	if err != nil {
		t.Fatalf("create again: %v", err)
	}
	if again.ID != first.ID || again.Score != 3 || again.TotalAnswers != 10 {
		t.Fatalf("expected existing player unchanged, got %+v", again)
	}
}

func TestCreateOrUpdatePlayerRejectsBlankName(t *testing.T) {
	if _, err := NewPlayerStore().CreateOrUpdatePlayer(context.Background(), "  "); err != domain.ErrInvalidPlayerName {
		t.Fatalf("expected ErrInvalidPlayerName, got %v", err)
	}
}

func TestUpdatePlayerStatsAddsDeltas(t *testing.T) {
	ctx := context.Background()
	store := NewPlayerStoreWithClock(stepClock())
	p, _ := store.CreateOrUpdatePlayer(ctx, "Ann")

	if _, err := store.UpdatePlayerStats(ctx, p.ID, 7, 10); err != nil {
		t.Fatalf("update: %v", err)
	}
	updated, err := store.UpdatePlayerStats(ctx, p.ID, 2, 10)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Score != 9 || updated.TotalAnswers != 20 {
		t.Fatalf("expected 9/20, got %d/%d", updated.Score, updated.TotalAnswers)
	}
	if !updated.UpdatedAt.After(p.UpdatedAt) {
		t.Fatalf("expected updated_at to move forward")
	}

	if _, err := store.UpdatePlayerStats(ctx, "missing", 1, 1); err != domain.ErrPlayerNotFound {
		t.Fatalf("expected ErrPlayerNotFound, got %v", err)
	}
}

func TestLeaderboardOrderAndRank(t *testing.T) {
	ctx := context.Background()
	store := NewPlayerStoreWithClock(stepClock())

	ann, _ := store.CreateOrUpdatePlayer(ctx, "Ann")
	bob, _ := store.CreateOrUpdatePlayer(ctx, "Bob")
	cid, _ := store.CreateOrUpdatePlayer(ctx, "Cid")
	_, _ = store.UpdatePlayerStats(ctx, ann.ID, 5, 10)
	_, _ = store.UpdatePlayerStats(ctx, bob.ID, 8, 10)
	_, _ = store.UpdatePlayerStats(ctx, cid.ID, 5, 10) // ties Ann, updated later

	board, err := store.GetLeaderboard(ctx, 0)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	want := []string{"Bob", "Cid", "Ann"}
	if len(board) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(board))
	}
	for i, name := range want {
		if board[i].Name != name {
			t.Fatalf("position %d: expected %s, got %s", i, name, board[i].Name)
		}
	}

	top, _ := store.GetLeaderboard(ctx, 1)
	if len(top) != 1 || top[0].Name != "Bob" {
		t.Fatalf("expected limit to apply, got %+v", top)
	}

	ranks := map[string]int{bob.ID: 1, ann.ID: 2, cid.ID: 2}
	for id, want := range ranks {
		rank, ok, err := store.GetPlayerRank(ctx, id)
		if err != nil || !ok || rank != want {
			t.Fatalf("rank for %s: got %d ok=%v err=%v, want %d", id, rank, ok, err, want)
		}
	}

	if _, ok, err := store.GetPlayerRank(ctx, "missing"); ok || err != nil {
		t.Fatalf("expected unknown player to have no rank, ok=%v err=%v", ok, err)
	}
}
