package storage

import (
	"context"
	"os"
	"testing"

	"wbb_scrooper/models"
)

// Requires a disposable database: TEST_DATABASE_URL=postgres://...
func TestPostgresUpserts(t *testing.T) {
	conn := os.Getenv("TEST_DATABASE_URL")
	if conn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	store, err := NewPostgresStore(ctx, conn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatalf("schema: %v", err)
	}

	players := []models.Player{{TeamID: 1, Team: "Test", Season: "2025-26", Name: "Test Player", Hometown: "Storrs, Conn."}}
	if err := store.UpsertPlayers(ctx, players); err != nil {
		t.Fatalf("upsert players: %v", err)
	}
	players[0].Hometown = ""
	if err := store.UpsertPlayers(ctx, players); err != nil {
		t.Fatalf("re-upsert players: %v", err)
	}

	var hometown string
	err = store.Pool().QueryRow(ctx,
		`SELECT hometown FROM wbb_players WHERE team_id = 1 AND season = '2025-26' AND name = 'Test Player'`).Scan(&hometown)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if hometown != "Storrs, Conn." {
		t.Fatalf("expected hometown preserved, got %q", hometown)
	}

	games := []models.OfficiatedGame{{GameID: 9, NcaaID: 1, Date: "2025-11-04", Officials: []string{"A B", "C D"}}}
	if err := store.UpsertOfficialGames(ctx, games); err != nil {
		t.Fatalf("upsert games: %v", err)
	}
}
