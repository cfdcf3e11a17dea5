package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"wbb_scrooper/models"
)

// PostgresStore mirrors scraped rosters and officiating data into a shared
// database. It is only opened when DATABASE_URL is set.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Pool() *pgxpool.Pool {
	return s.pool
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS wbb_players (
	team_id INTEGER NOT NULL,
	season TEXT NOT NULL,
	name TEXT NOT NULL,
	team TEXT,
	player_id TEXT,
	jersey TEXT,
	position TEXT,
	height TEXT,
	academic_year TEXT,
	hometown TEXT,
	high_school TEXT,
	previous_school TEXT,
	major TEXT,
	url TEXT,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (team_id, season, name)
);

CREATE TABLE IF NOT EXISTS wbb_coaches (
	team_id INTEGER NOT NULL,
	season TEXT NOT NULL,
	name TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	team TEXT,
	url TEXT,
	experience TEXT,
	alma_mater TEXT,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (team_id, season, name, title)
);

CREATE TABLE IF NOT EXISTS wbb_official_games (
	game_id BIGINT NOT NULL,
	ncaa_id INTEGER NOT NULL,
	season TEXT,
	game_date DATE,
	home TEXT,
	home_fouls INTEGER,
	home_technicals INTEGER,
	visitor TEXT,
	visitor_fouls INTEGER,
	visitor_technicals INTEGER,
	officials TEXT[],
	PRIMARY KEY (ncaa_id, game_id)
);
`

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// =============================================================================
// Rosters
// =============================================================================

func (s *PostgresStore) UpsertPlayers(ctx context.Context, players []models.Player) error {
	batch := &pgx.Batch{}
	for _, p := range players {
		batch.Queue(`
			INSERT INTO wbb_players (
				team_id, season, name, team, player_id, jersey, position, height, academic_year,
				hometown, high_school, previous_school, major, url, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW())
			ON CONFLICT (team_id, season, name) DO UPDATE SET
				jersey = EXCLUDED.jersey,
				position = EXCLUDED.position,
				height = EXCLUDED.height,
				academic_year = EXCLUDED.academic_year,
				hometown = COALESCE(NULLIF(EXCLUDED.hometown, ''), wbb_players.hometown),
				high_school = COALESCE(NULLIF(EXCLUDED.high_school, ''), wbb_players.high_school),
				previous_school = COALESCE(NULLIF(EXCLUDED.previous_school, ''), wbb_players.previous_school),
				major = COALESCE(NULLIF(EXCLUDED.major, ''), wbb_players.major),
				url = COALESCE(NULLIF(EXCLUDED.url, ''), wbb_players.url),
				updated_at = NOW()`,
			p.TeamID, p.Season, p.Name, p.Team, p.PlayerID, p.Jersey, p.Position, p.Height, p.AcademicYear,
			p.Hometown, p.HighSchool, p.PreviousSchool, p.Major, p.URL)
	}
	return s.sendBatch(ctx, batch, "upsert players")
}

func (s *PostgresStore) UpsertCoaches(ctx context.Context, coaches []models.Coach) error {
	batch := &pgx.Batch{}
	for _, c := range coaches {
		batch.Queue(`
			INSERT INTO wbb_coaches (team_id, season, name, title, team, url, experience, alma_mater, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
			ON CONFLICT (team_id, season, name, title) DO UPDATE SET
				url = COALESCE(NULLIF(EXCLUDED.url, ''), wbb_coaches.url),
				experience = COALESCE(NULLIF(EXCLUDED.experience, ''), wbb_coaches.experience),
				alma_mater = COALESCE(NULLIF(EXCLUDED.alma_mater, ''), wbb_coaches.alma_mater),
				updated_at = NOW()`,
			c.TeamID, c.Season, c.Name, c.Title, c.Team, c.URL, c.Experience, c.AlmaMater)
	}
	return s.sendBatch(ctx, batch, "upsert coaches")
}

// =============================================================================
// Officials
// =============================================================================

func (s *PostgresStore) UpsertOfficialGames(ctx context.Context, games []models.OfficiatedGame) error {
	batch := &pgx.Batch{}
	for _, g := range games {
		var date *string
		if g.Date != "" {
			d := g.Date
			date = &d
		}
		batch.Queue(`
			INSERT INTO wbb_official_games (
				game_id, ncaa_id, season, game_date, home, home_fouls, home_technicals,
				visitor, visitor_fouls, visitor_technicals, officials
			) VALUES ($1, $2, $3, $4::date, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (ncaa_id, game_id) DO UPDATE SET
				season = COALESCE(EXCLUDED.season, wbb_official_games.season),
				home_fouls = EXCLUDED.home_fouls,
				home_technicals = EXCLUDED.home_technicals,
				visitor_fouls = EXCLUDED.visitor_fouls,
				visitor_technicals = EXCLUDED.visitor_technicals,
				officials = EXCLUDED.officials`,
			g.GameID, g.NcaaID, g.Season, date, g.Home, g.HomeFouls, g.HomeTechnicals,
			g.Visitor, g.VisitorFouls, g.VisitorTechnicals, g.Officials)
	}
	return s.sendBatch(ctx, batch, "upsert official games")
}

func (s *PostgresStore) sendBatch(ctx context.Context, batch *pgx.Batch, op string) error {
	if batch.Len() == 0 {
		return nil
	}
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("%s: row %d: %w", op, i, err)
		}
	}
	return nil
}
