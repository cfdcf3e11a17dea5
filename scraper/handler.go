package scraper

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"wbb_scrooper/browser"
	"wbb_scrooper/config"
	"wbb_scrooper/httputil"
	"wbb_scrooper/models"
	"wbb_scrooper/storage"
)

// Handler runs one kind of job. Run returns the number of records found;
// files it writes are recorded on run.
type Handler interface {
	ID() string
	Run(ctx context.Context, job *config.JobConfig, run *models.ScrapeRun) (int, error)
}

// Deps are the shared clients and stores handed to every handler. Browser,
// Store and PG may be nil.
type Deps struct {
	Config  *config.Config
	HTTP    *httputil.Clients
	Browser browser.Renderer
	Store   *storage.SQLiteStore
	PG      *storage.PostgresStore
	Teams   []models.Team
}

const (
	HandlerRosters       = "rosters"
	HandlerFIBAGames     = "fiba_games"
	HandlerFIBABoxscores = "fiba_boxscores"
	HandlerFIBAPlayers   = "fiba_players"
	HandlerWNBARosters   = "wnba_rosters"
	HandlerShowbuzz      = "showbuzz"
	HandlerNCAAGames     = "ncaa_games"
	HandlerNCAAExports   = "ncaa_exports"
	HandlerNCAAPbp       = "ncaa_pbp"
	HandlerOfficials     = "officials"
	HandlerCoachBios     = "coach_bios"
	HandlerURLCheck      = "url_check"
)

func NewHandler(job *config.JobConfig, deps Deps) (Handler, error) {
	switch job.Handler {
	case HandlerRosters:
		return &RostersHandler{deps: deps}, nil
	case HandlerFIBAGames:
		return &FIBAGamesHandler{deps: deps}, nil
	case HandlerFIBABoxscores:
		return &FIBABoxscoresHandler{deps: deps}, nil
	case HandlerFIBAPlayers:
		return &FIBAPlayersHandler{deps: deps}, nil
	case HandlerWNBARosters:
		return &WNBAHandler{deps: deps}, nil
	case HandlerShowbuzz:
		return &ShowbuzzHandler{deps: deps}, nil
	case HandlerNCAAGames:
		return &NCAAGamesHandler{deps: deps}, nil
	case HandlerNCAAExports:
		return &NCAAExportsHandler{deps: deps}, nil
	case HandlerNCAAPbp:
		return &NCAAPbpHandler{deps: deps}, nil
	case HandlerOfficials:
		return &OfficialsHandler{deps: deps}, nil
	case HandlerCoachBios:
		return &CoachBiosHandler{deps: deps}, nil
	case HandlerURLCheck:
		return &URLCheckHandler{deps: deps}, nil
	default:
		return nil, fmt.Errorf("unknown handler %q for job %s", job.Handler, job.ID)
	}
}

// ============================================================================
// Job parameter helpers
// ============================================================================

func outputDir(cfg *config.Config, job *config.JobConfig) string {
	if job.Output != "" {
		return job.Output
	}
	return filepath.Join(cfg.DataDir, job.ID)
}

func jobSeasons(cfg *config.Config, job *config.JobConfig) []string {
	if len(job.Seasons) > 0 {
		return job.Seasons
	}
	return []string{cfg.Scraper.Season}
}

// jobDelay is the job's rate limit, or the global scrape delay when unset.
func jobDelay(cfg *config.Config, job *config.JobConfig) time.Duration {
	if job.RateLimitMS > 0 {
		return job.Delay()
	}
	return cfg.Delay()
}

func intParam(job *config.JobConfig, key string, def int) (int, error) {
	v := job.Param(key, "")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("param %s: %w", key, err)
	}
	return n, nil
}

func boolParam(job *config.JobConfig, key string) bool {
	b, _ := strconv.ParseBool(job.Param(key, "false"))
	return b
}

// listParam splits a comma separated parameter, dropping blanks.
func listParam(job *config.JobConfig, key, def string) []string {
	var out []string
	for _, part := range strings.Split(job.Param(key, def), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
