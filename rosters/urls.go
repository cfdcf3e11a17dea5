package rosters

import (
	"fmt"
	"strconv"
	"strings"
)

// URL formats for roster pages.
const (
	FormatDefault          = "default"
	FormatDirect           = "direct"
	FormatDirectURL        = "direct_url"
	FormatSeasonFirst      = "season_first"
	FormatSeasonFirstTable = "season_first_table"
	FormatSeasonPath       = "season_path"
	FormatSeasonPathTable  = "season_path_table"
	FormatClemson          = "clemson"
	FormatIowaTable        = "iowa_table"
	FormatValpo            = "valpo"
	FormatLaSalle          = "la_salle"
	FormatBYUTable         = "byu_table"
	FormatFourDigitYear    = "four_digit_year"
	FormatNextYear         = "next_year"
)

// fourDigitSeason turns 2025-26 into 2025-2026.
func fourDigitSeason(season string) string {
	if len(season) < 4 {
		return season
	}
	return season[:4] + "-" + season[:2] + season[len(season)-2:]
}

func nextSeason(season string) string {
	if len(season) < 7 {
		return season
	}
	start, err1 := strconv.Atoi(season[:4])
	end, err2 := strconv.Atoi(season[len(season)-2:])
	if err1 != nil || err2 != nil {
		return season
	}
	return fmt.Sprintf("%d-%02d", start+1, end+1)
}

// BuildURL returns the roster (or coaches) page for a team in a season.
func BuildURL(baseURL, season, format string, entity Entity) string {
	if strings.Contains(baseURL, "/"+season) || format == FormatDirectURL {
		return baseURL + "/" + season
	}

	base := strings.TrimRight(baseURL, "/")
	path := "roster"
	if entity == EntityCoach {
		path = "coaches"
	}

	switch {
	case strings.HasPrefix(base, "https://arkansasrazorbacks.com"):
		p := "w-baskbl/roster"
		if entity == EntityCoach {
			p = "w-baskbl/coaches"
		}
		return fmt.Sprintf("https://arkansasrazorbacks.com/sport/%s/?season=%s", p, season)
	case strings.HasPrefix(base, "https://goaztecs.com"):
		return fmt.Sprintf("https://goaztecs.com/sports/womens-basketball/%s/season/%s?view=table", path, season)
	case strings.HasPrefix(base, "https://miamihurricanes.com"):
		return fmt.Sprintf("%s/roster/season/%s/", base, season)
	case strings.HasPrefix(base, "https://hawkeyesports.com"):
		if entity == EntityCoach {
			return fmt.Sprintf("%s/roster/season/%s?tab=coaches", base, season)
		}
		if strings.Contains(base, "/wbball") {
			return fmt.Sprintf("%s/roster/season/%s?view=table", base, season)
		}
		return fmt.Sprintf("%s/sports/wbball/roster/season/%s?view=table", base, season)
	case strings.HasPrefix(base, "https://gomason.com"), strings.HasPrefix(base, "https://miamiredhawks.com"):
		return fmt.Sprintf("%s/roster/%s", base, season)
	case strings.HasPrefix(base, "https://hawaiiathletics.com"):
		return fmt.Sprintf("%s/%s/%s", base, path, fourDigitSeason(season))
	}

	switch format {
	case FormatDirect:
		return fmt.Sprintf("%s/%s/", base, path)
	case FormatSeasonFirst:
		return fmt.Sprintf("%s/%s/%s", base, season, path)
	case FormatSeasonFirstTable:
		return fmt.Sprintf("%s/%s/%s?view=list", base, season, path)
	case FormatSeasonPath:
		return fmt.Sprintf("%s/%s/season/%s/", base, path, season)
	case FormatSeasonPathTable, FormatIowaTable:
		return fmt.Sprintf("%s/%s/season/%s?view=table", base, path, season)
	case FormatClemson:
		return fmt.Sprintf("%s/%s/season/%s", base, path, season[:4])
	case FormatValpo:
		return fmt.Sprintf("%s/%s/%s/?view=list", base, path, season)
	case FormatLaSalle, FormatFourDigitYear:
		return fmt.Sprintf("%s/%s/%s", base, path, fourDigitSeason(season))
	case FormatBYUTable:
		return fmt.Sprintf("%s/%s/season/%s?view=table", base, path, fourDigitSeason(season))
	case FormatNextYear:
		return fmt.Sprintf("%s/%s/%s", base, path, nextSeason(season))
	default:
		return fmt.Sprintf("%s/%s/%s", base, path, season)
	}
}
