package ncaa

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"wbb_scrooper/models"
)

// ErrInvalidSeason is returned for seasons not in consecutive YYYY-YY form.
var ErrInvalidSeason = errors.New("invalid season")

var seasonPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

// ValidateSeason accepts "2024-25" style seasons whose years are consecutive.
func ValidateSeason(season string) error {
	if !seasonPattern.MatchString(season) {
		return fmt.Errorf("%w: %q, expected YYYY-YY (e.g. 2024-25)", ErrInvalidSeason, season)
	}
	start, _ := strconv.Atoi(season[:4])
	end, _ := strconv.Atoi(season[5:7])
	if end != (start+1)%100 {
		return fmt.Errorf("%w: %q, years must be consecutive", ErrInvalidSeason, season)
	}
	return nil
}

var slugStripper = strings.NewReplacer(" ", "-", ".", "", ",", "", "'", "", "(", "", ")", "")

// Slugify names a team's game data directory, e.g. "255-georgia-tech".
func Slugify(team models.Team) string {
	return strconv.Itoa(team.ID()) + "-" + slugStripper.Replace(strings.ToLower(team.Name))
}

// SeasonDir is where a team's saved game files for a season live.
func SeasonDir(root string, team models.Team, season string) string {
	return filepath.Join(root, Slugify(team), season)
}

// DefaultSeasons is every season the livestats feed has been checked for,
// newest first.
var DefaultSeasons = []string{
	"2025-26", "2024-25", "2023-24", "2022-23", "2021-22", "2020-21", "2019-20",
	"2018-19", "2017-18", "2016-17", "2015-16", "2014-15", "2013-14", "2012-13",
	"2011-12", "2010-11", "2009-10", "2008-09", "2007-08", "2006-07", "2005-06",
	"2004-05", "2003-04", "2002-03", "2001-02",
}
