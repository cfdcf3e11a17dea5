package models

// ShowRating is one program row from a daily cable ratings chart. Rank is
// the chart's text; Duration and Viewers are plain integers when the cell
// is numeric and the cell text otherwise.
type ShowRating struct {
	Rank     string
	Program  string
	Network  string
	Time     string
	Duration string
	Rating   string
	Viewers  string
	Date     string
}

var ShowRatingCSVHeader = []string{"rank", "program", "network", "time", "duration", "rating", "viewers", "date"}

func (r ShowRating) CSVRow() []string {
	return []string{r.Rank, r.Program, r.Network, r.Time, r.Duration, r.Rating, r.Viewers, r.Date}
}
