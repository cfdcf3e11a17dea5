package rosters

import (
	"errors"
	"fmt"
	"log"
	"os"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// Strategy kinds.
const (
	KindStandard   = "standard"
	KindTable      = "table"
	KindJavaScript = "javascript"
	KindVueData    = "vue_data"
)

const nuxtSelector = "nuxt_roster"

// TeamConfig tells the manager how to scrape one team's roster site.
type TeamConfig struct {
	Type           string              `yaml:"type"`
	Selector       string              `yaml:"selector,omitempty"`
	URLFormat      string              `yaml:"url_format,omitempty"`
	BaseURL        string              `yaml:"base_url,omitempty"`
	PlayerSelector string              `yaml:"player_selector,omitempty"`
	Flipcard       bool                `yaml:"flipcard_format,omitempty"`
	FieldSelectors map[string][]string `yaml:"field_selectors,omitempty"`
	Rendered       bool                `yaml:"rendered,omitempty"`
	AddState       bool                `yaml:"add_state,omitempty"`
}

// ============================================================================
// Dispatch tables
// ============================================================================

var nuxtTeams = map[int]string{
	71: "https://bgsufalcons.com", 83: "https://gobison.com", 96: "https://gobulldogs.com",
	99: "https://longbeachstate.com", 164: "https://uconnhuskies.com",
	176: "https://depaulbluedemons.com", 180: "https://bluehens.com", 191: "https://drexeldragons.com",
	204: "https://emueagles.com", 229: "https://fausports.com", 234: "https://seminoles.com",
	367: "https://gocards.com", 418: "https://mgoblue.com", 428: "https://gophersports.com",
	458: "https://charlotte49ers.com", 716: "https://troytrojans.com", 718: "https://tulanegreenwave.com",
	700: "https://texastech.com", 355: "https://libertyflames.com", 497: "https://meangreensports.com",
	441: "https://gogriz.com", 416: "https://msuspartans.com", 509: "https://nusports.com",
	521: "https://okstate.com", 522: "https://soonersports.com", 454: "https://goracers.com",
	404: "https://gotigersgo.com", 671: "https://ragincajuns.com",
	574: "https://riceowls.com", 664: "https://southernmiss.com", 575: "https://richmondspiders.com",
	698: "https://gofrogs.com", 288: "https://uhcougars.com", 400: "https://umassathletics.com",
	457: "https://goheels.com", 156: "https://csurams.com", 196: "https://ecupirates.com",
	725: "https://goarmywestpoint.com", 9: "https://uabsports.com", 502: "https://uncbears.com",
	456: "https://uncabulldogs.com", 469: "https://unhwildcats.com", 504: "https://unipanthers.com",
	758: "https://weberstatesports.com", 490: "https://gopack.com", 690: "https://owlsports.com",
	732: "https://utahutes.com", 749: "https://godeacs.com", 110: "https://uclabruins.com",
	1104: "https://gculopes.com", 719: "https://tulsahurricane.com", 772: "https://wkusports.com",
	328: "https://kuathletics.com", 635: "https://shupirates.com", 86: "https://ubbulls.com",
	694: "https://utsports.com", 387: "https://gomarquette.com", 545: "https://pittsburghpanthers.com",
	721: "https://goairforcefalcons.com", 51: "https://baylorbears.com",
	419: "https://goblueraiders.com", 688: "https://cuse.com", 311: "https://cyclones.com",
	129: "https://cmuchippewas.com", 8: "https://rolltide.com", 193: "https://goduke.com", 649: "https://gojacks.com",
	249: "https://gwsports.com", 430: "https://hailstate.com", 80: "https://brownbears.com",
	257: "https://georgiadogs.com", 317: "https://jmusports.com", 66: "https://broncosports.com",
	562: "https://gobobcats.com", 659: "https://siusalukis.com", 756: "https://gohuskies.com",
	697: "https://12thman.com", 173: "https://davidsonwildcats.com", 518: "https://ohiostatebuckeyes.com",
	47: "https://ballstatesports.com", 529: "https://goducks.com", 676: "https://sfajacks.com",
	30135: "https://cbulancers.com", 414: "https://miamiredhawks.com",
	434: "https://mutigers.com", 440: "https://msubobcats.com", 703: "https://texassports.com",
	796: "https://uwbadgers.com",
}

// Boston College, Creighton, Colorado, St. John's.
var sPersonCardTeams = map[int]bool{67: true, 169: true, 157: true, 603: true}

var tableTeams = map[int]string{
	5: FormatDefault, 31: FormatDefault,
	28: FormatIowaTable, 37: FormatIowaTable,
	26: FormatSeasonFirst, 64: FormatSeasonFirst, 74: FormatSeasonFirst, 325: FormatSeasonFirst,
	449: FormatSeasonFirst, 455: FormatSeasonFirst, 486: FormatSeasonFirst, 510: FormatSeasonFirst,
	517: FormatSeasonFirst, 525: FormatSeasonFirst, 532: FormatSeasonFirst, 538: FormatSeasonFirst,
	544: FormatSeasonFirst, 569: FormatSeasonFirst, 591: FormatSeasonFirst, 621: FormatSeasonFirst,
	641: FormatSeasonFirst, 684: FormatSeasonFirst, 762: FormatSeasonFirst, 785: FormatSeasonFirst,
	806: FormatSeasonFirst, 809: FormatSeasonFirst, 939: FormatSeasonFirst, 953: FormatSeasonFirst,
	1315: FormatSeasonFirst, 8486: FormatSeasonFirst, 8687: FormatSeasonFirst, 8956: FormatSeasonFirst,
	8981: FormatSeasonFirst, 30033: FormatSeasonFirst, 30189: FormatSeasonFirst,
}

// PrestoSports sites with season-first URLs but card layouts.
var prestoTeams = map[int]TeamConfig{
	30253: {URLFormat: FormatSeasonFirst, PlayerSelector: ".player-card-wrapper", Flipcard: true},
}

var customJSTeams = map[int]TeamConfig{
	178: {Selector: "sidearm_roster_player"},
	248: {Selector: "wyoming_roster"},
	327: {Selector: nuxtSelector},
	415: {Selector: "miami_table_roster", URLFormat: FormatSeasonPath},
	528: {Selector: "oregon_state_roster"},
	746: {Selector: "virginia_roster_table", URLFormat: FormatDirect},
	811: {Selector: "wyoming_roster"},
}

// Sidearm's newer person-card markup, exposed through data-test-id attributes.
var personDetailSelectors = map[string][]string{
	"position":      {`[data-test-id="s-person-details__bio-stats-person-position-short"]`},
	"height":        {`[data-test-id="s-person-details__bio-stats-person-season"]`},
	"academic_year": {`[data-test-id="s-person-details__bio-stats-person-title"]`},
	"hometown":      {`[data-test-id="s-person-card-list__content-location-person-hometown"]`},
	"high_school":   {`[data-test-id="s-person-card-list__content-location-person-high-school"]`},
}

// Mercer, Cal Poly, Dartmouth, Saint Mary's, Kent State, North Florida,
// CSUN, Florida, Kansas City, St. Cloud St., St. Thomas, Toledo, Columbia,
// Charleston, Boston U., West Virginia.
var personDetailTeams = []int{406, 90, 172, 610, 331, 2711, 101, 235, 2707, 598, 620, 709, 158, 1014, 68, 768}

// Rosters carried in a `roster: {...}` object literal.
var vueDataTeams = map[int]bool{72: true, 731: true}

// Pages that only fill in their roster client-side.
var renderedTeams = map[int]bool{
	51: true, 406: true, 90: true, 172: true, 610: true, 331: true,
	2711: true, 101: true, 235: true, 2707: true, 598: true, 620: true,
}

// Teams whose hometowns omit the state, which is taken from teams.json.
var addStateTeams = map[int]bool{
	46: true, 98: true, 100: true, 168: true, 200: true, 452: true,
	455: true, 517: true, 525: true, 531: true, 795: true, 798: true,
}

func builtinConfig(id int) TeamConfig {
	if cfg, ok := prestoTeams[id]; ok {
		cfg.Type = KindStandard
		return cfg
	}
	if base, ok := nuxtTeams[id]; ok {
		return TeamConfig{Type: KindJavaScript, Selector: nuxtSelector, URLFormat: FormatDefault, BaseURL: base}
	}
	if sPersonCardTeams[id] {
		return TeamConfig{Type: KindJavaScript, Selector: "s_person_card", URLFormat: FormatDefault}
	}
	if format, ok := tableTeams[id]; ok {
		return TeamConfig{Type: KindTable, URLFormat: format}
	}
	if cfg, ok := customJSTeams[id]; ok {
		cfg.Type = KindJavaScript
		return cfg
	}
	for _, pd := range personDetailTeams {
		if pd == id {
			return TeamConfig{Type: KindStandard, FieldSelectors: copySelectors(personDetailSelectors)}
		}
	}
	if vueDataTeams[id] {
		return TeamConfig{Type: KindVueData}
	}

	switch id {
	case 340:
		return TeamConfig{Type: KindStandard, URLFormat: FormatLaSalle}
	case 77:
		return TeamConfig{Type: KindTable, URLFormat: FormatBYUTable}
	case 352:
		return TeamConfig{Type: KindJavaScript, Selector: nuxtSelector, URLFormat: FormatLaSalle}
	}
	return TeamConfig{Type: KindStandard}
}

func copySelectors(m map[string][]string) map[string][]string {
	out := make(map[string][]string, len(m))
	for k, v := range m {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// ============================================================================
// Registry
// ============================================================================

// Registry resolves team configs, layering YAML overrides on the built-in
// tables.
type Registry struct {
	overrides map[int]TeamConfig
}

func NewRegistry() *Registry {
	return &Registry{overrides: make(map[int]TeamConfig)}
}

type overrideFile struct {
	Teams map[int]TeamConfig `yaml:"teams"`
}

// LoadOverrides reads a rosters.yaml file. A missing file is not an error.
func (r *Registry) LoadOverrides(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read roster overrides: %w", err)
	}

	var f overrideFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse roster overrides: %w", err)
	}
	for id, cfg := range f.Teams {
		r.overrides[id] = cfg
	}
	return nil
}

// Lookup returns the effective config for a team.
func (r *Registry) Lookup(id int) TeamConfig {
	cfg := builtinConfig(id)
	cfg.Rendered = cfg.Rendered || renderedTeams[id]
	cfg.AddState = cfg.AddState || addStateTeams[id]

	if o, ok := r.overrides[id]; ok {
		if err := mergo.Merge(&cfg, o, mergo.WithOverride); err != nil {
			log.Printf("Rosters: team %d: override ignored: %v", id, err)
		}
	}
	if cfg.Type == "" {
		cfg.Type = KindStandard
	}
	if cfg.URLFormat == "" {
		cfg.URLFormat = FormatDefault
	}
	return cfg
}
