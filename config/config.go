package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP        HTTPConfig
	Scraper     ScraperConfig
	Scheduler   SchedulerConfig
	Postgres    PostgresConfig
	S3          S3Config
	Anthropic   AnthropicConfig
	DBPath      string
	DataDir     string
	GameDataDir string
	TeamsPath   string
	LogPath     string
	Jobs        map[string]*JobConfig
}

type HTTPConfig struct {
	ProxyURL    string
	UserAgent   string
	Timeout     time.Duration
	Retries     int
	InsecureTLS bool
	CacheDir    string
}

type ScraperConfig struct {
	DelayMS         int
	Season          string
	BrowserHeadless bool
}

type SchedulerConfig struct {
	Interval time.Duration
	Cron     string
}

type PostgresConfig struct {
	URL string
}

type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PublicURL       string
}

type AnthropicConfig struct {
	APIKey string
	Model  string
}

// JobConfig describes one scheduled or on-demand scraper run.
type JobConfig struct {
	ID          string            `yaml:"id"`
	Name        string            `yaml:"name"`
	Handler     string            `yaml:"handler"`
	RateLimitMS int               `yaml:"rate_limit_ms"`
	Seasons     []string          `yaml:"seasons"`
	Teams       []int             `yaml:"teams"`
	Params      map[string]string `yaml:"params"`
	Output      string            `yaml:"output"`
}

// Param returns a handler parameter or def when unset.
func (j *JobConfig) Param(key, def string) string {
	if v, ok := j.Params[key]; ok && v != "" {
		return v
	}
	return def
}

func (j *JobConfig) Delay() time.Duration {
	return time.Duration(j.RateLimitMS) * time.Millisecond
}

const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HTTP: HTTPConfig{
			ProxyURL:    os.Getenv("HTTP_PROXY_URL"),
			UserAgent:   getEnv("HTTP_USER_AGENT", DefaultUserAgent),
			Timeout:     getEnvDuration("HTTP_TIMEOUT", 30*time.Second),
			Retries:     getEnvInt("HTTP_RETRIES", 2),
			InsecureTLS: getEnvBool("HTTP_INSECURE_TLS", false),
			CacheDir:    os.Getenv("HTTP_CACHE_DIR"),
		},
		Scraper: ScraperConfig{
			DelayMS:         getEnvInt("SCRAPE_DELAY_MS", 1000),
			Season:          getEnv("SCRAPE_SEASON", "2025-26"),
			BrowserHeadless: getEnvBool("BROWSER_HEADLESS", true),
		},
		Scheduler: SchedulerConfig{
			Cron:     os.Getenv("SCRAPE_CRON"),
			Interval: getEnvDuration("SCRAPE_INTERVAL", 0),
		},
		Postgres: PostgresConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		S3: S3Config{
			Bucket:          os.Getenv("S3_BUCKET"),
			Region:          getEnv("S3_REGION", "us-east-1"),
			Endpoint:        os.Getenv("S3_ENDPOINT"),
			AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
			PublicURL:       os.Getenv("S3_PUBLIC_URL"),
		},
		Anthropic: AnthropicConfig{
			APIKey: os.Getenv("ANTHROPIC_API_KEY"),
			Model:  getEnv("ANTHROPIC_MODEL", "claude-haiku-4-5-20251001"),
		},
		DBPath:      getEnv("DB_PATH", "scraper.db"),
		DataDir:     getEnv("DATA_DIR", "data"),
		GameDataDir: getEnv("GAME_DATA_DIR", "game_data"),
		TeamsPath:   getEnv("TEAMS_PATH", "teams.json"),
		LogPath:     getEnv("LOG_PATH", "scraper.log"),
		Jobs:        make(map[string]*JobConfig),
	}

	if err := cfg.loadJobConfigs("config/jobs"); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadJobConfigs(configDir string) error {
	entries, err := os.ReadDir(configDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}

		path := filepath.Join(configDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		var job JobConfig
		if err := yaml.Unmarshal(data, &job); err != nil {
			return err
		}
		if job.ID == "" {
			job.ID = entry.Name()[:len(entry.Name())-len(".yaml")]
		}

		c.Jobs[job.ID] = &job
	}

	return nil
}

// Delay is the default pause between requests to the same site.
func (c *Config) Delay() time.Duration {
	return time.Duration(c.Scraper.DelayMS) * time.Millisecond
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
