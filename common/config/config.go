package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

func getEnv(key, defaultValue string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	return value
}

func loadEnvString(key string, result *string) {
	s, ok := os.LookupEnv(key)

	if !ok {
		return
	}
	*result = s
}

func loadEnvUint(key string, result *uint) {
	s, ok := os.LookupEnv(key)

	if !ok {
		return
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return
	}
	*result = uint(n)
}

func loadEnvBool(key string, result *bool) {
	s, ok := os.LookupEnv(key)

	if !ok {
		return
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return
	}
	*result = b
}

// loadEnvDuration accepts Go duration strings ("15s", "2m").
func loadEnvDuration(key string, result *time.Duration) {
	s, ok := os.LookupEnv(key)

	if !ok {
		return
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return
	}
	*result = d
}

// loadEnvList reads a comma separated list, dropping empty items.
func loadEnvList(key string, result *[]string) {
	s, ok := os.LookupEnv(key)

	if !ok {
		return
	}
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	*result = items
}

/* Configuration */

/* PgSQL Configuration */
type pgSqlConfig struct {
	Host     string `json:"host"`
	Port     uint   `json:"port"`
	Database string `json:"database"`
	SslMode  string `json:"ssl_mode"`
	User     string `json:"user"`
	Password string `json:"-"`
}

func (p pgSqlConfig) ConnStr() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s database=%s sslmode=%s", p.Host, p.Port, p.User, p.Password, p.Database, p.SslMode)
}

func defaultPgSql() pgSqlConfig {
	return pgSqlConfig{
		Host:     "localhost",
		Port:     5432,
		Database: "prospects",
		User:     "",
		Password: "",
		SslMode:  "disable",
	}
}

func (p *pgSqlConfig) loadFromEnv() {
	loadEnvString("POSTGRES_HOST", &p.Host)
	loadEnvUint("POSTGRES_PORT", &p.Port)
	loadEnvString("POSTGRES_DB_NAME", &p.Database)
	loadEnvString("POSTGRES_SSLMODE", &p.SslMode)
	loadEnvString("POSTGRES_USERNAME", &p.User)
	loadEnvString("POSTGRES_PASSWORD", &p.Password)
}

/* Listen Configuration */

type listenConfig struct {
	Host string `json:"host"`
	Port uint   `json:"port"`
}

func (l listenConfig) Addr() string {
	return fmt.Sprintf("%s:%d", l.Host, l.Port)
}

func defaultListenConfig() listenConfig {
	return listenConfig{
		Host: "127.0.0.1",
		Port: 8080,
	}
}

func (l *listenConfig) loadFromEnv() {
	loadEnvString("LISTEN_HOST", &l.Host)
	loadEnvUint("LISTEN_PORT", &l.Port)
}

type logConfig struct {
	Level  string
	Pretty bool
}

func (l *logConfig) loadFromEnv() {
	loadEnvString("LOG_LEVEL", &l.Level)
	loadEnvBool("LOG_PRETTY", &l.Pretty)
}

func defaultLogConfig() logConfig {
	return logConfig{
		Level:  "info",
		Pretty: false,
	}
}

type natsConfig struct {
	Host             string
	Port             uint
	Username         string
	Password         string
	JetStreamEnabled bool
}

func (c *natsConfig) loadFromEnv() {
	c.Host = getEnv("NATS_HOST", c.Host)
	loadEnvUint("NATS_PORT", &c.Port)
	c.Username = getEnv("NATS_USER", c.Username)
	c.Password = getEnv("NATS_PASSWORD", c.Password)
	loadEnvBool("NATS_JETSTREAM_ENABLED", &c.JetStreamEnabled)
}

func (c *natsConfig) URL() string {
	return fmt.Sprintf("nats://%s:%d", c.Host, c.Port)
}

func defaultNatsConfig() natsConfig {
	return natsConfig{
		Host:             "localhost",
		Port:             4222,
		Username:         "",
		Password:         "",
		JetStreamEnabled: true,
	}
}

type securityConfig struct {
	BackendApiKey string
}

func (s *securityConfig) loadFromEnv() {
	s.BackendApiKey = getEnv("BACKEND_API_KEY", "")
}

func defaultSecurityConfig() securityConfig {
	return securityConfig{
		BackendApiKey: "",
	}
}

type redisConfig struct {
	Host     string `json:"host"`
	Port     uint   `json:"port"`
	Password string `json:"-"`
	DB       int    `json:"db"`
}

func (r *redisConfig) loadFromEnv() {
	loadEnvString("REDIS_HOST", &r.Host)
	loadEnvUint("REDIS_PORT", &r.Port)
	loadEnvString("REDIS_PASSWORD", &r.Password)

	if dbStr := getEnv("REDIS_DB", "0"); dbStr != "" {
		if db, err := strconv.Atoi(dbStr); err == nil {
			r.DB = db
		}
	}
	log.Info().Interface("redis", r).Msg("Redis config loaded")
}

func defaultRedisConfig() redisConfig {
	return redisConfig{
		Host:     "localhost",
		Port:     6379,
		Password: "",
		DB:       0,
	}
}

type GCSConfig struct {
	ProjectID       string
	CredentialsFile string
	Bucket          string
}

// Enabled reports whether batch archiving to GCS is configured.
func (g GCSConfig) Enabled() bool {
	return g.Bucket != "" && g.CredentialsFile != ""
}

func (g *GCSConfig) loadFromEnv() {
	g.ProjectID = getEnv("GCS_PROJECT_ID", "")
	g.CredentialsFile = getEnv("GCS_CREDENTIALS_FILE", "")
	g.Bucket = getEnv("GCS_STORAGE_BUCKET", "")
}

func defaultGcsConfig() GCSConfig {
	return GCSConfig{
		ProjectID:       "",
		CredentialsFile: "",
		Bucket:          "",
	}
}

/* Search backend Configuration */

type SearchConfig struct {
	// Adapter names in priority order; the first one is the primary adapter.
	Priority []string

	SearxNGInstances []string
	ScrapingdogURL   string
	ScrapingdogKey   string
	DuckDuckGoURL    string
	OllamaURL        string
	OllamaModel      string

	HTTPTimeout time.Duration
	LLMTimeout  time.Duration
	CacheTTL    time.Duration
	UserAgent   string

	// Requests per second allowed against a single backend.
	RequestsPerSecond float64
	PageFetchWorkers  uint
	MaxPagesPerQuery  uint
	BrowserFallback   bool
	// DevTools websocket of a running browser; empty lets rod launch one.
	BrowserControlURL string
	ProfileWorkers    uint
}

func (s *SearchConfig) loadFromEnv() {
	loadEnvList("SEARCH_ADAPTER_PRIORITY", &s.Priority)
	loadEnvList("SEARXNG_INSTANCES", &s.SearxNGInstances)
	loadEnvString("SCRAPINGDOG_URL", &s.ScrapingdogURL)
	loadEnvString("SCRAPINGDOG_API_KEY", &s.ScrapingdogKey)
	loadEnvString("DUCKDUCKGO_URL", &s.DuckDuckGoURL)
	loadEnvString("OLLAMA_URL", &s.OllamaURL)
	loadEnvString("OLLAMA_MODEL", &s.OllamaModel)
	loadEnvDuration("SEARCH_HTTP_TIMEOUT", &s.HTTPTimeout)
	loadEnvDuration("SEARCH_LLM_TIMEOUT", &s.LLMTimeout)
	loadEnvDuration("SEARCH_CACHE_TTL", &s.CacheTTL)
	loadEnvString("SEARCH_USER_AGENT", &s.UserAgent)
	if v := getEnv("SEARCH_REQUESTS_PER_SECOND", ""); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			s.RequestsPerSecond = f
		}
	}
	loadEnvUint("SEARCH_PAGE_FETCH_WORKERS", &s.PageFetchWorkers)
	loadEnvUint("SEARCH_MAX_PAGES_PER_QUERY", &s.MaxPagesPerQuery)
	loadEnvBool("SEARCH_BROWSER_FALLBACK", &s.BrowserFallback)
	loadEnvString("SEARCH_BROWSER_CONTROL_URL", &s.BrowserControlURL)
	loadEnvUint("SEARCH_PROFILE_WORKERS", &s.ProfileWorkers)
}

func defaultSearchConfig() SearchConfig {
	return SearchConfig{
		Priority: []string{"searxng", "scrapingdog", "duckduckgo", "ollama-searxng"},
		SearxNGInstances: []string{
			"http://localhost:8888",
		},
		ScrapingdogURL:    "https://api.scrapingdog.com/google",
		DuckDuckGoURL:     "https://html.duckduckgo.com/html/",
		OllamaURL:         "http://localhost:11434",
		OllamaModel:       "qwen2.5:0.5b",
		HTTPTimeout:       15 * time.Second,
		LLMTimeout:        90 * time.Second,
		CacheTTL:          30 * time.Minute,
		UserAgent:         "Mozilla/5.0 (compatible; ProspectBot/1.0)",
		RequestsPerSecond: 1,
		PageFetchWorkers:  3,
		MaxPagesPerQuery:  5,
		BrowserFallback:   false,
		ProfileWorkers:    2,
	}
}

/* Discovery Configuration */

type DiscoveryConfig struct {
	MaxSearches           uint
	MaxConsecutiveEmpty   uint
	MinResults            uint
	PatternFallback       bool
	DelayBetweenSearches  time.Duration
	DefaultMaxResults     uint
	BusinessMinScore      uint
	ConsumerMinScore      uint
	PatternMinScore       uint
	PatternCandidateLimit uint
}

func (d *DiscoveryConfig) loadFromEnv() {
	loadEnvUint("DISCOVERY_MAX_SEARCHES", &d.MaxSearches)
	loadEnvUint("DISCOVERY_MAX_CONSECUTIVE_EMPTY", &d.MaxConsecutiveEmpty)
	loadEnvUint("DISCOVERY_MIN_RESULTS", &d.MinResults)
	loadEnvBool("DISCOVERY_PATTERN_FALLBACK", &d.PatternFallback)
	loadEnvDuration("DISCOVERY_SEARCH_DELAY", &d.DelayBetweenSearches)
	loadEnvUint("DISCOVERY_DEFAULT_MAX_RESULTS", &d.DefaultMaxResults)
	loadEnvUint("DISCOVERY_BUSINESS_MIN_SCORE", &d.BusinessMinScore)
	loadEnvUint("DISCOVERY_CONSUMER_MIN_SCORE", &d.ConsumerMinScore)
	loadEnvUint("DISCOVERY_PATTERN_MIN_SCORE", &d.PatternMinScore)
	loadEnvUint("DISCOVERY_PATTERN_CANDIDATE_LIMIT", &d.PatternCandidateLimit)
}

func DefaultDiscoveryConfig() DiscoveryConfig {
	return DiscoveryConfig{
		MaxSearches:           5,
		MaxConsecutiveEmpty:   2,
		MinResults:            10,
		PatternFallback:       false,
		DelayBetweenSearches:  2 * time.Second,
		DefaultMaxResults:     50,
		BusinessMinScore:      40,
		ConsumerMinScore:      60,
		PatternMinScore:       40,
		PatternCandidateLimit: 10,
	}
}

/* Continuous search Configuration */

type ContinuousConfig struct {
	MaxPerHour  uint
	BatchSize   uint
	RequestSize uint
	TargetTotal uint
	SearchDelay time.Duration
	ErrorDelay  time.Duration
}

func (c *ContinuousConfig) loadFromEnv() {
	loadEnvUint("CONTINUOUS_MAX_PER_HOUR", &c.MaxPerHour)
	loadEnvUint("CONTINUOUS_BATCH_SIZE", &c.BatchSize)
	loadEnvUint("CONTINUOUS_REQUEST_SIZE", &c.RequestSize)
	loadEnvUint("CONTINUOUS_TARGET_TOTAL", &c.TargetTotal)
	loadEnvDuration("CONTINUOUS_SEARCH_DELAY", &c.SearchDelay)
	loadEnvDuration("CONTINUOUS_ERROR_DELAY", &c.ErrorDelay)
}

func DefaultContinuousConfig() ContinuousConfig {
	return ContinuousConfig{
		MaxPerHour:  100,
		BatchSize:   10,
		RequestSize: 12,
		TargetTotal: 50,
		SearchDelay: 3 * time.Second,
		ErrorDelay:  5 * time.Second,
	}
}

type Config struct {
	Listen     listenConfig
	Log        logConfig
	PgSql      pgSqlConfig
	Security   securityConfig
	Nats       natsConfig
	Redis      redisConfig
	GCS        GCSConfig
	Search     SearchConfig
	Discovery  DiscoveryConfig
	Continuous ContinuousConfig
}

func (c *Config) LoadFromEnv() {
	c.Listen.loadFromEnv()
	c.Log.loadFromEnv()
	c.PgSql.loadFromEnv()
	c.Security.loadFromEnv()
	c.Nats.loadFromEnv()
	c.Redis.loadFromEnv()
	c.GCS.loadFromEnv()
	c.Search.loadFromEnv()
	c.Discovery.loadFromEnv()
	c.Continuous.loadFromEnv()
}

func DefaultConfig() Config {
	return Config{
		Listen:     defaultListenConfig(),
		Log:        defaultLogConfig(),
		PgSql:      defaultPgSql(),
		Security:   defaultSecurityConfig(),
		Nats:       defaultNatsConfig(),
		Redis:      defaultRedisConfig(),
		GCS:        defaultGcsConfig(),
		Search:     defaultSearchConfig(),
		Discovery:  DefaultDiscoveryConfig(),
		Continuous: DefaultContinuousConfig(),
	}
}
