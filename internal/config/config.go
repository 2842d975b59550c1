package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/draft-combine-pipeline/internal/platform/logging"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"

	StorageMemory     = "memory"
	StorageFilesystem = "filesystem"
	StorageMinio      = "minio"
	StorageS3         = "s3"

	JoinEngineLocal  = "local"
	JoinEngineDuckDB = "duckdb"
)

// Config stores runtime configuration for the pipeline binaries.
type Config struct {
	AppEnv         string
	ServiceName    string
	ServiceVersion string
	LogLevel       logging.Level

	BallDontLieBaseURL             string
	BallDontLieToken               string
	BallDontLieTimeout             time.Duration
	BallDontLiePerPage             int
	BallDontLieMaxAttempts         int
	BallDontLieBackoffInitial      time.Duration
	BallDontLieBackoffMax          time.Duration
	BallDontLieCourtesyDelay       time.Duration
	BallDontLieCircuitEnabled      bool
	BallDontLieCircuitFailureCount int
	BallDontLieCircuitOpenTimeout  time.Duration

	IngestMaxPagesPerRun int
	IngestWorkerCount    int

	StorageDriver       string
	StorageRoot         string
	StorageBucket       string
	StorageEndpoint     string
	StorageAccessKey    string
	StorageSecretKey    string
	StorageRegion       string
	StorageUseSSL       bool
	StoragePathStyle    bool
	StorageCreateBucket bool
	StorageRawPrefix    string
	StorageStatePrefix  string

	JoinEngine        string
	JoinCombineKey    string
	JoinCuratedPrefix string
	JoinTableName     string
	DuckDBPath        string

	RunLedgerEnabled        bool
	DBURL                   string
	DBDisablePreparedBinary bool

	SchedulerCron             string
	SchedulerSeason           int
	SchedulerWindowDays       int
	SchedulerMaxContinuations int
	SchedulerRunOnStart       bool
	MetricsAddr               string

	UptraceEnabled             bool
	UptraceDSN                 string
	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:         appEnv,
		ServiceName:    getEnv("APP_SERVICE_NAME", "draft-combine-pipeline"),
		ServiceVersion: getEnv("APP_SERVICE_VERSION", "dev"),
		LogLevel:       logging.ParseLevel(getEnv("APP_LOG_LEVEL", "info")),

		BallDontLieBaseURL: strings.TrimSpace(getEnv("BALLDONTLIE_BASE_URL", "https://api.balldontlie.io/v1")),
		BallDontLieToken:   strings.TrimSpace(getEnv("BALLDONTLIE_API_KEY", "")),

		StorageDriver:      strings.ToLower(strings.TrimSpace(getEnv("STORAGE_DRIVER", StorageFilesystem))),
		StorageRoot:        strings.TrimSpace(getEnv("STORAGE_ROOT", "./data")),
		StorageBucket:      strings.TrimSpace(getEnv("STORAGE_BUCKET", "")),
		StorageEndpoint:    strings.TrimSpace(getEnv("STORAGE_ENDPOINT", "")),
		StorageAccessKey:   strings.TrimSpace(getEnv("STORAGE_ACCESS_KEY", "")),
		StorageSecretKey:   strings.TrimSpace(getEnv("STORAGE_SECRET_KEY", "")),
		StorageRegion:      strings.TrimSpace(getEnv("STORAGE_REGION", "")),
		StorageRawPrefix:   strings.TrimSpace(getEnv("STORAGE_RAW_PREFIX", "raw")),
		StorageStatePrefix: strings.TrimSpace(getEnv("STORAGE_STATE_PREFIX", "state")),

		JoinEngine:        strings.ToLower(strings.TrimSpace(getEnv("JOIN_ENGINE", JoinEngineLocal))),
		JoinCombineKey:    strings.TrimSpace(getEnv("JOIN_COMBINE_KEY", "reference/draft_combine.csv")),
		JoinCuratedPrefix: strings.TrimSpace(getEnv("JOIN_CURATED_PREFIX", "curated/player_game_combine")),
		JoinTableName:     strings.TrimSpace(getEnv("JOIN_TABLE_NAME", "player_game_combine")),
		DuckDBPath:        strings.TrimSpace(getEnv("DUCKDB_PATH", "")),

		DBURL: strings.TrimSpace(getEnv("DB_URL", "")),

		SchedulerCron: strings.TrimSpace(getEnv("SCHEDULER_CRON", "0 6 * * 1")),
		MetricsAddr:   strings.TrimSpace(getEnv("METRICS_ADDR", ":9102")),

		PyroscopeServerAddress:     strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", "")),
		PyroscopeAppName:           strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", "draft-combine-pipeline")),
		PyroscopeAuthToken:         strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:     strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
	}

	durations := []struct {
		key      string
		fallback string
		dst      *time.Duration
	}{
		{"BALLDONTLIE_TIMEOUT", "20s", &cfg.BallDontLieTimeout},
		{"BALLDONTLIE_BACKOFF_INITIAL", "1s", &cfg.BallDontLieBackoffInitial},
		{"BALLDONTLIE_BACKOFF_MAX", "60s", &cfg.BallDontLieBackoffMax},
		{"BALLDONTLIE_COURTESY_DELAY", "1s", &cfg.BallDontLieCourtesyDelay},
		{"BALLDONTLIE_CIRCUIT_OPEN_TIMEOUT", "2m", &cfg.BallDontLieCircuitOpenTimeout},
		{"PYROSCOPE_UPLOAD_RATE", "15s", &cfg.PyroscopeUploadRate},
	}
	for _, d := range durations {
		value, err := time.ParseDuration(getEnv(d.key, d.fallback))
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", d.key, err)
		}
		if value <= 0 {
			return Config{}, fmt.Errorf("%s must be > 0", d.key)
		}
		*d.dst = value
	}
	if cfg.BallDontLieBackoffMax < cfg.BallDontLieBackoffInitial {
		return Config{}, fmt.Errorf("BALLDONTLIE_BACKOFF_MAX must be >= BALLDONTLIE_BACKOFF_INITIAL")
	}

	ints := []struct {
		key      string
		fallback int
		dst      *int
		min      int
	}{
		{"BALLDONTLIE_PER_PAGE", 25, &cfg.BallDontLiePerPage, 1},
		{"BALLDONTLIE_MAX_ATTEMPTS", 8, &cfg.BallDontLieMaxAttempts, 1},
		{"BALLDONTLIE_CIRCUIT_FAILURE_COUNT", 3, &cfg.BallDontLieCircuitFailureCount, 1},
		{"INGEST_MAX_PAGES_PER_RUN", 10, &cfg.IngestMaxPagesPerRun, 1},
		{"INGEST_WORKER_COUNT", 2, &cfg.IngestWorkerCount, 1},
		{"SCHEDULER_SEASON", time.Now().Year(), &cfg.SchedulerSeason, 1},
		{"SCHEDULER_WINDOW_DAYS", 7, &cfg.SchedulerWindowDays, 1},
		{"SCHEDULER_MAX_CONTINUATIONS", 5, &cfg.SchedulerMaxContinuations, 0},
	}
	for _, i := range ints {
		value, err := getEnvAsInt(i.key, i.fallback)
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", i.key, err)
		}
		if value < i.min {
			return Config{}, fmt.Errorf("%s must be >= %d", i.key, i.min)
		}
		*i.dst = value
	}
	if cfg.BallDontLiePerPage > 100 {
		return Config{}, fmt.Errorf("BALLDONTLIE_PER_PAGE must be <= 100")
	}

	bools := []struct {
		key      string
		fallback string
		dst      *bool
	}{
		{"BALLDONTLIE_CIRCUIT_ENABLED", "true", &cfg.BallDontLieCircuitEnabled},
		{"STORAGE_USE_SSL", "true", &cfg.StorageUseSSL},
		{"STORAGE_PATH_STYLE", "false", &cfg.StoragePathStyle},
		{"STORAGE_CREATE_BUCKET", "false", &cfg.StorageCreateBucket},
		{"RUN_LEDGER_ENABLED", "false", &cfg.RunLedgerEnabled},
		{"DB_DISABLE_PREPARED_BINARY_RESULT", "false", &cfg.DBDisablePreparedBinary},
		{"SCHEDULER_RUN_ON_START", "false", &cfg.SchedulerRunOnStart},
		{"UPTRACE_ENABLED", "false", &cfg.UptraceEnabled},
		{"PYROSCOPE_ENABLED", "false", &cfg.PyroscopeEnabled},
	}
	for _, b := range bools {
		value, err := strconv.ParseBool(getEnv(b.key, b.fallback))
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", b.key, err)
		}
		*b.dst = value
	}

	if err := cfg.validateStorage(); err != nil {
		return Config{}, err
	}
	if err := cfg.validateJoin(); err != nil {
		return Config{}, err
	}
	if cfg.RunLedgerEnabled && cfg.DBURL == "" {
		return Config{}, fmt.Errorf("DB_URL is required when RUN_LEDGER_ENABLED=true")
	}

	cfg.UptraceDSN = strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if cfg.UptraceDSN == "" {
		cfg.UptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if cfg.UptraceEnabled && cfg.UptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}
	if cfg.PyroscopeEnabled && cfg.PyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}

	return cfg, nil
}

func (c Config) validateStorage() error {
	switch c.StorageDriver {
	case StorageMemory:
	case StorageFilesystem:
		if c.StorageRoot == "" {
			return fmt.Errorf("STORAGE_ROOT is required when STORAGE_DRIVER=filesystem")
		}
	case StorageMinio:
		if c.StorageEndpoint == "" || c.StorageBucket == "" {
			return fmt.Errorf("STORAGE_ENDPOINT and STORAGE_BUCKET are required when STORAGE_DRIVER=minio")
		}
	case StorageS3:
		if c.StorageBucket == "" {
			return fmt.Errorf("STORAGE_BUCKET is required when STORAGE_DRIVER=s3")
		}
	default:
		return fmt.Errorf("invalid STORAGE_DRIVER %q: valid values are %s, %s, %s, %s", c.StorageDriver, StorageMemory, StorageFilesystem, StorageMinio, StorageS3)
	}
	if strings.Trim(c.StorageRawPrefix, "/") == strings.Trim(c.StorageStatePrefix, "/") {
		return fmt.Errorf("STORAGE_RAW_PREFIX and STORAGE_STATE_PREFIX must differ")
	}
	return nil
}

func (c Config) validateJoin() error {
	switch c.JoinEngine {
	case JoinEngineLocal:
	case JoinEngineDuckDB:
		if c.StorageDriver == StorageMemory {
			return fmt.Errorf("JOIN_ENGINE=duckdb cannot read STORAGE_DRIVER=memory")
		}
	default:
		return fmt.Errorf("invalid JOIN_ENGINE %q: valid values are %s, %s", c.JoinEngine, JoinEngineLocal, JoinEngineDuckDB)
	}
	if c.JoinCombineKey == "" || c.JoinCuratedPrefix == "" || c.JoinTableName == "" {
		return fmt.Errorf("JOIN_COMBINE_KEY, JOIN_CURATED_PREFIX and JOIN_TABLE_NAME are required")
	}
	return nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	for _, item := range strings.Split(raw, ",") {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			return strings.Trim(strings.TrimSpace(parts[1]), "\"'")
		}
	}

	return ""
}

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
