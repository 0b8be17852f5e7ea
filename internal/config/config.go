package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config содержит всю конфигурацию приложения
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Security  SecurityConfig
	Chain     ChainConfig
	Feed      FeedConfig
	Optimizer OptimizerConfig
	Logging   LoggingConfig
}

// ServerConfig - настройки HTTP сервера
type ServerConfig struct {
	Port     int
	Host     string
	UseHTTPS bool
	CertFile string
	KeyFile  string
}

// DatabaseConfig - настройки подключения к БД
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string
}

// SecurityConfig - настройки безопасности
type SecurityConfig struct {
	OperatorToken  string
	EncryptionKey  string
	SessionTimeout int
}

// ChainConfig selects the network the orderbook is built against and how to
// reach its RPC. One process values pools against a single chain's reference
// token; cross-chain routing is out of scope.
type ChainConfig struct {
	Name           string // key into the ChainRegistry, e.g. "ethereum"
	ChainID        int64
	RPCURL         string
	ReferenceToken string // wrapped-native address, e.g. WETH on ethereum
	RPCTimeout     time.Duration
	RPCRateLimit   float64 // requests/sec
	RPCBurst       float64
}

// FeedConfig configures the upstream protocol stream client (here, our
// simulated in-process producer).
type FeedConfig struct {
	Endpoint         string
	AuthKey          string
	EventBufferSize  int
	PollInterval     time.Duration
	MinTVLUSD        float64
	MaxTVLUSD        float64
	ReconnectDelay   time.Duration
	ReconnectBackoff time.Duration
}

// OptimizerConfig holds the allocation optimizer's iteration caps and
// reallocation fraction. These are contract constants, not tuning knobs —
// the env override exists so tests can shrink the iteration cap, but
// production always loads the defaults below.
type OptimizerConfig struct {
	MaxIterations       int
	ReallocationDivisor float64 // reallocate allocations[worst]/divisor each round
	ConvergenceEpsilon  float64
	StepCount           int // Step Planner's N
	StepStartMultiplier float64
	StepEndMultiplier   float64
	StepMinDeltaPct     float64
	BestBidAskBps       float64 // native-value probe size for mid-price, in bps
}

// LoggingConfig - настройки логирования
type LoggingConfig struct {
	Level  string
	Format string
}

// ChainRegistryEntry is one row of the built-in, per-network static table.
type ChainRegistryEntry struct {
	ChainID        int64
	ReferenceToken string
	DefaultRPC     string
}

// ChainRegistry mirrors the original implementation's hardcoded network
// table (ethereum/base/unichain), used to resolve defaults for ChainConfig
// when the operator only sets CHAIN_NAME.
var ChainRegistry = map[string]ChainRegistryEntry{
	"ethereum": {
		ChainID:        1,
		ReferenceToken: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", // WETH
		DefaultRPC:     "https://ethereum-rpc.publicnode.com",
	},
	"base": {
		ChainID:        8453,
		ReferenceToken: "0x4200000000000000000000000000000000000006", // WETH
		DefaultRPC:     "https://base-rpc.publicnode.com",
	},
	"unichain": {
		ChainID:        130,
		ReferenceToken: "0x4200000000000000000000000000000000000006", // WETH
		DefaultRPC:     "https://unichain-rpc.publicnode.com",
	},
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	chainName := getEnv("CHAIN_NAME", "ethereum")
	entry, known := ChainRegistry[chainName]
	if !known {
		return nil, fmt.Errorf("unknown CHAIN_NAME %q: not in chain registry", chainName)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:     getEnvAsInt("SERVER_PORT", 8080),
			Host:     getEnv("SERVER_HOST", "0.0.0.0"),
			UseHTTPS: getEnvAsBool("USE_HTTPS", false),
			CertFile: getEnv("CERT_FILE", ""),
			KeyFile:  getEnv("KEY_FILE", ""),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "postgres"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			Name:     getEnv("DB_NAME", "tychoorderbook"),
			User:     getEnv("DB_USER", "user"),
			Password: getEnv("DB_PASSWORD", "password"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Security: SecurityConfig{
			OperatorToken:  getEnv("OPERATOR_TOKEN", ""),
			EncryptionKey:  getEnv("ENCRYPTION_KEY", ""),
			SessionTimeout: getEnvAsInt("SESSION_TIMEOUT", 3600),
		},
		Chain: ChainConfig{
			Name:           chainName,
			ChainID:        entry.ChainID,
			RPCURL:         getEnv("RPC_URL", entry.DefaultRPC),
			ReferenceToken: getEnv("REFERENCE_TOKEN", entry.ReferenceToken),
			RPCTimeout:     getEnvAsDuration("RPC_TIMEOUT", 5*time.Second),
			RPCRateLimit:   getEnvAsFloat("RPC_RATE_LIMIT", 20),
			RPCBurst:       getEnvAsFloat("RPC_BURST", 40),
		},
		Feed: FeedConfig{
			Endpoint:         getEnv("FEED_ENDPOINT", ""),
			AuthKey:          getEnv("FEED_AUTH_KEY", ""),
			EventBufferSize:  getEnvAsInt("FEED_EVENT_BUFFER", 256),
			PollInterval:     getEnvAsDuration("FEED_POLL_INTERVAL", 12*time.Second),
			MinTVLUSD:        getEnvAsFloat("FEED_MIN_TVL_USD", 1000),
			MaxTVLUSD:        getEnvAsFloat("FEED_MAX_TVL_USD", 0), // 0 = no upper bound
			ReconnectDelay:   getEnvAsDuration("FEED_RECONNECT_DELAY", 1*time.Second),
			ReconnectBackoff: getEnvAsDuration("FEED_RECONNECT_BACKOFF", 30*time.Second),
		},
		Optimizer: OptimizerConfig{
			MaxIterations:       getEnvAsInt("OPTIMIZER_MAX_ITERATIONS", 50),
			ReallocationDivisor: getEnvAsFloat("OPTIMIZER_REALLOC_DIVISOR", 10),
			ConvergenceEpsilon:  getEnvAsFloat("OPTIMIZER_CONVERGENCE_EPSILON", 1e-12),
			StepCount:           getEnvAsInt("PLANNER_STEP_COUNT", 50),
			StepStartMultiplier: getEnvAsFloat("PLANNER_START_MULTIPLIER", 1),
			StepEndMultiplier:   getEnvAsFloat("PLANNER_END_MULTIPLIER", 2_500_000),
			StepMinDeltaPct:     getEnvAsFloat("PLANNER_MIN_DELTA_PCT", 0.0001),
			BestBidAskBps:       getEnvAsFloat("BEST_BID_ASK_BPS", 10),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	// Валидация критичных параметров
	if cfg.Security.EncryptionKey == "" {
		return nil, fmt.Errorf("ENCRYPTION_KEY is required for encrypting API keys")
	}
	if len(cfg.Security.EncryptionKey) != 32 {
		return nil, fmt.Errorf("ENCRYPTION_KEY must be exactly 32 bytes for AES-256")
	}

	return cfg, nil
}

// Вспомогательные функции для чтения переменных окружения

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}
