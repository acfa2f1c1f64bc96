package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Redis    RedisConfig    `mapstructure:"redis"`
	MySQL    MySQLConfig    `mapstructure:"mysql"`
	Leader   LeaderConfig   `mapstructure:"leader"`
	Instance InstanceConfig `mapstructure:"instance"`
	Auction  AuctionConfig  `mapstructure:"auction"`
	Chain    ChainConfig    `mapstructure:"chain"`
	IPFS     IPFSConfig     `mapstructure:"ipfs"`
	Oracle   OracleConfig   `mapstructure:"oracle"`
}

type ServerConfig struct {
	Port         int      `mapstructure:"port"`
	Host         string   `mapstructure:"host"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type MySQLConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

type LeaderConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type InstanceConfig struct {
	ID string `mapstructure:"id"`
}

type AuctionConfig struct {
	// SnipeWindow is both the trailing window that triggers an extension and the
	// distance from the bid to the new end time.
	SnipeWindow  time.Duration `mapstructure:"snipe_window"`
	SweepEnabled bool          `mapstructure:"sweep_enabled"`
	SweepSpec    string        `mapstructure:"sweep_spec"`
}

type ChainConfig struct {
	RPCURL          string        `mapstructure:"rpc_url"`
	ChainID         int64         `mapstructure:"chain_id"`
	ContractAddress string        `mapstructure:"contract_address"`
	StartBlock      uint64        `mapstructure:"start_block"`
	Confirmations   uint64        `mapstructure:"confirmations"`
	BatchSize       uint64        `mapstructure:"batch_size"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	AutoStart       bool          `mapstructure:"auto_start"`
}

type IPFSConfig struct {
	APIURL     string `mapstructure:"api_url"`
	GatewayURL string `mapstructure:"gateway_url"`
}

type OracleConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	TokenID  string        `mapstructure:"token_id"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

var envBindings = map[string]string{
	"server.port":             "SERVER_PORT",
	"server.host":             "SERVER_HOST",
	"log.level":               "LOG_LEVEL",
	"log.development":         "LOG_DEVELOPMENT",
	"redis.address":           "REDIS_ADDRESS",
	"redis.password":          "REDIS_PASSWORD",
	"redis.db":                "REDIS_DB",
	"mysql.dsn":               "MYSQL_DSN",
	"mysql.max_open_conns":    "MYSQL_MAX_OPEN_CONNS",
	"mysql.max_idle_conns":    "MYSQL_MAX_IDLE_CONNS",
	"mysql.conn_max_lifetime": "MYSQL_CONN_MAX_LIFETIME",
	"mysql.auto_migrate":      "MYSQL_AUTO_MIGRATE",
	"leader.ttl":              "LEADER_TTL",
	"instance.id":             "INSTANCE_ID",
	"auction.snipe_window":    "AUCTION_SNIPE_WINDOW",
	"auction.sweep_enabled":   "AUCTION_SWEEP_ENABLED",
	"auction.sweep_spec":      "AUCTION_SWEEP_SPEC",
	"chain.rpc_url":           "CHAIN_RPC_URL",
	"chain.chain_id":          "CHAIN_ID",
	"chain.contract_address":  "CHAIN_CONTRACT_ADDRESS",
	"chain.start_block":       "CHAIN_START_BLOCK",
	"chain.auto_start":        "CHAIN_AUTO_START",
	"ipfs.api_url":            "IPFS_API_URL",
	"ipfs.gateway_url":        "IPFS_GATEWAY_URL",
	"oracle.base_url":         "ORACLE_BASE_URL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.allow_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("mysql.dsn", "market_user:market_pass@tcp(localhost:3306)/nft_marketplace?parseTime=true")
	v.SetDefault("mysql.max_open_conns", 25)
	v.SetDefault("mysql.max_idle_conns", 10)
	v.SetDefault("mysql.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("mysql.auto_migrate", false)
	v.SetDefault("leader.ttl", 30*time.Second)
	v.SetDefault("instance.id", "marketplace-1")
	v.SetDefault("auction.snipe_window", 10*time.Minute)
	v.SetDefault("auction.sweep_enabled", true)
	v.SetDefault("auction.sweep_spec", "@every 30s")
	v.SetDefault("chain.rpc_url", "https://testnet.sapphire.oasis.io")
	v.SetDefault("chain.chain_id", 23295)
	v.SetDefault("chain.contract_address", "")
	v.SetDefault("chain.start_block", 0)
	v.SetDefault("chain.confirmations", 2)
	v.SetDefault("chain.batch_size", 100)
	v.SetDefault("chain.poll_interval", 10*time.Second)
	v.SetDefault("chain.auto_start", false)
	v.SetDefault("ipfs.api_url", "localhost:5001")
	v.SetDefault("ipfs.gateway_url", "https://ipfs.io/ipfs/")
	v.SetDefault("oracle.base_url", "https://api.coingecko.com/api/v3")
	v.SetDefault("oracle.token_id", "oasis-network")
	v.SetDefault("oracle.cache_ttl", time.Minute)
	v.SetDefault("oracle.timeout", 5*time.Second)
}

// Load reads configuration from defaults, an optional config.yaml and the environment.
// A non-empty path forces that file and makes its absence an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/nft-marketplace/")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, err
		}
		// Config file not found, continue with defaults and environment variables
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be positive, got %d", c.Server.Port)
	}
	if c.Auction.SnipeWindow < time.Second {
		return fmt.Errorf("auction.snipe_window must be at least 1s, got %s", c.Auction.SnipeWindow)
	}
	if c.Chain.BatchSize == 0 {
		return errors.New("chain.batch_size must be positive")
	}
	return nil
}

// GetConfigString returns a formatted string representation of the config
func (c *Config) GetConfigString() string {
	return fmt.Sprintf(
		"Server: %s:%d, Redis: %s, Instance: %s, SnipeWindow: %s, Chain: %d",
		c.Server.Host,
		c.Server.Port,
		c.Redis.Address,
		c.Instance.ID,
		c.Auction.SnipeWindow,
		c.Chain.ChainID,
	)
}
