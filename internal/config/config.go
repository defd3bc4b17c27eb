package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Значения по умолчанию протокола
const (
	DefaultUDPPort       = 34254
	DefaultTCPPort       = 40000
	DefaultUserTimeout   = 10 * time.Second
	DefaultHelloInterval = 3 * time.Second
	DefaultMaxRetry      = 3
	DefaultAckTimeout    = 1 * time.Second
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Env           string        `yaml:"env" env:"ENV" env-default:"local"`
	Nickname      string        `yaml:"nickname" env:"NICKNAME"`
	UDPPort       int           `yaml:"udp_port" env:"UDP_PORT" env-default:"34254"`
	TCPPort       int           `yaml:"tcp_port" env:"TCP_PORT" env-default:"40000"`
	UserTimeout   time.Duration `yaml:"user_timeout" env:"USER_TIMEOUT" env-default:"10s"`
	HelloInterval time.Duration `yaml:"hello_interval" env:"HELLO_INTERVAL" env-default:"3s"`
	MaxRetry      int           `yaml:"max_retry" env:"MAX_RETRY" env-default:"3"`
	AckTimeout    time.Duration `yaml:"ack_timeout" env:"ACK_TIMEOUT" env-default:"1s"`
	PeerBookPath  string        `yaml:"peerbook_path" env:"PEERBOOK_PATH"`
	LogFile       string        `yaml:"log_file" env:"LOG_FILE" env-default:"lanchat.log"`
	WatchConfig   bool          `yaml:"watch_config" env:"WATCH_CONFIG" env-default:"false"`

	// Path is the file the config was read from, empty when it came from env only.
	Path string `yaml:"-"`
}

func MustLoad() *Config {
	configPath := fetchConfigPath()

	var (
		cfg *Config
		err error
	)
	if configPath == "" {
		cfg, err = LoadEnv()
	} else {
		cfg, err = Load(configPath)
	}
	if err != nil {
		panic("cannot read config: " + err.Error())
	}

	return cfg
}

// Load reads the yaml file at configPath; environment variables override it.
func Load(configPath string) (*Config, error) {
	// check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("read %s: %w", configPath, err)
	}
	cfg.Path = configPath

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadEnv builds the config from environment variables and defaults.
func LoadEnv() (*Config, error) {
	var cfg Config

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.UDPPort <= 0 || c.UDPPort > 65535 {
		return fmt.Errorf("%w: udp_port %d out of range", ErrInvalidConfig, c.UDPPort)
	}
	if c.TCPPort <= 0 || c.TCPPort > 65535 {
		return fmt.Errorf("%w: tcp_port %d out of range", ErrInvalidConfig, c.TCPPort)
	}
	if c.UserTimeout <= 0 {
		return fmt.Errorf("%w: user_timeout must be positive", ErrInvalidConfig)
	}
	if c.HelloInterval <= 0 {
		return fmt.Errorf("%w: hello_interval must be positive", ErrInvalidConfig)
	}
	if c.AckTimeout <= 0 {
		return fmt.Errorf("%w: ack_timeout must be positive", ErrInvalidConfig)
	}
	if c.MaxRetry < 1 {
		return fmt.Errorf("%w: max_retry must be at least 1", ErrInvalidConfig)
	}
	return nil
}

// Priority: flag > env > default.
// default value is empty string.
func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}
	return res
}
