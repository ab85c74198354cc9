package config

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

type Config struct {
	Env      string         `yaml:"env" env:"ENV" env-default:"local"`
	Storage  StorageConfig  `yaml:"storage"`
	HTTP     HTTPConfig     `yaml:"http"`
	Identity IdentityConfig `yaml:"identity"`
	Admin    AdminConfig    `yaml:"admin"`
	Voting   VotingConfig   `yaml:"voting"`
}

type StorageConfig struct {
	Type string `yaml:"type" env:"STORAGE_TYPE" env-default:"memory"`
	// DSN для postgres или путь к файлу для sqlite
	Path string `yaml:"path" env:"STORAGE_PATH"`
}

type HTTPConfig struct {
	Port            int           `yaml:"port" env:"HTTP_PORT" env-default:"8082"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env-default:"5s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env-default:"10s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"5s"`
	AllowedOrigins  []string      `yaml:"allowed_origins" env:"HTTP_ALLOWED_ORIGINS" env-separator:","`
}

type IdentityConfig struct {
	Issuer   string `yaml:"issuer" env:"IDENTITY_ISSUER" env-required:"true"`
	Audience string `yaml:"audience" env:"IDENTITY_AUDIENCE" env-required:"true"`
	Secret   string `yaml:"secret" env:"IDENTITY_SECRET" env-required:"true"`
}

type AdminConfig struct {
	// bcrypt-хеш ключа администратора; пустое значение выключает /admin
	KeyHash string `yaml:"key_hash" env:"ADMIN_KEY_HASH"`
}

type VotingConfig struct {
	GroupCap   int           `yaml:"group_cap" env-default:"3"`
	Tick       time.Duration `yaml:"tick" env-default:"1s"`
	RevealStep time.Duration `yaml:"reveal_step" env-default:"2s"`
}

// MustLoad читает конфиг по пути из флага -config или CONFIG_PATH.
func MustLoad() *Config {
	path := fetchConfigPath()
	if path == "" {
		log.Fatal("config path is empty")
	}
	return Load(path)
}

func Load(path string) *Config {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Fatalf("config file does not exist: %s", path)
	}

	cfg, err := Read(path)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

func Read(path string) (*Config, error) {
	var config Config
	if err := cleanenv.ReadConfig(path, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}
	return res
}
