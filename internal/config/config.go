package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultRetentionDays 为聊天记录默认保留天数。
const DefaultRetentionDays = 30

// AppConfig 汇总运行服务所需的基础配置，启动时构造一次，之后只读。
type AppConfig struct {
	ListenAddr      string
	Port            string
	DatabasePath    string
	GinMode         string
	LogMode         string
	RetentionDays   int
	Timezone        string
	Location        *time.Location
	ReplyLanguage   string
	IngestTokenHash string
	ConfigFile      string
}

// fileConfig 对应可选的 YAML 配置文件，键名沿用插件配置 max_record_days。
type fileConfig struct {
	MaxRecordDays   int    `yaml:"max_record_days"`
	DatabasePath    string `yaml:"database_path"`
	Timezone        string `yaml:"timezone"`
	ReplyLanguage   string `yaml:"reply_language"`
	IngestTokenHash string `yaml:"ingest_token_hash"`
}

// Load 依次读取 .env、YAML 配置文件与环境变量，环境变量优先，缺失项使用默认值。
func Load() (AppConfig, error) {
	envFile := strings.TrimSpace(os.Getenv("ENV_FILE"))
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		if loadErr := godotenv.Load(envFile); loadErr != nil {
			return AppConfig{}, fmt.Errorf("load env file: %w", loadErr)
		}
	}

	configFile := strings.TrimSpace(os.Getenv("GROUPFUN_CONFIG"))
	var file fileConfig
	if configFile != "" {
		parsed, err := readFileConfig(configFile)
		if err != nil {
			return AppConfig{}, err
		}
		file = parsed
	}

	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	listenAddr := strings.TrimSpace(os.Getenv("LISTEN_ADDR"))
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	databasePath := firstNonEmpty(os.Getenv("DATABASE_PATH"), file.DatabasePath, "fun_center.db")

	ginMode := strings.TrimSpace(os.Getenv("GIN_MODE"))
	if ginMode == "" {
		ginMode = "release"
	}

	logMode := strings.TrimSpace(os.Getenv("LOG_MODE"))
	if logMode == "" {
		logMode = "production"
	}

	retentionDays := file.MaxRecordDays
	if raw := strings.TrimSpace(os.Getenv("RETENTION_DAYS")); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil {
			return AppConfig{}, fmt.Errorf("invalid RETENTION_DAYS %q: %w", raw, err)
		}
		retentionDays = days
	}
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}

	timezone := firstNonEmpty(os.Getenv("TIMEZONE"), file.Timezone, "Local")
	location, err := time.LoadLocation(timezone)
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid TIMEZONE %q: %w", timezone, err)
	}

	return AppConfig{
		ListenAddr:      listenAddr,
		Port:            port,
		DatabasePath:    databasePath,
		GinMode:         ginMode,
		LogMode:         logMode,
		RetentionDays:   retentionDays,
		Timezone:        timezone,
		Location:        location,
		ReplyLanguage:   firstNonEmpty(os.Getenv("REPLY_LANGUAGE"), file.ReplyLanguage, "zh"),
		IngestTokenHash: firstNonEmpty(os.Getenv("INGEST_TOKEN_HASH"), file.IngestTokenHash),
		ConfigFile:      configFile,
	}, nil
}

func readFileConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("config file %s not found", path)
		}
		return cfg, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
