package config

import (
	"log"
	"os"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Worker struct {
		Addr string `yaml:"addr"`
	} `yaml:"worker"`
	Generation struct {
		FrameCount          int `yaml:"frame_count"`
		PollIntervalSeconds int `yaml:"poll_interval_seconds"`
		MaxPolls            int `yaml:"max_polls"`
		CleanupDelayMs      int `yaml:"cleanup_delay_ms"`
		Concurrency         int `yaml:"concurrency"`
	} `yaml:"generation"`
	Demo struct {
		Default bool `yaml:"default"`
	} `yaml:"demo"`
	Storage struct {
		SnapshotPath string `yaml:"snapshot_path"`
	} `yaml:"storage"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
	} `yaml:"redis"`
	MinIO struct {
		Endpoint  string `yaml:"endpoint"`
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
		Bucket    string `yaml:"bucket"`
		UseSSL    bool   `yaml:"use_ssl"`
	} `yaml:"minio"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`
}

var AppConfig *Config

func InitConfig() {
	cfg, err := LoadConfig("config/config.yaml")
	if err != nil {
		log.Fatalf("配置文件加载失败: %v", err)
	}
	AppConfig = cfg
}

func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg := &Config{}
	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// applyDefaults 为未填写的字段补默认值
func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = ":8080"
	}
	if c.Generation.FrameCount <= 0 {
		c.Generation.FrameCount = 6
	}
	if c.Generation.PollIntervalSeconds <= 0 {
		c.Generation.PollIntervalSeconds = 3
	}
	if c.Generation.MaxPolls <= 0 {
		c.Generation.MaxPolls = 100
	}
	if c.Generation.CleanupDelayMs <= 0 {
		c.Generation.CleanupDelayMs = 1500
	}
	if c.Generation.Concurrency <= 0 {
		c.Generation.Concurrency = 5
	}
	if c.Storage.SnapshotPath == "" {
		c.Storage.SnapshotPath = "data/sceneforge.db"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}
