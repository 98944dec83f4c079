package config

import (
	"log"

	"routinehub/pkg/config"
)

type Config struct {
	Server  config.ServerConfig  `yaml:"server"`
	Redis   config.RedisConfig   `yaml:"redis"`
	MQ      config.MQConfig      `yaml:"mq"`
	JWT     config.JWTConfig     `yaml:"jwt"`
	Backend config.BackendConfig `yaml:"backend"`
}

func Load() *Config {
	env := config.GetConfigEnv()
	configDir := config.GetEnv("CONFIG_DIR", "config")

	var cfg Config
	if err := config.LoadInto(env, configDir, &cfg); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// 环境变量覆盖（优先级最高）
	config.OverrideServerFromEnv(&cfg.Server)
	config.OverrideRedisFromEnv(&cfg.Redis)
	config.OverrideMQFromEnv(&cfg.MQ)
	config.OverrideJWTFromEnv(&cfg.JWT)
	config.OverrideBackendFromEnv(&cfg.Backend)

	return &cfg
}
