package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadInto 加载配置，支持多环境。
// 先加载 base.yaml，再用 <env>.yaml 覆盖（如果存在），结果解码到 out。
// env: local, production, 或其他环境名称；configDir 默认为 "config"。
func LoadInto(env, configDir string, out any) error {
	if configDir == "" {
		configDir = "config"
	}

	if err := unmarshalFile(filepath.Join(configDir, "base.yaml"), out); err != nil {
		return fmt.Errorf("failed to load base.yaml: %w", err)
	}

	if env == "" || env == "base" {
		return nil
	}

	envFile := filepath.Join(configDir, fmt.Sprintf("%s.yaml", env))
	if _, err := os.Stat(envFile); err != nil {
		// 环境文件可选
		return nil
	}
	if err := unmarshalFile(envFile, out); err != nil {
		return fmt.Errorf("failed to load %s.yaml: %w", env, err)
	}
	return nil
}

// unmarshalFile 把一个 YAML 文件解码到已有结构上（字段级覆盖）。
func unmarshalFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, out)
}

// GetEnv 获取环境变量，如果未设置则返回默认值
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetConfigEnv 获取配置环境（从环境变量 CONFIG_ENV，默认为 local）
func GetConfigEnv() string {
	return GetEnv("CONFIG_ENV", "local")
}
