// internal/config/config.go
package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config 存储应用配置
type Config struct {
	Port         string
	ContentDir   string // 场景/角色内容根目录
	DataDir      string // 存档和设置目录
	TemplatesDir string
	LogDir       string
	EntryScene   string // 新游戏的入口场景ID
	DebugMode    bool
}

// Load 从环境变量加载配置
func Load() (*Config, error) {
	// 尝试加载.env文件（可选）
	godotenv.Load()

	config := &Config{
		Port:         getEnv("PORT", "8080"),
		ContentDir:   getEnvPath("CONTENT_DIR", "content"),
		DataDir:      getEnvPath("DATA_DIR", "data"),
		TemplatesDir: getEnv("TEMPLATES_DIR", "web/templates"),
		LogDir:       getEnvPath("LOG_DIR", "logs"),
		EntryScene:   getEnv("ENTRY_SCENE", "chapter1_scene01"),
		DebugMode:    getEnvBool("DEBUG_MODE", true),
	}

	if _, err := os.Stat(config.ContentDir); os.IsNotExist(err) {
		// 只记录警告，不返回错误：内容目录可以在启动后挂载
		log.Printf("警告: 内容目录不存在: %s", config.ContentDir)
	}

	return config, nil
}

// getEnv 获取环境变量，如果不存在则返回默认值
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvPath 获取环境变量表示的路径，如果不存在则返回默认值
func getEnvPath(key, defaultValue string) string {
	path := getEnv(key, defaultValue)

	// 确保目录存在
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(path, 0755); err != nil {
			fmt.Printf("警告: 创建目录失败 %s: %v\n", path, err)
		}
	}

	return path
}

// getEnvBool 获取布尔类型环境变量
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	return value == "true" || value == "1" || value == "yes"
}
