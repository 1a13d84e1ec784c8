package config

import (
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
	"k8s.io/klog/v2"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	LLM      LLMConfig      `yaml:"llm"`
	Vision   VisionConfig   `yaml:"vision"`
	Flow     FlowConfig     `yaml:"flow"`
	Clinic   ClinicConfig   `yaml:"clinic"`
}

type ServerConfig struct {
	Port         string `yaml:"port"`
	Mode         string `yaml:"mode"`           // debug, release
	MaxBodyBytes int64  `yaml:"max_body_bytes"` // 请求体上限，图片 data URI 较大
	// AdminToken 管理接口 (/api/api-keys) 的 Bearer token，为空时不注册管理接口
	AdminToken string `yaml:"admin_token"`
}

type DatabaseConfig struct {
	Type string `yaml:"type"` // sqlite, mysql
	DSN  string `yaml:"dsn"`
}

// LLMConfig 文本类 flow 的默认模型（OpenAI 兼容接口）
type LLMConfig struct {
	APIURL    string `yaml:"api_url"`
	APIKey    string `yaml:"api_key"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
}

// VisionConfig 图片类 flow 使用的 Gemini 模型
type VisionConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type FlowConfig struct {
	Timeout time.Duration `yaml:"timeout"`
	// RateLimitCooldown 限流且无法解析重置时间时的默认冷却时长
	RateLimitCooldown time.Duration `yaml:"rate_limit_cooldown"`
	// MaxConcurrency 同时进行的模型调用上限，0 表示不限制
	MaxConcurrency int `yaml:"max_concurrency"`
	// MaxQueued 等待中的调用上限，超出时返回 503
	MaxQueued int `yaml:"max_queued"`
}

// ClinicConfig 诊所联系方式，Phone 会替换到 flow 输出的电话占位符
type ClinicConfig struct {
	Name        string `yaml:"name" json:"name"`
	Phone       string `yaml:"phone" json:"phone"`
	Email       string `yaml:"email" json:"email"`
	Address     string `yaml:"address" json:"address"`
	Website     string `yaml:"website" json:"website"`
	MapEmbedURL string `yaml:"map_embed_url" json:"map_embed_url"`
}

var (
	cfg  *Config
	once sync.Once
)

func GetConfig() *Config {
	once.Do(func() {
		configPath := os.Getenv("CONFIG_PATH")
		if configPath == "" {
			configPath = "config.yaml"
		}
		cfg = Load(configPath)
	})
	return cfg
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "8080",
			Mode:         "debug",
			MaxBodyBytes: 10 << 20,
		},
		Database: DatabaseConfig{
			Type: "sqlite",
			DSN:  "./data/app.db",
		},
		LLM: LLMConfig{
			APIURL:    "https://api.openai.com/v1",
			Model:     "gpt-4o",
			MaxTokens: 4096,
		},
		Vision: VisionConfig{
			Model: "gemini-2.0-flash-exp",
		},
		Flow: FlowConfig{
			Timeout:           2 * time.Minute,
			RateLimitCooldown: 2 * time.Minute,
			MaxConcurrency:    4,
			MaxQueued:         100,
		},
		Clinic: ClinicConfig{
			Name:        "The Green Dental Surgery",
			Phone:       "0208 800 7373",
			Email:       "test@test.com",
			Address:     "200 W Green Rd, London N15 5AG",
			Website:     "website.com",
			MapEmbedURL: "https://www.google.com/maps/embed?pb=!1m18!1m12!1m3!1d2480.0!2d-0.0787!3d51.5826!2m3!1f0!2f0!3f0!3m2!1i1024!2i768!4f13.1!3m3!1m2!1s0x0%3A0x0!2zNTHCsDM0JzU3LjQiTiAwwrAwNCc0My4zIlc!5e0!3m2!1sen!2suk",
		},
	}
}

// Load 读取指定路径的配置文件并应用环境变量，文件不存在时使用默认值
func Load(configPath string) *Config {
	// .env 仅补充未设置的环境变量
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		klog.Warningf("[Config] 加载 .env 失败: %v", err)
	}

	config := Default()

	data, err := os.ReadFile(configPath)
	if err == nil {
		if err := yaml.Unmarshal(data, config); err != nil {
			klog.Warningf("[Config] 解析配置文件 %s 失败: %v", configPath, err)
		}
	}

	applyEnv(config)
	return config
}

// 环境变量优先级高于配置文件
func applyEnv(config *Config) {
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.LLM.APIKey = apiKey
	}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		config.LLM.APIURL = baseURL
	}
	if model := os.Getenv("OPENAI_MODEL_NAME"); model != "" {
		config.LLM.Model = model
	}
	if maxTokens := os.Getenv("OPENAI_MAX_TOKENS"); maxTokens != "" {
		if n, err := strconv.Atoi(maxTokens); err == nil && n > 0 {
			config.LLM.MaxTokens = n
		}
	}

	// Gemini 环境变量
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.Vision.APIKey = apiKey
	} else if apiKey := os.Getenv("GOOGLE_API_KEY"); apiKey != "" {
		config.Vision.APIKey = apiKey
	}
	if model := os.Getenv("GEMINI_MODEL_NAME"); model != "" {
		config.Vision.Model = model
	}

	// 数据库环境变量
	if dbType := os.Getenv("DB_TYPE"); dbType != "" {
		config.Database.Type = dbType
	}
	if dbDSN := os.Getenv("DB_DSN"); dbDSN != "" {
		config.Database.DSN = dbDSN
	}

	if port := os.Getenv("SERVER_PORT"); port != "" {
		config.Server.Port = port
	}
	if token := os.Getenv("ADMIN_TOKEN"); token != "" {
		config.Server.AdminToken = token
	}
	if phone := os.Getenv("CLINIC_PHONE"); phone != "" {
		config.Clinic.Phone = phone
	}
}
