package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port" validate:"gte=0,lte=65535"`
		Addr string `yaml:"-"` // 不从配置文件读取，而是在加载后计算

		RateLimitRequests  int `yaml:"rate_limit_requests" validate:"gte=0"`   // 每个IP在窗口内的最大请求数，0 表示不限流
		RateLimitWindowSec int `yaml:"rate_limit_window_sec" validate:"gte=0"` // 限流窗口（秒）
	} `yaml:"server"`
	Log struct {
		Level    string `yaml:"level"`
		Format   string `yaml:"format"`
		Output   string `yaml:"output"`
		FilePath string `yaml:"file_path"`
	} `yaml:"log"`

	DB struct {
		Host            string `yaml:"host"`
		Port            int    `yaml:"port"`
		Username        string `yaml:"username"`
		Password        string `yaml:"password"`
		Database        string `yaml:"database"`
		Charset         string `yaml:"charset"`
		ParseTime       bool   `yaml:"parse_time"`
		DSN             string `yaml:"-"`                 // 不从配置文件读取，而是在加载后计算
		MaxOpenConns    int    `yaml:"max_open_conns"`    // 最大打开连接数
		MaxIdleConns    int    `yaml:"max_idle_conns"`    // 最大空闲连接数
		ConnMaxLifetime int    `yaml:"conn_max_lifetime"` // 连接最大生命周期（分钟）
	} `yaml:"database"`
	LLM struct {
		Enabled           bool    `yaml:"enabled"`
		BaseURL           string  `yaml:"base_url"`
		APIKey            string  `yaml:"api_key"`
		Model             string  `yaml:"model"`
		TimeoutSec        int     `yaml:"timeout_sec" validate:"gte=0"`
		Retries           int     `yaml:"retries" validate:"gte=0,lte=10"`
		RequestsPerSecond float64 `yaml:"requests_per_second" validate:"finite,gte=0"`
		ReasonChunkSize   int     `yaml:"reason_chunk_size" validate:"gte=0"`
		ReasonMaxTokens   int     `yaml:"reason_max_tokens" validate:"gte=0"`
		ReasonConcurrency int     `yaml:"reason_concurrency" validate:"gte=0"`
		BreakerFailures   int     `yaml:"breaker_failures" validate:"gte=0"`    // 连续失败多少次后熔断，0 表示不熔断
		BreakerTimeoutSec int     `yaml:"breaker_timeout_sec" validate:"gte=0"` // 熔断后多久进入半开状态
	} `yaml:"llm"`
	Cron struct {
		PurgeHour     int `yaml:"purge_hour"`     // 每天清理推荐缓存的小时（0-23）
		PurgeMin      int `yaml:"purge_min"`      // 每天清理推荐缓存的分钟（0-59）
		RetentionDays int `yaml:"retention_days"` // 推荐缓存保留天数
	} `yaml:"cron"`
	Debug struct {
		Enabled   bool `yaml:"enabled"`    // 是否启用debug模式
		PurgeFreq int  `yaml:"purge_freq"` // debug模式下清理频率，单位：秒
	} `yaml:"debug"`
	Scheduler struct {
		CheckIntervalSec int `yaml:"check_interval_sec"` // 调度器检查间隔（秒）
		DefaultHour      int `yaml:"default_hour"`       // 默认执行小时
		DefaultMinute    int `yaml:"default_minute"`     // 默认执行分钟
	} `yaml:"scheduler"`

	// Ranking 排序系数，每次调用以不可变快照的形式传入
	Ranking Ranking `yaml:"ranking"`
}

// Default 返回带默认值的配置
func Default() *Config {
	var cfg Config
	cfg.Server.Port = 8080
	cfg.Server.RateLimitRequests = 120
	cfg.Server.RateLimitWindowSec = 60
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	cfg.Log.Output = "stdout"
	cfg.DB.Port = 3306
	cfg.DB.Charset = "utf8mb4"
	cfg.DB.ParseTime = true
	cfg.LLM.Enabled = true
	cfg.LLM.BaseURL = "https://api.openai.com"
	cfg.LLM.Model = "gpt-4o"
	cfg.LLM.TimeoutSec = 30
	cfg.LLM.Retries = 2
	cfg.LLM.RequestsPerSecond = 2
	cfg.LLM.ReasonChunkSize = 20
	cfg.LLM.ReasonMaxTokens = 800
	cfg.LLM.ReasonConcurrency = 2
	cfg.LLM.BreakerFailures = 5
	cfg.LLM.BreakerTimeoutSec = 30
	cfg.Cron.PurgeHour = 0
	cfg.Cron.PurgeMin = 10
	cfg.Cron.RetentionDays = 7
	cfg.Debug.PurgeFreq = 1800
	cfg.Scheduler.CheckIntervalSec = 60
	cfg.Ranking = DefaultRanking()
	return &cfg
}

// Load 加载配置：.env -> config.yaml -> 环境变量，最后统一校验
func Load() (*Config, error) {
	return LoadFile("config.yaml")
}

// LoadFile 从指定路径加载配置
func LoadFile(path string) (*Config, error) {
	// 首先尝试加载.env文件中的环境变量
	_ = godotenv.Load() // 忽略错误，如果.env文件不存在，继续使用系统环境变量

	cfg := Default()

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			log.Printf("Error loading %s: %v, falling back to environment variables", path, err)
			cfg = Default()
		} else {
			log.Printf("Loading configuration from %s", path)
		}
	} else {
		log.Println("配置文件不存在，从默认值和环境变量加载")
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	cfg.finalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv 从环境变量中加载敏感信息和排序系数
func applyEnv(cfg *Config) error {
	if port := os.Getenv("SERVER_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("SERVER_PORT: %w", err)
		}
		cfg.Server.Port = p
	}

	// 数据库配置
	if v := os.Getenv("DATABASE_HOST"); v != "" {
		cfg.DB.Host = v
	}
	if v := os.Getenv("DATABASE_NAME"); v != "" {
		cfg.DB.Database = v
	}
	if v := os.Getenv("DATABASE_USERNAME"); v != "" {
		cfg.DB.Username = v
	}
	if v := os.Getenv("DATABASE_PASSWORD"); v != "" {
		cfg.DB.Password = v
	}
	if v := os.Getenv("DB_DSN"); v != "" {
		cfg.DB.DSN = v
	}

	// LLM
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	return cfg.Ranking.applyEnv(os.Getenv)
}

// finalize 计算派生字段
func (c *Config) finalize() {
	c.Server.Addr = fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)

	if c.DB.DSN != "" || c.DB.Host == "" {
		return
	}
	if c.DB.Charset == "" {
		c.DB.Charset = "utf8mb4"
	}
	parseTime := ""
	if c.DB.ParseTime {
		parseTime = "&parseTime=true"
	}
	c.DB.DSN = fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s%s",
		c.DB.Username,
		c.DB.Password,
		c.DB.Host,
		c.DB.Port,
		c.DB.Database,
		c.DB.Charset,
		parseTime)
}
