package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig          `mapstructure:"server"`
	Database DatabaseConfig        `mapstructure:"database"`
	Redis    RedisConfig           `mapstructure:"redis"`
	JWT      JWTConfig             `mapstructure:"jwt"`
	OSS      OSSConfig             `mapstructure:"oss"`
	OAuth    OAuthConfig           `mapstructure:"oauth"`
	Email    EmailConfig           `mapstructure:"email"`
	Queue    QueueConfig           `mapstructure:"queue"`
	CORS     CORSConfig            `mapstructure:"cors"`
	Scraper  ScraperConfig         `mapstructure:"scraper"`
	AI       AIConfig              `mapstructure:"ai"`
	Payment  PaymentConfig         `mapstructure:"payment"`
	Analysis AnalysisConfig        `mapstructure:"analysis"`
	Plans    map[string]PlanConfig `mapstructure:"plans"`
}

type ServerConfig struct {
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`
	BaseURL string `mapstructure:"base_url"` // 对外访问地址，用于回调/分享链接
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	BucketName      string `mapstructure:"bucket_name"`
	CDNDomain       string `mapstructure:"cdn_domain"`
}

type OAuthConfig struct {
	Google GoogleOAuthConfig `mapstructure:"google"`
}

type GoogleOAuthConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURI  string `mapstructure:"redirect_uri"`
}

type EmailConfig struct {
	SMTPHost string `mapstructure:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type QueueConfig struct {
	AnalysisQueue string `mapstructure:"analysis_queue"`
	MaxWorkers    int    `mapstructure:"max_workers"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

// ScraperConfig 第三方抓取服务配置
type ScraperConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	Token          string `mapstructure:"token"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// AIConfig AI 分类服务配置
type AIConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	APIKey         string `mapstructure:"api_key"`
	Model          string `mapstructure:"model"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// PaymentConfig 支付服务配置
type PaymentConfig struct {
	BaseURL       string            `mapstructure:"base_url"`
	AccessToken   string            `mapstructure:"access_token"`
	WebhookSecret string            `mapstructure:"webhook_secret"`
	SuccessURL    string            `mapstructure:"success_url"`
	ProductIDs    map[string]string `mapstructure:"product_ids"` // 套餐 -> 商品 ID
}

// AnalysisConfig 分析业务配置
type AnalysisConfig struct {
	FreeLimit   int    `mapstructure:"free_limit"`   // 免费分析次数
	SnapshotDir string `mapstructure:"snapshot_dir"` // OSS 未配置时分享快照的本地目录
}

// PlanConfig 套餐配置
type PlanConfig struct {
	ScrapeLimit int     `mapstructure:"scrape_limit"` // 粉丝/关注抓取上限
	Price       float64 `mapstructure:"price"`
}

// ScrapeLimit 根据套餐取抓取上限，未知套餐按 basic 处理
func (c *Config) ScrapeLimit(planType string) int {
	if plan, ok := c.Plans[planType]; ok && plan.ScrapeLimit > 0 {
		return plan.ScrapeLimit
	}
	if plan, ok := c.Plans["basic"]; ok && plan.ScrapeLimit > 0 {
		return plan.ScrapeLimit
	}
	return 500
}

func Load(configPath string) (*Config, error) {
	// 优先尝试读取 config.local.yaml（包含真实密钥，不提交到git）
	dir := filepath.Dir(configPath)
	localConfigPath := filepath.Join(dir, "config.local.yaml")

	// 检查 config.local.yaml 是否存在
	if _, err := os.Stat(localConfigPath); err == nil {
		configPath = localConfigPath
	}

	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	// 环境变量覆盖
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
