package config

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Env       string          `yaml:"env" env-default:"development"`
	Server    ServerConfig    `yaml:"http_server"`
	Pg        PgConfig        `yaml:"postgres"`
	Stripe    StripeConfig    `yaml:"stripe"`
	Postmark  PostmarkConfig  `yaml:"postmark"`
	Twilio    TwilioConfig    `yaml:"twilio"`
	Pipedrive PipedriveConfig `yaml:"pipedrive"`
	Signup    SignupConfig    `yaml:"signup"`
}

type ServerConfig struct {
	Host        string        `yaml:"host"`
	Port        int           `yaml:"port"`
	Timeout     time.Duration `yaml:"timeout"`
	CORSOrigins []string      `yaml:"cors_origins"`
}

type PgConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Db       string `yaml:"db"`
}

type StripeConfig struct {
	SecretKey string `yaml:"secret_key"`
}

type PostmarkConfig struct {
	ServerToken  string `yaml:"server_token"`
	AccountToken string `yaml:"account_token"`
	Sender       string `yaml:"sender"`
	Bcc          string `yaml:"bcc"`
}

type TwilioConfig struct {
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
	From       string `yaml:"from"`
}

type PipedriveConfig struct {
	BaseURL    string `yaml:"base_url"`
	APIToken   string `yaml:"api_token"`
	PipelineID int    `yaml:"pipeline_id"`
	StageID    int    `yaml:"stage_id"`
}

type SignupConfig struct {
	// StartDelayDays - minimum lead time before the first collection
	StartDelayDays int `yaml:"start_delay_days"`
	// SMSEnabled - confirmation SMS toggle, kept off in production
	SMSEnabled bool `yaml:"sms_enabled"`
}

const defaultStartDelayDays = 6

func resolvePath(cwd, p string) string {
	if p == "" {
		return ""
	}
	if filepath.IsAbs(p) {
		return p
	}
	if up, ok := findUp(cwd, p, 8); ok {
		return up
	}
	return filepath.Join(cwd, p)
}

// findUp walks up from start looking for rel, at most max levels.
func findUp(start, rel string, max int) (string, bool) {
	dir := start
	for i := 0; i <= max; i++ {
		p := filepath.Join(dir, rel)
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false
}

func LoadConfig() *Config {
	var cfg Config
	cwd, _ := os.Getwd()

	// 1) .env
	envPath := os.Getenv("ENV_FILE")
	if envPath == "" {
		if up, ok := findUp(cwd, ".env/local.env", 8); ok {
			envPath = up
		}
	} else {
		envPath = resolvePath(cwd, envPath)
	}
	if envPath != "" {
		_ = godotenv.Overload(envPath)
	}

	// 2) YAML
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		if up, ok := findUp(cwd, "configs/local.yaml", 8); ok {
			path = up
		} else {
			log.Fatal("CONFIG_PATH not set and configs/local.yaml not found")
		}
	} else {
		path = resolvePath(cwd, path)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("read config: %v", err)
	}

	expanded := os.ExpandEnv(string(raw))
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		log.Fatalf("unmarshal config: %v", err)
	}
	if cfg.Signup.StartDelayDays <= 0 {
		cfg.Signup.StartDelayDays = defaultStartDelayDays
	}
	return &cfg
}
