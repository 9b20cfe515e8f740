package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Aashish23092/loan-intake-verification/utils"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	OCR        OCRConfig        `mapstructure:"ocr"`
	Face       FaceConfig       `mapstructure:"face"`
	Extraction ExtractionConfig `mapstructure:"extraction"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Postgres   PostgresConfig   `mapstructure:"postgres"`
	Archive    ArchiveConfig    `mapstructure:"archive"`
	Notify     NotifyConfig     `mapstructure:"notify"`
	Session    SessionConfig    `mapstructure:"session"`
}

type ServerConfig struct {
	Port        string `mapstructure:"port"`
	MaxFileSize int64  `mapstructure:"max_file_size"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// OCRConfig selects the text extraction providers, tried in order.
type OCRConfig struct {
	Providers         []string      `mapstructure:"providers"` // vision, tesseract, paddle, docai, qr
	Timeout           time.Duration `mapstructure:"timeout"`
	VisionAPIKey      string        `mapstructure:"vision_api_key"`
	VisionEndpoint    string        `mapstructure:"vision_endpoint"`
	TesseractDataPath string        `mapstructure:"tesseract_data_path"`
	TesseractLanguage string        `mapstructure:"tesseract_language"`
	PaddleURL         string        `mapstructure:"paddle_url"`
	DocAIProjectID    string        `mapstructure:"docai_project_id"`
	DocAILocation     string        `mapstructure:"docai_location"`
	DocAIProcessorID  string        `mapstructure:"docai_processor_id"`
}

type FaceConfig struct {
	FrameOffset time.Duration `mapstructure:"frame_offset"`
	Threshold   float64       `mapstructure:"threshold"`
	FFmpegPath  string        `mapstructure:"ffmpeg_path"`
}

type ExtractionConfig struct {
	Patterns utils.Patterns `mapstructure:"patterns"`
}

type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Address  string        `mapstructure:"address"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type PostgresConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// ArchiveConfig chooses where verified document images are archived.
type ArchiveConfig struct {
	Backend   string `mapstructure:"backend"` // "local" or "gcs"
	LocalRoot string `mapstructure:"local_root"`
	GCSBucket string `mapstructure:"gcs_bucket"`
}

// SessionConfig bounds how long an idle applicant session stays in memory.
// A zero IdleTimeout keeps sessions forever.
type SessionConfig struct {
	IdleTimeout   time.Duration `mapstructure:"idle_timeout"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type NotifyConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Region   string `mapstructure:"region"`
	TopicARN string `mapstructure:"topic_arn"`
}

// LoadConfig reads config.yaml (if present), .env and the environment.
// Nested keys map to env vars with "_" separators, e.g. OCR_VISION_API_KEY.
func LoadConfig() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	// SERVER_PORT and TESSDATA_PREFIX are kept for compatibility with existing deployments
	if port := os.Getenv("SERVER_PORT"); port != "" {
		v.Set("server.port", port)
	}
	if prefix := os.Getenv("TESSDATA_PREFIX"); prefix != "" {
		v.Set("ocr.tesseract_data_path", prefix)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	patterns := utils.DefaultPatterns()

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.max_file_size", 10*1024*1024) // 10 MB
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("ocr.providers", []string{"vision", "qr"})
	v.SetDefault("ocr.timeout", 30*time.Second)
	v.SetDefault("ocr.tesseract_data_path", "/usr/share/tesseract-ocr/5/tessdata/")
	v.SetDefault("ocr.tesseract_language", "eng")
	v.SetDefault("ocr.paddle_url", "http://paddleocr:8866/predict/ocr_system")
	v.SetDefault("ocr.vision_api_key", "")
	v.SetDefault("ocr.vision_endpoint", "")
	v.SetDefault("ocr.docai_project_id", "")
	v.SetDefault("ocr.docai_location", "us")
	v.SetDefault("ocr.docai_processor_id", "")
	v.SetDefault("face.frame_offset", 500*time.Millisecond)
	v.SetDefault("face.threshold", 0.7)
	v.SetDefault("face.ffmpeg_path", "ffmpeg")
	v.SetDefault("extraction.patterns.name", patterns.Name)
	v.SetDefault("extraction.patterns.dob", patterns.DOB)
	v.SetDefault("extraction.patterns.income", patterns.Income)
	v.SetDefault("extraction.patterns.employment_type", patterns.EmploymentType)
	v.SetDefault("extraction.patterns.aadhaar", patterns.Aadhaar)
	v.SetDefault("extraction.patterns.pan", patterns.PAN)
	v.SetDefault("extraction.patterns.pan_strict", patterns.PANStrict)
	v.SetDefault("extraction.patterns.income_amount", patterns.IncomeAmount)
	v.SetDefault("extraction.patterns.income_amount_marked", patterns.IncomeAmountMarked)
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 30*24*time.Hour)
	v.SetDefault("postgres.enabled", false)
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.database", "loans")
	v.SetDefault("postgres.user", "postgres")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("archive.backend", "local")
	v.SetDefault("archive.local_root", "./data")
	v.SetDefault("archive.gcs_bucket", "")
	v.SetDefault("notify.enabled", false)
	v.SetDefault("notify.region", "ap-south-1")
	v.SetDefault("notify.topic_arn", "")
	v.SetDefault("session.idle_timeout", 24*time.Hour)
	v.SetDefault("session.sweep_interval", 10*time.Minute)
}

// Validate rejects combinations that cannot start the service.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if len(c.OCR.Providers) == 0 {
		return fmt.Errorf("at least one OCR provider is required")
	}
	for _, p := range c.OCR.Providers {
		switch p {
		case "vision", "tesseract", "paddle", "docai", "qr":
		default:
			return fmt.Errorf("unknown OCR provider: %s", p)
		}
	}
	switch c.Archive.Backend {
	case "local":
	case "gcs":
		if c.Archive.GCSBucket == "" {
			return fmt.Errorf("archive.gcs_bucket is required for the gcs backend")
		}
	default:
		return fmt.Errorf("unknown archive backend: %s", c.Archive.Backend)
	}
	if c.Notify.Enabled && c.Notify.TopicARN == "" {
		return fmt.Errorf("notify.topic_arn is required when notifications are enabled")
	}
	return nil
}
