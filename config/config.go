package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type (
	Config struct {
		HTTP        HTTP
		Log         Log
		PG          PG
		S3          S3
		Rekognition Rekognition
		Kafka       Kafka
		Pipeline    Pipeline
		Presign     Presign
		Swagger     Swagger
	}

	HTTP struct {
		Port           string `env:"HTTP_PORT,required"`
		UsePreforkMode bool   `env:"HTTP_USE_PREFORK_MODE" envDefault:"false"`
	}

	Log struct {
		Level string `env:"LOG_LEVEL,required"`
	}

	PG struct {
		PoolMax int    `env:"PG_POOL_MAX,required"`
		URL     string `env:"PG_URL,required"`
	}

	S3 struct {
		Endpoint       string        `env:"S3_ENDPOINT,required"`
		AccessKey      string        `env:"S3_ACCESS_KEY,required"`
		SecretKey      string        `env:"S3_SECRET_KEY,required"`
		Bucket         string        `env:"S3_BUCKET,required"`
		Region         string        `env:"S3_REGION" envDefault:"us-east-1"`
		CfgLoadTimeout time.Duration `env:"S3_LOAD_CFG_TIMEOUT" envDefault:"10s"`
	}

	Rekognition struct {
		Region    string `env:"REKOGNITION_REGION,required"`
		AccessKey string `env:"REKOGNITION_ACCESS_KEY,required"`
		SecretKey string `env:"REKOGNITION_SECRET_KEY,required"`
	}

	Kafka struct {
		Brokers      []string `env:"KAFKA_BROKERS,required"`
		GroupID      string   `env:"KAFKA_GROUP_ID,required"`
		StoredTopic  string   `env:"KAFKA_STORED_TOPIC" envDefault:"images.stored"`
		LabelsTopic  string   `env:"KAFKA_LABELS_TOPIC" envDefault:"images.labels"`
		ResultsTopic string   `env:"KAFKA_RESULTS_TOPIC" envDefault:"inference.results"`
	}

	Pipeline struct {
		MaxLabels       int32         `env:"PIPELINE_MAX_LABELS" envDefault:"10"`
		MinConfidence   float32       `env:"PIPELINE_MIN_CONFIDENCE" envDefault:"50"`
		MaxRetries      uint64        `env:"PIPELINE_MAX_RETRIES" envDefault:"3"`
		RetryInterval   time.Duration `env:"PIPELINE_RETRY_INTERVAL" envDefault:"100ms"`
		CommitTimeout   time.Duration `env:"PIPELINE_COMMIT_TIMEOUT" envDefault:"2s"`
		ProcessTimeout  time.Duration `env:"PIPELINE_PROCESS_TIMEOUT" envDefault:"30s"`
		ShutdownTimeout time.Duration `env:"PIPELINE_SHUTDOWN_TIMEOUT" envDefault:"5s"`
		Workers         int           `env:"PIPELINE_WORKERS" envDefault:"0"` // 0 = NumCPU
	}

	Presign struct {
		TTL time.Duration `env:"PRESIGN_TTL" envDefault:"1h"`
	}

	Swagger struct {
		Enabled bool `env:"SWAGGER_ENABLED" envDefault:"false"`
	}
)

func New() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	return cfg, nil
}
