package utils

import (
	"log"
	"os"

	"gopkg.in/yaml.v2"
)

type Config struct {
	// Server configuration
	AppPort      string `yaml:"APP_PORT"`
	ReadonlyPort string `yaml:"READONLY_PORT"`

	// Database configuration
	DBUser     string `yaml:"DB_USER"`
	DBName     string `yaml:"DB_NAME"`
	DBPassword string `yaml:"DB_PASSWORD"`
	DBPort     string `yaml:"DB_PORT"`
	DBHost     string `yaml:"DB_HOST"`

	// JWT keys
	JWTSecret string `yaml:"JWT_SECRET"`

	// S3 object storage
	S3Endpoint  string `yaml:"S3_ENDPOINT"`
	S3Region    string `yaml:"S3_REGION"`
	S3Bucket    string `yaml:"S3_BUCKET"`
	S3AccessKey string `yaml:"S3_ACCESS_KEY"`
	S3SecretKey string `yaml:"S3_SECRET_KEY"`

	// Cloud extraction provider (OpenRouter-compatible)
	CloudAPIKey  string `yaml:"CLOUD_API_KEY"`
	CloudBaseURL string `yaml:"CLOUD_BASE_URL"`
	CloudModel   string `yaml:"CLOUD_MODEL"`

	// Premise extraction provider
	PremiseBaseURL  string `yaml:"PREMISE_BASE_URL"`
	PremiseTokenURL string `yaml:"PREMISE_TOKEN_URL"`
	PremiseClientID string `yaml:"PREMISE_CLIENT_ID"`
	PremiseLogin    string `yaml:"PREMISE_LOGIN"`
	PremisePassword string `yaml:"PREMISE_PASSWORD"`

	// Extraction worker pool
	WorkerCount int `yaml:"WORKER_COUNT"`
	QueueSize   int `yaml:"QUEUE_SIZE"`
}

var config Config

func LoadConfig() {
	file, err := os.ReadFile("config.yaml")
	if err != nil {
		log.Printf("Error reading YAML file: %s\n", err)
		return
	}

	err = yaml.Unmarshal(file, &config)
	if err != nil {
		log.Printf("Error parsing YAML file: %s\n", err)
		return
	}

	os.Setenv("JWT_SECRET", config.JWTSecret)
	os.Setenv("S3_ENDPOINT", config.S3Endpoint)
	os.Setenv("S3_REGION", config.S3Region)
	os.Setenv("S3_BUCKET", config.S3Bucket)
	os.Setenv("S3_ACCESS_KEY", config.S3AccessKey)
	os.Setenv("S3_SECRET_KEY", config.S3SecretKey)
	os.Setenv("CLOUD_API_KEY", config.CloudAPIKey)
}

func GetConfig(key string) string {
	switch key {
	case "APP_PORT":
		return config.AppPort
	case "READONLY_PORT":
		return config.ReadonlyPort
	case "DB_USER":
		return config.DBUser
	case "DB_NAME":
		return config.DBName
	case "DB_PASSWORD":
		return config.DBPassword
	case "DB_PORT":
		return config.DBPort
	case "DB_HOST":
		return config.DBHost
	case "JWT_SECRET":
		return config.JWTSecret
	case "S3_ENDPOINT":
		return config.S3Endpoint
	case "S3_REGION":
		return config.S3Region
	case "S3_BUCKET":
		return config.S3Bucket
	case "S3_ACCESS_KEY":
		return config.S3AccessKey
	case "S3_SECRET_KEY":
		return config.S3SecretKey
	case "CLOUD_API_KEY":
		return config.CloudAPIKey
	case "CLOUD_BASE_URL":
		return config.CloudBaseURL
	case "CLOUD_MODEL":
		return config.CloudModel
	case "PREMISE_BASE_URL":
		return config.PremiseBaseURL
	case "PREMISE_TOKEN_URL":
		return config.PremiseTokenURL
	case "PREMISE_CLIENT_ID":
		return config.PremiseClientID
	case "PREMISE_LOGIN":
		return config.PremiseLogin
	case "PREMISE_PASSWORD":
		return config.PremisePassword
	default:
		return ""
	}
}

func GetWorkerCount() int {
	if config.WorkerCount <= 0 {
		return 4
	}
	return config.WorkerCount
}

func GetQueueSize() int {
	if config.QueueSize <= 0 {
		return 256
	}
	return config.QueueSize
}
