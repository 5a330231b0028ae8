package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store drivers.
const (
	StoreMongo = "mongo"
	StoreMySQL = "mysql"
)

// Image store drivers.
const (
	ImageStoreLocal = "local"
	ImageStoreS3    = "s3"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort    string
	PublicBaseURL string
	SwaggerHost   string

	StoreDriver         string
	MongoURI            string
	MongoDatabase       string
	MongoConnectTimeout time.Duration
	MySQLDSN            string

	RedisAddr string
	RedisDB   int
	RedisPass string

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	ImageStore        string
	UploadDir         string
	S3Endpoint        string
	S3AccessKey       string
	S3SecretKey       string
	S3Bucket          string
	S3UseSSL          bool
	ImageMaxDimension int
	ImageJPEGQuality  int
	ImageMaxPixels    int
	MaxUploadBytes    int64

	NATSURL string

	LogLevel    string
	LogEncoding string

	DefaultPageSize       int
	MaxPageSize           int
	EnforceImageCapOnEdit bool

	SeedCount         int
	SeedOwnerUsername string
	SeedOwnerEmail    string
}

// Load builds Config from the environment (and an optional .env file) with sensible defaults.
func Load() *Config {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Config{
		ServerPort:    v.GetString("SERVER_PORT"),
		PublicBaseURL: strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/"),
		SwaggerHost:   v.GetString("SWAGGER_HOST"),

		StoreDriver:         strings.ToLower(v.GetString("STORE_DRIVER")),
		MongoURI:            v.GetString("MONGO_URI"),
		MongoDatabase:       v.GetString("MONGO_DATABASE"),
		MongoConnectTimeout: v.GetDuration("MONGO_CONNECT_TIMEOUT"),
		MySQLDSN:            v.GetString("MYSQL_DSN"),

		RedisAddr: v.GetString("REDIS_ADDR"),
		RedisDB:   v.GetInt("REDIS_DB"),
		RedisPass: v.GetString("REDIS_PASSWORD"),

		JWTSecret:       v.GetString("JWT_SECRET"),
		AccessTokenTTL:  v.GetDuration("ACCESS_TOKEN_TTL"),
		RefreshTokenTTL: v.GetDuration("REFRESH_TOKEN_TTL"),

		ImageStore:        strings.ToLower(v.GetString("IMAGE_STORE")),
		UploadDir:         v.GetString("UPLOAD_DIR"),
		S3Endpoint:        v.GetString("S3_ENDPOINT"),
		S3AccessKey:       v.GetString("S3_ACCESS_KEY"),
		S3SecretKey:       v.GetString("S3_SECRET_KEY"),
		S3Bucket:          v.GetString("S3_BUCKET"),
		S3UseSSL:          v.GetBool("S3_USE_SSL"),
		ImageMaxDimension: v.GetInt("IMAGE_MAX_DIMENSION"),
		ImageJPEGQuality:  v.GetInt("IMAGE_JPEG_QUALITY"),
		ImageMaxPixels:    v.GetInt("IMAGE_MAX_PIXELS"),
		MaxUploadBytes:    v.GetInt64("MAX_UPLOAD_BYTES"),

		NATSURL: v.GetString("NATS_URL"),

		LogLevel:    v.GetString("LOG_LEVEL"),
		LogEncoding: v.GetString("LOG_ENCODING"),

		DefaultPageSize:       v.GetInt("DEFAULT_PAGE_SIZE"),
		MaxPageSize:           v.GetInt("MAX_PAGE_SIZE"),
		EnforceImageCapOnEdit: v.GetBool("ENFORCE_IMAGE_CAP_ON_EDIT"),

		SeedCount:         v.GetInt("SEED_COUNT"),
		SeedOwnerUsername: v.GetString("SEED_OWNER_USERNAME"),
		SeedOwnerEmail:    v.GetString("SEED_OWNER_EMAIL"),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:5000")

	v.SetDefault("STORE_DRIVER", StoreMongo)
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "housemarket")
	v.SetDefault("MONGO_CONNECT_TIMEOUT", "10s")
	v.SetDefault("MYSQL_DSN", "user:password@tcp(localhost:3306)/housemarket?charset=utf8mb4&parseTime=True&loc=UTC")

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "change-me")
	v.SetDefault("ACCESS_TOKEN_TTL", "24h")
	v.SetDefault("REFRESH_TOKEN_TTL", "168h")

	v.SetDefault("IMAGE_STORE", ImageStoreLocal)
	v.SetDefault("UPLOAD_DIR", "uploads")
	v.SetDefault("S3_BUCKET", "housemarket-images")
	v.SetDefault("IMAGE_MAX_DIMENSION", 1600)
	v.SetDefault("IMAGE_JPEG_QUALITY", 82)
	v.SetDefault("IMAGE_MAX_PIXELS", 40_000_000)
	v.SetDefault("MAX_UPLOAD_BYTES", 10<<20)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_ENCODING", "json")

	v.SetDefault("DEFAULT_PAGE_SIZE", 20)
	v.SetDefault("MAX_PAGE_SIZE", 100)
	v.SetDefault("ENFORCE_IMAGE_CAP_ON_EDIT", false)

	v.SetDefault("SEED_COUNT", 100)
	v.SetDefault("SEED_OWNER_USERNAME", "housemarket-seed")
	v.SetDefault("SEED_OWNER_EMAIL", "seed@housemarket.local")
}
