package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server      ServerConfig
	MongoDB     MongoDBConfig
	Postgres    PostgresConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	JWT         JWTConfig
	Store       StoreConfig
	Reservation ReservationConfig
}

type ServerConfig struct {
	Host string // Адрес хоста (по умолчанию 0.0.0.0)
	Port string // Порт сервера (по умолчанию 8084)
}

type MongoDBConfig struct {
	URI      string // URI подключения к MongoDB
	Database string // Имя базы данных
}

type PostgresConfig struct {
	DSN string // DSN подключения к PostgreSQL (хранилище аккаунтов)
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CacheTTL time.Duration // TTL кеша сводок рейтинга
}

type KafkaConfig struct {
	Brokers []string // Список брокеров Kafka (формат: host:port)
	Topic   string   // Топик для доменных событий
}

type JWTConfig struct {
	Secret    string        // Секретный ключ для подписи JWT токенов
	AccessTTL time.Duration // Время жизни access токена
}

type StoreConfig struct {
	Backend    string // mongo | memory
	MaxRetries int    // Лимит ретраев оптимистичной транзакции
}

type ReservationConfig struct {
	TTL           time.Duration // Сколько живёт неподтверждённая резервация username
	SweepSchedule string        // Cron-расписание очистки просроченных резерваций
}

func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("SERVER_PORT", "8084"),
		},
		MongoDB: MongoDBConfig{
			URI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGODB_DATABASE", "rowanberries"),
		},
		Postgres: PostgresConfig{
			DSN: getEnv("POSTGRES_DSN", "host=localhost port=5432 user=postgres password=postgres dbname=members sslmode=disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			CacheTTL: getEnvDuration("RATING_CACHE_TTL", 5*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers: []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			Topic:   getEnv("KAFKA_TOPIC", "review_events"),
		},
		JWT: JWTConfig{
			Secret:    getEnv("JWT_SECRET", "your-secret-key-change-this-in-production"),
			AccessTTL: getEnvDuration("JWT_ACCESS_TTL", 15*time.Minute),
		},
		Store: StoreConfig{
			Backend:    getEnv("STORE_BACKEND", "mongo"),
			MaxRetries: getEnvInt("STORE_MAX_RETRIES", 5),
		},
		Reservation: ReservationConfig{
			TTL:           getEnvDuration("RESERVATION_TTL", 30*time.Minute),
			SweepSchedule: getEnv("RESERVATION_SWEEP_SCHEDULE", "@every 10m"),
		},
	}, nil
}

func (c *ServerConfig) Address() string {
	return c.Host + ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
