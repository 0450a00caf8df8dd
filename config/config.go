package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	// Storage-Backend: "postgres" oder "mongo"
	StorageBackend string `envconfig:"STORAGE_BACKEND" default:"postgres"`

	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"edupoint"`
	DBPassword string `envconfig:"DB_PASSWORD" default:""`
	DBName     string `envconfig:"DB_NAME" default:"edupoint"`

	// Mongo-Verbindung, nur relevant bei STORAGE_BACKEND=mongo
	MongoURL string `envconfig:"MONGO_URL" default:"mongodb://localhost:27017/edupoint"`

	HTTPPort string `envconfig:"HTTP_PORT" default:"8080"`

	JWTSecret string        `envconfig:"JWT_SECRET" required:"true"`
	TokenTTL  time.Duration `envconfig:"TOKEN_TTL" default:"24h"`

	// Seitengröße der Artikel-Listen (Original-Oberfläche: 10 pro Seite)
	PageSize int `envconfig:"PAGE_SIZE" default:"10"`

	// Zeitplan für das Aufräumen abgelaufener Sessions
	CronSchedule string `envconfig:"CRON_SCHEDULE" default:"0 * * * *"`

	S3Key    string `envconfig:"S3_KEY" required:"true"`
	S3Secret string `envconfig:"S3_SECRET" required:"true"`
	S3URL    string `envconfig:"S3_URL" required:"true"`
	S3Region string `envconfig:"S3_REGION" required:"true"`
	S3Bucket string `envconfig:"S3_BUCKET" required:"true"`

	// Fallback-Bild für Artikel ohne eigenes Bild
	DefaultImageURL string `envconfig:"DEFAULT_IMAGE_URL" default:"https://images.unsplash.com/photo-1506765515384-028b60a970df?w=800"`
}

// DSN gibt den Data Source Name für die PostgreSQL-Verbindung zurück.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}
