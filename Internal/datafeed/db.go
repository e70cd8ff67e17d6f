package datafeed

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

var DB *sql.DB

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// InitDatabase opens the optional signal-history database. When DB_HOST
// is unset the history feature is simply off; the scanner runs without it.
func InitDatabase() error {
	if os.Getenv("DB_HOST") == "" {
		log.Info().Msg("DB_HOST not set; signal history disabled")
		return nil
	}

	config := DatabaseConfig{
		Host:     getEnvOrDefault("DB_HOST", "localhost"),
		Port:     getEnvOrDefault("DB_PORT", "5432"),
		User:     getEnvOrDefault("DB_USER", "postgres"),
		Password: os.Getenv("DB_PASSWORD"), // Required - no default
		DBName:   getEnvOrDefault("DB_NAME", "avwapscout"),
		SSLMode:  getEnvOrDefault("DB_SSLMODE", "disable"),
	}

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	var err error
	DB, err = sql.Open("postgres", connStr)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	if err = DB.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if err := initializeSchema(); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	log.Info().Msg("signal history database connected")
	return nil
}

func initializeSchema() error {
	schemaSQL := `
	CREATE TABLE IF NOT EXISTS signal_history (
		id SERIAL PRIMARY KEY,
		run_at TIMESTAMP NOT NULL,
		symbol TEXT NOT NULL,
		signal_date TEXT NOT NULL,
		label TEXT NOT NULL,
		side TEXT NOT NULL,
		anchor_role TEXT NOT NULL,
		close_price NUMERIC,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_signal_history_symbol ON signal_history(symbol);
	CREATE INDEX IF NOT EXISTS idx_signal_history_run_at ON signal_history(run_at);
	`

	_, err := DB.Exec(schemaSQL)
	return err
}

func CloseDatabase() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func HealthCheck() error {
	if DB == nil {
		return fmt.Errorf("database connection is nil")
	}
	return DB.Ping()
}
