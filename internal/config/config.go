package config

import "github.com/ilyakaznacheev/cleanenv"

type Config struct {
	DBDriver      string `env:"DB_DRIVER" env-default:"mysql"`
	DBHost        string `env:"DB_HOST" env-default:"localhost"`
	DBPort        string `env:"DB_PORT" env-default:"3306"`
	DBUser        string `env:"DB_USER" env-default:"kanban"`
	DBPassword    string `env:"DB_PASSWORD" env-default:"kanban"`
	DBName        string `env:"DB_NAME" env-default:"kanban_board"`
	RedisHost     string `env:"REDIS_HOST" env-default:"localhost"`
	RedisPort     string `env:"REDIS_PORT" env-default:"6379"`
	SessionSecret string `env:"SESSION_SECRET" env-default:"default-secret-key-change-me"`
	GinMode       string `env:"GIN_MODE" env-default:"debug"`
	LogLevel      string `env:"LOG_LEVEL" env-default:"info"`
	ListenAddr    string `env:"LISTEN_ADDR" env-default:":8080"`
	OpenAIAPIKey  string `env:"OPENAI_API_KEY" env-default:""`
}

func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
