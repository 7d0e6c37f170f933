package config

import "time"

type DatabaseConfig interface {
	GetMongo() Database
}

// Database holds the document store connection settings.
type Database struct {
	ConnectionURL   string        `env:"MONGODB_URL,required,unset"`
	Name            string        `env:"MONGODB_DATABASE" envDefault:"synco_db"`
	ConnectTimeout  time.Duration `env:"MONGODB_CONNECT_TIMEOUT" envDefault:"10s"`
	ServerTimeout   time.Duration `env:"MONGODB_SERVER_SELECTION_TIMEOUT" envDefault:"5s"`
	MaxPoolSize     uint64        `env:"MONGODB_MAX_POOL_SIZE" envDefault:"10"`
	MinPoolSize     uint64        `env:"MONGODB_MIN_POOL_SIZE" envDefault:"1"`
	MaxConnIdleTime time.Duration `env:"MONGODB_MAX_CONN_IDLE_TIME" envDefault:"30s"`
	RetryAttempts   int           `env:"MONGODB_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval   time.Duration `env:"MONGODB_RETRY_INTERVAL" envDefault:"2s"`
}

var _ DatabaseConfig = Database{}

func (d Database) GetMongo() Database {
	return d
}
