package config

const (
	defaultRedisAddr = "localhost:6379"
	defaultRedisDB   = 0
)

type RedisConfig struct {
	Addr     string `koanf:"redis_addr"`
	Password string `koanf:"redis_password"`
	DB       int    `koanf:"redis_db"`
	TLS      bool   `koanf:"redis_tls"`
}

func (c *RedisConfig) Validate() error {
	if c == nil || c.Addr == "" {
		return ErrRedisAddrMissing
	}
	if c.DB < 0 {
		return ErrInvalidRedisDB
	}
	return nil
}
