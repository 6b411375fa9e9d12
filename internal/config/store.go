package config

const (
	StoreDriverRedis  = "redis"
	StoreDriverSQLite = "sqlite"
)

type StoreConfig struct {
	Driver     string `koanf:"store_driver"`
	SQLitePath string `koanf:"sqlite_path"`
}

func (c *StoreConfig) Validate() error {
	switch c.Driver {
	case StoreDriverRedis:
		return nil
	case StoreDriverSQLite:
		if c.SQLitePath == "" {
			return ErrSQLitePathMissing
		}
		return nil
	default:
		return ErrUnknownStoreDriver
	}
}
