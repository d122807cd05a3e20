package config

type Config interface {
	EnvConfig
	CorsConfig
	BridgeConfig
	SecurityConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetDataFolder() string
	GetDatabasePath() string
	GetAccountFile() string
	GetLogLevel() string
	GetEnv() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	Bridge
	Security
}

func New() Config {
	return mainConfig{}
}
