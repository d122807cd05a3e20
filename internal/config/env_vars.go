package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	portEnvVar     = "PORT"
	appNameVar     = "APP_NAME"
	folderEnvVar   = "FOLDER"
	databaseVar    = "BRIDGE_DB"
	accountFileVar = "BRIDGE_CONFIG"
	logLevelVar    = "LOG_LEVEL"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8099")
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Intercom Bridge")
}

func (EnvVars) GetDataFolder() string {
	return GetEnv(folderEnvVar, "./data")
}

// GetDatabasePath is the sqlite file backing the persisted session store.
func (e EnvVars) GetDatabasePath() string {
	return GetEnv(databaseVar, filepath.Join(e.GetDataFolder(), "bridge.db"))
}

// GetAccountFile is the optional TOML file with account settings.
func (e EnvVars) GetAccountFile() string {
	return GetEnv(accountFileVar, filepath.Join(e.GetDataFolder(), "bridge.toml"))
}

func (EnvVars) GetLogLevel() string {
	return GetEnv(logLevelVar, "info")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
