package smd

import (
	"errors"
	"os"
	"sync"

	"github.com/go-kit/log/level"
	"github.com/spf13/viper"
)

// ConfigEnv is the environment variable holding the directory of the library configuration file.
const ConfigEnv = "SMD_CONFIG"

var (
	cfgMu     sync.Mutex
	cfgLoaded = false
	config    = defaultConfig()
)

// Config is the library wide configuration, read from `$SMD_CONFIG/conf.{toml,yaml,json}`.
type Config struct {
	LogLevel      string
	LogFormat     string
	JPLFile       string // binary JPL ephemeris, used by third body terms selecting "jpl"
	MetricsListen string
}

func defaultConfig() Config {
	return Config{LogLevel: "info", LogFormat: "logfmt"}
}

// LoadConfig reads the configuration from the directory in SMD_CONFIG. A missing variable or
// file yields the defaults; an unreadable file is a ConfigurationError.
func LoadConfig() (Config, error) {
	conf := defaultConfig()
	confPath := os.Getenv(ConfigEnv)
	if confPath == "" {
		return conf, nil
	}
	v := viper.New()
	v.SetConfigName("conf")
	v.AddConfigPath(confPath)
	v.SetDefault("log.level", conf.LogLevel)
	v.SetDefault("log.format", conf.LogFormat)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return conf, nil
		}
		return conf, &ConfigurationError{Unit: confPath + "/conf", Err: err}
	}
	conf.LogLevel = v.GetString("log.level")
	conf.LogFormat = v.GetString("log.format")
	conf.JPLFile = v.GetString("ephemeris.jpl_file")
	conf.MetricsListen = v.GetString("metrics.listen")
	return conf, nil
}

// smdConfig returns the cached library configuration, loading it on first use.
func smdConfig() Config {
	cfgMu.Lock()
	defer cfgMu.Unlock()
	if cfgLoaded {
		return config
	}
	conf, err := LoadConfig()
	if err != nil {
		level.Error(Logger()).Log("subsys", "config", "err", err)
	}
	config = conf
	cfgLoaded = true
	return config
}

// LibraryConfig returns the library configuration.
func LibraryConfig() Config {
	return smdConfig()
}
