package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

func newViper(conf AppConfig) (*viper.Viper, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if _, err := os.Stat(conf.ConfigFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file [%s] does not exist: %w", conf.ConfigFile, err)
	}

	v.SetConfigFile(conf.ConfigFile)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file [%s]: %w", conf.ConfigFile, err)
	}

	return v, nil
}
