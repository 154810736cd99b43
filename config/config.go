// Package config loads settings from the toml file, the environment and the registered defaults.
package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
	"github.com/themetester/themetester/constant"
	"github.com/themetester/themetester/filesystem"
	"github.com/themetester/themetester/where"
)

// EnvKeyReplacer turns configuration keys into environment variable names.
var EnvKeyReplacer = strings.NewReplacer(".", "_")

// Setup initializes defaults, environment bindings and the config file.
func Setup() error {
	viper.SetConfigName(constant.Themetester)
	viper.SetConfigType("toml")
	viper.SetFs(filesystem.API())
	viper.AddConfigPath(where.Config())

	viper.SetEnvPrefix(constant.Themetester)
	viper.SetEnvKeyReplacer(EnvKeyReplacer)
	for _, env := range EnvExposed {
		viper.MustBindEnv(env)
	}

	viper.SetTypeByDefaultValue(true)
	for name, field := range Default {
		viper.SetDefault(name, field.Value)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return err
	}

	return nil
}
