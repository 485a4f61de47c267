// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g. ZAPCTL_PROFILE.
const EnvPrefix = "ZAPCTL"

// LoadConfiguration merges the named config file into v, searching dir
// first when set. A missing file is only an error when required is set.
// Environment overrides are enabled either way.
func LoadConfiguration(v *viper.Viper, dir, configFileName string, required bool) (bool, error) {
	v.SetConfigName(configFileName)
	if dir != "" {
		v.AddConfigPath(ResolvePath(dir))
	}
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.zapctl")
	v.AddConfigPath("/usr/local/etc/zapctl/")
	v.AddConfigPath("/etc/zapctl/")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if err := v.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			if required {
				return false, fmt.Errorf("config file not found: %s", configFileName)
			}
			log.Debug().Msgf("Config file not found: %s", configFileName)
			return false, nil
		}
		return false, fmt.Errorf("load config file %s: %w", configFileName, err)
	}
	log.Debug().Msgf("Loaded config file: %s", v.ConfigFileUsed())

	return true, nil
}
