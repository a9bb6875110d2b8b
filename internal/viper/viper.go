// Package viper holds the viper instance shared by the config loader and the command line flags.
package viper

import (
	"github.com/spf13/viper"
)

// KeyDelimiter nests config keys. "." is not usable, since it appears inside keys such as device IDs.
const KeyDelimiter = "::"

// Default is the instance flags are bound to and the configuration is loaded from.
var Default = New()

// New returns an instance configured like Default.
func New() *viper.Viper {
	return viper.NewWithOptions(viper.KeyDelimiter(KeyDelimiter))
}

// Set overrides key in Default, taking precedence over flags, environment and config file.
func Set(key string, value interface{}) { Default.Set(key, value) }
