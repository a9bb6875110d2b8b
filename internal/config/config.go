// Package config loads the mobilectl configuration from .mobilectl/config.yml, the environment and flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	spf "github.com/spf13/viper"

	"github.com/mobilectl/mobilectl/internal/msg"
	"github.com/mobilectl/mobilectl/internal/region"
	"github.com/mobilectl/mobilectl/internal/viper"
)

// Dir is the project directory holding the config file and, by default, the device registry.
const Dir = ".mobilectl"

// EnvPrefix is the prefix of environment variables overriding config keys, e.g. MOBILECTL_RUN_TIMEOUT.
const EnvPrefix = "MOBILECTL"

// When represents a conditional status for when notifications should be sent.
type When string

// These conditions indicate when notifications are to be sent.
const (
	WhenFail   When = "fail"
	WhenPass   When = "pass"
	WhenNever  When = "never"
	WhenAlways When = "always"
)

// IsNow returns true if When fulfills its own condition of 'passed'.
func (w When) IsNow(passed bool) bool {
	if w == WhenAlways {
		return true
	}
	if w == WhenFail && !passed {
		return true
	}
	if w == WhenPass && passed {
		return true
	}

	return false
}

// Config is the complete mobilectl configuration.
type Config struct {
	Registry      Registry      `yaml:"registry"`
	Hub           Hub           `yaml:"hub"`
	Run           Run           `yaml:"run"`
	Retry         Retry         `yaml:"retry"`
	Providers     Providers     `yaml:"providers"`
	Notifications Notifications `yaml:"notifications"`
	Reporters     Reporters     `yaml:"reporters"`
}

// Registry represents the device registry settings.
type Registry struct {
	Path string `yaml:"path"`
}

// Hub represents the automation endpoints for local devices.
type Hub struct {
	Local   string `yaml:"local"`
	Android string `yaml:"android"`
	IOS     string `yaml:"ios"`
}

// Run represents the parallel execution settings.
type Run struct {
	ProcessTimeout time.Duration `yaml:"processTimeout"`
	Timeout        time.Duration `yaml:"timeout"`
	KillGrace      time.Duration `yaml:"killGrace"`
}

// Retry represents the settings of the exec command.
type Retry struct {
	Enabled    bool          `yaml:"enabled"`
	MaxRetries uint          `yaml:"maxRetries"`
	Delay      time.Duration `yaml:"delay"`
}

// Providers represents the device farm settings.
type Providers struct {
	Timeout      time.Duration `yaml:"timeout"`
	BrowserStack BrowserStack  `yaml:"browserstack"`
	SauceLabs    SauceLabs     `yaml:"saucelabs"`
	LambdaTest   LambdaTest    `yaml:"lambdatest"`
	AWS          AWS           `yaml:"aws"`
}

// BrowserStack represents BrowserStack settings.
type BrowserStack struct {
	APIURL string `yaml:"apiURL"`
}

// SauceLabs represents Sauce Labs settings.
type SauceLabs struct {
	Region string `yaml:"region"`
}

// LambdaTest represents LambdaTest settings.
type LambdaTest struct {
	APIURL    string `yaml:"apiURL"`
	UploadURL string `yaml:"uploadURL"`
}

// AWS represents AWS Device Farm settings.
type AWS struct {
	ProjectARN string `yaml:"projectArn" mapstructure:"projectArn"`
	Region     string `yaml:"region"`
}

// Notifications represents the run notifications configuration.
type Notifications struct {
	Slack Slack `yaml:"slack"`
}

// Slack represents slack configuration.
type Slack struct {
	Webhook string `yaml:"webhook"`
	Send    When   `yaml:"send"`
}

// Reporters represents the reporter configuration.
type Reporters struct {
	JSON struct {
		Enabled    bool   `yaml:"enabled"`
		Dir        string `yaml:"dir"`
		Filename   string `yaml:"filename"`
		WebhookURL string `yaml:"webhookURL"`
	} `yaml:"json"`
	JUnit struct {
		Enabled  bool   `yaml:"enabled"`
		Filename string `yaml:"filename"`
	} `yaml:"junit"`
}

// defaults lists every config key along with its default value.
var defaults = map[string]interface{}{
	"registry::path":                   filepath.Join(Dir, "devices.json"),
	"hub::local":                       "http://localhost:4723",
	"hub::android":                     "",
	"hub::ios":                         "",
	"run::processTimeout":              time.Duration(0),
	"run::timeout":                     time.Duration(0),
	"run::killGrace":                   10 * time.Second,
	"retry::enabled":                   false,
	"retry::maxRetries":                2,
	"retry::delay":                     2 * time.Second,
	"providers::timeout":               30 * time.Second,
	"providers::browserstack::apiURL":  "https://api-cloud.browserstack.com",
	"providers::saucelabs::region":     region.USWest1.String(),
	"providers::lambdatest::apiURL":    "https://mobile-api.lambdatest.com",
	"providers::lambdatest::uploadURL": "https://manual-api.lambdatest.com",
	"providers::aws::projectArn":       "",
	"providers::aws::region":           "us-west-2",
	"notifications::slack::webhook":    "",
	"notifications::slack::send":       string(WhenFail),
	"reporters::json::enabled":         true,
	"reporters::json::dir":             Dir,
	"reporters::json::filename":        "",
	"reporters::json::webhookURL":      "",
	"reporters::junit::enabled":        false,
	"reporters::junit::filename":       "junit.xml",
}

// Load reads the configuration into the default viper instance, which also carries the bound CLI flags.
// cfgFile may be empty, in which case .mobilectl/config.yml is used if it exists.
func Load(cfgFile string) (Config, error) {
	return LoadFrom(viper.Default, cfgFile)
}

// LoadFrom reads the configuration using v. Precedence is flags, then environment, then config file, then
// defaults.
func LoadFrom(v *spf.Viper, cfgFile string) (Config, error) {
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("::", "_"))
	v.AutomaticEnv()

	v.SetConfigType("yaml")
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(Dir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound spf.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	err := v.Unmarshal(&cfg, func(decodeCfg *mapstructure.DecoderConfig) {
		decodeCfg.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			func(in reflect.Kind, out reflect.Kind, v interface{}) (interface{}, error) {
				return expandEnv(v), nil
			},
		)
	})
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, Validate(cfg)
}

// Validate checks the configuration for invalid values.
func Validate(cfg Config) error {
	if cfg.Registry.Path == "" {
		return errors.New(msg.MissingRegistryPath)
	}
	if cfg.Run.ProcessTimeout < 0 || cfg.Run.Timeout < 0 || cfg.Run.KillGrace < 0 {
		return fmt.Errorf(msg.NegativeDuration, "run")
	}
	if cfg.Retry.Delay < 0 {
		return fmt.Errorf(msg.NegativeDuration, "retry::delay")
	}
	if r := cfg.Providers.SauceLabs.Region; r != "" && region.FromString(r) == region.None {
		return fmt.Errorf(msg.InvalidRegion, r)
	}
	switch cfg.Notifications.Slack.Send {
	case WhenAlways, WhenFail, WhenPass, WhenNever, "":
	default:
		return fmt.Errorf(msg.InvalidSendPolicy, cfg.Notifications.Slack.Send)
	}
	return nil
}

func expandEnv(v interface{}) interface{} {
	if v == nil {
		return nil
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.String:
		return os.ExpandEnv(v.(string))
	case reflect.Slice:
		if val, ok := v.([]string); ok {
			var strs []string
			for _, item := range val {
				strs = append(strs, os.ExpandEnv(item))
			}
			return strs
		}
	}
	return v
}
