// Package flags declares command line flags that double as configuration keys.
package flags

import (
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	spf "github.com/spf13/viper"

	"github.com/mobilectl/mobilectl/internal/viper"
)

// SnakeCharmer declares cobra flags and binds them to viper config keys at the same time, so a flag given on the
// command line overrides the config file.
//
//	sc := flags.New(cmd.Flags())
//	sc.Duration("timeout", "run::timeout", 0, "Global timeout of the run.")
//	sc.BindAll()
type SnakeCharmer struct {
	Fset *pflag.FlagSet
	// Viper receives the bindings. Defaults to viper.Default.
	Viper *spf.Viper
	// keys maps config keys to the flags bound to them.
	keys map[string]*pflag.Flag
}

// New returns a SnakeCharmer declaring flags on fset.
func New(fset *pflag.FlagSet) *SnakeCharmer {
	return &SnakeCharmer{Fset: fset, keys: map[string]*pflag.Flag{}}
}

// BindAll binds every declared flag to its config key.
func (s *SnakeCharmer) BindAll() {
	v := s.Viper
	if v == nil {
		v = viper.Default
	}

	keys := make([]string, 0, len(s.keys))
	for k := range s.keys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := v.BindPFlag(k, s.keys[k]); err != nil {
			log.Fatal().Err(err).Str("key", k).Msg("Failed to bind flag to config.")
		}
	}
}

// Bool declares a bool flag for key.
func (s *SnakeCharmer) Bool(flagName, key string, value bool, usage string) {
	s.Fset.Bool(flagName, value, usage)
	s.bind(flagName, key)
}

// Duration declares a duration flag for key.
func (s *SnakeCharmer) Duration(flagName, key string, value time.Duration, usage string) {
	s.Fset.Duration(flagName, value, usage)
	s.bind(flagName, key)
}

// Uint declares an uint flag for key.
func (s *SnakeCharmer) Uint(flagName, key string, value uint, usage string) {
	s.Fset.Uint(flagName, value, usage)
	s.bind(flagName, key)
}

// String declares a string flag for key.
func (s *SnakeCharmer) String(flagName, key, value, usage string) {
	s.Fset.String(flagName, value, usage)
	s.bind(flagName, key)
}

func (s *SnakeCharmer) bind(flagName, key string) {
	if s.keys == nil {
		s.keys = map[string]*pflag.Flag{}
	}
	s.keys[key] = s.Fset.Lookup(flagName)
}
