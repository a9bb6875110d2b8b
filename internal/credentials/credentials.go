package credentials

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v2"

	"github.com/mobilectl/mobilectl/internal/devices"
)

// Credentials contains a set of Username + AccessKey for one device farm vendor.
// For AWS Device Farm these are the access key ID and the secret access key.
type Credentials struct {
	Username  string `yaml:"username"`
	AccessKey string `yaml:"accessKey"`
	Source    string `yaml:"-"`
}

// Store is the layout of the credentials file.
type Store map[devices.Tag]Credentials

// envVars lists the username and access key variables per vendor.
var envVars = map[devices.Tag][2]string{
	devices.BrowserStack:  {"BROWSERSTACK_USERNAME", "BROWSERSTACK_ACCESS_KEY"},
	devices.SauceLabs:     {"SAUCE_USERNAME", "SAUCE_ACCESS_KEY"},
	devices.LambdaTest:    {"LT_USERNAME", "LT_ACCESS_KEY"},
	devices.AWSDeviceFarm: {"AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY"},
}

// Get returns the configured credentials for the vendor tag.
// Effectively a convenience wrapper around FromEnv, followed by a call to FromFile.
//
// The lookup order is:
//  1. Environment variables (see FromEnv)
//  2. Credentials file (see FromFile)
func Get(tag devices.Tag) Credentials {
	if c := FromEnv(tag); c.IsValid() {
		return c
	}

	return FromFile(tag)
}

// FromEnv reads the credentials for the vendor tag from the user environment.
func FromEnv(tag devices.Tag) Credentials {
	vars, ok := envVars[tag]
	if !ok {
		return Credentials{}
	}
	return Credentials{
		Username:  os.Getenv(vars[0]),
		AccessKey: os.Getenv(vars[1]),
		Source:    fmt.Sprintf("Environment variables($%s, $%s)", vars[0], vars[1]),
	}
}

// FromFile reads the credentials for the vendor tag from the default file location.
func FromFile(tag devices.Tag) Credentials {
	return fromFile(defaultFilepath(), tag)
}

// fromFile reads the credentials for the vendor tag from path.
func fromFile(path string, tag devices.Tag) Credentials {
	store, err := readStore(path)
	if err != nil {
		log.Error().Msgf("failed to read credentials: %v", err)
		return Credentials{}
	}

	c := store[tag]
	c.Source = "credentials file"
	return c
}

func readStore(path string) (Store, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// not a real error but a valid usecase when credentials have not been persisted yet
			return Store{}, nil
		}
		return nil, err
	}
	defer f.Close()

	store := Store{}
	if err := yaml.NewDecoder(f).Decode(&store); err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}
	return store, nil
}

// ToFile stores the provided credentials for the vendor tag in the default file location.
// Credentials of other vendors already present in the file are kept.
func ToFile(tag devices.Tag, c Credentials) error {
	return toFile(defaultFilepath(), tag, c)
}

// toFile stores the provided credentials for the vendor tag into the file at path.
func toFile(path string, tag devices.Tag, c Credentials) error {
	if os.MkdirAll(filepath.Dir(path), 0700) != nil {
		return fmt.Errorf("unable to create configuration folder")
	}

	store, err := readStore(path)
	if err != nil {
		return err
	}
	store[tag] = c

	b, err := yaml.Marshal(store)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0600)
}

// defaultFilepath returns the default location of the credentials file.
// It will be based on the user home directory, if defined, or under the current working directory otherwise.
func defaultFilepath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".mobilectl", "credentials.yml")
}

// IsEmpty checks whether the credentials, i.e. username and access key are not empty.
// Returns false if even one of the credentials is empty.
func (c *Credentials) IsEmpty() bool {
	return c.AccessKey == "" || c.Username == ""
}

// IsValid validates that the credentials are valid.
func (c *Credentials) IsValid() bool {
	return !c.IsEmpty()
}
