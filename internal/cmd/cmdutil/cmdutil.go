// Package cmdutil wires the registry, the cloud federation and the resolver from the configuration.
package cmdutil

import (
	"context"
	"fmt"

	"github.com/mobilectl/mobilectl/internal/cloud"
	"github.com/mobilectl/mobilectl/internal/cloud/awsdf"
	"github.com/mobilectl/mobilectl/internal/cloud/browserstack"
	"github.com/mobilectl/mobilectl/internal/cloud/lambdatest"
	"github.com/mobilectl/mobilectl/internal/cloud/saucelabs"
	"github.com/mobilectl/mobilectl/internal/config"
	"github.com/mobilectl/mobilectl/internal/credentials"
	"github.com/mobilectl/mobilectl/internal/devices"
	"github.com/mobilectl/mobilectl/internal/devices/discovery"
	"github.com/mobilectl/mobilectl/internal/devices/registry"
	"github.com/mobilectl/mobilectl/internal/region"
	"github.com/mobilectl/mobilectl/internal/resolver"
	"github.com/mobilectl/mobilectl/internal/retry"
	"github.com/mobilectl/mobilectl/internal/scheduler"
)

// CredentialsFunc looks up the credentials of a vendor.
type CredentialsFunc func(tag devices.Tag) credentials.Credentials

// Env holds everything a command needs to address devices.
type Env struct {
	Config   config.Config
	Registry *registry.Registry
	Cloud    *cloud.Manager
	Resolver *resolver.Resolver
}

// Setup loads the configuration from cfgFile and builds the Env. Providers are not probed; call
// Env.Cloud.Initialize when cloud devices are involved.
func Setup(ctx context.Context, cfgFile string) (*Env, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	return NewEnv(ctx, cfg, credentials.Get)
}

// NewEnv builds the Env for cfg.
func NewEnv(ctx context.Context, cfg config.Config, creds CredentialsFunc) (*Env, error) {
	reg, err := NewRegistry(cfg)
	if err != nil {
		return nil, err
	}

	mgr, err := NewManager(ctx, cfg, creds)
	if err != nil {
		return nil, err
	}

	return &Env{
		Config:   cfg,
		Registry: reg,
		Cloud:    mgr,
		Resolver: resolver.New(reg, mgr, Hubs(cfg)),
	}, nil
}

// NewRegistry opens the registry file configured in cfg, discovering devices through the shell tools.
func NewRegistry(cfg config.Config) (*registry.Registry, error) {
	reg, err := registry.New(cfg.Registry.Path, discovery.NewShell())
	if err != nil {
		return nil, fmt.Errorf("failed to open device registry: %w", err)
	}
	return reg, nil
}

// NewProviders creates one provider per vendor, in vendor order.
func NewProviders(ctx context.Context, cfg config.Config, creds CredentialsFunc) ([]cloud.Provider, error) {
	p := cfg.Providers

	aws, err := awsdf.New(ctx, p.AWS.ProjectARN, p.AWS.Region, creds(devices.AWSDeviceFarm), p.Timeout)
	if err != nil {
		return nil, err
	}

	return []cloud.Provider{
		browserstack.New(p.BrowserStack.APIURL, creds(devices.BrowserStack), p.Timeout),
		saucelabs.New(region.FromString(p.SauceLabs.Region), creds(devices.SauceLabs), p.Timeout),
		lambdatest.New(p.LambdaTest.APIURL, p.LambdaTest.UploadURL, creds(devices.LambdaTest), p.Timeout),
		aws,
	}, nil
}

// NewManager creates the cloud federation for cfg.
func NewManager(ctx context.Context, cfg config.Config, creds CredentialsFunc) (*cloud.Manager, error) {
	pp, err := NewProviders(ctx, cfg, creds)
	if err != nil {
		return nil, err
	}
	return cloud.NewManager(pp...)
}

// Hubs returns the local automation endpoints of cfg.
func Hubs(cfg config.Config) resolver.Hubs {
	return resolver.Hubs{
		Default: cfg.Hub.Local,
		Android: cfg.Hub.Android,
		IOS:     cfg.Hub.IOS,
	}
}

// SchedulerOptions returns the run settings of cfg.
func SchedulerOptions(cfg config.Config) scheduler.Options {
	return scheduler.Options{
		ProcessTimeout: cfg.Run.ProcessTimeout,
		RunTimeout:     cfg.Run.Timeout,
		KillGrace:      cfg.Run.KillGrace,
	}
}

// RetryOptions returns the retry settings of cfg.
func RetryOptions(cfg config.Config) retry.Options {
	return retry.CreateOptions().
		WithEnabled(cfg.Retry.Enabled).
		WithMaxRetries(cfg.Retry.MaxRetries).
		WithDelay(cfg.Retry.Delay)
}

// NeedsCloud reports whether any of ids addresses a cloud device.
func NeedsCloud(ids []string) bool {
	for _, id := range ids {
		if _, _, ok := devices.ParseCloudID(id); ok {
			return true
		}
	}
	return false
}
