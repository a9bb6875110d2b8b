// Package awsdf implements AWS Device Farm. Device Farm has no interactive automation hub; tests are
// submitted as batch runs against uploaded apps.
package awsdf

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	awscreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/devicefarm"
	"github.com/aws/aws-sdk-go-v2/service/devicefarm/types"
	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"

	"github.com/mobilectl/mobilectl/internal/caps"
	"github.com/mobilectl/mobilectl/internal/cloud"
	"github.com/mobilectl/mobilectl/internal/credentials"
	"github.com/mobilectl/mobilectl/internal/devices"
	"github.com/mobilectl/mobilectl/internal/devices/devicestatus"
	mhttp "github.com/mobilectl/mobilectl/internal/http"
)

// DefaultRegion is the only region Device Farm is offered in.
const DefaultRegion = "us-west-2"

// API is the subset of the Device Farm client used by the provider.
type API interface {
	GetProject(ctx context.Context, in *devicefarm.GetProjectInput, optFns ...func(*devicefarm.Options)) (*devicefarm.GetProjectOutput, error)
	ListDevices(ctx context.Context, in *devicefarm.ListDevicesInput, optFns ...func(*devicefarm.Options)) (*devicefarm.ListDevicesOutput, error)
	CreateUpload(ctx context.Context, in *devicefarm.CreateUploadInput, optFns ...func(*devicefarm.Options)) (*devicefarm.CreateUploadOutput, error)
	GetUpload(ctx context.Context, in *devicefarm.GetUploadInput, optFns ...func(*devicefarm.Options)) (*devicefarm.GetUploadOutput, error)
}

// Provider implements cloud.Provider for AWS Device Farm.
type Provider struct {
	cloud.State
	API        API
	ProjectARN string
	// HTTPClient performs the presigned app upload.
	HTTPClient *http.Client
	// PollInterval is the pause between upload status checks.
	PollInterval time.Duration
}

// New creates a new Device Farm provider with static credentials.
// An empty region defaults to DefaultRegion.
func New(ctx context.Context, projectARN, region string, creds credentials.Credentials, timeout time.Duration) (*Provider, error) {
	if region == "" {
		region = DefaultRegion
	}
	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if creds.IsValid() {
		opts = append(opts, config.WithCredentialsProvider(
			awscreds.NewStaticCredentialsProvider(creds.Username, creds.AccessKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws configuration: %w", err)
	}

	return &Provider{
		API:          devicefarm.NewFromConfig(cfg),
		ProjectARN:   projectARN,
		HTTPClient:   &http.Client{Timeout: timeout},
		PollInterval: 5 * time.Second,
	}, nil
}

// Tag returns the vendor tag.
func (p *Provider) Tag() devices.Tag {
	return devices.AWSDeviceFarm
}

// Initialize looks up the configured project, which requires valid credentials.
func (p *Provider) Initialize(ctx context.Context) error {
	p.SetEnabled(false)
	if p.ProjectARN == "" {
		return errors.New("no device farm project configured")
	}
	if _, err := p.API.GetProject(ctx, &devicefarm.GetProjectInput{Arn: aws.String(p.ProjectARN)}); err != nil {
		return fmt.Errorf("failed to verify device farm project: %w", err)
	}
	p.SetEnabled(true)
	return nil
}

// DiscoverDevices lists all devices of the device farm.
func (p *Provider) DiscoverDevices(ctx context.Context) ([]devices.CloudDevice, error) {
	var devs []devices.CloudDevice
	var token *string
	for {
		out, err := p.API.ListDevices(ctx, &devicefarm.ListDevicesInput{NextToken: token})
		if err != nil {
			return nil, fmt.Errorf("failed to list device farm devices: %w", err)
		}
		for _, d := range out.Devices {
			if dev, ok := convert(d); ok {
				devs = append(devs, dev)
			}
		}
		if aws.ToString(out.NextToken) == "" {
			break
		}
		token = out.NextToken
	}
	p.Remember(devs)

	return devs, nil
}

func convert(d types.Device) (devices.CloudDevice, bool) {
	arn := aws.ToString(d.Arn)
	rawID := RawID(arn)
	platform := devices.Platform(strings.ToLower(string(d.Platform)))
	if rawID == "" || !platform.Valid() {
		return devices.CloudDevice{}, false
	}

	return devices.CloudDevice{
		Device: devices.Device{
			ID:           devices.AWSDeviceFarm.DeviceID(rawID),
			FriendlyName: aws.ToString(d.Name),
			DeviceID:     arn,
			Platform:     platform,
			Type:         devices.Physical,
			Model:        aws.ToString(d.Model),
			OSVersion:    aws.ToString(d.Os),
			Active:       true,
		},
		Provider: devices.AWSDeviceFarm,
		RawID:    rawID,
		Status:   devicestatus.Make(string(d.Availability)),
		CloudMetadata: map[string]any{
			"arn":          arn,
			"manufacturer": aws.ToString(d.Manufacturer),
			"form_factor":  string(d.FormFactor),
		},
	}, true
}

// RawID returns the device identifier part of a Device Farm device ARN, e.g.
// "arn:aws:devicefarm:us-west-2::device:70D5B22608A149568923E4A225EC5D04" yields "70D5B22608A149568923E4A225EC5D04".
func RawID(arn string) string {
	_, id, ok := strings.Cut(arn, ":device:")
	if !ok {
		return ""
	}
	return id
}

// Capabilities returns the run parameters for rawID. Device Farm does not host sessions, so the result
// describes the batch submission rather than a hub session.
func (p *Provider) Capabilities(ctx context.Context, rawID string, app caps.Capabilities) (caps.Capabilities, error) {
	d, err := p.Resolve(ctx, rawID, p.DiscoverDevices)
	if err != nil {
		return nil, err
	}

	base := caps.Capabilities{
		caps.PlatformName:    d.Platform.SessionName(),
		caps.DeviceName:      d.FriendlyName,
		caps.PlatformVersion: d.OSVersion,
		caps.AutomationName:  d.Platform.AutomationName(),
		"aws:deviceArn":      d.DeviceID,
		"aws:projectArn":     p.ProjectARN,
	}
	merged := caps.Merge(base, app)
	if ref := merged.String(caps.App); ref != "" {
		merged["aws:app"] = ref
	}

	return merged, nil
}

// HubURL reports that Device Farm has no hub.
func (p *Provider) HubURL() (string, bool) {
	return "", false
}

// UploadApp registers an upload with Device Farm, transfers the app to the presigned URL and waits until
// Device Farm has processed it. Returns the upload ARN.
func (p *Provider) UploadApp(ctx context.Context, path string) (string, error) {
	uploadType, err := uploadTypeOf(path)
	if err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	finfo, err := f.Stat()
	if err != nil {
		return "", err
	}

	out, err := p.API.CreateUpload(ctx, &devicefarm.CreateUploadInput{
		Name:       aws.String(filepath.Base(path)),
		ProjectArn: aws.String(p.ProjectARN),
		Type:       uploadType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create device farm upload: %w", err)
	}
	if out.Upload == nil {
		return "", errors.New("device farm returned no upload")
	}
	arn := aws.ToString(out.Upload.Arn)

	if err := mhttp.PutPresigned(ctx, p.HTTPClient, aws.ToString(out.Upload.Url), f, finfo.Size()); err != nil {
		return "", fmt.Errorf("failed to transfer app to device farm: %w", err)
	}

	return arn, p.awaitUpload(ctx, arn)
}

func (p *Provider) awaitUpload(ctx context.Context, arn string) error {
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		out, err := p.API.GetUpload(ctx, &devicefarm.GetUploadInput{Arn: aws.String(arn)})
		if err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		if out.Upload == nil {
			return struct{}{}, backoff.Permanent(errors.New("device farm returned no upload"))
		}
		switch out.Upload.Status {
		case types.UploadStatusSucceeded:
			return struct{}{}, nil
		case types.UploadStatusFailed:
			return struct{}{}, backoff.Permanent(fmt.Errorf("device farm rejected upload: %s", aws.ToString(out.Upload.Metadata)))
		}
		log.Debug().Str("arn", arn).Str("status", string(out.Upload.Status)).Msg("Waiting for upload processing.")
		return struct{}{}, errors.New("upload still processing")
	}, backoff.WithBackOff(backoff.NewConstantBackOff(p.PollInterval)), backoff.WithMaxElapsedTime(10*time.Minute))

	return err
}

func uploadTypeOf(path string) (types.UploadType, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".apk":
		return types.UploadTypeAndroidApp, nil
	case ".ipa":
		return types.UploadTypeIosApp, nil
	}
	return "", fmt.Errorf("unsupported app type %q, expected .apk or .ipa", filepath.Ext(path))
}

// SupportedPlatforms returns android and ios.
func (p *Provider) SupportedPlatforms() []devices.Platform {
	return []devices.Platform{devices.Android, devices.IOS}
}

// Pricing returns Device Farm's pricing model.
func (p *Provider) Pricing() cloud.Pricing {
	return cloud.Pricing{
		Model:    "metered per device minute or unmetered device slots",
		FreeTier: "1000 device minutes",
		URL:      "https://aws.amazon.com/device-farm/pricing/",
	}
}
