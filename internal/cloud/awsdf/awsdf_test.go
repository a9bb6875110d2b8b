package awsdf

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/devicefarm"
	"github.com/aws/aws-sdk-go-v2/service/devicefarm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mobilectl/mobilectl/internal/caps"
	"github.com/mobilectl/mobilectl/internal/devices"
	"github.com/mobilectl/mobilectl/internal/devices/devicestatus"
)

const projectARN = "arn:aws:devicefarm:us-west-2:123456789012:project:5e01a8c7-c861-4c0a-b1d5-12345EXAMPLE"

type fakeAPI struct {
	pages        [][]types.Device
	projectErr   error
	uploadStates []types.UploadStatus
	uploadURL    string
}

func (f *fakeAPI) GetProject(_ context.Context, in *devicefarm.GetProjectInput, _ ...func(*devicefarm.Options)) (*devicefarm.GetProjectOutput, error) {
	if f.projectErr != nil {
		return nil, f.projectErr
	}
	return &devicefarm.GetProjectOutput{Project: &types.Project{Arn: in.Arn}}, nil
}

func (f *fakeAPI) ListDevices(_ context.Context, in *devicefarm.ListDevicesInput, _ ...func(*devicefarm.Options)) (*devicefarm.ListDevicesOutput, error) {
	page := 0
	if in.NextToken != nil {
		page = 1
	}
	out := &devicefarm.ListDevicesOutput{Devices: f.pages[page]}
	if page+1 < len(f.pages) {
		out.NextToken = aws.String("page-2")
	}
	return out, nil
}

func (f *fakeAPI) CreateUpload(_ context.Context, in *devicefarm.CreateUploadInput, _ ...func(*devicefarm.Options)) (*devicefarm.CreateUploadOutput, error) {
	if aws.ToString(in.ProjectArn) != projectARN {
		return nil, errors.New("unknown project")
	}
	return &devicefarm.CreateUploadOutput{Upload: &types.Upload{
		Arn:  aws.String("arn:aws:devicefarm:us-west-2:123456789012:upload:abc/def"),
		Url:  aws.String(f.uploadURL),
		Type: in.Type,
	}}, nil
}

func (f *fakeAPI) GetUpload(_ context.Context, in *devicefarm.GetUploadInput, _ ...func(*devicefarm.Options)) (*devicefarm.GetUploadOutput, error) {
	status := f.uploadStates[0]
	if len(f.uploadStates) > 1 {
		f.uploadStates = f.uploadStates[1:]
	}
	return &devicefarm.GetUploadOutput{Upload: &types.Upload{Arn: in.Arn, Status: status, Metadata: aws.String(`{"error":"bad apk"}`)}}, nil
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		pages: [][]types.Device{
			{
				{
					Arn:          aws.String("arn:aws:devicefarm:us-west-2::device:70D5B22608A149568923E4A225EC5D04"),
					Name:         aws.String("Google Pixel 6"),
					Model:        aws.String("Pixel 6"),
					Os:           aws.String("12"),
					Platform:     types.DevicePlatformAndroid,
					Availability: types.DeviceAvailabilityHighlyAvailable,
					FormFactor:   types.DeviceFormFactorPhone,
				},
			},
			{
				{
					Arn:          aws.String("arn:aws:devicefarm:us-west-2::device:352FDCFAA36C43AD8791B0D96E8B6D31"),
					Name:         aws.String("Apple iPhone 13"),
					Model:        aws.String("iPhone 13"),
					Os:           aws.String("15.0"),
					Platform:     types.DevicePlatformIos,
					Availability: types.DeviceAvailabilityBusy,
				},
				{Arn: aws.String("not-a-device-arn"), Platform: types.DevicePlatformAndroid},
			},
		},
		uploadStates: []types.UploadStatus{types.UploadStatusSucceeded},
	}
}

func newProvider(api API) *Provider {
	return &Provider{API: api, ProjectARN: projectARN, HTTPClient: http.DefaultClient, PollInterval: time.Millisecond}
}

func TestRawID(t *testing.T) {
	assert.Equal(t, "70D5B22608A149568923E4A225EC5D04", RawID("arn:aws:devicefarm:us-west-2::device:70D5B22608A149568923E4A225EC5D04"))
	assert.Equal(t, "", RawID("arn:aws:devicefarm:us-west-2:123:project:abc"))
}

func TestProvider_Initialize(t *testing.T) {
	p := newProvider(newFakeAPI())
	assert.NoError(t, p.Initialize(context.Background()))
	assert.True(t, p.Enabled())

	api := newFakeAPI()
	api.projectErr = errors.New("UnrecognizedClientException")
	p = newProvider(api)
	assert.ErrorContains(t, p.Initialize(context.Background()), "UnrecognizedClientException")
	assert.False(t, p.Enabled())

	p = newProvider(newFakeAPI())
	p.ProjectARN = ""
	assert.Error(t, p.Initialize(context.Background()))
	assert.False(t, p.Enabled())
}

func TestProvider_DiscoverDevices(t *testing.T) {
	p := newProvider(newFakeAPI())

	devs, err := p.DiscoverDevices(context.Background())
	require.NoError(t, err)
	require.Len(t, devs, 2)

	assert.Equal(t, "aws-70D5B22608A149568923E4A225EC5D04", devs[0].ID)
	assert.Equal(t, devices.Android, devs[0].Platform)
	assert.Equal(t, devicestatus.Available, devs[0].Status)
	assert.Equal(t, "PHONE", devs[0].CloudMetadata["form_factor"])
	assert.Equal(t, devices.IOS, devs[1].Platform)
	assert.Equal(t, devicestatus.Busy, devs[1].Status)
}

func TestProvider_Capabilities(t *testing.T) {
	p := newProvider(newFakeAPI())

	got, err := p.Capabilities(context.Background(), "352FDCFAA36C43AD8791B0D96E8B6D31", caps.Capabilities{"app": "arn:aws:devicefarm:us-west-2:123456789012:upload:abc/def"})
	require.NoError(t, err)
	assert.Equal(t, "iOS", got[caps.PlatformName])
	assert.Equal(t, "arn:aws:devicefarm:us-west-2::device:352FDCFAA36C43AD8791B0D96E8B6D31", got["aws:deviceArn"])
	assert.Equal(t, projectARN, got["aws:projectArn"])
	assert.Equal(t, "arn:aws:devicefarm:us-west-2:123456789012:upload:abc/def", got["aws:app"])

	_, ok := p.HubURL()
	assert.False(t, ok, "device farm has no hub")
}

func TestProvider_UploadApp(t *testing.T) {
	var received []byte
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		received, _ = io.ReadAll(r.Body)
	}))
	defer ts.Close()

	dir := t.TempDir()
	apk := filepath.Join(dir, "app.apk")
	require.NoError(t, os.WriteFile(apk, []byte("APK"), 0644))

	t.Run("processed", func(t *testing.T) {
		api := newFakeAPI()
		api.uploadURL = ts.URL
		api.uploadStates = []types.UploadStatus{types.UploadStatusInitialized, types.UploadStatusProcessing, types.UploadStatusSucceeded}

		arn, err := newProvider(api).UploadApp(context.Background(), apk)
		require.NoError(t, err)
		assert.Equal(t, "arn:aws:devicefarm:us-west-2:123456789012:upload:abc/def", arn)
		assert.Equal(t, "APK", string(received))
	})

	t.Run("rejected", func(t *testing.T) {
		api := newFakeAPI()
		api.uploadURL = ts.URL
		api.uploadStates = []types.UploadStatus{types.UploadStatusFailed}

		_, err := newProvider(api).UploadApp(context.Background(), apk)
		assert.ErrorContains(t, err, "bad apk")
	})

	t.Run("unsupported type", func(t *testing.T) {
		_, err := newProvider(newFakeAPI()).UploadApp(context.Background(), filepath.Join(dir, "app.zip"))
		assert.ErrorContains(t, err, "unsupported app type")
	})
}
