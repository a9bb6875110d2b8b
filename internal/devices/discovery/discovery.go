// Package discovery finds devices attached to, or emulated on, the local machine.
package discovery

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os/exec"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/mobilectl/mobilectl/internal/devices"
)

// Discoverer is the interface for listing devices visible to the local machine.
type Discoverer interface {
	Discover(ctx context.Context) ([]devices.Raw, error)
}

// Runner runs an external command and returns its standard output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands on the host.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Shell discovers devices through adb, xcrun simctl and idevice_id.
type Shell struct {
	Runner Runner
}

// NewShell returns a Shell that runs commands on the host.
func NewShell() Shell {
	return Shell{Runner: ExecRunner{}}
}

// Discover implements Discoverer. A tool that is not installed or fails is skipped; only a done
// context is returned as an error.
func (s Shell) Discover(ctx context.Context) ([]devices.Raw, error) {
	var found []devices.Raw

	for _, src := range []struct {
		tool string
		fn   func(context.Context) ([]devices.Raw, error)
	}{
		{"adb", s.android},
		{"xcrun", s.simulators},
		{"idevice_id", s.iosDevices},
	} {
		devs, err := src.fn(ctx)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if err != nil {
			if errors.Is(err, exec.ErrNotFound) {
				log.Debug().Str("tool", src.tool).Msg("Discovery tool not installed. Skipping.")
			} else {
				log.Warn().Err(err).Str("tool", src.tool).Msg("Device discovery failed.")
			}
			continue
		}
		found = append(found, devs...)
	}

	return found, nil
}

func (s Shell) android(ctx context.Context) ([]devices.Raw, error) {
	out, err := s.Runner.Run(ctx, "adb", "devices", "-l")
	if err != nil {
		return nil, err
	}

	devs := parseADBDevices(out)
	for i, d := range devs {
		v, err := s.Runner.Run(ctx, "adb", "-s", d.DeviceID, "shell", "getprop", "ro.build.version.release")
		if err != nil {
			log.Debug().Err(err).Str("serial", d.DeviceID).Msg("Unable to read Android version.")
			continue
		}
		devs[i].OSVersion = strings.TrimSpace(string(v))
	}
	return devs, nil
}

// parseADBDevices parses the output of 'adb devices -l'. Only devices in the "device" state are
// returned; unauthorized and offline devices are not usable for automation.
func parseADBDevices(out []byte) []devices.Raw {
	var devs []devices.Raw

	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "List of devices") || strings.HasPrefix(line, "*") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[1] != "device" {
			continue
		}

		d := devices.Raw{
			DeviceID: fields[0],
			Platform: devices.Android,
			Type:     devices.Physical,
		}
		if strings.HasPrefix(d.DeviceID, "emulator-") {
			d.Type = devices.Emulator
		}
		for _, f := range fields[2:] {
			if m, ok := strings.CutPrefix(f, "model:"); ok {
				d.Model = strings.ReplaceAll(m, "_", " ")
			}
		}
		devs = append(devs, d)
	}

	return devs
}

type simctlList struct {
	Devices map[string][]struct {
		UDID        string `json:"udid"`
		Name        string `json:"name"`
		State       string `json:"state"`
		IsAvailable bool   `json:"isAvailable"`
	} `json:"devices"`
}

var runtimeVersion = regexp.MustCompile(`iOS-(\d+)-(\d+)(?:-(\d+))?$`)

func (s Shell) simulators(ctx context.Context) ([]devices.Raw, error) {
	out, err := s.Runner.Run(ctx, "xcrun", "simctl", "list", "devices", "booted", "-j")
	if err != nil {
		return nil, err
	}
	return parseSimctl(out)
}

// parseSimctl parses 'xcrun simctl list devices -j'. Only booted iOS simulators are returned.
func parseSimctl(out []byte) ([]devices.Raw, error) {
	var list simctlList
	if err := json.Unmarshal(out, &list); err != nil {
		return nil, err
	}

	var devs []devices.Raw
	for runtime, sims := range list.Devices {
		m := runtimeVersion.FindStringSubmatch(runtime)
		if m == nil {
			continue
		}
		version := m[1] + "." + m[2]
		if m[3] != "" {
			version += "." + m[3]
		}

		for _, sim := range sims {
			if sim.State != "Booted" || !sim.IsAvailable {
				continue
			}
			devs = append(devs, devices.Raw{
				DeviceID:  sim.UDID,
				Platform:  devices.IOS,
				Type:      devices.Simulator,
				Model:     sim.Name,
				OSVersion: version,
			})
		}
	}

	return devs, nil
}

func (s Shell) iosDevices(ctx context.Context) ([]devices.Raw, error) {
	out, err := s.Runner.Run(ctx, "idevice_id", "-l")
	if err != nil {
		return nil, err
	}

	var devs []devices.Raw
	for _, udid := range strings.Fields(string(out)) {
		d := devices.Raw{
			DeviceID: udid,
			Platform: devices.IOS,
			Type:     devices.Physical,
			Model:    "iOS Device",
		}
		if v, err := s.Runner.Run(ctx, "ideviceinfo", "-u", udid, "-k", "ProductVersion"); err == nil {
			d.OSVersion = strings.TrimSpace(string(v))
		}
		if name, err := s.Runner.Run(ctx, "ideviceinfo", "-u", udid, "-k", "ProductType"); err == nil {
			d.Model = strings.TrimSpace(string(name))
		}
		devs = append(devs, d)
	}

	return devs, nil
}
