// Package registry persists the descriptors of local devices.
package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/mitchellh/mapstructure"
	"github.com/rs/zerolog/log"

	"github.com/mobilectl/mobilectl/internal/devices"
	"github.com/mobilectl/mobilectl/internal/devices/discovery"
)

// Registry is a file backed store of local device descriptors.
// Every mutation rewrites the whole file before it becomes visible in memory. A failed mutation
// leaves both the file and the in-memory state untouched.
type Registry struct {
	path       string
	discoverer discovery.Discoverer

	mu       sync.RWMutex
	devices  map[string]devices.Device
	metadata Metadata

	now func() time.Time
}

// SyncResult is the outcome of matching discovered devices against the registry.
type SyncResult struct {
	// AlreadyRegistered contains the registry IDs of discovered devices.
	AlreadyRegistered []string `json:"already_registered"`
	// NewDevices contains discovered devices that are not registered yet.
	NewDevices []devices.Device `json:"new_devices"`
}

// Filter narrows down List results. Zero values match everything.
type Filter struct {
	Platform   devices.Platform
	ActiveOnly bool
	// MinOSVersion is a version such as "13" or "16.4".
	MinOSVersion string
}

// New loads the registry stored at path. d may be nil if discovery is not needed.
func New(path string, d discovery.Discoverer) (*Registry, error) {
	doc, err := load(path)
	if err != nil {
		return nil, err
	}

	r := &Registry{
		path:       path,
		discoverer: d,
		devices:    doc.Devices,
		metadata:   doc.Metadata,
		now:        time.Now,
	}

	seen := map[string]string{}
	for id, dev := range r.devices {
		if owner, ok := seen[dev.DeviceID]; ok {
			log.Warn().Str("deviceId", dev.DeviceID).Str("id", id).Str("owner", owner).
				Msg("Hardware ID is registered more than once.")
		}
		seen[dev.DeviceID] = id
	}

	return r, nil
}

// Path returns the location of the registry file.
func (r *Registry) Path() string {
	return r.path
}

// DiscoverLocal lists the devices visible to the local machine. It has no effect on the registry.
func (r *Registry) DiscoverLocal(ctx context.Context) ([]devices.Device, error) {
	if r.discoverer == nil {
		return nil, ErrNoDiscoverer
	}

	raws, err := r.discoverer.Discover(ctx)
	if err != nil {
		return nil, err
	}

	devs := make([]devices.Device, 0, len(raws))
	for _, raw := range raws {
		name := raw.Model
		if name == "" {
			name = raw.DeviceID
		}
		devs = append(devs, devices.Device{
			ID:           devices.LocalID(name),
			FriendlyName: name,
			DeviceID:     raw.DeviceID,
			Platform:     raw.Platform,
			Type:         raw.Type,
			Model:        raw.Model,
			OSVersion:    raw.OSVersion,
			Active:       true,
		})
	}

	return devs, nil
}

// SyncDiscovered matches discovered devices against the registry by hardware ID.
func (r *Registry) SyncDiscovered(ctx context.Context) (SyncResult, error) {
	found, err := r.DiscoverLocal(ctx)
	if err != nil {
		return SyncResult{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	byHardware := make(map[string]string, len(r.devices))
	for id, d := range r.devices {
		byHardware[d.DeviceID] = id
	}

	res := SyncResult{AlreadyRegistered: []string{}, NewDevices: []devices.Device{}}
	for _, d := range found {
		if id, ok := byHardware[d.DeviceID]; ok {
			res.AlreadyRegistered = append(res.AlreadyRegistered, id)
			continue
		}
		res.NewDevices = append(res.NewDevices, d)
	}

	return res, nil
}

// Register adds a device under id. Default capabilities are synthesized when info has none.
func (r *Registry) Register(id string, info devices.Device) (devices.Device, error) {
	if !devices.IsSlug(id) {
		return devices.Device{}, invalid("id %q must be lowercase letters, digits and dashes", id)
	}
	if tag, _, ok := devices.ParseCloudID(id); ok {
		return devices.Device{}, invalid("id %q must not start with the cloud prefix %q", id, tag+"-")
	}

	info.ID = id
	if info.FriendlyName == "" {
		info.FriendlyName = id
	}
	if info.Type == "" {
		info.Type = devices.Physical
	}
	if err := validate(info); err != nil {
		return devices.Device{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.devices[id]; ok {
		return devices.Device{}, &DuplicateIDError{ID: id}
	}
	if owner, ok := r.hardwareOwner(info.DeviceID); ok {
		return devices.Device{}, &DuplicateHardwareError{DeviceID: info.DeviceID, Owner: owner}
	}

	if len(info.Capabilities) == 0 {
		info.Capabilities = devices.DefaultCapabilities(info.Platform, info.DeviceID)
	} else {
		info.Capabilities = info.Capabilities.Clone()
	}
	now := r.now().UTC()
	info.RegisteredAt = now
	info.UpdatedAt = now

	next := r.copyDevices()
	next[id] = info
	if err := r.commit(next); err != nil {
		return devices.Device{}, err
	}

	log.Info().Str("id", id).Str("deviceId", info.DeviceID).Str("platform", string(info.Platform)).Msg("Device registered.")
	return info, nil
}

// immutable fields cannot be changed through Update.
var immutable = []string{"id", "registered_at", "updated_at"}

// Update merges patch into the device registered under id. Patch keys use the JSON field names of
// devices.Device, e.g. {"friendly_name": "Pixel", "active": false}.
func (r *Registry) Update(id string, patch map[string]any) (devices.Device, error) {
	for _, k := range immutable {
		if _, ok := patch[k]; ok {
			return devices.Device{}, invalid("field %q cannot be updated", k)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.devices[id]
	if !ok {
		return devices.Device{}, &NotFoundError{ID: id}
	}

	updated := cur
	updated.Capabilities = cur.Capabilities.Clone()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &updated,
		TagName:          "json",
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return devices.Device{}, err
	}
	if err := dec.Decode(patch); err != nil {
		return devices.Device{}, invalid("%v", err)
	}
	if err := validate(updated); err != nil {
		return devices.Device{}, err
	}
	if updated.DeviceID != cur.DeviceID {
		if owner, ok := r.hardwareOwner(updated.DeviceID); ok && owner != id {
			return devices.Device{}, &DuplicateHardwareError{DeviceID: updated.DeviceID, Owner: owner}
		}
	}
	updated.UpdatedAt = r.now().UTC()

	next := r.copyDevices()
	next[id] = updated
	if err := r.commit(next); err != nil {
		return devices.Device{}, err
	}

	log.Info().Str("id", id).Msg("Device updated.")
	return updated, nil
}

// Unregister removes the device registered under id.
func (r *Registry) Unregister(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.devices[id]; !ok {
		return &NotFoundError{ID: id}
	}

	next := r.copyDevices()
	delete(next, id)
	if err := r.commit(next); err != nil {
		return err
	}

	log.Info().Str("id", id).Msg("Device unregistered.")
	return nil
}

// Get looks up a device by exact registry ID first, then by case-insensitive friendly name.
func (r *Registry) Get(nameOrID string) (devices.Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if d, ok := r.devices[nameOrID]; ok {
		return d, true
	}

	// iterate in ID order so that ambiguous friendly names resolve deterministically
	for _, id := range r.sortedIDs() {
		d := r.devices[id]
		if strings.EqualFold(d.FriendlyName, nameOrID) {
			return d, true
		}
	}

	return devices.Device{}, false
}

// List returns the registered devices matching f, sorted by ID.
func (r *Registry) List(f Filter) ([]devices.Device, error) {
	var minVersion *semver.Version
	if f.MinOSVersion != "" {
		v, err := semver.NewVersion(f.MinOSVersion)
		if err != nil {
			return nil, fmt.Errorf("invalid minimum OS version %q: %w", f.MinOSVersion, err)
		}
		minVersion = v
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []devices.Device
	for _, id := range r.sortedIDs() {
		d := r.devices[id]
		if f.Platform != "" && d.Platform != f.Platform {
			continue
		}
		if f.ActiveOnly && !d.Active {
			continue
		}
		if minVersion != nil {
			v, err := semver.NewVersion(d.OSVersion)
			if err != nil || v.LessThan(minVersion) {
				continue
			}
		}
		out = append(out, d)
	}

	return out, nil
}

// IDs returns all registry IDs in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedIDs()
}

// Metadata returns the metadata of the registry file.
func (r *Registry) Metadata() Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.metadata
}

// commit persists next and swaps it in. Callers must hold the write lock.
func (r *Registry) commit(next map[string]devices.Device) error {
	meta := Metadata{LastUpdated: r.now().UTC(), Version: FormatVersion}
	if err := save(r.path, document{Devices: next, Metadata: meta}); err != nil {
		return fmt.Errorf("failed to persist registry: %w", err)
	}
	r.devices = next
	r.metadata = meta
	return nil
}

func (r *Registry) copyDevices() map[string]devices.Device {
	next := make(map[string]devices.Device, len(r.devices)+1)
	for k, v := range r.devices {
		next[k] = v
	}
	return next
}

func (r *Registry) hardwareOwner(deviceID string) (string, bool) {
	for id, d := range r.devices {
		if d.DeviceID == deviceID {
			return id, true
		}
	}
	return "", false
}

func (r *Registry) sortedIDs() []string {
	ids := make([]string, 0, len(r.devices))
	for id := range r.devices {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func validate(d devices.Device) error {
	if strings.TrimSpace(d.DeviceID) == "" {
		return invalid("device_id is required")
	}
	if !d.Platform.Valid() {
		return invalid("unknown platform %q", d.Platform)
	}
	if !d.Type.Valid() {
		return invalid("unknown type %q", d.Type)
	}
	return nil
}
