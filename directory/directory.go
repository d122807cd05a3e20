package directory

import (
	"sync"

	internalerrors "github.com/jrsteele09/go-intercom-bridge/internal/errors"
	"github.com/pkg/errors"
)

// Directory holds the latest device and temp key snapshots. Every Replace
// swaps a whole snapshot; entries are never merged.
type Directory struct {
	mu          sync.RWMutex
	projectName string
	cameras     []Camera
	relays      []Relay
	tempKeys    []TempKey
}

func New() *Directory {
	return &Directory{}
}

// ReplaceDevices installs a freshly parsed device snapshot.
func (d *Directory) ReplaceDevices(devices Devices) {
	cameras := append([]Camera(nil), devices.Cameras...)
	relays := append([]Relay(nil), devices.Relays...)

	d.mu.Lock()
	defer d.mu.Unlock()
	if devices.ProjectName != "" {
		d.projectName = devices.ProjectName
	}
	d.cameras = cameras
	d.relays = relays
}

// ReplaceTempKeys installs a freshly parsed temp key snapshot.
func (d *Directory) ReplaceTempKeys(keys []TempKey) {
	copied := make([]TempKey, len(keys))
	for i, k := range keys {
		copied[i] = k.clone()
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.tempKeys = copied
}

func (d *Directory) ProjectName() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.projectName
}

func (d *Directory) Cameras() []Camera {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]Camera(nil), d.cameras...)
}

func (d *Directory) Relays() []Relay {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]Relay(nil), d.relays...)
}

func (d *Directory) TempKeys() []TempKey {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]TempKey, len(d.tempKeys))
	for i, k := range d.tempKeys {
		out[i] = k.clone()
	}
	return out
}

// FindRelay looks up a relay by device MAC and relay id.
func (d *Directory) FindRelay(mac, relayID string) (Relay, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, r := range d.relays {
		if r.MAC == mac && r.RelayID == relayID {
			return r, nil
		}
	}
	return Relay{}, errors.Wrapf(internalerrors.ErrNotFound, "[Directory.FindRelay] relay %s on %s", relayID, mac)
}
