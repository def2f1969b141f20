// Package target models the compiler's device/target registry, the
// planner's other external collaborator besides the expression IR. It
// supplies the per-device kind/attribute strings the storage-scope hook key
// (spec §6) is built from, and a driver-version compatibility gate built on
// the same semver library the package manager already uses for package
// version constraints (internal/packagemanager/fileregistry.go in the
// teacher this repo was adapted from).
package target

import (
	"fmt"
	"sort"

	"github.com/Masterminds/semver/v3"
)

// Target describes one compilation target bound to a device id.
type Target struct {
	Kind       string // e.g. "opencl", "llvm", "cuda"
	DeviceAttr string // optional secondary attribute, e.g. "adreno", "mali"

	DriverVer    *semver.Version     // optional, installed driver version
	MinDriverVer *semver.Constraints // optional, minimum required version
}

// CheckDriver validates DriverVer against MinDriverVer when both are set.
// A target with no declared constraint always passes.
func (t *Target) CheckDriver() error {
	if t.MinDriverVer == nil || t.DriverVer == nil {
		return nil
	}

	if !t.MinDriverVer.Check(t.DriverVer) {
		return fmt.Errorf("target %q: driver version %s does not satisfy %s",
			t.Kind, t.DriverVer, t.MinDriverVer)
	}

	return nil
}

// Map associates device ids (as used in StorageToken.DeviceType) with their
// targets. Device id 0 is the default/unannotated device.
type Map map[int]*Target

// HookKey builds the storage-scope hook registration key described in spec
// §6: the prefix, followed by each target's kind and optional device
// attribute in ascending device-id order, followed by a fixed suffix.
//
//	"relay.backend" + ".<kind>" [+ ".<attr>"] ... + "._CollectStorageInfo"
func (m Map) HookKey(prefix string) string {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}

	sort.Ints(ids)

	key := prefix

	for _, id := range ids {
		t := m[id]

		key += "." + t.Kind
		if t.DeviceAttr != "" {
			key += "." + t.DeviceAttr
		}
	}

	return key + "._CollectStorageInfo"
}

// CheckDrivers validates every target's driver version, returning the first
// failure encountered in ascending device-id order.
func (m Map) CheckDrivers() error {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}

	sort.Ints(ids)

	for _, id := range ids {
		if err := m[id].CheckDriver(); err != nil {
			return err
		}
	}

	return nil
}
