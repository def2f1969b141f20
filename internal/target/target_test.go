package target

import (
	"testing"

	"github.com/Masterminds/semver/v3"
)

func TestMapHookKey(t *testing.T) {
	t.Run("AscendingDeviceOrder", func(t *testing.T) {
		m := Map{
			1: {Kind: "cuda"},
			0: {Kind: "opencl", DeviceAttr: "adreno"},
		}

		got := m.HookKey("relay.backend")
		want := "relay.backend.opencl.adreno.cuda._CollectStorageInfo"

		if got != want {
			t.Fatalf("HookKey = %q, want %q", got, want)
		}
	})

	t.Run("EmptyMap", func(t *testing.T) {
		m := Map{}

		got := m.HookKey("relay.backend")
		want := "relay.backend._CollectStorageInfo"

		if got != want {
			t.Fatalf("HookKey = %q, want %q", got, want)
		}
	})
}

func TestCheckDriver(t *testing.T) {
	t.Run("NoConstraintAlwaysPasses", func(t *testing.T) {
		tg := &Target{Kind: "opencl"}
		if err := tg.CheckDriver(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("ConstraintSatisfied", func(t *testing.T) {
		tg := &Target{
			Kind:         "opencl",
			DriverVer:    semver.MustParse("2.1.0"),
			MinDriverVer: mustConstraint(t, ">=2.0.0"),
		}

		if err := tg.CheckDriver(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("ConstraintViolated", func(t *testing.T) {
		tg := &Target{
			Kind:         "opencl",
			DriverVer:    semver.MustParse("1.0.0"),
			MinDriverVer: mustConstraint(t, ">=2.0.0"),
		}

		if err := tg.CheckDriver(); err == nil {
			t.Fatal("expected a driver constraint violation error")
		}
	})
}

func TestMapCheckDrivers(t *testing.T) {
	m := Map{
		0: {Kind: "opencl"},
		1: {Kind: "cuda", DriverVer: semver.MustParse("1.0.0"), MinDriverVer: mustConstraint(t, ">=2.0.0")},
	}

	if err := m.CheckDrivers(); err == nil {
		t.Fatal("expected device 1's driver constraint to fail")
	}
}

func mustConstraint(t *testing.T, s string) *semver.Constraints {
	t.Helper()

	c, err := semver.NewConstraint(s)
	if err != nil {
		t.Fatalf("semver.NewConstraint(%q): %v", s, err)
	}

	return c
}
