package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDecodeTargets(t *testing.T) {
	in := map[string]targetJSON{
		"1": {Kind: "cuda"},
		"0": {Kind: "opencl", DeviceAttr: "adreno", DriverVersion: "2.1.0", MinDriverVersion: ">=2.0.0"},
	}

	tm, err := decodeTargets(in)
	if err != nil {
		t.Fatalf("decodeTargets: %v", err)
	}

	if len(tm) != 2 {
		t.Fatalf("len(tm) = %d, want 2", len(tm))
	}

	if tm[0].Kind != "opencl" || tm[0].DeviceAttr != "adreno" {
		t.Errorf("tm[0] = %+v, want opencl/adreno", tm[0])
	}

	if tm[0].DriverVer == nil || tm[0].MinDriverVer == nil {
		t.Fatal("expected driver version and constraint to be parsed")
	}

	if err := tm.CheckDrivers(); err != nil {
		t.Errorf("CheckDrivers: unexpected error: %v", err)
	}
}

func TestDecodeTargetsRejectsBadDeviceID(t *testing.T) {
	in := map[string]targetJSON{"not-a-number": {Kind: "cuda"}}

	if _, err := decodeTargets(in); err == nil {
		t.Fatal("expected an error for a non-integer device id")
	}
}

func TestDecodeTargetsRejectsBadVersion(t *testing.T) {
	in := map[string]targetJSON{"0": {Kind: "cuda", DriverVersion: "not-a-version"}}

	if _, err := decodeTargets(in); err == nil {
		t.Fatal("expected an error for an unparsable driver version")
	}
}

func TestLoadModuleFromDisk(t *testing.T) {
	const doc = `{
		"functions": [
			{
				"name": "f",
				"params": [],
				"body": {"kind": "Constant", "id": "c0", "type": {"tensor": {"shape": [{"value": 4}], "dtype": {"bits": 32, "lanes": 1}}}}
			}
		],
		"targets": {"0": {"kind": "llvm"}}
	}`

	dir := t.TempDir()
	path := filepath.Join(dir, "module.json")

	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write module file: %v", err)
	}

	mod, err := loadModule(path)
	if err != nil {
		t.Fatalf("loadModule: %v", err)
	}

	if len(mod.Functions) != 1 || mod.Functions[0].Name != "f" {
		t.Fatalf("Functions = %v, want one function named f", mod.Functions)
	}

	if len(mod.Targets) != 1 || mod.Targets[0].Kind != "llvm" {
		t.Fatalf("Targets = %v, want device 0 = llvm", mod.Targets)
	}
}
