package main

import "testing"

func TestConfigPathsAccumulates(t *testing.T) {
	var paths configPaths

	if err := paths.Set("responsa.toml"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := paths.Set("deployments/local/responsa.toml"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if len(paths) != 2 {
		t.Fatalf("got %d paths, want 2", len(paths))
	}
	if paths[0] != "responsa.toml" || paths[1] != "deployments/local/responsa.toml" {
		t.Errorf("paths = %v, want flag order preserved", paths)
	}
	if got := paths.String(); got != "[responsa.toml deployments/local/responsa.toml]" {
		t.Errorf("String() = %q", got)
	}
}
