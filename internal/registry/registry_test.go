// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package registry_test

import (
	"testing"

	"pdbmirror/internal/registry"
)

func indexOf(t *testing.T, name string) int {
	t.Helper()
	for i, r := range registry.All() {
		if r == name {
			return i
		}
	}
	t.Fatalf("resource %s not in registry", name)
	return -1
}

func TestCatalog(t *testing.T) {
	if got := len(registry.All()); got != 12 {
		t.Fatalf("expected 12 resources, got %d", got)
	}
	if !registry.Contains("netixlan") {
		t.Error("netixlan missing")
	}
	if registry.Contains("pop") {
		t.Error("pop should be unknown")
	}
}

// Consumers join children against parents, so parents must sync first.
func TestDependencyOrder(t *testing.T) {
	deps := map[string][]string{
		"org":     {"fac", "net", "ix", "carrier", "campus"},
		"fac":     {"carrierfac", "ixfac", "netfac"},
		"net":     {"netfac", "netixlan"},
		"ix":      {"ixfac", "ixlan"},
		"ixlan":   {"ixpfx", "netixlan"},
		"carrier": {"carrierfac"},
	}
	for parent, children := range deps {
		for _, child := range children {
			if indexOf(t, parent) >= indexOf(t, child) {
				t.Errorf("%s must come before %s", parent, child)
			}
		}
	}
}
