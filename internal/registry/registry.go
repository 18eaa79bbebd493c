// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package registry is the static catalog of PeeringDB resources.
package registry

// Order matters: parents before children, so that a full sync populates
// foreign-key targets before the rows that reference them.
var resources = []string{
	"org",
	"campus",
	"fac",
	"net",
	"ix",
	"carrier",
	"carrierfac",
	"ixfac",
	"ixlan",
	"ixpfx",
	"netfac",
	"netixlan",
}

// All returns the resources in dependency order. Callers must not mutate
// the returned slice.
func All() []string {
	return resources
}

func Contains(name string) bool {
	for _, r := range resources {
		if r == name {
			return true
		}
	}
	return false
}
