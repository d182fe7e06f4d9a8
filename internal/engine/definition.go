// SPDX-License-Identifier: MPL-2.0

package engine

type (
	// Definition is an evaluated pipeline definition, decoded from the
	// compiled pipeline value after parameter resolution.
	Definition struct {
		Name   string  `json:"name"`
		Doc    string  `json:"doc"`
		Stages []Stage `json:"stages"`
	}

	// Stage is one pipeline stage: a name and the command it executes.
	Stage struct {
		Name string `json:"name"`
		Exec string `json:"exec"`
		Doc  string `json:"doc"`
	}
)
