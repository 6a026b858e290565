// Copyright 2024 The TypMark Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//		 https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Package spec provides access to the scenario fixtures from the
// TypMark specification's Testable Properties section.
package spec

import (
	_ "embed"
	"encoding/json"
)

// Scenario is a single named scenario from the specification's
// Testable Properties section (spec.md §8).
type Scenario struct {
	Name string // e.g. "S1"
	Desc string

	Markdown string

	// WantDiagnosticCode, if non-empty, is the code expected at
	// diagnostics[0] (or, when WantDiagnosticAny is true, anywhere in
	// the returned slice).
	WantDiagnosticCode string
	WantDiagnosticAny  bool

	// WantHTMLContains, if non-empty, is a substring the rendered HTML
	// body must contain. Scenarios that only assert on diagnostics
	// leave this empty.
	WantHTMLContains string

	Phase2 bool
}

//go:embed scenarios.json
var scenarioData []byte

// Load returns the Testable Properties scenarios (spec.md §8, S1-S6).
func Load() ([]Scenario, error) {
	var scenarios []Scenario
	if err := json.Unmarshal(scenarioData, &scenarios); err != nil {
		return nil, err
	}
	return scenarios, nil
}
