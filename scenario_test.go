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

package typmark

import (
	"strings"
	"testing"

	"typmark.dev/typmark/internal/spec"
)

// TestScenarios exercises the Testable Properties scenarios (S1-S6).
func TestScenarios(t *testing.T) {
	scenarios, err := spec.Load()
	if err != nil {
		t.Fatal(err)
	}
	for _, sc := range scenarios {
		sc := sc
		t.Run(sc.Name, func(t *testing.T) {
			result := Parse(sc.Markdown, ParseOptions{Phase2: sc.Phase2})

			if sc.WantDiagnosticCode != "" {
				if sc.WantDiagnosticAny {
					found := false
					for _, d := range result.Diagnostics {
						if d.Code == sc.WantDiagnosticCode {
							found = true
							break
						}
					}
					if !found {
						t.Errorf("expected a %s diagnostic among %v", sc.WantDiagnosticCode, result.Diagnostics)
					}
				} else {
					if len(result.Diagnostics) == 0 || result.Diagnostics[0].Code != sc.WantDiagnosticCode {
						t.Errorf("diagnostics[0] = %v, want code %s", result.Diagnostics, sc.WantDiagnosticCode)
					}
				}
			}

			if sc.WantHTMLContains != "" && !strings.Contains(result.HTML, sc.WantHTMLContains) {
				t.Errorf("HTML = %q, want substring %q", result.HTML, sc.WantHTMLContains)
			}
		})
	}
}
