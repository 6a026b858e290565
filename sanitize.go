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

// Sanitizer is a pure post-filter over the emitter's HTML output,
// per spec.md §1: sanitization policy is a caller concern, not part
// of the core pipeline's semantics. A nil Sanitizer disables the step.
type Sanitizer func(html string) string

// identitySanitizer is the default: it returns html unchanged.
func identitySanitizer(html string) string { return html }
