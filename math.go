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
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// MathRenderer turns a Typst math source fragment into an SVG
// fragment, per spec.md §1: the renderer is treated as an external
// pure function and is never invoked concurrently by the core
// pipeline itself (spec.md §5).
type MathRenderer interface {
	RenderMath(src string, display bool) (svg string, err error)
}

// noopMathRenderer renders nothing; it is the zero-value default used
// when ParseOptions carries no renderer. Its error makes the emitter
// fall back to the raw source, escaped, inside a
// <span class="TypMark-math-error">.
type noopMathRenderer struct{}

func (noopMathRenderer) RenderMath(src string, display bool) (string, error) {
	return "", fmt.Errorf("no MathRenderer configured")
}

// CachingMathRenderer wraps a MathRenderer with a process-wide render
// cache and request collapsing, so repeated identical math sources
// (a common case across sections of one document, or across documents
// in a long-lived server process) pay the render cost once.
// golang.org/x/sync/singleflight is the collaborator for the
// in-flight collapsing; a mutex-guarded map holds completed results.
type CachingMathRenderer struct {
	inner MathRenderer
	group singleflight.Group
	mu    sync.Mutex
	cache map[string]mathCacheEntry
}

type mathCacheEntry struct {
	svg string
	err error
}

func NewCachingMathRenderer(inner MathRenderer) *CachingMathRenderer {
	return &CachingMathRenderer{inner: inner, cache: map[string]mathCacheEntry{}}
}

func (c *CachingMathRenderer) RenderMath(src string, display bool) (string, error) {
	key := fmt.Sprintf("%v:%s", display, src)
	c.mu.Lock()
	e, ok := c.cache[key]
	c.mu.Unlock()
	if ok {
		return e.svg, e.err
	}
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		svg, rerr := c.inner.RenderMath(src, display)
		c.mu.Lock()
		c.cache[key] = mathCacheEntry{svg: svg, err: rerr}
		c.mu.Unlock()
		return svg, rerr
	})
	var svg string
	if v != nil {
		svg = v.(string)
	}
	return svg, err
}
