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
	"regexp"

	"github.com/go-playground/validator/v10"
)

var structValidator = validator.New()

// boxStyle mirrors the subset of a BoxKind's attribute list that
// affects rendered styling, validated with struct tags rather than
// hand-written checks so the rules read as a spec, per spec.md §3.
type boxStyle struct {
	Background  string `validate:"omitempty,hexcolor"`
	TitleBg     string `validate:"omitempty,hexcolor"`
	BorderColor string `validate:"omitempty,hexcolor"`
	BorderWidth string `validate:"omitempty,cssmeasure"`
	BorderStyle string `validate:"omitempty,oneof=solid dashed dotted double none"`
}

var cssMeasureRE = regexp.MustCompile(`^[0-9]+(px)?$`)

func init() {
	structValidator.RegisterValidation("cssmeasure", func(fl validator.FieldLevel) bool {
		return cssMeasureRE.MatchString(fl.Field().String())
	})
}

// validateBoxStyle checks a Box's styling attrs, reporting
// W_BOX_STYLE_INVALID for the first offending field and leaving it at
// its theme default (spec.md §4.5 "box styling").
func validateBoxStyle(attr *AttrList, diags *diagSink) boxStyle {
	style := boxStyle{}
	if attr == nil {
		return style
	}
	style.Background, _ = attr.Get("bg")
	style.TitleBg, _ = attr.Get("title-bg")
	style.BorderColor, _ = attr.Get("border-color")
	style.BorderWidth, _ = attr.Get("border-width")
	style.BorderStyle, _ = attr.Get("border-style")

	if err := structValidator.Struct(style); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			diags.warnf(passEmit, WarnBoxStyleInvalid, attr.Span,
				"box style attribute \""+fe.Field()+"\" is invalid and was reset to its theme default")
			switch fe.Field() {
			case "Background":
				style.Background = ""
			case "TitleBg":
				style.TitleBg = ""
			case "BorderColor":
				style.BorderColor = ""
			case "BorderWidth":
				style.BorderWidth = ""
			case "BorderStyle":
				style.BorderStyle = ""
			}
		}
	}
	return style
}

// docSettings is the document settings target line (spec.md §6): a
// target line attached to nothing, consisting only of key=value
// items, appearing before any other content.
type docSettings struct {
	CodeLineStart string `validate:"omitempty,numeric"`
	Theme         string `validate:"omitempty,oneof=light dark auto"`
}

// validateDocSettings checks the document settings line's numeric and
// enum fields, reporting each invalid field as a warning and dropping
// it rather than failing the whole parse.
func validateDocSettings(attr *AttrList, diags *diagSink) docSettings {
	ds := docSettings{}
	if attr == nil {
		return ds
	}
	ds.CodeLineStart, _ = attr.Get("code_line_start")
	ds.Theme, _ = attr.Get("theme")
	if err := structValidator.Struct(ds); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				diags.warnf(passBlock, WarnBoxStyleInvalid, attr.Span,
					"document setting \""+fe.Field()+"\" is invalid and was ignored")
				switch fe.Field() {
				case "CodeLineStart":
					ds.CodeLineStart = ""
				case "Theme":
					ds.Theme = ""
				}
			}
		}
	}
	return ds
}
