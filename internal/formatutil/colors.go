// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package formatutil styles the text printed by cfgir. Styles are only applied when standard output is a terminal.
package formatutil

import (
	"fmt"
	"os"
	"strconv"

	"golang.org/x/term"
)

// Style is the parameter list of an SGR escape sequence, e.g. "1;31" for bold red
type Style string

// Paint prints args as fmt.Sprint does, wrapped in the style
func (s Style) Paint(args ...any) string {
	text := fmt.Sprint(args...)
	if !isTerminal {
		return text
	}
	return "\033[" + string(s) + "m" + text + "\033[0m"
}

var (
	Bold   = Style("1").Paint
	Faint  = Style("2").Paint
	Red    = Style("1;31").Paint
	Green  = Style("1;32").Paint
	Yellow = Style("1;33").Paint
	Cyan   = Style("1;36").Paint
)

var isTerminal = term.IsTerminal(int(os.Stdout.Fd()))

// Sanitize escapes the control characters of s, so that names read from method files cannot inject escape
// sequences
func Sanitize(s string) string {
	q := strconv.Quote(s)
	return q[1 : len(q)-1]
}
