// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package openai

import "strings"

// cleanJSON turns a chat model reply into something encoding/json can decode.
// It drops code fences and any prose around the outermost object, removes
// trailing commas, and restores the opening quote on keys like `skill":`.
func cleanJSON(s string) string {
	s = stripCodeFences(s)
	if start, end := strings.IndexByte(s, '{'), strings.LastIndexByte(s, '}'); start >= 0 && end > start {
		s = s[start : end+1]
	}

	in := []rune(s)
	out := make([]rune, 0, len(in)+16)
	inString, escaped := false, false
	for i := 0; i < len(in); i++ {
		ch := in[i]
		if inString {
			out = append(out, ch)
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch {
		case ch == '"':
			inString = true
			out = append(out, ch)
		case ch == ',':
			if j := skipSpace(in, i+1); j < len(in) && (in[j] == '}' || in[j] == ']') {
				continue
			}
			out = append(out, ch)
		case isLetter(ch) && opensKey(out):
			k := i
			for k < len(in) && isKeyRune(in[k]) {
				k++
			}
			if k+1 < len(in) && in[k] == '"' && in[k+1] == ':' {
				out = append(out, '"')
				out = append(out, in[i:k+1]...)
				i = k
				continue
			}
			out = append(out, ch)
		default:
			out = append(out, ch)
		}
	}
	return string(out)
}

// opensKey reports whether the last significant rune written starts an object member.
func opensKey(out []rune) bool {
	for i := len(out) - 1; i >= 0; i-- {
		switch out[i] {
		case ' ', '\n', '\t', '\r':
			continue
		case '{', ',':
			return true
		default:
			return false
		}
	}
	return false
}

func skipSpace(rs []rune, i int) int {
	for i < len(rs) && (rs[i] == ' ' || rs[i] == '\n' || rs[i] == '\t' || rs[i] == '\r') {
		i++
	}
	return i
}

func isKeyRune(r rune) bool {
	return isLetter(r) || r == '_' || (r >= '0' && r <= '9')
}
