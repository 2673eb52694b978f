/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import "strings"

var transitions = []string{
	"CUT TO", "DISSOLVE TO", "FADE IN", "FADE OUT", "FADE TO", "FLASH CUT TO",
	"FREEZE FRAME", "IRIS IN", "IRIS OUT", "JUMP CUT TO", "MATCH CUT TO",
	"MATCH DISSOLVE TO", "SMASH CUT TO", "STOCK SHOT", "TIME CUT", "WIPE TO",
}

var shots = []string{
	"AIR", "CLOSE ON", "CLOSER ON", "CLOSEUP", "ESTABLISHING", "EXTREME CLOSEUP",
	"INSERT", "POV", "SURFACE", "THREE SHOT", "TWO SHOT", "UNDERWATER", "WIDE",
	"WIDE ON", "WIDER ANGLE",
}

// Transitions lists the standard transition phrases, sorted.
func Transitions() []string { return append([]string(nil), transitions...) }

// Shots lists the standard shot phrases, sorted.
func Shots() []string { return append([]string(nil), shots...) }

// IsTransition reports whether line is a standard transition, ignoring case
// and a trailing colon or period.
func IsTransition(line string) bool { return matchPhrase(transitions, line) }

// IsShot reports whether line starts with a standard shot phrase.
func IsShot(line string) bool {
	u := strings.ToUpper(strings.TrimSpace(line))
	for _, s := range shots {
		if u == s || strings.HasPrefix(u, s+" ") || strings.HasPrefix(u, s+":") {
			return true
		}
	}
	return false
}

func matchPhrase(list []string, line string) bool {
	u := strings.TrimRight(strings.ToUpper(strings.TrimSpace(line)), ":.")
	for _, s := range list {
		if u == s {
			return true
		}
	}
	return false
}
