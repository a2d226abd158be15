//----------------------------------------------------------------------
// This file is part of picoled.
// Copyright (C) 2024-present Bernd Fix   >Y<
//
// picoled is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License,
// or (at your option) any later version.
//
// picoled is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.
//
// SPDX-License-Identifier: AGPL3.0-or-later
//----------------------------------------------------------------------

package picoled

import (
	"strings"
	"time"
)

// DefaultUnit is the duration of a dot.
const DefaultUnit = 200 * time.Millisecond

// Timing in units.
const (
	dotUnits       = 1
	dashUnits      = 3
	gapUnits       = 1 // between marks of one character
	letterGapUnits = 3 // between characters
	wordGapUnits   = 7 // between words
)

// Kind of a Morse symbol.
type Kind uint8

// Symbol kinds
const (
	Mark      Kind = iota // LED on (dot or dash)
	Gap                   // LED off between marks
	LetterGap             // LED off between characters
	WordGap               // LED off between words
)

// Symbol is an element of an encoded message with its length in units.
type Symbol struct {
	Kind  Kind
	Units int
}

// Sequence of symbols produced by Encode.
type Sequence []Symbol

// morse code table
var table = map[byte]string{
	'A': ".-", 'B': "-...", 'C': "-.-.", 'D': "-..", 'E': ".", 'F': "..-.",
	'G': "--.", 'H': "....", 'I': "..", 'J': ".---", 'K': "-.-", 'L': ".-..",
	'M': "--", 'N': "-.", 'O': "---", 'P': ".--.", 'Q': "--.-", 'R': ".-.",
	'S': "...", 'T': "-", 'U': "..-", 'V': "...-", 'W': ".--", 'X': "-..-",
	'Y': "-.--", 'Z': "--..",
	'0': "-----", '1': ".----", '2': "..---", '3': "...--", '4': "....-",
	'5': ".....", '6': "-....", '7': "--...", '8': "---..", '9': "----.",
}

// reverse lookup for Decode
var codes = func() map[string]byte {
	m := make(map[string]byte, len(table))
	for c, code := range table {
		m[code] = c
	}
	return m
}()

// Encode text as Morse code. Letters are case-insensitive, spaces
// separate words and all other characters are dropped.
func Encode(text string) (seq Sequence) {
	prev := false // last emitted symbol belongs to a character
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		if c == ' ' {
			seq = append(seq, Symbol{Kind: WordGap, Units: wordGapUnits})
			prev = false
			continue
		}
		code, ok := table[c]
		if !ok {
			continue
		}
		if prev {
			seq = append(seq, Symbol{Kind: LetterGap, Units: letterGapUnits})
		}
		for j := 0; j < len(code); j++ {
			if j > 0 {
				seq = append(seq, Symbol{Kind: Gap, Units: gapUnits})
			}
			units := dotUnits
			if code[j] == '-' {
				units = dashUnits
			}
			seq = append(seq, Symbol{Kind: Mark, Units: units})
		}
		prev = true
	}
	return
}

// Decode a sequence back into (uppercase) text. Marks that do not form
// a known character decode as '?'.
func Decode(seq Sequence) string {
	var (
		out  strings.Builder
		mark strings.Builder
	)
	flush := func() {
		if mark.Len() == 0 {
			return
		}
		if c, ok := codes[mark.String()]; ok {
			out.WriteByte(c)
		} else {
			out.WriteByte('?')
		}
		mark.Reset()
	}
	for _, s := range seq {
		switch s.Kind {
		case Mark:
			if s.Units >= dashUnits {
				mark.WriteByte('-')
			} else {
				mark.WriteByte('.')
			}
		case LetterGap:
			flush()
		case WordGap:
			flush()
			out.WriteByte(' ')
		}
	}
	flush()
	return out.String()
}

// Format a sequence as dots and dashes; characters are separated by a
// space and words by " / ".
func Format(seq Sequence) string {
	var sb strings.Builder
	for _, s := range seq {
		switch s.Kind {
		case Mark:
			if s.Units >= dashUnits {
				sb.WriteByte('-')
			} else {
				sb.WriteByte('.')
			}
		case LetterGap:
			sb.WriteByte(' ')
		case WordGap:
			sb.WriteString(" / ")
		}
	}
	return strings.TrimSpace(sb.String())
}

// Pulses converts the sequence to LED pulses for the given unit. Every
// mark becomes the on-time of a pulse; the gaps following it make up
// its off-time. Gaps before the first mark form a pulse without
// on-time.
func (seq Sequence) Pulses(unit time.Duration) (out []Pulse) {
	for _, s := range seq {
		d := time.Duration(s.Units) * unit
		if s.Kind == Mark {
			out = append(out, Pulse{On: d})
			continue
		}
		if len(out) == 0 {
			out = append(out, Pulse{})
		}
		out[len(out)-1].Off += d
	}
	return
}

// Duration of the sequence when played with the given unit.
func (seq Sequence) Duration(unit time.Duration) (d time.Duration) {
	for _, s := range seq {
		d += time.Duration(s.Units) * unit
	}
	return
}
