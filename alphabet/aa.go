// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package alphabet

import "fmt"

// Aa is an amino-acid letter, encoded as an upper-case ASCII byte.
type Aa byte

const (
	AaX    Aa = 'X'
	AaStop Aa = '*'
	AaGap  Aa = '-'
)

var asciiToAaMap [256]Aa

func init() {
	for _, ch := range []byte("ACDEFGHIKLMNPQRSTVWYX*-") {
		asciiToAaMap[ch] = Aa(ch)
		if ch >= 'A' && ch <= 'Z' {
			asciiToAaMap[ch|0x20] = Aa(ch)
		}
	}
	// Selenocysteine and pyrrolysine appear in some annotations.
	asciiToAaMap['U'] = 'U'
	asciiToAaMap['O'] = 'O'
}

// IsGap reports whether a is the gap letter.
func (a Aa) IsGap() bool { return a == AaGap }

// IsAmbiguous reports whether a is the unknown amino acid X.
func (a Aa) IsAmbiguous() bool { return a == AaX }

func (a Aa) String() string { return string(rune(a)) }

// ParseAa converts a single ASCII character into an Aa.
func ParseAa(ch byte) (Aa, error) {
	a := asciiToAaMap[ch]
	if a == 0 {
		return 0, fmt.Errorf("invalid amino acid letter %q", ch)
	}
	return a, nil
}
