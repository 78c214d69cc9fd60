package ai

import (
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"unicode"
)

// Per-word and per-character odds once a message has been picked for
// roughing up.
const (
	wordTypoChance     = 0.1
	commaSpacingChance = 0.3
	commaDropChance    = 0.8
	missingSpaceChance = 0.05
)

var plainWord = regexp.MustCompile(`^[a-zA-Zа-яА-ЯёЁ]+[.,!?-]?$`)

// keyboardNeighbours maps a key to the keys around it (RU and EN layouts).
var keyboardNeighbours = map[rune][]rune{
	'й': []rune("цфы12"), 'ц': []rune("йуывф"), 'у': []rune("цкваы"), 'к': []rune("уеапм"), 'е': []rune("кнпр"),
	'н': []rune("егро"), 'г': []rune("ншол"), 'ш': []rune("гщлд"), 'щ': []rune("шздж"), 'з': []rune("щхжэ"),
	'х': []rune("зъэ"), 'ъ': []rune("хэ"),
	'ф': []rune("йцыя"), 'ы': []rune("цуфвяч"), 'в': []rune("укыачс"), 'а': []rune("кевпсм"), 'п': []rune("енарми"),
	'р': []rune("нгпоит"), 'о': []rune("гшрлть"), 'л': []rune("шщодьб"), 'д': []rune("щзлжбю"), 'ж': []rune("зхдэю"),
	'э': []rune("жхъю"),
	'я': []rune("фыч"), 'ч': []rune("ывяс"), 'с': []rune("вачм"), 'м': []rune("апси"), 'и': []rune("прмт"),
	'т': []rune("роиь"), 'ь': []rune("олтб"), 'б': []rune("лдью"), 'ю': []rune("джб"),

	'q': []rune("wa12"), 'w': []rune("qeas"), 'e': []rune("wrsd"), 'r': []rune("etdf"), 't': []rune("ryfg"),
	'y': []rune("tugh"), 'u': []rune("yihj"), 'i': []rune("uojk"), 'o': []rune("ipkl"), 'p': []rune("ol"),
	'a': []rune("qwsz"), 's': []rune("weadzx"), 'd': []rune("ersfxc"), 'f': []rune("rtdgcv"), 'g': []rune("tyfhvb"),
	'h': []rune("yugjbn"), 'j': []rune("uihknm"), 'k': []rune("iojlm"), 'l': []rune("opk"),
	'z': []rune("asx"), 'x': []rune("sdzc"), 'c': []rune("dfxv"), 'v': []rune("fgcb"), 'b': []rune("ghvn"),
	'n': []rune("hjbm"), 'm': []rune("jkn"),
}

// Humanizer adds the kind of mistakes people make when typing fast.
type Humanizer struct {
	chance float64

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewHumanizer returns a Humanizer that touches a message with the given
// probability.
func NewHumanizer(chance float64, rnd *rand.Rand) *Humanizer {
	return &Humanizer{chance: chance, rnd: rnd}
}

func (h *Humanizer) Apply(text string) string {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rnd.Float64() >= h.chance {
		return text
	}

	words := strings.Split(text, " ")
	for i, w := range words {
		if h.rnd.Float64() < wordTypoChance && plainWord.MatchString(w) {
			words[i] = h.typo(w)
		}
	}
	out := strings.Join(words, " ")

	out = h.replaceEach(out, ", ", func() string {
		if h.rnd.Float64() < commaSpacingChance {
			if h.rnd.Float64() < 0.5 {
				return " ,"
			}
			return " , "
		}
		return ", "
	})
	out = h.replaceEach(out, ",", func() string {
		if h.rnd.Float64() < commaDropChance {
			return ""
		}
		return ","
	})
	out = h.replaceEach(out, " ", func() string {
		if h.rnd.Float64() < missingSpaceChance {
			return ""
		}
		return " "
	})
	return out
}

// typo applies one of: neighbour key, transposition, dropped letter,
// doubled letter.
func (h *Humanizer) typo(word string) string {
	chars := []rune(word)
	if len(chars) < 2 {
		return word
	}
	idx := h.rnd.Intn(len(chars))
	switch h.rnd.Intn(4) {
	case 0:
		chars[idx] = h.neighbour(chars[idx])
	case 1:
		if idx < len(chars)-1 {
			chars[idx], chars[idx+1] = chars[idx+1], chars[idx]
		} else {
			chars[idx], chars[idx-1] = chars[idx-1], chars[idx]
		}
	case 2:
		if len(chars) > 2 {
			chars = append(chars[:idx], chars[idx+1:]...)
		}
	case 3:
		chars = append(chars[:idx+1], chars[idx:]...)
	}
	return string(chars)
}

func (h *Humanizer) neighbour(r rune) rune {
	options := keyboardNeighbours[unicode.ToLower(r)]
	if len(options) == 0 {
		return r
	}
	n := options[h.rnd.Intn(len(options))]
	if unicode.IsUpper(r) {
		return unicode.ToUpper(n)
	}
	return n
}

func (h *Humanizer) replaceEach(s, old string, repl func() string) string {
	parts := strings.Split(s, old)
	if len(parts) == 1 {
		return s
	}
	var sb strings.Builder
	sb.WriteString(parts[0])
	for _, p := range parts[1:] {
		sb.WriteString(repl())
		sb.WriteString(p)
	}
	return sb.String()
}
