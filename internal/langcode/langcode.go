// Package langcode converts language codes between the vocabularies spoken by
// the system's collaborators. Every conversion pivots through a canonical
// BCP-47 tag instead of maintaining pairwise mappings: normalize into the
// pivot, project out of it.
package langcode

import (
	"strings"

	"golang.org/x/text/language"
)

// Auto is the sentinel language code requesting auto-detection.
const Auto = "auto"

// Vocabulary identifies a collaborator-specific language code space.
type Vocabulary string

const (
	// VocabClient is the code space used on the WebSocket API (two-letter
	// codes plus a few script/region-qualified exceptions such as zh-Hans).
	VocabClient Vocabulary = "client"

	// VocabWhisper is the ISO 639-1 code space understood by Whisper models.
	VocabWhisper Vocabulary = "whisper"
)

// Exception spellings the client vocabulary uses where a bare base language
// would be ambiguous or nonstandard. Projection consults these before falling
// back to the base subtag.
var clientExceptions = map[string]string{
	"pt": "pt-br",
	"no": "nb",
	"nb": "nb",
}

// whisperExceptions maps base subtags whose Whisper spelling differs from the
// plain ISO 639-1 base.
var whisperExceptions = map[string]string{
	"nb": "no", // Whisper has no Bokmål code; generic Norwegian is closest
}

// Normalize converts a language code into the canonical pivot tag. Every
// vocabulary here is a BCP-47 subset, so normalization needs no vocabulary
// parameter; only projection out of the pivot is vocabulary-specific. It is
// total: malformed or unknown input degrades to a best-effort tag (ultimately
// language.Und) instead of failing, since a bad language hint only costs
// accuracy, never correctness.
func Normalize(code string) language.Tag {
	code = strings.TrimSpace(code)
	if code == "" || strings.EqualFold(code, Auto) {
		return language.Und
	}
	code = strings.ReplaceAll(code, "_", "-")

	tag, err := language.Parse(code)
	if err != nil {
		// ValueError means well-formed but partly unknown; the returned tag
		// is still the best available interpretation.
		if _, ok := err.(language.ValueError); !ok {
			return language.Und
		}
	}
	return tag
}

// Project converts a canonical tag into the given vocabulary. The boolean is
// false when the tag has no representation there; callers must treat that as
// "fall back to auto-detect", never as an error.
func Project(tag language.Tag, to Vocabulary) (string, bool) {
	if tag == language.Und {
		return "", false
	}
	base, conf := tag.Base()
	if conf == language.No {
		return "", false
	}

	switch to {
	case VocabWhisper:
		code := base.String()
		if mapped, ok := whisperExceptions[code]; ok {
			code = mapped
		}
		// Whisper only understands two-letter ISO 639-1 codes.
		if len(code) != 2 {
			return "", false
		}
		return code, true

	case VocabClient:
		if base.String() == "zh" {
			// Chinese needs a script qualifier in the client vocabulary.
			script, _ := tag.Script()
			if script.String() == "Hant" {
				return "zh-Hant", true
			}
			return "zh-Hans", true
		}
		if mapped, ok := clientExceptions[base.String()]; ok {
			return mapped, true
		}
		return base.String(), true
	}
	return "", false
}

// Convert translates a code into the given vocabulary through the pivot.
func Convert(code string, to Vocabulary) (string, bool) {
	return Project(Normalize(code), to)
}
