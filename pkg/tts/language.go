package tts

import (
	"fmt"

	"golang.org/x/text/language"
)

// LanguageCode returns the ISO 639-1 base of a BCP-47 tag, e.g. "ko" for "ko-KR".
func LanguageCode(tag string) (string, error) {
	t, err := language.Parse(tag)
	if err != nil {
		return "", fmt.Errorf("tts: language %q: %w", tag, err)
	}
	base, conf := t.Base()
	if conf == language.No {
		return "", fmt.Errorf("tts: language %q has no base", tag)
	}
	return base.String(), nil
}
