package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// contextRunes is how much of the surrounding phrase is kept on each side of
// the matched time reference ("завтра после 18" rather than just "завтра").
const contextRunes = 20

var pastTriggers = []string{"вчера", "позавчера"}

// Tried in order; the first pattern that matches wins.
var timePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(сегодня|завтра|послезавтра)`),
	regexp.MustCompile(`(?i)(в|во)\s+(понедельник|вторник|среду|четверг|пятницу|субботу|воскресенье)`),
	regexp.MustCompile(`(?i)(на|в)\s+([\p{L}\p{N}_]+)`),
	regexp.MustCompile(`\d{1,2}[:.]?\d{0,2}`),
	regexp.MustCompile(`(?i)\d{1,2}\s+(января|февраля|марта|апреля|мая|июня|июля|августа|сентября|октября|ноября|декабря)`),
}

// HasPastTrigger reports "yesterday"-style phrases.
func HasPastTrigger(text string) bool {
	lower := strings.ToLower(text)
	for _, t := range pastTriggers {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}

// ExtractScheduledTime returns the slice of the original text around the first
// time reference. A past-time trigger always wins and yields nothing.
func ExtractScheduledTime(text string) (string, bool) {
	if HasPastTrigger(text) {
		return "", false
	}
	for _, re := range timePatterns {
		loc := re.FindStringIndex(text)
		if loc == nil {
			continue
		}
		runes := []rune(text)
		start := utf8.RuneCountInString(text[:loc[0]]) - contextRunes
		end := utf8.RuneCountInString(text[:loc[1]]) + contextRunes
		if start < 0 {
			start = 0
		}
		if end > len(runes) {
			end = len(runes)
		}
		return strings.TrimSpace(string(runes[start:end])), true
	}
	return "", false
}

// ExtractScheduledTimeBeside is ExtractScheduledTime for a message that also
// names the car or a phone: the vehicle and phone runs are cut out first so a
// model year or a phone number never reads as a clock time.
func ExtractScheduledTimeBeside(text string) (string, bool) {
	text = text[vehicleEnd(text):]
	text = phoneRunRE.ReplaceAllStringFunc(text, func(run string) string {
		if _, ok := normalizePhone(run); ok {
			return " "
		}
		return run
	})
	return ExtractScheduledTime(strings.Trim(text, " ,.;:-"))
}
