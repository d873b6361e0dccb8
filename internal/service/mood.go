package service

import (
	"regexp"
	"strings"
)

// Palette - фиксированная палитра, которая сохраняется вместе с каждой картинкой дня.
var Palette = []string{"#0A192F", "#172A45", "#30415D", "#566E87", "#B9D5F0"}

const (
	MoodNeutral      = "neutral"
	moodNeutralScore = 0.5
)

type moodRule struct {
	mood    string
	score   float64
	pattern *regexp.Regexp
}

// порядок важен: побеждает первая совпавшая группа
var moodRules = []moodRule{
	{"awe", 0.85, regexp.MustCompile(`\b(nebula|galaxy|stars|serene|calm|deep space)\b`)},
	{"energetic", 0.80, regexp.MustCompile(`\b(sun|flare|energetic|supernova|explosion)\b`)},
	{"mysterious", 0.90, regexp.MustCompile(`\b(dark|shadow|void|black hole|mysterious)\b`)},
	{"contemplative", 0.75, regexp.MustCompile(`\b(earth|planet|home|our world|satellite)\b`)},
}

// ClassifyMood подбирает настроение по ключевым словам в заголовке и описании.
func ClassifyMood(title, explanation string) (string, float64) {
	text := strings.ToLower(title + " " + explanation)
	for _, rule := range moodRules {
		if rule.pattern.MatchString(text) {
			return rule.mood, rule.score
		}
	}
	return MoodNeutral, moodNeutralScore
}
