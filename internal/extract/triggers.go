package extract

import "strings"

// Триггеры "еду сейчас"
var urgentTriggers = []string{
	"сейчас",
	"прямо сейчас",
	"через 10 минут",
	"через 5 минут",
	"через 15 минут",
	"через 20 минут",
	"через полчаса",
	"я рядом",
	"еду к вам",
	"уже еду",
	"сегодня через час",
	"через час",
}

// Красные флаги: претензии и нестандартные кейсы, которые ведёт человек
var redFlagTriggers = []string{
	"плохо сделали",
	"верните деньги",
	"жалоба",
	"некачественно",
	"претензия",
	"дтп",
	"после ремонта",
	"после покраски",
	"хамелеон",
	"мат плёнка",
	"сложный цвет",
	"дайте цену немедленно",
	"назовите точно сейчас",
}

func IsUrgentRequest(text string) bool {
	return containsAny(text, urgentTriggers)
}

func IsRedFlag(text string) bool {
	return containsAny(text, redFlagTriggers)
}

func containsAny(text string, triggers []string) bool {
	lower := strings.ToLower(text)
	for _, t := range triggers {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}
