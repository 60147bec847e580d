package usecase

import "strings"

const (
	CommandStart  = "/start"
	LabelMainMenu = "🏠 В главное меню"
	LabelSkipCar  = "Пропустить"

	LabelEndDialog = "Завершить диалог"
)

// Кнопки главного меню
const (
	LabelPPF      = "🛡 Оклейка плёнкой"
	LabelColorPPF = "🎨 Цветная полиуретановая плёнка"
	LabelVinyl    = "🎭 Винил (смена цвета)"
	LabelPolish   = "💎 Реставрация ЛКП"
	LabelWash     = "🧼 Мойка"
	LabelTint     = "🔲 Тонировка"
	LabelCleaning = "🧴 Химчистка"
	LabelCeramic  = "🛡️ Керамика"
	LabelOther    = "📝 Другая услуга"
)

const (
	PPFVariantBase     = "База"
	PPFVariantRisk     = "Зоны риска"
	PPFVariantFull     = "Все элементы в цвет кузова"
	PPFVariantMatte    = "Матовый полиуретан"
	PPFZoneDescribe    = "Опишу словами"
	PolishZoneDescribe = "Точечно/не знаю — опишу словами"
	WashExtrasNone     = "Ничего дополнительно"
)

var mainMenu = []string{
	LabelPPF, LabelColorPPF,
	LabelVinyl, LabelPolish,
	LabelWash, LabelTint,
	LabelCleaning, LabelCeramic,
	LabelOther,
}

// serviceByLabel is the main-menu dispatch table. Keys are normalised labels,
// so "PPF", "ppf" and the emoji button all land on the same flow.
var serviceByLabel = buildServiceIndex(map[Flow][]string{
	FlowPPF:      {LabelPPF, "Оклейка плёнкой", "PPF"},
	FlowColorPPF: {LabelColorPPF, "Цветная полиуретановая плёнка", "Color PPF"},
	FlowVinyl:    {LabelVinyl, "Винил", "Vinyl"},
	FlowPolish:   {LabelPolish, "Реставрация ЛКП", "Полировка", "Polish"},
	FlowWash:     {LabelWash, "Мойка", "Wash"},
	FlowTint:     {LabelTint, "Тонировка", "Tint"},
	FlowCleaning: {LabelCleaning, "Химчистка", "Cleaning"},
	FlowCeramic:  {LabelCeramic, "Керамика", "Ceramic"},
	FlowGeneric:  {LabelOther, "Другая услуга", "Другое", "Other"},
})

func buildServiceIndex(labels map[Flow][]string) map[string]Flow {
	idx := make(map[string]Flow)
	for flow, ls := range labels {
		for _, l := range ls {
			idx[normalizeLabel(l)] = flow
		}
	}
	return idx
}

// normalizeLabel drops leading emoji/punctuation and case.
func normalizeLabel(s string) string {
	s = strings.TrimLeftFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= 'а' && r <= 'я' || r >= 'А' && r <= 'Я' || r == 'ё' || r == 'Ё')
	})
	return strings.ToLower(strings.TrimSpace(s))
}

// ServiceNames maps stored service codes to what admins read on a lead card.
var ServiceNames = map[string]string{
	"ppf":       "Оклейка плёнкой (PPF)",
	"color_ppf": "Цветная полиуретановая плёнка",
	"vinyl":     "Винил (смена цвета)",
	"polish":    "Реставрация ЛКП",
	"ceramic":   "Керамика",
	"wash":      "Мойка",
	"tint":      "Тонировка",
	"cleaning":  "Химчистка",
	"generic":   "Другая услуга",
}

func ServiceName(code string) string {
	if n, ok := ServiceNames[code]; ok {
		return n
	}
	if code == "" {
		return "Не указана"
	}
	return code
}

// Тексты
const (
	textChooseService  = "Выберите услугу:"
	textNotImplemented = "Эта услуга пока в разработке 🔧\n\nВыберите другую услугу или напишите напрямую, чем могу помочь!"
	textAskCar         = "Подскажите марку, модель и год автомобиля:"
	textAskCarYear     = "Подскажите, пожалуйста, год автомобиля — это важно для корректной записи.\n\nНапишите марку, модель и год (например: Toyota Camry 2020)"
	textBadCarYear     = "Кажется, год указан с ошибкой 🙂\n\nНапишите марку, модель и год выпуска от 1980 до 2035 (например: Toyota Camry 2020)"
	textAskTime        = "Когда вам удобно заехать? (например: завтра после 18, в пятницу утром)"
	textPastTime       = "Это время уже прошло 🙂\n\nПодскажите, пожалуйста, ближайший день и время, когда удобно заехать."
	textAskPhone       = "Хорошо. Напишите, пожалуйста, номер телефона для подтверждения записи:"
	textBadPhone       = "Не увидел номер телефона 🙏\n\nНапишите, пожалуйста, в формате +7 9** *** ** **"
	textChoose         = "Пожалуйста, выберите вариант:"
	textAccepted       = "Принято ✅\n\nАдминистратор позвонит вам, уточнит детали и подтвердит удобное время."
	textMoreQuestions  = "Если есть ещё вопросы — пишите! 😊"
)
