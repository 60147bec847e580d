package usecase

import "detailing-intake-bot/internal/domain"

func setVariant(f *domain.LeadFields, v string) { f.Variant = domain.Ptr(v) }
func setZone(f *domain.LeadFields, v string)    { f.Zone = domain.Ptr(v) }
func setGoal(f *domain.LeadFields, v string)    { f.Goal = domain.Ptr(v) }
func setComment(f *domain.LeadFields, v string) { f.Comment = domain.Ptr(v) }

// flowDefs describes the choice-driven prelude of every service flow. All of
// them continue with the shared vehicle → time → phone tail.
func flowDefs() []flowDef {
	return []flowDef{
		{
			flow:    FlowPPF,
			service: "ppf",
			intro:   "Отлично! Защитная плёнка — это сохранение ЛКП от сколов и повреждений.",
			steps: []choiceStep{
				{
					step:    StepChoosingVariant,
					prompt:  "Выберите вариант:",
					options: []string{PPFVariantBase, PPFVariantRisk, PPFVariantFull, PPFVariantMatte},
					set:     setVariant,
					next:    StepCollectingVehicle,
					branch:  map[string]Step{PPFVariantRisk: StepAskingZones},
					notes: map[string]string{
						PPFVariantBase:  "Обычно это капот, бампер, крылья, полоса на крышу или целиком, оптика.\nСостав уточним по вашему авто на осмотре.",
						PPFVariantFull:  "Это полная оклейка кузова в цвет. Дополнительно по желанию можно добавить пороги, отдельные пластиковые элементы — это точечно подскажет менеджер.",
						PPFVariantMatte: "Отличный вариант! Матовая или сатиновая фактура + родной цвет + полная защита.\n\nМат или сатин подберём на осмотре, дадим образцы, сравните на кузове.",
					},
				},
				{
					step:     StepAskingZones,
					prompt:   "Хороший выбор! Какие зоны хотите защитить в первую очередь?\n\nВы можете выбрать из примеров или описать своими словами:",
					options:  []string{"Капот, бампер, крылья, оптика", "+ Пороги и зона под ручками", "+ Зона погрузки", PPFZoneDescribe},
					free:     true,
					describe: PPFZoneDescribe,
					set:      setZone,
					next:     StepCollectingVehicle,
					ack:      "Понял.",
				},
			},
		},
		{
			flow:    FlowColorPPF,
			service: "color_ppf",
			intro:   "Цветная полиуретановая плёнка — новый цвет и защита ЛКП одновременно. Оттенок подберём на осмотре по образцам.",
		},
		{
			flow:    FlowVinyl,
			service: "vinyl",
			intro:   "Винил — смена цвета или фактуры без покраски.",
			steps: []choiceStep{
				{
					step:    StepChoosingZone,
					prompt:  "Оклеиваем автомобиль в круг или отдельные элементы?",
					options: []string{"В круг", "Отдельные элементы"},
					set:     setZone,
					next:    StepChoosingGoal,
				},
				{
					step:    StepChoosingGoal,
					prompt:  "Что хотите получить? Можно выбрать или написать своими словами:",
					options: []string{"Новый цвет", "Фактура (мат/сатин/карбон)", "Стиль и акценты"},
					free:    true,
					set:     setGoal,
					next:    StepCollectingVehicle,
				},
			},
		},
		{
			flow:    FlowPolish,
			service: "polish",
			intro:   "Реставрация ЛКП — полировка, удаление царапин и голограмм.",
			steps: []choiceStep{
				{
					step:     StepChoosingZone,
					prompt:   "Какие элементы нужно восстановить?",
					options:  []string{"Капот", "Бампер(а)", "Двери", "Крылья/арки", "Весь кузов", PolishZoneDescribe},
					free:     true,
					describe: PolishZoneDescribe,
					set:      setZone,
					next:     StepCollectingVehicle,
				},
			},
		},
		{
			flow:    FlowCeramic,
			service: "ceramic",
			intro:   "Керамика — долговременная защита и глубокий блеск ЛКП.",
			steps: []choiceStep{
				{
					step:    StepChoosingGoal,
					prompt:  "Что для вас главное?",
					options: []string{"Удобство в уходе", "Максимум блеска", "Защита от химии/реагентов", "Всё в комплексе"},
					set:     setGoal,
					next:    StepCollectingVehicle,
				},
			},
		},
		{
			flow:    FlowCleaning,
			service: "cleaning",
			intro:   "Химчистка — глубокая чистка салона.",
			steps: []choiceStep{
				{
					step:    StepChoosingZone,
					prompt:  "Что нужно почистить?",
					options: []string{"Салон целиком", "Сиденья", "Потолок", "Багажник", "Устранение запаха (озонирование)", "Точечно/пятна", "Не знаю — подскажите"},
					free:    true,
					set:     setZone,
					next:    StepCollectingVehicle,
				},
			},
		},
		{
			flow:    FlowWash,
			service: "wash",
			intro:   "Мойка — от быстрой до детейлинговой.",
			steps: []choiceStep{
				{
					step:    StepChoosingGoal,
					prompt:  "Какая задача?",
					options: []string{"Быстро освежить", "Бережно и тщательно", "После зимы: реагенты/битум", "Под выдачу / предпродажная", "После оклейки/керамики", "Не знаю — подскажите"},
					set:     setGoal,
					next:    StepAskingExtras,
				},
				{
					step:    StepAskingExtras,
					prompt:  "Добавить что-нибудь к мойке?",
					options: []string{"Влажная уборка в салоне", "Чернение резины", "Химчистка салона", WashExtrasNone},
					set:     setComment,
					next:    StepCollectingVehicle,
				},
			},
		},
		{
			flow:    FlowTint,
			service: "tint",
			intro:   "Тонировка — комфорт в жару и приватность.",
			steps: []choiceStep{
				{
					step:    StepChoosingZone,
					prompt:  "Какие стёкла тонируем?",
					options: []string{"Задняя полусфера", "Передние боковые", "В круг", "Лобовое", "Только лобовое", "Не знаю — подскажите"},
					set:     setZone,
					next:    StepChoosingGoal,
				},
				{
					step:    StepChoosingGoal,
					prompt:  "Какая цель?",
					options: []string{"Солнце и жара", "Приватность", "Ночью чтобы было видно", "Эстетика/вид", "Не знаю — подскажите"},
					set:     setGoal,
					next:    StepCollectingVehicle,
				},
			},
		},
		{
			flow:    FlowGeneric,
			service: "generic",
			intro:   "Хорошо, запишем вас, а детали менеджер уточнит при звонке.",
		},
	}
}
