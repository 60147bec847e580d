package usecase

import (
	"context"
	"fmt"
	"strings"
)

// FunnelRepository counts distinct users per reached step.
type FunnelRepository interface {
	Hit(ctx context.Context, step Step, chatID int64) error
	Counts(ctx context.Context) (map[Step]int, error)
}

type FunnelUsecase struct {
	repo  FunnelRepository
	order []Step
}

func NewFunnelUsecase(repo FunnelRepository) *FunnelUsecase {
	return &FunnelUsecase{
		repo: repo,
		order: []Step{
			StepChoosingService,
			StepCollectingVehicle,
			StepCollectingTime,
			StepCollectingPhone,
			StepSubmit,
		},
	}
}

// Reach records that the user got to step. Steps outside the funnel are ignored.
func (u *FunnelUsecase) Reach(ctx context.Context, chatID int64, step Step) error {
	if u == nil || !u.tracked(step) {
		return nil
	}
	if err := u.repo.Hit(ctx, step, chatID); err != nil {
		return fmt.Errorf("funnel hit %s: %w", step, err)
	}
	return nil
}

func (u *FunnelUsecase) tracked(step Step) bool {
	for _, s := range u.order {
		if s == step {
			return true
		}
	}
	return false
}

func (u *FunnelUsecase) Chart(ctx context.Context) string {
	counts, err := u.repo.Counts(ctx)
	if err != nil || len(counts) == 0 {
		return "Данных по воронке пока нет"
	}
	var base int
	if len(u.order) > 0 {
		base = counts[u.order[0]]
	}
	if base == 0 {
		// найти максимальный как базу
		for _, s := range u.order {
			if counts[s] > base {
				base = counts[s]
			}
		}
	}
	var prev int
	var b strings.Builder
	b.WriteString("Воронка по шагам:\n")
	for i, s := range u.order {
		c := counts[s]
		relPrev := 0
		if i == 0 {
			relPrev = 100
		} else if prev > 0 {
			relPrev = percent(c, prev)
		}
		fmt.Fprintf(&b, "- %s: %d | %3d%% от базового | %3d%% от пред. %s\n", stepLabel(s), c, percent(c, base), relPrev, bar20(c, base))
		prev = c
	}
	last := u.order[len(u.order)-1]
	fmt.Fprintf(&b, "\nКонверсия в заявку: %d%%", percent(counts[last], base))
	return b.String()
}

// GraphData возвращает метки и значения по порядку шагов для построения графика
func (u *FunnelUsecase) GraphData(ctx context.Context) ([]string, []int, error) {
	counts, err := u.repo.Counts(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("funnel counts: %w", err)
	}
	labels := make([]string, 0, len(u.order))
	values := make([]int, 0, len(u.order))
	for _, s := range u.order {
		labels = append(labels, stepLabel(s))
		values = append(values, counts[s])
	}
	return labels, values, nil
}

func percent(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (100 * a) / b
}

func bar20(val, max int) string {
	if max <= 0 {
		return ""
	}
	filled := (20 * val) / max
	if filled < 0 {
		filled = 0
	}
	if filled > 20 {
		filled = 20
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", 20-filled) + "]"
}

func stepLabel(s Step) string {
	switch s {
	case StepChoosingService:
		return "Старт"
	case StepCollectingVehicle:
		return "Авто"
	case StepCollectingTime:
		return "Время"
	case StepCollectingPhone:
		return "Телефон"
	case StepSubmit:
		return "Заявка"
	default:
		return string(s)
	}
}
