package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Рассылка акций по клиентам студии из админ-меню

type BroadcastState string

const (
	BStateIdle    BroadcastState = "idle"
	BStateEnter   BroadcastState = "enter_text"
	BStateConfirm BroadcastState = "confirm"
)

const (
	LabelBroadcastSend   = "Отправить"
	LabelBroadcastCancel = "Отмена"
)

// Audience lists every client who ever talked to the bot.
type Audience interface {
	ListChatIDs(ctx context.Context) ([]int64, error)
}

type BroadcastSender interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendPhoto(ctx context.Context, chatID int64, fileID, caption string) error
}

type BroadcastStat struct {
	Total     int
	Sent      int
	Failed    int
	CreatedAt time.Time
}

type BroadcastStatRepository interface {
	Save(ctx context.Context, stat BroadcastStat) error
	ListRecent(ctx context.Context, n int) ([]BroadcastStat, error)
}

// BroadcastDraft is the per-admin compose state.
type BroadcastDraft struct {
	State       BroadcastState
	Text        string
	PhotoFileID string
	Caption     string
}

func (d *BroadcastDraft) reset() {
	*d = BroadcastDraft{State: BStateIdle}
}

type BroadcastUsecase struct {
	audience Audience
	sender   BroadcastSender
	stats    BroadcastStatRepository
	now      func() time.Time
}

func NewBroadcastUsecase(audience Audience, sender BroadcastSender, stats BroadcastStatRepository) *BroadcastUsecase {
	return &BroadcastUsecase{audience: audience, sender: sender, stats: stats, now: time.Now}
}

func (u *BroadcastUsecase) Start(d *BroadcastDraft) string {
	d.reset()
	d.State = BStateEnter
	return "Введите текст рассылки сообщением или пришлите фото с подписью."
}

func (u *BroadcastUsecase) ReceiveText(d *BroadcastDraft, text string) (string, []string) {
	if strings.TrimSpace(text) == "" {
		return "Текст не должен быть пустым. Введите текст рассылки:", nil
	}
	d.Text = text
	d.PhotoFileID, d.Caption = "", ""
	d.State = BStateConfirm
	return "Подтвердите отправку рассылки:", []string{LabelBroadcastSend, LabelBroadcastCancel}
}

func (u *BroadcastUsecase) ReceivePhoto(d *BroadcastDraft, fileID, caption string) (string, []string) {
	if strings.TrimSpace(fileID) == "" {
		return "Не удалось получить изображение. Пришлите фото еще раз.", nil
	}
	d.PhotoFileID, d.Caption = fileID, caption
	d.Text = ""
	d.State = BStateConfirm
	return "Подтвердите отправку рассылки с фото:", []string{LabelBroadcastSend, LabelBroadcastCancel}
}

// Confirm sends the draft to the whole audience on LabelBroadcastSend and
// drops it on LabelBroadcastCancel.
func (u *BroadcastUsecase) Confirm(ctx context.Context, d *BroadcastDraft, cmd string) (string, error) {
	switch cmd {
	case LabelBroadcastCancel:
		d.reset()
		return "Рассылка отменена.", nil
	case LabelBroadcastSend:
	default:
		return "Выберите: Отправить или Отмена", nil
	}

	ids, err := u.audience.ListChatIDs(ctx)
	if err != nil {
		return "Не удалось получить список клиентов", fmt.Errorf("broadcast audience: %w", err)
	}
	var sent, failed int
	for _, id := range ids {
		var sendErr error
		if d.PhotoFileID != "" {
			sendErr = u.sender.SendPhoto(ctx, id, d.PhotoFileID, d.Caption)
		} else {
			sendErr = u.sender.SendText(ctx, id, d.Text)
		}
		if sendErr != nil {
			failed++
			continue
		}
		sent++
	}
	d.reset()

	stat := BroadcastStat{Total: len(ids), Sent: sent, Failed: failed, CreatedAt: u.now()}
	if err := u.stats.Save(ctx, stat); err != nil {
		return "", fmt.Errorf("save broadcast stat: %w", err)
	}
	return fmt.Sprintf("Рассылка отправлена: %d успешно, %d с ошибками.", sent, failed), nil
}

func (u *BroadcastUsecase) StatsSummary(ctx context.Context, n int) string {
	stats, err := u.stats.ListRecent(ctx, n)
	if err != nil || len(stats) == 0 {
		return "Статистика недоступна или отсутствует"
	}
	var b strings.Builder
	b.WriteString("Последние рассылки:\n")
	for i, s := range stats {
		fmt.Fprintf(&b, "%d) %s — всего: %d, отправлено: %d, ошибки: %d\n", i+1, s.CreatedAt.Format("2006-01-02 15:04"), s.Total, s.Sent, s.Failed)
	}
	return b.String()
}
