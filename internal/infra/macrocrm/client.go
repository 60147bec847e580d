package macrocrm

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"detailing-intake-bot/internal/usecase"
)

// Client копирует поданные заявки в MacroCRM (SberCRM).
type Client struct {
	// Базовый хост API, по умолчанию https://api.macro.sbercrm.com
	BaseURL    string
	Domain     string
	AppSecret  string
	Action     string
	HTTPClient *http.Client
	now        func() time.Time
}

func NewClient(domain, appSecret string, opts ...func(*Client)) *Client {
	c := &Client{
		BaseURL:    "https://api.macro.sbercrm.com",
		Domain:     domain,
		AppSecret:  appSecret,
		Action:     "question",
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func WithBaseURL(baseURL string) func(*Client) {
	return func(c *Client) {
		if strings.TrimSpace(baseURL) != "" {
			c.BaseURL = baseURL
		}
	}
}

func WithAction(action string) func(*Client) {
	return func(c *Client) {
		if strings.TrimSpace(action) != "" {
			c.Action = action
		}
	}
}

func WithHTTPClient(hc *http.Client) func(*Client) {
	return func(c *Client) {
		if hc != nil {
			c.HTTPClient = hc
		}
	}
}

// DeliverLead отправляет телефон, имя и текстовое описание заявки.
func (c *Client) DeliverLead(ctx context.Context, ev usecase.HandoffEvent) error {
	if c == nil {
		return errors.New("macrocrm: client is nil")
	}
	if strings.TrimSpace(c.Domain) == "" || strings.TrimSpace(c.AppSecret) == "" {
		return errors.New("macrocrm: domain/app_secret are not set")
	}
	phone := deref(ev.Fields.Phone)
	if strings.TrimSpace(phone) == "" {
		return fmt.Errorf("macrocrm: lead %d has no phone", ev.LeadID)
	}

	tsStr := strconv.FormatInt(c.now().Unix(), 10)

	form := url.Values{}
	form.Set("domain", c.Domain)
	form.Set("time", tsStr)
	form.Set("token", md5Hex(c.Domain+tsStr+c.AppSecret))
	form.Set("action", c.Action)
	form.Set("phone", phone)
	form.Set("name", ev.DisplayName)
	form.Set("message", Message(ev))

	endpoint := strings.TrimRight(c.BaseURL, "/") + "/estate/request/"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("macrocrm: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("macrocrm: post lead %d: %w", ev.LeadID, err)
	}
	defer resp.Body.Close()
	// любой 2xx считаем успехом
	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("macrocrm: non-2xx: %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// Message is the human-readable lead description stored in the CRM request.
func Message(ev usecase.HandoffEvent) string {
	f := ev.Fields
	var b strings.Builder
	b.WriteString("Заявка из Telegram")
	if ev.IsUrgent {
		b.WriteString(" (срочно)")
	}
	fmt.Fprintf(&b, "\nУслуга: %s", orDash(usecase.ServiceName(deref(f.Service))))
	if v := deref(f.Variant); v != "" {
		fmt.Fprintf(&b, "\nВариант: %s", v)
	}
	if z := deref(f.Zone); z != "" {
		fmt.Fprintf(&b, "\nЗоны: %s", z)
	}
	vehicle := f.VehicleLine()
	if vehicle == "" {
		vehicle = "не указано"
	}
	fmt.Fprintf(&b, "\nАвто: %s", vehicle)
	fmt.Fprintf(&b, "\nКогда: %s", orDash(deref(f.ScheduledWhen)))
	notes := make([]string, 0, 2)
	if g := deref(f.Goal); g != "" {
		notes = append(notes, g)
	}
	if c := deref(f.Comment); c != "" && c != usecase.WashExtrasNone {
		notes = append(notes, c)
	}
	if len(notes) > 0 {
		fmt.Fprintf(&b, "\nКомментарий: %s", strings.Join(notes, "; "))
	}
	fmt.Fprintf(&b, "\nID: %s", ev.ID)
	return b.String()
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
