package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/time/rate"

	telegramAdapter "detailing-intake-bot/internal/adapter/telegram"
	"detailing-intake-bot/internal/config"
	"detailing-intake-bot/internal/domain"
	"detailing-intake-bot/internal/infra/macrocrm"
	"detailing-intake-bot/internal/infra/memory"
	sqliteRepo "detailing-intake-bot/internal/infra/sqlite"
	"detailing-intake-bot/internal/metrics"
	"detailing-intake-bot/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("bot stopped", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

type userStore interface {
	domain.UserRepository
	usecase.Audience
}

type stores struct {
	leads    domain.LeadRepository
	users    userStore
	messages domain.MessageRepository
	funnel   usecase.FunnelRepository
	stats    usecase.BroadcastStatRepository
	close    func() error
}

func openStores(cfg config.Config) (stores, error) {
	if cfg.Storage == "memory" {
		return stores{
			leads:    memory.NewLeadRepo(),
			users:    memory.NewUserRepo(),
			messages: memory.NewMessageRepo(),
			funnel:   memory.NewFunnelRepo(),
			stats:    memory.NewBroadcastStatRepo(),
			close:    func() error { return nil },
		}, nil
	}
	db, err := sqliteRepo.Open(cfg.SQLiteDSN)
	if err != nil {
		return stores{}, err
	}
	return stores{
		leads:    sqliteRepo.NewLeadRepo(db),
		users:    sqliteRepo.NewUserRepo(db),
		messages: sqliteRepo.NewMessageRepo(db),
		funnel:   sqliteRepo.NewFunnelRepo(db),
		stats:    sqliteRepo.NewBroadcastStatRepo(db),
		close:    db.Close,
	}, nil
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	st, err := openStores(cfg)
	if err != nil {
		return fmt.Errorf("storage init: %w", err)
	}
	defer func() {
		if err := st.close(); err != nil {
			logger.Error("storage close failed", "error", err)
		}
	}()
	logger.Info("storage ready", "storage", cfg.Storage)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return fmt.Errorf("telegram auth: %w", err)
	}
	bot.Debug = false
	logger.Info("authorized", "username", bot.Self.UserName)

	sender := telegramAdapter.NewSender(bot, rate.NewLimiter(rate.Limit(cfg.SendRate), cfg.SendBurst), m)

	funnel := usecase.NewFunnelUsecase(st.funnel)
	orch := usecase.NewOrchestrator(
		usecase.NewDialog(usecase.StudioInfo{Address: cfg.Studio.Address, MapURL: cfg.Studio.MapURL}),
		usecase.NewSessionStore(),
		usecase.NewLeadAggregator(st.leads, usecase.WithAntiSpam(cfg.AntiSpamWindow, cfg.AntiSpamLimit)),
		st.users,
		st.messages,
		usecase.WithFunnel(funnel),
		usecase.WithRecorder(m),
		usecase.WithLogger(logger),
	)

	notifierOpts := []telegramAdapter.NotifierOption{telegramAdapter.WithNotifierLogger(logger)}
	if cfg.CRM.Enabled() {
		crm := macrocrm.NewClient(cfg.CRM.Domain, cfg.CRM.Secret,
			macrocrm.WithBaseURL(cfg.CRM.BaseURL),
			macrocrm.WithAction(cfg.CRM.Action),
		)
		notifierOpts = append(notifierOpts, telegramAdapter.WithCRM(crm, m))
		logger.Info("crm delivery enabled", "domain", cfg.CRM.Domain)
	}
	notifier := telegramAdapter.NewNotifier(sender, cfg.AdminChatID, cfg.OwnerChatID, notifierOpts...)
	if cfg.AdminChatID == 0 {
		logger.Warn("ADMIN_CHAT_ID is not set, lead cards will not be delivered")
	}

	handler := telegramAdapter.NewHandler(telegramAdapter.Deps{
		Sender:       sender,
		Orchestrator: orch,
		Desk:         usecase.NewAdminDesk(st.leads, st.users),
		Broadcast:    usecase.NewBroadcastUsecase(st.users, sender, st.stats),
		Funnel:       funnel,
		Notifier:     notifier,
		IsAdmin:      cfg.IsAdmin,
		Logger:       logger,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", metrics.Handler(reg))
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
		}
	}()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := bot.GetUpdatesChan(u)
	go func() {
		<-ctx.Done()
		bot.StopReceivingUpdates()
	}()

	logger.Info("bot started", "http_addr", cfg.HTTPAddr, "admins", len(cfg.AdminIDs))
	handler.Run(ctx, updates)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
	notifier.Wait()
	logger.Info("bot stopped")
	return nil
}
