package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/phenrril/floodbar/internal/adapters/httpserver"
	"github.com/phenrril/floodbar/internal/adapters/notify"
	"github.com/phenrril/floodbar/internal/adapters/payments/xendit"
	"github.com/phenrril/floodbar/internal/adapters/repo/memory"
	"github.com/phenrril/floodbar/internal/adapters/repo/postgres"
	"github.com/phenrril/floodbar/internal/config"
	"github.com/phenrril/floodbar/internal/domain"
	"github.com/phenrril/floodbar/internal/migrations"
	"github.com/phenrril/floodbar/internal/usecase"
)

type App struct {
	Config *config.Config
	DB     *gorm.DB

	SettingsUC   *usecase.SettingsUC
	QuoteUC      *usecase.QuoteUC
	RateUC       *usecase.RateUC
	RateImportUC *usecase.RateImportUC
	OrderUC      *usecase.OrderUC
	PaymentUC    *usecase.PaymentUC

	Dispatcher *notify.Dispatcher
	kafka      *notify.Kafka
	settings   *postgres.SettingsRepo
}

// NewApp wires repositories, use cases and notifiers. A nil db selects the
// in-memory store.
func NewApp(cfg *config.Config, db *gorm.DB) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config nil")
	}
	a := &App{Config: cfg, DB: db}

	var (
		settingsRepo domain.SettingsRepo
		orderRepo    domain.OrderRepo
		rateRepo     domain.ShippingRateRepo
	)
	if db != nil {
		a.settings = postgres.NewSettingsRepo(db)
		settingsRepo = a.settings
		orderRepo = postgres.NewOrderRepo(db)
		rateRepo = postgres.NewShippingRateRepo(db)
	} else {
		log.Warn().Msg("tanpa database, data disimpan di memori")
		settingsRepo = memory.NewSettingsRepo()
		orderRepo = memory.NewOrderRepo()
		rateRepo = memory.NewShippingRateRepo()
	}

	gateway := xendit.NewGateway(xendit.Options{
		SecretKey:     cfg.Xendit.SecretKey,
		CallbackToken: cfg.Xendit.CallbackToken,
		SigningKey:    cfg.SecretKey,
		BaseURL:       cfg.Xendit.BaseURL,
		PublicURL:     cfg.BaseURL,
	})
	if cfg.Xendit.SecretKey == "" {
		log.Warn().Msg("XENDIT_SECRET_KEY kosong, invoice tidak akan dibuat")
	}

	var notifiers []domain.Notifier
	if n := notify.NewEmail(notify.EmailConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		User:     cfg.SMTP.User,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		AdminTo:  cfg.AdminNotifyEmail,
	}); n != nil {
		notifiers = append(notifiers, n)
	}
	if n := notify.NewWhatsApp(cfg.WhatsApp.APIURL, cfg.WhatsApp.Token, cfg.WhatsApp.AdminTo); n != nil {
		notifiers = append(notifiers, n)
	}
	if len(cfg.Kafka.Brokers) > 0 {
		k, err := notify.NewKafka(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			// The shop keeps selling without the event stream.
			log.Error().Err(err).Strs("brokers", cfg.Kafka.Brokers).Msg("kafka tidak tersedia")
		} else {
			a.kafka = k
			notifiers = append(notifiers, k)
		}
	}
	a.Dispatcher = notify.NewDispatcher(15*time.Second, notifiers...)
	log.Info().Strs("channels", a.Dispatcher.Channels()).Msg("notifikasi aktif")

	a.SettingsUC = &usecase.SettingsUC{Settings: settingsRepo}
	a.QuoteUC = &usecase.QuoteUC{Settings: a.SettingsUC}
	a.RateUC = &usecase.RateUC{Rates: rateRepo}
	a.RateImportUC = &usecase.RateImportUC{Rates: rateRepo}
	a.OrderUC = &usecase.OrderUC{
		Orders:   orderRepo,
		Rates:    rateRepo,
		Settings: a.SettingsUC,
		Gateway:  gateway,
		Events:   a.Dispatcher,
	}
	a.PaymentUC = &usecase.PaymentUC{
		Orders:   orderRepo,
		Gateway:  gateway,
		Settings: a.SettingsUC,
		Events:   a.Dispatcher,
	}
	return a, nil
}

func (a *App) HTTPHandler() http.Handler {
	return httpserver.New(httpserver.Deps{
		Quotes:      a.QuoteUC,
		Settings:    a.SettingsUC,
		Rates:       a.RateUC,
		Imports:     a.RateImportUC,
		Orders:      a.OrderUC,
		Payments:    a.PaymentUC,
		AdminAPIKey: a.Config.AdminAPIKey,
		UploadMax:   a.Config.UploadMaxMB << 20,
		Ping:        a.ping,
		RateLimits: httpserver.RateLimits{
			Global:    a.Config.RateLimit.Global,
			Calculate: a.Config.RateLimit.Calculate,
			Orders:    a.Config.RateLimit.Orders,
		},
	})
}

func (a *App) ping(ctx context.Context) error {
	if a.DB == nil {
		return nil
	}
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// MigrateAndSeed applies pending migrations and inserts the default
// settings rows when missing.
func (a *App) MigrateAndSeed(ctx context.Context) error {
	if a.DB == nil {
		return nil
	}
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	if err := migrations.Up(sqlDB); err != nil {
		return err
	}
	return a.settings.EnsureDefaults(ctx)
}

// Close waits for in-flight notifications and releases the Kafka producer.
func (a *App) Close(ctx context.Context) error {
	err := a.Dispatcher.Wait(ctx)
	if a.kafka != nil {
		if cerr := a.kafka.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
