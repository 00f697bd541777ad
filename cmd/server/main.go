package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"SwasthyaWatch/internal/alerting"
	handlers "SwasthyaWatch/internal/handler"
	"SwasthyaWatch/internal/listeners"
	"SwasthyaWatch/internal/models"
	"SwasthyaWatch/pkg/cache"
	"SwasthyaWatch/pkg/config"
	"SwasthyaWatch/pkg/logger"
	"SwasthyaWatch/pkg/metrics"
	"SwasthyaWatch/pkg/middleware"
	"SwasthyaWatch/pkg/notification"
	"SwasthyaWatch/pkg/scheduler"
	"SwasthyaWatch/pkg/sse"
	"SwasthyaWatch/pkg/util"
	"SwasthyaWatch/pkg/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	if err := config.Load(); err != nil {
		log.Fatalf("load config: %v", err)
	}
	cfg := config.GlobalConfig

	if err := logger.Init(cfg.Log); err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	db, err := util.NewDatabase(&gorm.Config{}, cfg.DBDriver, cfg.DSN)
	if err != nil {
		logger.Error("open database failed", zap.Error(err))
		os.Exit(1)
	}
	if err := migrate(db); err != nil {
		logger.Error("migrate failed", zap.Error(err))
		os.Exit(1)
	}

	store, err := cache.NewCache(cache.Config{
		Type:  cfg.CacheType,
		Redis: cache.RedisConfig{Addr: cfg.RedisAddr},
	})
	if err != nil {
		logger.Error("init cache failed", zap.Error(err))
		os.Exit(1)
	}
	defer store.Close()

	sseHub := sse.NewHub(30 * time.Second)
	wsHub := ws.NewHub()

	// 通道网关：未接真实服务商时走日志客户端
	devCli := notification.LogClient{}
	gw := notification.NewGateway(cfg.SendTimeout())
	gw.Register(string(models.ChannelSMS), notification.NewSMS(notification.SMSConfig{
		SignName:     util.GetEnv("SMS_SIGN_NAME"),
		TemplateCode: util.GetEnv("SMS_TEMPLATE_CODE"),
	}, devCli))
	gw.Register(string(models.ChannelEmail), notification.NewMail(cfg.Mail))
	gw.Register(string(models.ChannelPush), notification.NewPush(notification.PushConfig{
		AppKey:       util.GetEnv("PUSH_APP_KEY"),
		MasterSecret: util.GetEnv("PUSH_MASTER_SECRET"),
	}, devCli))
	gw.Register(string(models.ChannelWhatsApp), notification.NewWhatsApp(notification.WhatsAppConfig{
		BusinessID:   util.GetEnv("WA_BUSINESS_ID"),
		Token:        util.GetEnv("WA_TOKEN"),
		TemplateName: util.GetEnv("WA_TEMPLATE_NAME"),
	}, devCli))
	gw.Register(string(models.ChannelVoice), notification.NewVoice(devCli))
	gw.Register(string(models.ChannelInApp), alerting.NewInAppSender(db, sseHub, wsHub))

	svc := alerting.NewService(db, gw, store)

	// 周期任务：升级扫描、免打扰放行、归档
	sched := scheduler.New()
	defer sched.Stop()
	listeners.InitAlertListeners(svc, sched)

	sched.Every(cfg.EscalationSweepInterval(), "escalation-sweep", scheduler.FuncJob(svc.EscalationSweep))
	sched.Every(cfg.DNDReleaseInterval(), "dnd-release", scheduler.FuncJob(func(ctx context.Context) {
		if err := svc.ReleaseHeld(ctx); err != nil {
			logger.Warn("dnd release failed", zap.Error(err))
		}
	}))

	cr := scheduler.NewCron(nil)
	if _, err := cr.Add(cfg.ArchiveSweepCron, scheduler.FuncJob(svc.ArchiveSweep)); err != nil {
		logger.Error("register archive sweep failed", zap.Error(err))
		os.Exit(1)
	}
	cr.Start()
	defer cr.Stop()

	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery(), metrics.Middleware())

	rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:       cfg.RateLimit,
		AddHeaders: true,
		SkipPaths:  []string{cfg.MonitorPrefix, cfg.APIPrefix + "/system/health", cfg.APIPrefix + "/stream"},
	}, nil).WithObserver(middleware.NewPrometheusObserver())
	engine.Use(rl.Middleware())

	engine.GET(cfg.MonitorPrefix+"/metrics", gin.WrapH(promhttp.Handler()))

	h := handlers.NewHandlers(db, svc, sseHub, wsHub, middleware.NewCacheIdemStore(store))
	h.Register(engine)

	srv := &http.Server{Addr: cfg.Addr, Handler: engine}
	go func() {
		logger.Info("server listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.District{},
		&models.Block{},
		&models.Village{},
		&models.RegistrationToken{},
		&models.Patient{},
		&models.VaccinationRecord{},
		&models.DiseaseCase{},
		&models.WaterQualityTest{},
		&models.Alert{},
		&models.AlertRecipient{},
		&models.DeliveryStatus{},
		&models.DeliveryAttempt{},
		&models.EscalationRule{},
		&models.EscalationEntry{},
		&models.EscalationTimer{},
		&models.Acknowledgment{},
		&models.AlertSequence{},
		&models.InAppNotification{},
	)
}
