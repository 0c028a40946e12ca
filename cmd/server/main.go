package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"go-airline-booking/config"
	"go-airline-booking/internal/cache"
	"go-airline-booking/internal/database"
	"go-airline-booking/internal/handler"
	"go-airline-booking/internal/lock"
	"go-airline-booking/internal/mailer"
	"go-airline-booking/internal/notifier"
	"go-airline-booking/internal/pricing"
	"go-airline-booking/internal/queue"
	"go-airline-booking/internal/repository"
	"go-airline-booking/internal/service"
	"go-airline-booking/internal/worker"
	"go-airline-booking/pkg/clock"
	"go-airline-booking/pkg/pnr"
)

func main() {
	// .env 不存在時沿用環境變數
	_ = godotenv.Load()

	cfg := config.LoadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.InitDatabase(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer pool.Close()

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to initialize redis: %v", err)
	}
	defer rdb.Close()

	// 核心共享資源：庫存儲存、座位鍵互斥鎖、通知發布、座位表快取
	store := repository.NewInventoryRepository(pool)
	keys := lock.NewKeyedMutex()
	notify := notifier.NewRedisNotifier(rdb)
	clk := clock.NewReal()
	seatMaps := cache.NewSeatMapCache(rdb, cfg.Booking.SeatMapCacheTTL)

	lockManager := lock.NewManager(store, keys, notify, clk, seatMaps, cfg.Booking.LockTTL)

	// 訂位確認事件：AMQP 不可用時退回記憶體隊列
	var bookingQueue queue.BookingQueue
	amqpQueue, err := queue.NewAMQPBookingQueue(cfg.AMQP.URL)
	if err != nil {
		log.Printf("amqp unavailable, using in-memory booking queue: %v", err)
		bookingQueue = queue.NewMemoryBookingQueue(1024)
	} else {
		defer amqpQueue.Close()
		bookingQueue = amqpQueue
	}

	flightService := service.NewFlightService(store, keys, seatMaps, notify, clk)

	bookingRepo := repository.NewBookingRepository(pool)
	pnrGen := pnr.NewGenerator(cfg.Booking.PNRLength, pnr.DefaultCharset)
	bookingService := service.NewBookingService(store, bookingRepo, keys, notify, bookingQueue, clk, pnrGen, seatMaps)

	// 背景任務：過期鎖回收、價格刷新、確認信寄送
	worker.NewLockReaper(lockManager, clk, cfg.Booking.ReaperInterval).Start(ctx)

	engine := pricing.NewEngine(pricing.DefaultColumnLayout(), clk.Now().UnixNano())
	worker.NewPriceRefresher(store, engine, keys, notify, clk, cfg.Booking.PriceRefreshInterval).Start(ctx)

	var mail mailer.Mailer
	if cfg.SMTP.Host != "" {
		mail = mailer.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
	} else {
		mail = mailer.NewLogMailer()
	}
	if err := worker.NewConfirmationWorker(bookingQueue, mail).Start(ctx); err != nil {
		log.Fatalf("Failed to start confirmation worker: %v", err)
	}

	router := gin.Default()
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
	handler.NewFlightHandler(flightService).RegisterRoutes(router)
	handler.NewSeatLockHandler(lockManager).RegisterRoutes(router)
	handler.NewBookingHandler(bookingService).RegisterRoutes(router)

	if err := router.Run(); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
