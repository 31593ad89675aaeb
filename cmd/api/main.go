package main

import (
	"context"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/handler"
	"app/internal/infra/db"
	infraNotify "app/internal/infra/notify"
	infraRepo "app/internal/infra/repository"
	"app/internal/payment"
	"app/internal/scheduler"
	"app/internal/server"
	"app/internal/usecase"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	//.envは無くてもよい（本番は環境変数で渡す）
	if err := godotenv.Load(); err != nil {
		log.Info("no .env file, using environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("config load failed")
	}

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		log.WithError(err).Fatal("db connect failed")
	}
	if err := gormDB.AutoMigrate(
		&model.Product{},
		&model.Color{},
		&model.Cart{},
		&model.CartItem{},
		&model.Voucher{},
		&model.Order{},
		&model.OrderItem{},
	); err != nil {
		log.WithError(err).Fatal("migration failed")
	}

	//注文イベントの配信先（redis pub/sub）
	relay, err := infraNotify.NewRedisRelay(cfg.RedisAddr, cfg.RedisChannel, log)
	if err != nil {
		log.WithError(err).Fatal("redis connect failed")
	}
	defer relay.Close()

	//Repository（GORM実装）生成
	txManager := infraRepo.NewTxManagerGorm(gormDB)
	voucherRepo := infraRepo.NewVoucherGormRepository(gormDB)

	bank := payment.BankInfo{
		BankCode:    cfg.BankCode,
		AccountNo:   cfg.BankAccountNo,
		AccountName: cfg.BankAccountName,
	}

	//Usecase生成
	orderUC := usecase.NewOrderUsecase(txManager, relay, bank)
	adminOrderUC := usecase.NewAdminOrderUsecase(txManager, relay)
	voucherUC := usecase.NewVoucherUsecase(voucherRepo)

	//クーポンの定期処理（期限切れ無効化・毎月リセット）
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sweeper := scheduler.NewVoucherSweeper(voucherRepo, log)
	go sweeper.Run(ctx)

	//Handler生成
	orderH := handler.NewOrderHandler(orderUC)
	adminOrderH := handler.NewAdminOrderHandler(adminOrderUC)
	voucherH := handler.NewVoucherHandler(voucherUC)

	//Server起動
	e := server.New(cfg, orderH, adminOrderH, voucherH)

	addr := ":" + cfg.Port
	if cfg.Port[0] == ':' {
		addr = cfg.Port
	}

	if err := e.Start(addr); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
