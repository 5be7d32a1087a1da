package order

import (
	"database/sql"

	goredis "github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	cartrepo "tableside/internal/cart/repository"
	"tableside/internal/config"
	"tableside/internal/order/controller"
	"tableside/internal/order/lock"
	"tableside/internal/order/publisher"
	"tableside/internal/order/repository"
	"tableside/internal/order/service"
	"tableside/internal/order/usecase"
	"tableside/internal/order/worker"
	"tableside/internal/remote"
)

type Module struct {
	Service              *service.LocalOrderService
	Sync                 *usecase.SyncOrdersUseCase
	Submit               *usecase.SubmitCartUseCase
	LocalData            *service.LocalDataService
	LocalOrderController *controller.LocalOrderController
	LocalDataController  *controller.LocalDataController
	SyncController       *controller.SyncController
	Worker               *worker.SyncWorker
}

// NewModule wires the offline order store and its sync coordinator.
// redisClient and kafkaWriter may be nil.
func NewModule(
	db *sql.DB,
	cfg *config.Config,
	remoteClient *remote.Client,
	cart usecase.CartReader,
	redisClient *goredis.Client,
	kafkaWriter *kafka.Writer,
	logger *zap.Logger,
) *Module {
	orderRepo := repository.NewMySQLLocalOrderRepository(db)
	queueRepo := repository.NewMySQLSyncQueueRepository(db)
	svc := service.NewLocalOrderService(db, orderRepo, queueRepo, logger)
	localData := service.NewLocalDataService(db, cartrepo.NewMySQLCartItemRepository(db), orderRepo, queueRepo, logger)

	var sweepLock usecase.SweepLock
	if redisClient != nil {
		sweepLock = lock.NewRedisLock(redisClient, lock.DefaultKey, cfg.Sync.LockTTL)
	}

	var events usecase.EventPublisher
	if kafkaWriter != nil {
		events = publisher.NewKafkaPublisher(kafkaWriter, logger)
	}

	syncUC := usecase.NewSyncOrdersUseCase(svc, remoteClient, sweepLock, events, logger, cfg.Sync, cfg.Remote.Timeout)
	submitUC := usecase.NewSubmitCartUseCase(cart, svc, remoteClient, logger, cfg.Remote.Timeout)

	return &Module{
		Service:              svc,
		Sync:                 syncUC,
		Submit:               submitUC,
		LocalData:            localData,
		LocalOrderController: controller.NewLocalOrderController(svc, submitUC, logger),
		LocalDataController:  controller.NewLocalDataController(localData, logger),
		SyncController:       controller.NewSyncController(syncUC, svc, logger),
		Worker:               worker.NewSyncWorker(syncUC, remoteClient, cfg.Sync.Interval, cfg.Remote.Timeout, logger),
	}
}
