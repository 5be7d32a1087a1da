package cart

import (
	"database/sql"

	"tableside/internal/cart/controller"
	"tableside/internal/cart/repository"
	"tableside/internal/cart/service"

	"go.uber.org/zap"
)

type Module struct {
	Service    *service.CartService
	Controller *controller.CartController
}

func NewModule(db *sql.DB, logger *zap.Logger) *Module {
	repo := repository.NewMySQLCartItemRepository(db)
	svc := service.NewCartService(db, repo, logger)

	return &Module{
		Service:    svc,
		Controller: controller.NewCartController(svc, logger),
	}
}
