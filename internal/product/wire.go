package product

import (
	"go.uber.org/zap"

	"opsboard/internal/product/controller"
	"opsboard/internal/product/service"
	"opsboard/internal/product/usecase"
)

func NewModule(workspaces service.Workspaces, logger *zap.Logger) *controller.ProductController {
	svc := service.NewProductService(workspaces, logger)
	uc := usecase.NewCatalogUseCase(svc, logger)
	return controller.NewProductController(uc, logger)
}
