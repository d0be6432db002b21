package order

import (
	"go.uber.org/zap"

	"opsboard/internal/order/controller"
	"opsboard/internal/order/service"
	"opsboard/internal/order/usecase"
)

func NewModule(workspaces service.Workspaces, uploader service.ImageUploader, maxImageBytes int64, logger *zap.Logger) *controller.OrderController {
	svc := service.NewOrderService(workspaces, uploader, logger)
	uc := usecase.NewDashboardUseCase(svc, logger)
	return controller.NewOrderController(uc, maxImageBytes, logger)
}
