package routes

import (
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"operations-system/internal/controllers"
	"operations-system/internal/repositories"
	"operations-system/internal/services"
	"operations-system/pkg/config"
	"operations-system/pkg/filestorage"
	"operations-system/pkg/middleware"
	"operations-system/pkg/service"
)

// InitRouter собирает весь граф зависимостей и регистрирует маршруты.
func InitRouter(
	e *echo.Echo,
	dbConn *pgxpool.Pool,
	redisClient *redis.Client,
	jwtSvc service.JWTService,
	fileStorage filestorage.FileStorageInterface,
	logger *zap.Logger,
	cfg *config.Config,
) {
	logger.Info("InitRouter: Начало создания маршрутов")

	api := e.Group("/api")
	authMW := middleware.NewAuthMiddleware(jwtSvc, logger)
	txManager := repositories.NewTxManager(dbConn)

	// --- Репозитории ---
	userRepo := repositories.NewUserRepository(dbConn, logger)
	cacheRepo := repositories.NewRedisCacheRepository(redisClient)
	equipmentRepo := repositories.NewEquipmentRepository(dbConn, logger)
	warehouseRepo := repositories.NewWarehouseRepository(dbConn, logger)
	categoryRepo := repositories.NewCategoryRepository(dbConn, logger)
	reservationRepo := repositories.NewReservationRepository(dbConn, logger)
	documentRepo := repositories.NewDocumentRepository(dbConn, logger)
	taskRepo := repositories.NewTaskRepository(dbConn, logger)

	// --- Сервисы ---
	authService := services.NewAuthService(userRepo, cacheRepo, jwtSvc, logger)
	userService := services.NewUserService(userRepo, logger)
	equipmentService := services.NewEquipmentService(
		equipmentRepo, warehouseRepo, reservationRepo, cacheRepo, txManager, fileStorage, logger,
	)
	testingService := services.NewTestingService(equipmentRepo, txManager, fileStorage, logger)
	ocrService := services.NewOCRService(logger)
	warehouseService := services.NewWarehouseService(warehouseRepo, equipmentRepo, logger)
	categoryService := services.NewCategoryService(categoryRepo, equipmentRepo, txManager, logger)
	reservationService := services.NewReservationService(reservationRepo, equipmentRepo, txManager, logger)
	documentService := services.NewDocumentService(documentRepo, equipmentRepo, warehouseRepo, txManager, logger)
	taskService := services.NewTaskService(taskRepo, logger)
	reportService := services.NewReportService(equipmentRepo, taskRepo, logger)

	// --- Контроллеры ---
	authCtrl := controllers.NewAuthController(authService, userService, logger)
	userCtrl := controllers.NewUserController(userService, logger)
	equipmentCtrl := controllers.NewEquipmentController(equipmentService, ocrService, logger)
	testingCtrl := controllers.NewTestingController(testingService, logger)
	warehouseCtrl := controllers.NewWarehouseController(warehouseService, logger)
	categoryCtrl := controllers.NewCategoryController(categoryService, logger)
	reservationCtrl := controllers.NewReservationController(reservationService, logger)
	documentCtrl := controllers.NewDocumentController(documentService, logger)
	taskCtrl := controllers.NewTaskController(taskService, logger)
	reportCtrl := controllers.NewReportController(reportService, logger)

	// --- Маршруты ---
	secureGroup := api.Group("", authMW.Auth)

	runAuthRouter(api, authCtrl, authMW)
	runUserRouter(secureGroup, userCtrl)
	runEquipmentRouter(secureGroup, equipmentCtrl, testingCtrl, reportCtrl)
	runWarehouseRouter(secureGroup, warehouseCtrl)
	runCategoryRouter(secureGroup, categoryCtrl)
	runReservationRouter(secureGroup, reservationCtrl)
	runDocumentRouter(secureGroup, documentCtrl)
	runTaskRouter(secureGroup, taskCtrl)
	runReportRouter(secureGroup, reportCtrl)

	logger.Info("InitRouter: Все маршруты успешно зарегистрированы")
}
