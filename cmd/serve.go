package cmd

import (
	"database/sql"
	"net"

	"github.com/taskmaster-solutions/ms-go-tasks/app/controller"
	"github.com/taskmaster-solutions/ms-go-tasks/app/middleware"
	"github.com/taskmaster-solutions/ms-go-tasks/app/repository"
	"github.com/taskmaster-solutions/ms-go-tasks/app/service"
	"github.com/taskmaster-solutions/ms-go-tasks/config"
	"github.com/taskmaster-solutions/ms-go-tasks/database"

	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the HTTP (Echo) server for the task tracking API.`,
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logrus.WithError(err).Fatal("Failed to ping database")
	}

	if err := database.Migrate(db); err != nil {
		logrus.WithError(err).Fatal("Failed to run migrations")
	}

	userRepo := repository.NewUserRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	tokenService := service.NewTokenService(db, userRepo, refreshTokenRepo, cfg)
	mailer := service.NewSMTPMailer(cfg)
	authService := service.NewAuthService(db, userRepo, tokenService, mailer, cfg)
	taskService := service.NewTaskService(taskRepo)

	startHTTPServer(cfg, tokenService, authService, taskService)
}

func startHTTPServer(
	cfg *config.Config,
	tokenService *service.TokenService,
	authService *service.AuthService,
	taskService *service.TaskService,
) {
	e := echo.New()
	defer e.Close()
	e.HideBanner = true
	e.Validator = controller.NewValidator()

	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.CORS())

	authController := controller.NewAuthController(authService)
	taskController := controller.NewTaskController(taskService)
	authMiddleware := middleware.NewAuthMiddleware(tokenService)

	api := e.Group("/api")
	api.POST("/register", authController.Register)
	api.POST("/token", authController.Token)
	api.POST("/token/refresh", authController.RefreshToken)
	api.POST("/password-reset", authController.RequestPasswordReset)
	api.POST("/password-reset-confirm/:uid/:token", authController.ConfirmPasswordReset)

	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth)
	protected.POST("/logout", authController.Logout)
	protected.GET("/profile", authController.Profile)
	protected.PATCH("/profile", authController.UpdateProfile)
	protected.PUT("/change-password", authController.ChangePassword)
	protected.GET("/tasks", taskController.List)
	protected.POST("/tasks", taskController.Create)
	protected.GET("/tasks/:id", taskController.Get)
	protected.PUT("/tasks/:id", taskController.Replace)
	protected.PATCH("/tasks/:id", taskController.Update)
	protected.DELETE("/tasks/:id", taskController.Delete)

	httpAddr := net.JoinHostPort(cfg.HTTPHost, cfg.HTTPPort)
	logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
	if err := e.Start(httpAddr); err != nil {
		logrus.WithError(err).Fatal("Failed to start HTTP server")
	}
}
