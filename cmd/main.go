package main

import (
  "fmt"
  "os"
  "time"
  "github.com/Qubdi/Tobias/internal/logger"
  "github.com/Qubdi/Tobias/internal/utils"
  "github.com/Qubdi/Tobias/internal/db"
  "github.com/Qubdi/Tobias/internal/engine"
  "github.com/Qubdi/Tobias/internal/repos"
  "github.com/Qubdi/Tobias/internal/services"
  "github.com/Qubdi/Tobias/internal/handlers"
  "github.com/Qubdi/Tobias/internal/server"
)

func main() {
  // Logger
  logMode := os.Getenv("LOG_MODE")
  if logMode == "" {
    logMode = "development"
  }
  log, err := logger.New(logMode)
  if err != nil {
    fmt.Printf("Failed to init logger: %v\n", err)
    os.Exit(1)
  }
  defer log.Sync()

  // Env
  log.Info("Loading environment variables from main...")
  batchTimeoutMS := utils.GetEnvAsInt("CALC_BATCH_TIMEOUT_MS", 30000, log)
  fragmentTimeoutMS := utils.GetEnvAsInt("CALC_FRAGMENT_TIMEOUT_MS", 10000, log)
  fragmentConcurrency := utils.GetEnvAsInt("CALC_FRAGMENT_CONCURRENCY", 4, log)

  // Postgres
  postgresService, err := db.NewPostgresService(log)
  if err != nil {
    log.Error("Postgres init failed", "error", err)
    os.Exit(1)
  }
  if err = postgresService.AutoMigrateAll(); err != nil {
    log.Error("Postgres auto migration failed", "error", err)
    os.Exit(1)
  }
  thePG := postgresService.DB()

  // Repos
  log.Info("Setting up Repos from main...")
  variableRepo := repos.NewVariableRepo(thePG, log)
  variableVersionRepo := repos.NewVariableVersionRepo(thePG, log)
  variableResultRepo := repos.NewVariableResultRepo(thePG, log)
  variableExecutionRepo := repos.NewVariableExecutionRepo(thePG, log)

  // Engine
  log.Info("Setting up calculation engine from main...")
  calcEngine := engine.New(thePG, log, variableRepo, variableVersionRepo, variableResultRepo, variableExecutionRepo, engine.Config{
    BatchTimeout:        time.Duration(batchTimeoutMS) * time.Millisecond,
    FragmentTimeout:     time.Duration(fragmentTimeoutMS) * time.Millisecond,
    FragmentConcurrency: fragmentConcurrency,
  })

  // Services
  log.Info("Setting up Services from main...")
  variableService := services.NewVariableService(thePG, log, variableRepo, variableVersionRepo)
  calculationService := services.NewCalculationService(log, calcEngine)

  // Handlers
  log.Info("Setting up handlers from main...")
  variableHandler := handlers.NewVariableHandler(log, variableService, calculationService)

  // Router
  log.Info("Setting up router from main...")
  router := server.NewRouter(server.RouterConfig{
    VariableHandler: variableHandler,
  })

  port := utils.GetEnv("PORT", "8080", log)
  fmt.Printf("Server listening on :%s\n", port)
  if err := router.Run(":" + port); err != nil {
    log.Error("Server failed", "error", err)
  }
}
