package server

import (
  "github.com/gin-gonic/gin"
  "github.com/gin-contrib/cors"
  "github.com/Qubdi/Tobias/internal/handlers"
)

type RouterConfig struct {
  VariableHandler   *handlers.VariableHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
  router := gin.Default()

  // Cors
  router.Use(cors.New(cors.Config{
    AllowOrigins: []string{
      "http://localhost:80",
      "http://localhost:3000",
    },
    AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
    AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
    AllowCredentials: true,
  }))

  router.GET("/healthcheck", handlers.HealthCheck)

  api := router.Group("/api/v1")
  {
    api.POST("/variables", cfg.VariableHandler.CreateVariable)
    api.GET("/variables", cfg.VariableHandler.ListVariables)
    api.POST("/variables/calculate", cfg.VariableHandler.CalculateVariables)
    api.GET("/variables/:id", cfg.VariableHandler.GetVariable)
    api.PUT("/variables/:id", cfg.VariableHandler.UpdateVariable)
    api.DELETE("/variables/:id", cfg.VariableHandler.DeleteVariable)
    api.GET("/variables/:id/versions", cfg.VariableHandler.ListVariableVersions)
  }

  return router
}
