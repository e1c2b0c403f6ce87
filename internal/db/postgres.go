package db

import (
  "fmt"
  "gorm.io/driver/postgres"
  "gorm.io/gorm"
  "github.com/Qubdi/Tobias/internal/types"
  "github.com/Qubdi/Tobias/internal/utils"
  "github.com/Qubdi/Tobias/internal/logger"
)

type PostgresService struct {
  db *gorm.DB
  log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
  serviceLog := log.With("service", "PostgresService")

  log.Info("Loading environment variables...")
  postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
  postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
  postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
  postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
  postgresName := utils.GetEnv("POSTGRES_NAME", "scoring", log)
  log.Debug("Environment variables loaded")

  dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

  log.Info("Connecting to Postgres...")
  db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
    DisableForeignKeyConstraintWhenMigrating: true,
  })
  if err != nil {
    log.Error("Failed to connect to Postgres", "error", err)
    return nil, fmt.Errorf("Failed to connect to Postgres: %w", err)
  }

  return &PostgresService{db: db, log: serviceLog}, nil
}

// AutoMigrateAll ensures the schema exists. It only ever adds: no table is
// dropped or recreated, so running it on every start is safe.
func (s *PostgresService) AutoMigrateAll() error {
  s.log.Info("Auto migrating postgres tables...")
  err := s.db.AutoMigrate(
    &types.Variable{},
    &types.VariableVersion{},
    &types.VariableResult{},
    &types.VariableExecution{},
  )
  if err != nil {
    s.log.Error("Auto migration failed for postgres tables", "error", err)
    return err
  }
  s.log.Info("Configuring foreign key relationships for postgres tables...")
  constraints := []struct {
    table string
    name  string
    ddl   string
  }{
    {"variable_versions", "fk_variable_versions_variable_id",
      `FOREIGN KEY ("variable_id") REFERENCES "variables"("id") ON DELETE CASCADE`},
    {"variable_results", "fk_variable_results_variable_id",
      `FOREIGN KEY ("variable_id") REFERENCES "variables"("id") ON DELETE CASCADE`},
    {"variable_executions", "fk_variable_executions_variable_id",
      `FOREIGN KEY ("variable_id") REFERENCES "variables"("id") ON DELETE CASCADE`},
    {"variable_executions", "fk_variable_executions_version_id",
      `FOREIGN KEY ("version_id") REFERENCES "variable_versions"("id") ON DELETE SET NULL`},
    {"variable_executions", "fk_variable_executions_result_id",
      `FOREIGN KEY ("result_id") REFERENCES "variable_results"("id") ON DELETE SET NULL`},
  }
  for _, c := range constraints {
    drop := fmt.Sprintf(`ALTER TABLE %q DROP CONSTRAINT IF EXISTS %q`, c.table, c.name)
    if err := s.db.Exec(drop).Error; err != nil {
      return fmt.Errorf("Failed to drop %s: %w", c.name, err)
    }
    add := fmt.Sprintf(`ALTER TABLE %q ADD CONSTRAINT %q %s`, c.table, c.name, c.ddl)
    if err := s.db.Exec(add).Error; err != nil {
      return fmt.Errorf("Failed to add %s: %w", c.name, err)
    }
  }
  return nil
}

func (s *PostgresService) DB() *gorm.DB {
  return s.db
}
