package config

import (
	"fmt"
	"strings"

	"github.com/heartmarshall/kotoba-backend/internal/domain"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Store.Driver) {
	case DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for store driver %q", DriverPostgres)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("store.driver must be %q or %q (got %q)", DriverPostgres, DriverMemory, c.Store.Driver)
	}

	if c.Redis.Addr != "" && c.Redis.LockTTL <= 0 {
		return fmt.Errorf("redis.lock_ttl must be > 0 (got %v)", c.Redis.LockTTL)
	}

	if c.AI.AnalyzeEnabled() {
		if c.AI.Model == "" {
			return fmt.Errorf("ai.model is required when ai.api_key is set")
		}
		if c.AI.MaxTokens <= 0 {
			return fmt.Errorf("ai.max_tokens must be > 0 (got %d)", c.AI.MaxTokens)
		}
	}

	if err := c.Integration.validate(); err != nil {
		return fmt.Errorf("integration: %w", err)
	}

	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text (got %q)", c.Log.Format)
	}

	return nil
}

func (i *IntegrationConfig) validate() error {
	if i.PageSize < 1 || i.PageSize > 1000 {
		return fmt.Errorf("page_size must be in [1, 1000] (got %d)", i.PageSize)
	}
	if i.WriteBatchSize < 1 || i.WriteBatchSize > 500 {
		return fmt.Errorf("write_batch_size must be in [1, 500] (got %d)", i.WriteBatchSize)
	}
	if i.MaxExamples < 1 || i.MaxExamples > domain.MaxExamples {
		return fmt.Errorf("max_examples must be in [1, %d] (got %d)", domain.MaxExamples, i.MaxExamples)
	}
	if i.RepairGroupLimit < 1 {
		return fmt.Errorf("repair_group_limit must be >= 1 (got %d)", i.RepairGroupLimit)
	}
	if i.FlushConcurrency < 1 {
		return fmt.Errorf("flush_concurrency must be >= 1 (got %d)", i.FlushConcurrency)
	}
	return nil
}
