package db

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"time"
)

//go:embed sql/pre_automigrate.sql
var preAutoMigrateSQL string

//go:embed sql/post_automigrate.sql
var postAutoMigrateSQL string

type migrationStep struct {
	name string
	run  func(ctx context.Context, p *Pool) error
}

// migrationSteps creates the schema, lets gorm shape the tables, then adds the constraints
// and indexes gorm tags cannot express.
func migrationSteps() []migrationStep {
	return []migrationStep{
		{name: "pre-auto-migrate", run: sqlStep("pre-auto-migrate", preAutoMigrateSQL)},
		{name: "auto-migrate", run: func(ctx context.Context, p *Pool) error {
			if err := p.gdb.WithContext(ctx).AutoMigrate(autoMigrateModels()...); err != nil {
				return fmt.Errorf("gorm auto-migrate models: %w", err)
			}
			return nil
		}},
		{name: "post-auto-migrate", run: sqlStep("post-auto-migrate", postAutoMigrateSQL)},
	}
}

func (p *Pool) autoMigrate(ctx context.Context) error {
	if p == nil || p.gdb == nil {
		return fmt.Errorf("database pool is not initialized")
	}

	started := time.Now()
	for _, step := range migrationSteps() {
		stepStarted := time.Now()
		if err := step.run(ctx, p); err != nil {
			return err
		}
		p.logger.Debug().Str("step", step.name).Dur("elapsed", time.Since(stepStarted)).Msg("migration step done")
	}
	p.logger.Info().Dur("elapsed", time.Since(started)).Msg("party schema migrated")
	return nil
}

func sqlStep(label, sqlText string) func(ctx context.Context, p *Pool) error {
	return func(ctx context.Context, p *Pool) error {
		trimmed := strings.TrimSpace(sqlText)
		if trimmed == "" {
			return nil
		}
		if err := p.gdb.WithContext(ctx).Exec(trimmed).Error; err != nil {
			return fmt.Errorf("execute %s SQL: %w", label, err)
		}
		return nil
	}
}
