package db

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const slowQueryThreshold = 500 * time.Millisecond

// gormLogger sends gorm's statement log to zerolog. Statement text is omitted because gorm
// interpolates bound values, which include descriptions and password hashes.
type gormLogger struct {
	log   zerolog.Logger
	level logger.LogLevel
}

func newGormLogger(log zerolog.Logger, level logger.LogLevel) logger.Interface {
	return gormLogger{log: log, level: level}
}

func (l gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	l.level = level
	return l
}

func (l gormLogger) Info(_ context.Context, msg string, args ...any) {
	if l.level >= logger.Info {
		l.log.Info().Msgf(msg, args...)
	}
}

func (l gormLogger) Warn(_ context.Context, msg string, args ...any) {
	if l.level >= logger.Warn {
		l.log.Warn().Msgf(msg, args...)
	}
}

func (l gormLogger) Error(_ context.Context, msg string, args ...any) {
	if l.level >= logger.Error {
		l.log.Error().Msgf(msg, args...)
	}
}

func (l gormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)

	switch {
	case err != nil && l.level >= logger.Error && !errors.Is(err, gorm.ErrRecordNotFound) && !IsNoRows(err):
		_, rows := fc()
		l.log.Error().Err(err).Dur("elapsed", elapsed).Int64("rows", rows).Msg("sql statement failed")
	case elapsed > slowQueryThreshold && l.level >= logger.Warn:
		_, rows := fc()
		l.log.Warn().Dur("elapsed", elapsed).Int64("rows", rows).Msg("slow sql statement")
	case l.level >= logger.Info:
		_, rows := fc()
		l.log.Debug().Dur("elapsed", elapsed).Int64("rows", rows).Msg("sql statement")
	}
}
