package database

import (
	"context"
	"errors"
	"time"

	"github.com/envelope-zero/ledger/internal/models"
	"github.com/rs/zerolog"
	gorm_logger "gorm.io/gorm/logger"
)

// slowQuery is the duration above which queries are logged as warnings.
const slowQuery = 200 * time.Millisecond

// logger writes gorm logs to zerolog.
//
// The logger in the context is preferred, see zerolog.Ctx.
type logger struct {
	Logger zerolog.Logger
	Level  gorm_logger.LogLevel
}

func (l *logger) LogMode(level gorm_logger.LogLevel) gorm_logger.Interface {
	return &logger{Logger: l.Logger, Level: level}
}

func (l *logger) from(ctx context.Context) *zerolog.Logger {
	if ctxLogger := zerolog.Ctx(ctx); ctxLogger.GetLevel() != zerolog.Disabled {
		return ctxLogger
	}
	return &l.Logger
}

func (l *logger) Info(ctx context.Context, s string, args ...interface{}) {
	if l.Level >= gorm_logger.Info {
		l.from(ctx).Info().Msgf(s, args...)
	}
}

func (l *logger) Warn(ctx context.Context, s string, args ...interface{}) {
	if l.Level >= gorm_logger.Warn {
		l.from(ctx).Warn().Msgf(s, args...)
	}
}

func (l *logger) Error(ctx context.Context, s string, args ...interface{}) {
	if l.Level >= gorm_logger.Error {
		l.from(ctx).Error().Msgf(s, args...)
	}
}

// Trace logs every statement at debug level. Failed statements are errors,
// except for missing records which are expected. Slow statements are warnings.
func (l *logger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.Level <= gorm_logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	log := l.from(ctx)

	switch {
	case err != nil && !errors.Is(err, models.ErrResourceNotFound) && !errors.Is(err, gorm_logger.ErrRecordNotFound):
		log.Error().Err(err).Str("sql", sql).Int64("rows", rows).Dur("duration", elapsed).Msg("[GORM] query error")
	case elapsed > slowQuery:
		log.Warn().Str("sql", sql).Int64("rows", rows).Dur("duration", elapsed).Msg("[GORM] slow query")
	default:
		log.Debug().Str("sql", sql).Int64("rows", rows).Dur("duration", elapsed).Msg("[GORM] query")
	}
}

// NewLogger returns a gorm logger writing to l at the given level.
func NewLogger(l zerolog.Logger, level gorm_logger.LogLevel) gorm_logger.Interface {
	return &logger{Logger: l, Level: level}
}
