// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package logging

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type GormLogger struct {
	logLevel logger.LogLevel
}

func NewGormLogger(level logger.LogLevel) logger.Interface {
	return &GormLogger{logLevel: level}
}

func (l *GormLogger) LogMode(level logger.LogLevel) logger.Interface {
	return &GormLogger{logLevel: level}
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Info {
		zap.L().Sugar().Infof(msg, data...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Warn {
		zap.L().Sugar().Warnf(msg, data...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Error {
		zap.L().Sugar().Errorf(msg, data...)
	}
}

func (l *GormLogger) Trace(
	ctx context.Context,
	begin time.Time,
	fc func() (string, int64),
	err error,
) {
	if l.logLevel <= logger.Silent {
		return
	}

	sql, rows := fc()
	elapsed := time.Since(begin)

	if err != nil {
		// expected on point lookups of objects we never mirrored
		if err == gorm.ErrRecordNotFound {
			zap.L().Debug("gorm query not found",
				zap.String("sql", sql),
				zap.Duration("duration", elapsed),
			)
			return
		}

		// Connection-class failures (SQLSTATE 08xxx) are what the syncer
		// reports as storage-unavailable; make them stand out.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "08") {
			zap.L().Error("gorm connection failure",
				zap.String("sqlstate", pgErr.Code),
				zap.Duration("duration", elapsed),
				zap.Error(err),
			)
			return
		}

		zap.L().Warn("gorm query failed",
			zap.String("sql", sql),
			zap.Duration("duration", elapsed),
			zap.Error(err),
		)
		return
	}

	zap.L().Debug("gorm query",
		zap.String("sql", sql),
		zap.Duration("duration", elapsed),
		zap.Int64("rows", rows),
	)
}
