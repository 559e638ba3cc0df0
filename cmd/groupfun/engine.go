package main

import (
	"errors"
	"fmt"

	"github.com/groupfun/internal/achievement"
	"github.com/groupfun/internal/db"
	"github.com/groupfun/internal/service"
	"gorm.io/gorm"
)

// openEngine 打开数据库并构造引擎。存储初始化失败时返回 *db.InitError。
func openEngine() (*gorm.DB, *service.Engine, error) {
	gdb, err := db.Init(cfg.DatabasePath, log)
	if err != nil {
		var initErr *db.InitError
		if errors.As(err, &initErr) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("init database: %w", err)
	}

	engine := service.NewEngine(gdb, service.Settings{
		RetentionDays: cfg.RetentionDays,
		Location:      cfg.Location,
		Catalog:       achievement.Default(),
	}, log)
	return gdb, engine, nil
}
