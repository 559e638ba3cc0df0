package db

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/groupfun/internal/logger"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DefaultPath 为未配置时使用的数据库文件。
const DefaultPath = "fun_center.db"

// ErrStaleSchema 表示已有表中存在当前模型没有的列，需要重建数据库。
var ErrStaleSchema = errors.New("stale database schema")

// InitError 表示存储初始化失败，即便重建数据库也无法恢复。
type InitError struct {
	Path string
	Err  error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("init store %s: %v", e.Path, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// Models 返回需要迁移的全部模型。
func Models() []interface{} {
	return []interface{}{
		&MessageEvent{},
		&HourBucket{},
		&MemeEntry{},
		&UserMemeCredit{},
		&UnlockedAchievement{},
	}
}

// Init 打开数据库文件并执行自动迁移。
// 初始化失败或检测到旧版表结构时，丢弃整个数据库文件后重建一次；
// 重建仍失败则返回 *InitError。
func Init(databasePath string, log *logger.Logger) (*gorm.DB, error) {
	path := strings.TrimSpace(databasePath)
	if path == "" {
		path = DefaultPath
	}
	if log == nil {
		log = logger.Nop()
	}

	if err := ensureParentDir(path); err != nil {
		return nil, &InitError{Path: path, Err: err}
	}

	gdb, err := Open(fileDSN(path))
	if err == nil {
		return gdb, nil
	}

	log.Warn("store init failed, rebuilding database", "path", path, "error", err)
	if rmErr := removeStore(path); rmErr != nil {
		return nil, &InitError{Path: path, Err: errors.Join(err, rmErr)}
	}

	gdb, err = Open(fileDSN(path))
	if err != nil {
		return nil, &InitError{Path: path, Err: err}
	}
	log.Info("database rebuilt", "path", path)
	return gdb, nil
}

// Open 按 DSN 打开 sqlite，迁移模型并校验表结构。
// 连接池限制为单连接，由数据库串行化所有写入。
func Open(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: newGormLogger(log.New(os.Stdout, "\r\n", log.LstdFlags)),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := Migrate(gdb); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return gdb, nil
}

// newGormLogger 只输出警告与慢查询；查无记录属于正常分支，不记日志。
func newGormLogger(w gormlogger.Writer) gormlogger.Interface {
	return gormlogger.New(w, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

// Migrate 创建缺失的表与索引，并检查是否残留旧版列。
func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(Models()...); err != nil {
		return err
	}

	migrator := gdb.Migrator()
	for _, model := range Models() {
		stmt := &gorm.Statement{DB: gdb}
		if err := stmt.Parse(model); err != nil {
			return err
		}

		known := make(map[string]struct{}, len(stmt.Schema.DBNames))
		for _, name := range stmt.Schema.DBNames {
			known[name] = struct{}{}
		}

		columns, err := migrator.ColumnTypes(model)
		if err != nil {
			return err
		}
		for _, column := range columns {
			if _, ok := known[column.Name()]; !ok {
				return fmt.Errorf("%w: %s.%s", ErrStaleSchema, stmt.Schema.Table, column.Name())
			}
		}
	}
	return nil
}

// Close 关闭底层连接。
func Close(gdb *gorm.DB) error {
	if gdb == nil {
		return nil
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func fileDSN(path string) string {
	return path + "?_journal_mode=WAL&_busy_timeout=5000"
}

func removeStore(path string) error {
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.New("database path parent is not a directory")
		}
		return nil
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}

	return err
}
