package container

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"cryptotracker/internal/application/port"
	"cryptotracker/internal/infrastructure/config"
	"cryptotracker/internal/infrastructure/storage"
	"cryptotracker/internal/infrastructure/storage/composite"
	pgrepo "cryptotracker/internal/infrastructure/storage/postgres"
	redisrepo "cryptotracker/internal/infrastructure/storage/redis"
	sqliterepo "cryptotracker/internal/infrastructure/storage/sqlite"
)

const pingTimeout = 5 * time.Second

// Container 包含所有基础设施依赖
type Container struct {
	cfg         *config.Config
	redisClient *redis.Client
	sqliteRepo  *sqliterepo.Repo
	redisRepo   *redisrepo.Repo
	pgRepo      *pgrepo.Repo
	store       port.KVStore
	notifier    *redisrepo.Notifier
	closeOnce   sync.Once
	closerChain []func() error
}

// New 创建新的容器实例
func New(cfg *config.Config) (*Container, error) {
	c := &Container{
		cfg:         cfg,
		closerChain: make([]func() error, 0),
	}

	if err := c.initStorage(); err != nil {
		// 清理已初始化的资源
		_ = c.Close()
		return nil, err
	}

	if cfg.Notify.Redis.Enabled && c.redisClient != nil {
		c.notifier = redisrepo.NewNotifier(
			c.redisClient,
			cfg.Storage.Redis.Prefix,
			cfg.Notify.Redis.Stream,
			cfg.Notify.Redis.Channel,
		)
	}

	return c, nil
}

// initStorage 初始化存储层（SQLite、Postgres、Redis），按顺序组合为一个 KVStore
func (c *Container) initStorage() error {
	var stores []port.KVStore

	if c.cfg.Storage.SQLite.Enabled {
		if err := c.initSQLite(); err != nil {
			return fmt.Errorf("sqlite init failed: %w", err)
		}
		stores = append(stores, c.sqliteRepo)
	}

	if c.cfg.Storage.Postgres.Enabled {
		if err := c.initPostgres(); err != nil {
			return fmt.Errorf("postgres init failed: %w", err)
		}
		stores = append(stores, c.pgRepo)
	}

	if c.cfg.Storage.Redis.Enabled {
		if err := c.initRedis(); err != nil {
			return fmt.Errorf("redis init failed: %w", err)
		}
		stores = append(stores, c.redisRepo)
	}

	switch len(stores) {
	case 0:
		log.Warn().Msg("no storage enabled, records are kept in memory only")
		c.store = storage.NewMemory()
	case 1:
		c.store = stores[0]
	default:
		c.store = composite.New(stores...)
	}
	return nil
}

// initRedis 初始化 Redis 连接
func (c *Container) initRedis() error {
	rdb := redis.NewClient(&redis.Options{
		Addr:     c.cfg.Storage.Redis.Addr,
		Password: c.cfg.Storage.Redis.Password,
		DB:       c.cfg.Storage.Redis.DB,
	})

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return fmt.Errorf("redis ping failed: %w", err)
	}

	c.redisClient = rdb
	c.redisRepo = redisrepo.New(rdb, c.cfg.Storage.Redis.Prefix, c.cfg.RedisTTL())

	// 注册关闭回调
	c.closerChain = append(c.closerChain, func() error {
		log.Info().Msg("closing redis connection")
		return rdb.Close()
	})

	log.Info().
		Str("addr", c.cfg.Storage.Redis.Addr).
		Int("db", c.cfg.Storage.Redis.DB).
		Msg("redis initialized")

	return nil
}

// initSQLite 初始化 SQLite 数据库
func (c *Container) initSQLite() error {
	repo, err := sqliterepo.New(c.cfg.Storage.SQLite.Path)
	if err != nil {
		return err
	}

	c.sqliteRepo = repo

	// 注册关闭回调
	c.closerChain = append(c.closerChain, func() error {
		log.Info().Msg("closing sqlite connection")
		return repo.Close()
	})

	log.Info().
		Str("path", c.cfg.Storage.SQLite.Path).
		Msg("sqlite initialized")

	return nil
}

func (c *Container) initPostgres() error {
	repo, err := pgrepo.New(c.cfg.Storage.Postgres.DSN)
	if err != nil {
		return err
	}

	c.pgRepo = repo
	c.closerChain = append(c.closerChain, func() error {
		log.Info().Msg("closing postgres connection")
		return repo.Close()
	})

	log.Info().Msg("postgres initialized")
	return nil
}

// Config 获取配置
func (c *Container) Config() *config.Config {
	return c.cfg
}

// Store 获取记录存储（单个后端或组合）
func (c *Container) Store() port.KVStore {
	return c.store
}

// RedisClient 获取 Redis 客户端
func (c *Container) RedisClient() *redis.Client {
	return c.redisClient
}

// SQLiteRepo 获取 SQLite 仓储
func (c *Container) SQLiteRepo() *sqliterepo.Repo {
	return c.sqliteRepo
}

// Notifier 获取 Redis 通知器；未启用时为 nil
func (c *Container) Notifier() port.Notifier {
	if c.notifier == nil {
		return nil
	}
	return c.notifier
}

// Close 关闭所有资源（按后进先出顺序）
func (c *Container) Close() error {
	var err error
	c.closeOnce.Do(func() {
		for i := len(c.closerChain) - 1; i >= 0; i-- {
			if e := c.closerChain[i](); e != nil {
				log.Error().Err(e).Msg("error closing resource")
				if err == nil {
					err = e
				}
			}
		}
		log.Info().Msg("container closed")
	})
	return err
}
