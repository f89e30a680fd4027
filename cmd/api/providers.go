package main

import (
	"fmt"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/xiebiao/mall/internal/application/imagesearch"
	appuser "github.com/xiebiao/mall/internal/application/user"
	"github.com/xiebiao/mall/internal/domain/user"
	"github.com/xiebiao/mall/internal/infrastructure/config"
	"github.com/xiebiao/mall/internal/infrastructure/imageloader"
	"github.com/xiebiao/mall/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/mall/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/mall/internal/infrastructure/similarity"
	"github.com/xiebiao/mall/internal/interface/http/handler"
	"github.com/xiebiao/mall/internal/interface/http/middleware"
	"github.com/xiebiao/mall/pkg/baidu"
	"github.com/xiebiao/mall/pkg/jwt"
	"github.com/xiebiao/mall/pkg/mq"
)

// 自定义Provider：参数需要从Config中提取，或者需要返回cleanup

func provideDB(cfg *config.Config, log *zap.Logger) (*gorm.DB, func(), error) {
	db, err := mysql.NewDB(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return db, cleanup, nil
}

func provideRedis(cfg *config.Config, log *zap.Logger) (*goredis.Client, func(), error) {
	client, err := redis.NewClient(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return client, func() { _ = client.Close() }, nil
}

func provideJWTManager(cfg *config.Config) *jwt.Manager {
	return jwt.NewManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpire, cfg.JWT.RefreshTokenExpire)
}

// provideLoginUseCase 会话有效期与Refresh Token一致
func provideLoginUseCase(cfg *config.Config, svc user.Service, jwtManager *jwt.Manager, sessions *redis.SessionStore, log *zap.Logger) *appuser.LoginUseCase {
	return appuser.NewLoginUseCase(svc, jwtManager, sessions, cfg.JWT.RefreshTokenExpire, log)
}

// provideLogoutUseCase 黑名单有效期与Access Token一致
func provideLogoutUseCase(cfg *config.Config, sessions *redis.SessionStore) *appuser.LogoutUseCase {
	return appuser.NewLogoutUseCase(sessions, cfg.JWT.AccessTokenExpire)
}

func provideAuthMiddleware(jwtManager *jwt.Manager, sessions *redis.SessionStore) *middleware.AuthMiddleware {
	return middleware.NewAuthMiddleware(jwtManager, sessions)
}

func provideBaiduClient(cfg *config.Config, log *zap.Logger) *baidu.Client {
	if cfg.Baidu.APIKey == "" || cfg.Baidu.SecretKey == "" {
		log.Warn("未配置百度API Key/Secret Key，以图搜图接口调用时将返回配置错误")
	}
	return baidu.NewClient(baidu.Config{
		APIKey:    cfg.Baidu.APIKey,
		SecretKey: cfg.Baidu.SecretKey,
		TokenURL:  cfg.Baidu.TokenURL,
		AddURL:    cfg.Baidu.AddURL,
		SearchURL: cfg.Baidu.SearchURL,
		DeleteURL: cfg.Baidu.DeleteURL,
		Timeout:   cfg.Baidu.Timeout,
	}, baidu.WithLogger(log))
}

// provideImageLoader 本地上传目录 + 可选的MinIO回退
func provideImageLoader(cfg *config.Config, log *zap.Logger) (*imageloader.Loader, error) {
	opts := []imageloader.Option{imageloader.WithLogger(log)}

	if cfg.MinIO.Enabled {
		store, err := imageloader.NewMinIOStore(imageloader.MinIOConfig{
			Endpoint:  cfg.MinIO.Endpoint,
			AccessKey: cfg.MinIO.AccessKey,
			SecretKey: cfg.MinIO.SecretKey,
			Bucket:    cfg.MinIO.Bucket,
			UseSSL:    cfg.MinIO.UseSSL,
			MaxSize:   cfg.Upload.MaxSize,
		})
		if err != nil {
			return nil, err
		}
		opts = append(opts, imageloader.WithObjectStore(store))
		log.Info("已启用MinIO图片回退", zap.String("bucket", cfg.MinIO.Bucket))
	}

	return imageloader.New(imageloader.Config{
		UploadRoot:  cfg.Upload.Root,
		MaxSize:     cfg.Upload.MaxSize,
		HTTPTimeout: cfg.Baidu.Timeout,
	}, opts...), nil
}

// providePublisher 未启用MQ时使用NopPublisher；事件发布失败不影响入库结果
func providePublisher(cfg *config.Config, log *zap.Logger) (imagesearch.EventPublisher, func(), error) {
	if !cfg.MQ.Enabled {
		return mq.NopPublisher{}, func() {}, nil
	}

	p, err := mq.NewPublisher(cfg.MQ.URL, cfg.MQ.Exchange, mq.ExchangeTypeTopic, log)
	if err != nil {
		return nil, nil, fmt.Errorf("连接RabbitMQ失败: %w", err)
	}
	return p, func() { _ = p.Close() }, nil
}

// buildEngine 手动组装依赖（与wire.go中的声明保持一致）
// Repository ← Service ← UseCase ← Handler
func buildEngine(cfg *config.Config, log *zap.Logger) (*gin.Engine, func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}
	fail := func(err error) (*gin.Engine, func(), error) {
		cleanup()
		return nil, nil, err
	}

	db, closeDB, err := provideDB(cfg, log)
	if err != nil {
		return fail(err)
	}
	cleanups = append(cleanups, closeDB)

	redisClient, closeRedis, err := provideRedis(cfg, log)
	if err != nil {
		return fail(err)
	}
	cleanups = append(cleanups, closeRedis)

	loader, err := provideImageLoader(cfg, log)
	if err != nil {
		return fail(err)
	}

	publisher, closePublisher, err := providePublisher(cfg, log)
	if err != nil {
		return fail(err)
	}
	cleanups = append(cleanups, closePublisher)

	// 基础设施层
	userRepo := mysql.NewUserRepository(db)
	productRepo := mysql.NewProductRepository(db)
	indexRepo := mysql.NewIndexEntryRepository(db)
	txManager := mysql.NewTxManager(db)
	sessionStore := redis.NewSessionStore(redisClient)
	jwtManager := provideJWTManager(cfg)
	searcher := similarity.NewService(provideBaiduClient(cfg, log), loader)

	// 领域层
	userService := user.NewService(userRepo)

	// 接口层
	userHandler := handler.NewUserHandler(
		appuser.NewRegisterUseCase(userService),
		provideLoginUseCase(cfg, userService, jwtManager, sessionStore, log),
		provideLogoutUseCase(cfg, sessionStore),
	)
	imageSearchHandler := handler.NewImageSearchHandler(
		imagesearch.NewBatchIndexUseCase(productRepo, indexRepo, searcher, txManager, publisher, log),
		imagesearch.NewBatchRemoveUseCase(productRepo, indexRepo, searcher, txManager, publisher, log),
		imagesearch.NewSearchByImageUseCase(productRepo, indexRepo, searcher, log),
		imagesearch.NewGetIndexStatusUseCase(productRepo),
		imagesearch.NewListByIndexStatusUseCase(productRepo),
		imagesearch.NewIndexStatsUseCase(productRepo),
	)

	r := newRouter(cfg, log, userHandler, imageSearchHandler, provideAuthMiddleware(jwtManager, sessionStore))
	return r, cleanup, nil
}
