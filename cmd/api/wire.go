//go:build wireinject
// +build wireinject

// Wire依赖声明，与providers.go中buildEngine的手动组装保持一致
// 生成：wire gen ./cmd/api

package main

import (
	"github.com/gin-gonic/gin"
	"github.com/google/wire"
	"go.uber.org/zap"

	"github.com/xiebiao/mall/internal/application/imagesearch"
	appuser "github.com/xiebiao/mall/internal/application/user"
	"github.com/xiebiao/mall/internal/domain/user"
	"github.com/xiebiao/mall/internal/infrastructure/config"
	"github.com/xiebiao/mall/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/mall/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/mall/internal/infrastructure/similarity"
	"github.com/xiebiao/mall/internal/interface/http/handler"
)

// infrastructureSet 数据库、缓存、外部服务
var infrastructureSet = wire.NewSet(
	provideDB,
	provideRedis,
	redis.NewSessionStore,
	provideBaiduClient,
	provideImageLoader,
	providePublisher,
	similarity.NewService,
	wire.Bind(new(imagesearch.Searcher), new(*similarity.Service)),
)

// repositorySet 仓储与事务
var repositorySet = wire.NewSet(
	mysql.NewUserRepository,
	mysql.NewProductRepository,
	mysql.NewIndexEntryRepository,
	mysql.NewTxManager,
	wire.Bind(new(imagesearch.Transactor), new(*mysql.TxManager)),
)

var domainSet = wire.NewSet(
	user.NewService,
)

var applicationSet = wire.NewSet(
	appuser.NewRegisterUseCase,
	provideLoginUseCase,
	provideLogoutUseCase,
	imagesearch.NewBatchIndexUseCase,
	imagesearch.NewBatchRemoveUseCase,
	imagesearch.NewSearchByImageUseCase,
	imagesearch.NewGetIndexStatusUseCase,
	imagesearch.NewListByIndexStatusUseCase,
	imagesearch.NewIndexStatsUseCase,
)

var interfaceSet = wire.NewSet(
	provideJWTManager,
	provideAuthMiddleware,
	handler.NewUserHandler,
	handler.NewImageSearchHandler,
	newRouter,
)

// InitializeApp 组装Gin引擎，cleanup按相反顺序关闭MQ、Redis、数据库
func InitializeApp(cfg *config.Config, log *zap.Logger) (*gin.Engine, func(), error) {
	wire.Build(
		infrastructureSet,
		repositorySet,
		domainSet,
		applicationSet,
		interfaceSet,
	)
	return nil, nil, nil
}
