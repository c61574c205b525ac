package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	"melodiary/apps/social-service/dao"
	"melodiary/apps/social-service/handler"
	"melodiary/apps/social-service/model"
	"melodiary/apps/social-service/service"
	"melodiary/pkg/server"
)

func main() {
	// 创建应用程序
	app := server.NewApplication("social-service")

	// 启用HTTP服务器
	app.EnableHTTP()

	// 启用gRPC服务器，内建健康检查供下游探活
	app.EnableGRPC()
	app.RegisterGRPCService(func(s *grpc.Server) {
		reflection.Register(s)
	})

	// 初始化PostgreSQL连接
	postgreSQL := app.GetPostgreSQL()

	// 自动迁移数据库表结构
	if err := postgreSQL.AutoMigrate(
		&model.FollowEdge{},
		&model.FollowRequest{},
	); err != nil {
		panic("Failed to migrate database: " + err.Error())
	}

	// 初始化DAO层
	socialDAO := dao.NewSocialDAO(postgreSQL)

	// pending请求的部分唯一索引
	if err := socialDAO.EnsureIndexes(context.Background()); err != nil {
		panic("Failed to ensure indexes: " + err.Error())
	}

	// 初始化Service层
	svc := service.NewService(socialDAO, app.GetKafkaProducer(), app.GetLogger())

	// 初始化Handler
	httpHandler := handler.NewHTTPHandler(svc, app.GetLogger())

	// 注册HTTP路由
	app.RegisterHTTPRoutes(func(engine *gin.Engine) {
		httpHandler.RegisterRoutes(engine)
	})

	// 运行应用程序
	if err := app.Run(); err != nil {
		panic(err)
	}
}
