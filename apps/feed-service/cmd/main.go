package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc/health/grpc_health_v1"

	"melodiary/apps/feed-service/dao"
	"melodiary/apps/feed-service/handler"
	"melodiary/apps/feed-service/model"
	"melodiary/apps/feed-service/service"
	"melodiary/pkg/logger"
	"melodiary/pkg/server"
)

func main() {
	// 创建应用程序
	app := server.NewApplication("feed-service")

	// 启用HTTP服务器
	app.EnableHTTP()

	// 初始化PostgreSQL连接
	postgreSQL := app.GetPostgreSQL()

	// 自动迁移数据库表结构
	if err := postgreSQL.AutoMigrate(
		&model.ActivityRecord{},
		&model.AlbumRating{},
		&model.AlbumListen{},
		&model.DiaryEntry{},
	); err != nil {
		panic("Failed to migrate database: " + err.Error())
	}

	// 初始化DAO层
	feedDAO := dao.NewFeedDAO(postgreSQL)

	// 初始化Service层
	svc := service.NewService(feedDAO, app.GetKafkaProducer(), app.GetLogger())

	// 探活social-service的gRPC端点，不可达时只告警不阻塞启动
	probeSocialService(app)

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

// probeSocialService 通过客户端管理器检查social-service健康状态
func probeSocialService(app *server.Application) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	addr := app.GetConfig().Services.SocialGRPCAddr
	conn, err := app.GetClientManager().GetGRPCClient("social-service", addr)
	if err != nil {
		app.GetLogger().Warn(ctx, "Social service connection unavailable",
			logger.F("addr", addr),
			logger.F("error", err.Error()))
		return
	}

	resp, err := grpc_health_v1.NewHealthClient(conn).Check(ctx, &grpc_health_v1.HealthCheckRequest{})
	if err != nil {
		app.GetLogger().Warn(ctx, "Social service health check failed",
			logger.F("addr", addr),
			logger.F("error", err.Error()))
		return
	}

	app.GetLogger().Info(ctx, "Social service reachable",
		logger.F("addr", addr),
		logger.F("status", resp.Status.String()))
}
