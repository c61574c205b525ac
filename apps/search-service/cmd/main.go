package main

import (
	"context"

	"github.com/gin-gonic/gin"

	"melodiary/apps/search-service/dao"
	"melodiary/apps/search-service/handler"
	"melodiary/apps/search-service/model"
	"melodiary/apps/search-service/service"
	"melodiary/pkg/cache"
	"melodiary/pkg/kafka"
	"melodiary/pkg/server"
)

func main() {
	// 创建应用程序
	app := server.NewApplication("search-service")

	// 启用HTTP服务器
	app.EnableHTTP()

	// 初始化ElasticSearch连接
	es := app.GetElasticsearch()

	// 初始化DAO层
	searchDAO := dao.NewElasticsearchDAO(es.GetClient(), app.GetLogger())

	// 创建缺失的索引
	if err := searchDAO.EnsureIndexes(context.Background()); err != nil {
		panic("Failed to ensure search indexes: " + err.Error())
	}

	// 初始化Service层
	searchCache := cache.NewSearchCache(cache.DefaultTTL, cache.DefaultMaxSize)
	svc := service.NewService(searchDAO, searchCache, app.GetRedisClient(), app.GetLogger())

	// 初始化Handler
	httpHandler := handler.NewHTTPHandler(svc, app.GetLogger())

	// 注册HTTP路由
	app.RegisterHTTPRoutes(func(engine *gin.Engine) {
		httpHandler.RegisterRoutes(engine)
	})

	// 消费用户事件，保持用户索引最新
	eventHandler := handler.NewUserEventHandler(svc, app.GetLogger())
	consumer, err := kafka.InitConsumer(kafka.KafkaConfig{
		Brokers: app.GetConfig().Kafka.Brokers,
		GroupID: "search-service",
		Topics:  []string{model.UserEventsTopic},
	}, eventHandler)
	if err != nil {
		panic("Failed to init user events consumer: " + err.Error())
	}
	if err := consumer.StartConsuming(context.Background()); err != nil {
		panic("Failed to start user events consumer: " + err.Error())
	}
	defer consumer.Close()

	// 运行应用程序
	if err := app.Run(); err != nil {
		panic(err)
	}
}
