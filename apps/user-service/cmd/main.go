package main

import (
	"github.com/gin-gonic/gin"

	"melodiary/apps/user-service/dao"
	"melodiary/apps/user-service/handler"
	"melodiary/apps/user-service/model"
	"melodiary/apps/user-service/service"
	"melodiary/pkg/server"
)

func main() {
	// 创建应用程序
	app := server.NewApplication("user-service")

	// 启用HTTP服务器
	app.EnableHTTP()

	// 初始化PostgreSQL连接
	postgreSQL := app.GetPostgreSQL()

	// 自动迁移数据库表结构
	if err := postgreSQL.AutoMigrate(&model.UserProfile{}); err != nil {
		panic("Failed to migrate database: " + err.Error())
	}

	// 初始化DAO层
	userDAO := dao.NewUserDAO(postgreSQL)

	// 初始化Service层
	svc := service.NewService(userDAO, app.GetKafkaProducer(), app.GetConfig().App.JWTSecret, app.GetLogger())

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
