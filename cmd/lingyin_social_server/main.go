package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lingyin_social_server/internal/config"
	dao "lingyin_social_server/internal/dao/mysql"
	myredis "lingyin_social_server/internal/dao/redis"
	"lingyin_social_server/internal/handler"
	"lingyin_social_server/internal/https_server"
	"lingyin_social_server/internal/infrastructure/logger"
	"lingyin_social_server/internal/service"
	"lingyin_social_server/pkg/util/jwt"
	"lingyin_social_server/pkg/util/snowflake"

	"go.uber.org/zap"
)

func main() {
	// 1. 加载配置
	conf := config.GetConfig()

	// 2. 初始化日志
	if err := logger.Init(&conf.LogConfig, "dev"); err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	zap.L().Info("日志初始化成功")

	// 3. 初始化参数校验翻译器
	if err := handler.InitTrans("zh"); err != nil {
		zap.L().Fatal("翻译器初始化失败", zap.Error(err))
	}

	// 4. 初始化雪花节点
	snowflake.Init()

	// 5. 初始化数据库
	repos := dao.Init()
	zap.L().Info("数据库初始化成功")

	// 6. 初始化 Redis
	cacheService := myredis.Init()
	zap.L().Info("Redis 初始化成功")

	// 7. 初始化 JWT
	jwt.Init(conf.JWTConfig.Secret, conf.JWTConfig.AccessTokenExpiry, conf.JWTConfig.RefreshTokenExpiry)

	// 8. 初始化 Service 层（依赖注入，含扇出引擎/网关/总线的互相装配）
	services := service.NewServices(repos, cacheService)
	zap.L().Info("Service 层初始化成功", zap.String("eventMode", conf.KafkaConfig.EventMode))

	// 9. 初始化 HTTP 服务器
	handlers := handler.NewHandlers(services)
	engine := https_server.Init(handlers)

	// 10. 启动入站帧消费循环和 HTTP 服务
	go services.Bus.Start()

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", conf.MainConfig.Host, conf.MainConfig.Port),
		Handler: engine,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().Fatal("server running fault", zap.Error(err))
		}
	}()
	zap.L().Info("服务启动", zap.String("addr", srv.Addr))

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.L().Info("关闭服务器...")

	// 先停 HTTP 入口，再关帧总线
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zap.L().Error("HTTP 服务关闭异常", zap.Error(err))
	}
	services.Bus.Close()

	zap.L().Info("服务器已关闭")
}
