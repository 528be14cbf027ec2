package main

import (
	"SceneForge-studio/config"
	"SceneForge-studio/pkg/logger"
	"SceneForge-studio/routers"
	"SceneForge-studio/service"
	"SceneForge-studio/store"
)

func main() {
	config.InitConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Log.Level, cfg.Log.Format)

	snap, err := store.OpenSnapshot(cfg.Storage.SnapshotPath)
	if err != nil {
		logger.Fatalf("快照数据库打开失败: %v", err)
	}
	defer snap.Close()

	st := store.New(snap)
	found, err := st.Load()
	if err != nil {
		logger.Fatalf("状态快照恢复失败: %v", err)
	}
	if !found {
		// 首次运行, demo 开关用配置默认值
		st.SetDemoMode(cfg.Demo.Default)
	}
	logger.Infof("Store initialized, %d projects loaded", len(st.Projects()))

	worker := service.NewWorkerClient(cfg.Worker.Addr)
	generator := service.NewGenerator(st, worker, cfg)

	var exporter *service.Exporter
	if cfg.MinIO.Endpoint != "" {
		exporter, err = service.NewExporter(cfg.MinIO.Endpoint, cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, cfg.MinIO.Bucket, cfg.MinIO.UseSSL)
		if err != nil {
			logger.Fatalf("MinIO 初始化失败: %v", err)
		}
		logger.Infof("MinIO initialized")
	} else {
		logger.Warnf("MinIO 未配置, 导出功能不可用")
	}

	var queue *service.Queue
	if cfg.Redis.Addr != "" {
		queue = service.NewQueue(cfg.Redis.Addr, cfg.Redis.Password)
		defer queue.Close()

		processor := service.NewProcessor(generator, cfg.Redis.Addr, cfg.Redis.Password)
		processor.Start(cfg.Generation.Concurrency)
		logger.Infof("Queue initialized")
	} else {
		// 没有 redis 时生成请求直接在本进程跑
		logger.Warnf("Redis 未配置, 生成请求将直接在本进程执行")
	}

	r := routers.InitRouter(cfg, st, generator, queue, worker, exporter)
	logger.Infof("SceneForge studio listening on %s", cfg.Server.Port)
	if err := r.Run(cfg.Server.Port); err != nil {
		logger.Fatalf("server exited: %v", err)
	}
}
