package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"

	"github.com/go-gotop/okconn/cache/rediscache"
	"github.com/go-gotop/okconn/config"
	"github.com/go-gotop/okconn/connector"
	"github.com/go-gotop/okconn/limiter/okxlimiter"
	"github.com/go-gotop/okconn/notify/kafkanotify"
	"github.com/go-gotop/okconn/persist/csvlog"
)

var configPath = flag.String("config", "config.yaml", "配置文件路径")

func main() {
	flag.Parse()

	logger := log.NewStdLogger(os.Stdout)
	helper := log.NewHelper(logger)

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		helper.Fatalf("load config failed: %v", err)
	}

	opts := []connector.Option{
		connector.WithLogger(logger),
		connector.WithOrderRecorder(csvlog.NewOrderLog(cfg.OrderLogDir)),
	}

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		opts = append(opts, connector.WithCache(rediscache.NewRedisCache(rdb)))
	}

	if cfg.Kafka.Enabled {
		opts = append(opts, connector.WithPriceObserver(kafkanotify.NewKafkaNotify(cfg.Kafka.Brokers)))
	}

	c := connector.NewOkxConnector(cfg, okxlimiter.NewOkxLimiter(), opts...)
	if err := c.Start(); err != nil {
		helper.Fatalf("start connector failed: %v", err)
	}
	helper.Infof("okx connector started, mode: %s", cfg.Mode)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	if err := c.Close(); err != nil {
		helper.Errorf("close connector failed: %v", err)
	}
}
