package main

import (
	"context"
	"encoding/base64"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	easy "git.fiblab.net/utils/logrus-easy-formatter"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/trafficvis-oss/metrics"
	"github.com/tsinghua-fib-lab/trafficvis-oss/publisher"
	"github.com/tsinghua-fib-lab/trafficvis-oss/recorder"
	"github.com/tsinghua-fib-lab/trafficvis-oss/task"
	"github.com/tsinghua-fib-lab/trafficvis-oss/utils/config"
	"github.com/tsinghua-fib-lab/trafficvis-oss/web"
	"gopkg.in/yaml.v2"
)

var (
	// 配置文件路径
	configPath = flag.String("config", "", "config file path")
	// 配置文件Base64编码后的数据
	configData = flag.String("config-data", "", "config file base64 encoded data")

	// log
	logLevels = map[string]logrus.Level{
		"trace":    logrus.TraceLevel,
		"debug":    logrus.DebugLevel,
		"info":     logrus.InfoLevel,
		"warn":     logrus.WarnLevel,
		"error":    logrus.ErrorLevel,
		"critical": logrus.FatalLevel,
		"off":      logrus.PanicLevel,
	}
	logLevel = flag.String("log.level", "info", "日志级别（可选项：trace debug info warn error critical off）")

	log = logrus.WithField("module", "trafficvis")
)

func main() {
	flag.Parse()
	logrus.SetFormatter(&easy.Formatter{
		TimestampFormat: "2006-01-02 15:04:05.0000",
		LogFormat:       "[%module%] [%time%] [%lvl%] %msg%\n",
	})
	// log: 运行时才修改
	if level, ok := logLevels[*logLevel]; ok {
		logrus.SetLevel(level)
	} else {
		log.Panicf("log.level must be one of %v", logLevels)
	}

	// 部署环境覆盖项（模拟器路径、监听地址等）
	_ = godotenv.Load()

	// 获取配置
	var c config.Config
	var file []byte
	var err error
	if *configPath != "" {
		file, err = os.ReadFile(*configPath)
		if err != nil {
			log.Panicf("config file load err: %v", err)
		}
	} else if *configData != "" {
		file, err = base64.StdEncoding.DecodeString(*configData)
		if err != nil {
			log.Panicf("config data load err: %v", err)
		}
	} else {
		log.Panic("config file or config data must be specified")
	}
	if err := yaml.UnmarshalStrict(file, &c); err != nil {
		log.Panicf("config file load err: %v", err)
	}
	config.ApplyEnv(&c)
	log.Infof("%+v", c)

	collector := metrics.NewCollector()
	t := task.NewContext(c, collector)

	// 可选输出通道
	var rec *recorder.Recorder
	if c.Output.Mongo != nil {
		connectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		rec, err = recorder.New(connectCtx, *c.Output.Mongo)
		cancel()
		if err != nil {
			log.Panicf("recorder init err: %v", err)
		}
		t.AddTickSink(rec)
	}
	var pub *publisher.Publisher
	if c.Output.NATS != nil {
		pub, err = publisher.New(*c.Output.NATS, collector)
		if err != nil {
			log.Panicf("publisher init err: %v", err)
		}
		t.AddTickSink(pub)
	}

	// Web服务
	srv := web.New(c.Web, t, collector)
	t.AddFrameSink(srv)
	srv.Start()

	// 控制循环，收到退出信号后停止模拟并释放连接
	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	t.Run(sigCtx.Done())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warnf("http shutdown err: %v", err)
	}
	if pub != nil {
		pub.Close()
	}
	if rec != nil {
		if err := rec.Close(shutdownCtx); err != nil {
			log.Warnf("recorder close err: %v", err)
		}
	}
	log.Info("trafficvis complete")
}
