package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// RuntimeConfig 运行时配置
// 功能：存储补全默认值后的配置，供各组件直接使用
// 说明：将YAML配置转换为运行时可用的配置对象，所有默认值在此统一填充
type RuntimeConfig struct {
	All Config    // 全部配置
	Sim Simulator // 模拟器配置
	C   Control   // 循环控制配置
}

// NewRuntimeConfig 根据配置初始化运行时配置
// 功能：创建运行时配置对象，填充默认值并做基本校验
// 参数：config-原始配置对象
// 返回：初始化的运行时配置指针
// 算法说明：
// 1. 填充模拟器默认值：步长1.0秒、日志文件sumo.log、顺序号1、重试参数
// 2. 填充控制默认值：周期100毫秒、发车间隔2
// 3. 填充画布与Web默认值
func NewRuntimeConfig(config Config) *RuntimeConfig {
	rc := &RuntimeConfig{}

	if config.Simulator.Binary == "" {
		config.Simulator.Binary = "sumo"
	}
	if config.Simulator.StepLength <= 0 {
		config.Simulator.StepLength = 1.0
	}
	if config.Simulator.LogFile == "" {
		config.Simulator.LogFile = "sumo.log"
	}
	if config.Simulator.Order == 0 {
		config.Simulator.Order = 1
	}
	if config.Simulator.ConnectRetries <= 0 {
		config.Simulator.ConnectRetries = 30
	}
	if config.Simulator.RetryIntervalMS <= 0 {
		config.Simulator.RetryIntervalMS = 100
	}
	if config.Simulator.IOTimeoutMS < 0 {
		config.Simulator.IOTimeoutMS = 0
	} else if config.Simulator.IOTimeoutMS == 0 {
		config.Simulator.IOTimeoutMS = 30000
	}
	if config.Control.TickIntervalMS <= 0 {
		config.Control.TickIntervalMS = 100
	}
	if config.Control.SpawnInterval <= 0 {
		config.Control.SpawnInterval = 2
	}
	if config.Canvas.Width <= 0 {
		config.Canvas.Width = 1000
	}
	if config.Canvas.Height <= 0 {
		config.Canvas.Height = 700
	}
	if config.Web.Listen == "" {
		config.Web.Listen = ":8080"
	}
	if len(config.Web.AllowedOrigins) == 0 {
		config.Web.AllowedOrigins = []string{"*"}
	}
	if config.Output.Mongo != nil {
		if config.Output.Mongo.BatchSize <= 0 {
			config.Output.Mongo.BatchSize = 100
		}
		if config.Output.Mongo.FlushIntervalMS <= 0 {
			config.Output.Mongo.FlushIntervalMS = 1000
		}
	}
	if config.Output.NATS != nil && config.Output.NATS.SubjectPrefix == "" {
		config.Output.NATS.SubjectPrefix = "trafficvis"
	}

	rc.All = config
	rc.Sim = config.Simulator
	rc.C = config.Control

	return rc
}

// TickInterval 周期触发间隔
func (rc *RuntimeConfig) TickInterval() time.Duration {
	return time.Duration(rc.C.TickIntervalMS) * time.Millisecond
}

// Load 从文件加载YAML配置
// 功能：读取并严格解析配置文件，未知字段视为错误
// 参数：path-配置文件路径
// 返回：配置对象与错误信息
func Load(path string) (Config, error) {
	var c Config
	file, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.UnmarshalStrict(file, &c); err != nil {
		return c, fmt.Errorf("parse config %s: %w", path, err)
	}
	return c, nil
}

// ApplyEnv 用环境变量覆盖部署相关配置项
// 说明：仅覆盖少量部署时才会变化的项，配置文件仍是主要来源
func ApplyEnv(c *Config) {
	if v := os.Getenv("SUMO_BINARY"); v != "" {
		c.Simulator.Binary = v
	}
	if v := os.Getenv("TRAFFICVIS_LISTEN"); v != "" {
		c.Web.Listen = v
	}
	if v := os.Getenv("MONGO_URI"); v != "" && c.Output.Mongo != nil {
		c.Output.Mongo.URI = v
	}
	if v := os.Getenv("NATS_URL"); v != "" && c.Output.NATS != nil {
		c.Output.NATS.URL = v
	}
}
