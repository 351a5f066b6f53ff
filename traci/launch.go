package traci

import (
	"fmt"
	"net"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// LaunchOptions 仿真器子进程启动参数
type LaunchOptions struct {
	// 仿真器可执行文件
	Binary string
	// 仿真器配置文件，非空时优先于NetFile/RouteFiles
	ConfigFile string
	// 路网文件
	NetFile string
	// 车流定义文件
	RouteFiles []string
	// 远程控制端口，0表示自动选择空闲端口
	Port int
	// 仿真步长（秒）
	StepLength float64
	// 仿真器日志文件路径
	LogFile string
	// 是否保留仿真器告警输出
	Warnings bool
	// 是否严格校验路径合法性
	StrictRoutes bool
	// 追加的原样透传参数
	ExtraArgs []string
}

// Process 由本客户端启动的仿真器子进程
type Process struct {
	cmd *exec.Cmd
}

// Pid 子进程ID
func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

// Stop 等待子进程退出，超过宽限期后强制终止
func (p *Process) Stop(grace time.Duration) error {
	done := make(chan error, 1)
	go func() { done <- p.cmd.Wait() }()
	select {
	case err := <-done:
		return err
	case <-time.After(grace):
		log.Warnf("simulator pid %d did not exit within %s, killing", p.cmd.Process.Pid, grace)
		if err := p.cmd.Process.Kill(); err != nil {
			return fmt.Errorf("kill simulator: %w", err)
		}
		<-done
		return nil
	}
}

// Launch 启动仿真器子进程并返回其远程控制地址
func Launch(opt LaunchOptions) (*Process, string, error) {
	port := opt.Port
	if port == 0 {
		p, err := pickFreePort()
		if err != nil {
			return nil, "", fmt.Errorf("pick port: %w", err)
		}
		port = p
	}
	if opt.StepLength <= 0 {
		opt.StepLength = 1
	}

	var args []string
	switch {
	case opt.ConfigFile != "":
		args = append(args, "-c", opt.ConfigFile)
	case opt.NetFile != "":
		args = append(args, "-n", opt.NetFile)
		routes := opt.RouteFiles
		if len(routes) == 0 {
			// 仅加载路网时补一个空车流文件，否则部分版本的仿真器拒绝启动
			path, err := emptyRouteFile()
			if err != nil {
				return nil, "", err
			}
			routes = []string{path}
		}
		args = append(args, "-r", strings.Join(routes, ","))
	default:
		return nil, "", fmt.Errorf("no network or config file to launch with")
	}
	args = append(args,
		"--remote-port", strconv.Itoa(port),
		"--step-length", strconv.FormatFloat(opt.StepLength, 'f', -1, 64),
		"--no-step-log",
	)
	if opt.LogFile != "" {
		args = append(args, "--log", opt.LogFile)
	}
	if !opt.Warnings {
		args = append(args, "--no-warnings")
	}
	if !opt.StrictRoutes {
		args = append(args, "--ignore-route-errors")
	}
	args = append(args, opt.ExtraArgs...)

	cmd := exec.Command(opt.Binary, args...)
	if err := cmd.Start(); err != nil {
		return nil, "", fmt.Errorf("start simulator %s: %w", opt.Binary, err)
	}
	log.Infof("started simulator %s pid %d on port %d", opt.Binary, cmd.Process.Pid, port)
	return &Process{cmd: cmd}, fmt.Sprintf("127.0.0.1:%d", port), nil
}

func pickFreePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

func emptyRouteFile() (string, error) {
	f, err := os.CreateTemp("", "routes-*.rou.xml")
	if err != nil {
		return "", fmt.Errorf("create temp route file: %w", err)
	}
	if _, err := f.WriteString("<routes/>\n"); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write temp route file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("write temp route file: %w", err)
	}
	return f.Name(), nil
}
