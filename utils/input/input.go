package input

import (
	"github.com/tsinghua-fib-lab/trafficvis-oss/utils/config"
)

// Input 输入数据
// 功能：存储启动时按配置加载的输入文件内容
// 说明：路网与路由均为可选，加载失败只记录日志，运行期仍可通过API重新加载
type Input struct {
	Net       *Network // 路网数据，未加载为nil
	Routes    *Routes  // 路由/车型数据，未加载为nil
	NetPath   string   // 实际加载的路网文件路径
	RoutePath string   // 实际加载的路由文件路径
}

// Init 加载启动输入
// 功能：根据配置加载路网与路由文件
// 参数：c-配置对象
// 返回：加载完成的输入数据指针（字段可能为nil）
// 算法说明：
// 1. 若配置了sumocfg则优先解析，从中取得路网与路由文件路径
// 2. 否则使用input.network与input.routes指定的路径
// 3. 逐个加载，失败记录错误日志并跳过，不中断启动
func Init(c config.Config) *Input {
	in := &Input{}

	netPath := c.Input.Network
	routePath := c.Input.Routes
	if c.Input.SumoConfig != "" {
		sc, err := LoadSumoConfig(c.Input.SumoConfig)
		if err != nil {
			log.Errorf("load sumocfg failed: %v", err)
		} else {
			if sc.NetFile != "" {
				netPath = sc.NetFile
			}
			if len(sc.RouteFiles) > 0 {
				routePath = sc.RouteFiles[0]
			}
		}
	}

	if netPath != "" {
		net, err := LoadNetwork(netPath)
		if err != nil {
			log.Errorf("load network failed: %v", err)
		} else {
			in.Net = net
			in.NetPath = netPath
			log.Infof("network %s: %d junctions, %d edges", netPath, len(net.Junctions), len(net.Edges))
		}
	}
	if routePath != "" {
		routes, err := LoadRoutes(routePath)
		if err != nil {
			log.Errorf("load routes failed: %v", err)
		} else {
			in.Routes = routes
			in.RoutePath = routePath
			log.Infof("routes %s: %d vehicle types", routePath, len(routes.VehicleTypes))
		}
	}
	return in
}
