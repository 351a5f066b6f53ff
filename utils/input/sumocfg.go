package input

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SumoConfig 组合配置文件（.sumocfg）中与本程序相关的内容
type SumoConfig struct {
	NetFile    string   // 路网文件路径（已解析为相对配置文件的实际路径）
	RouteFiles []string // 路由文件路径列表
}

type sumoCfgXML struct {
	XMLName xml.Name `xml:"configuration"`
	Input   struct {
		NetFile struct {
			Value string `xml:"value,attr"`
		} `xml:"net-file"`
		RouteFiles struct {
			Value string `xml:"value,attr"`
		} `xml:"route-files"`
	} `xml:"input"`
}

// LoadSumoConfig 从文件加载组合配置
// 功能：解析.sumocfg文件，取得路网与路由文件路径
// 参数：path-配置文件路径
// 返回：配置内容与错误信息
// 算法说明：
// 1. 解析configuration/input下的net-file与route-files
// 2. route-files的value按逗号分隔为多个文件
// 3. 相对路径按配置文件所在目录解析
func LoadSumoConfig(path string) (*SumoConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sumocfg %s: %w", path, err)
	}
	var raw sumoCfgXML
	if err := xml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse sumocfg %s: %w", path, err)
	}

	base := filepath.Dir(path)
	sc := &SumoConfig{}
	if v := raw.Input.NetFile.Value; v != "" {
		sc.NetFile = resolvePath(base, v)
	}
	for _, f := range strings.Split(raw.Input.RouteFiles.Value, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		sc.RouteFiles = append(sc.RouteFiles, resolvePath(base, f))
	}
	return sc, nil
}

func resolvePath(base, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
