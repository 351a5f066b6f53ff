// 随机数引擎，包装了golang.org/x/exp/rand，提供可复现的随机序列
package randengine

import (
	"flag"

	"golang.org/x/exp/rand"
)

var (
	seedOffset = flag.Uint64("rand.seed_offset", 0, "seed offset") // 种子偏移量，用于调整随机数生成
)

// Engine 随机数引擎
// 说明：基于golang.org/x/exp/rand库，相同种子产生相同序列，
// 用于车辆配色等需要跨运行可复现的随机选择
type Engine struct {
	*rand.Rand // 底层随机数生成器
}

// New 创建随机数引擎
// 参数：seed-随机数种子
// 说明：种子偏移量允许在不修改配置的情况下调整随机数序列
func New(seed uint64) *Engine {
	return &Engine{Rand: rand.New(rand.NewSource(seed + *seedOffset))}
}

// Choice 从候选列表中等概率选取一个元素
// 说明：列表为空时panic，调用方保证非空
func Choice[T any](e *Engine, candidates []T) T {
	return candidates[e.Intn(len(candidates))]
}
