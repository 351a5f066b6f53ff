package container

// Ring 定长环形缓冲区
// 功能：保存最近写入的固定数量的元素，写满后覆盖最旧的元素
// 说明：支持泛型，用于状态消息等只需保留近期历史的场景；非并发安全
type Ring[T any] struct {
	data []T // 底层存储
	head int // 下一个写入位置
	size int // 当前元素数量
}

// NewRing 创建环形缓冲区
// 参数：capacity-容量，必须为正数
func NewRing[T any](capacity int) *Ring[T] {
	if capacity <= 0 {
		panic("container: ring capacity must be positive")
	}
	return &Ring[T]{data: make([]T, capacity)}
}

// Push 写入一个元素，必要时覆盖最旧的元素
func (r *Ring[T]) Push(v T) {
	r.data[r.head] = v
	r.head = (r.head + 1) % len(r.data)
	if r.size < len(r.data) {
		r.size++
	}
}

// Len 当前元素数量
func (r *Ring[T]) Len() int {
	return r.size
}

// Cap 容量
func (r *Ring[T]) Cap() int {
	return len(r.data)
}

// Last 最近写入的元素
// 返回：元素与是否存在
func (r *Ring[T]) Last() (T, bool) {
	var zero T
	if r.size == 0 {
		return zero, false
	}
	idx := (r.head - 1 + len(r.data)) % len(r.data)
	return r.data[idx], true
}

// Items 按从旧到新的顺序返回所有元素
// 说明：返回新切片，修改结果不影响缓冲区内容
func (r *Ring[T]) Items() []T {
	out := make([]T, 0, r.size)
	start := (r.head - r.size + len(r.data)) % len(r.data)
	for i := 0; i < r.size; i++ {
		out = append(out, r.data[(start+i)%len(r.data)])
	}
	return out
}
