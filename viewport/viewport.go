package viewport

import (
	"math"

	"git.fiblab.net/general/common/v2/geometry"
)

// 缩放下限，低于此值的设置会被拒绝，避免退化或翻转的画面
const minZoom = 0.1

// 自适应视图时边界框外扩的比例
const fitPadding = 1.1

// Viewport 视口变换
// 功能：维护缩放与平移状态，完成世界坐标与屏幕坐标的互相转换
// 说明：世界坐标Y轴向上，屏幕坐标Y轴向下，转换时按画布高度翻转；
// 所有方法均在持有者的单一执行协程上调用，不做并发保护
type Viewport struct {
	zoom    float64 // 缩放系数（屏幕像素/世界米）
	offsetX float64 // 视口左边缘的世界X坐标
	offsetY float64 // 视口下边缘的世界Y坐标
	canvasW float64 // 画布宽度（像素）
	canvasH float64 // 画布高度（像素）
}

// New 创建视口
// 参数：canvasW/canvasH-画布初始像素尺寸
func New(canvasW, canvasH float64) *Viewport {
	return &Viewport{zoom: 1.0, canvasW: canvasW, canvasH: canvasH}
}

// WorldToScreenX 世界X坐标转屏幕X坐标
func (v *Viewport) WorldToScreenX(wx float64) float64 {
	return (wx - v.offsetX) * v.zoom
}

// WorldToScreenY 世界Y坐标转屏幕Y坐标
// 说明：按画布高度做Y翻转，与ScreenToWorldY严格互逆
func (v *Viewport) WorldToScreenY(wy float64) float64 {
	return v.canvasH - (wy-v.offsetY)*v.zoom
}

// ScreenToWorldX 屏幕X坐标转世界X坐标
func (v *Viewport) ScreenToWorldX(sx float64) float64 {
	return sx/v.zoom + v.offsetX
}

// ScreenToWorldY 屏幕Y坐标转世界Y坐标
func (v *Viewport) ScreenToWorldY(sy float64) float64 {
	return (v.canvasH-sy)/v.zoom + v.offsetY
}

// WorldToScreen 世界坐标点转屏幕坐标
func (v *Viewport) WorldToScreen(p geometry.Point) geometry.Point {
	return geometry.Point{X: v.WorldToScreenX(p.X), Y: v.WorldToScreenY(p.Y)}
}

// ScreenToWorld 屏幕坐标转世界坐标点
func (v *Viewport) ScreenToWorld(sx, sy float64) geometry.Point {
	return geometry.Point{X: v.ScreenToWorldX(sx), Y: v.ScreenToWorldY(sy)}
}

// Pan 按屏幕像素位移平移视口
// 参数：dx/dy-拖拽的屏幕位移（像素）
// 说明：Y方向符号与X相反，由Y翻转直接导出
func (v *Viewport) Pan(dx, dy float64) {
	v.offsetX -= dx / v.zoom
	v.offsetY += dy / v.zoom
}

// SetZoom 设置缩放系数
// 说明：仅接受大于0.1的值，过小或非正值静默忽略（不钳制到边界）
func (v *Viewport) SetZoom(z float64) {
	if z <= minZoom {
		return
	}
	v.zoom = z
}

// ZoomBy 按倍数缩放
func (v *Viewport) ZoomBy(factor float64) {
	v.SetZoom(v.zoom * factor)
}

// SetCanvasSize 更新画布像素尺寸
// 说明：画布尺寸参与Y翻转，渲染表面尺寸变化后必须先调用本方法再做坐标转换
func (v *Viewport) SetCanvasSize(w, h float64) {
	v.canvasW = w
	v.canvasH = h
}

// Zoom 当前缩放系数
func (v *Viewport) Zoom() float64 {
	return v.zoom
}

// Offset 当前视口偏移（世界坐标）
func (v *Viewport) Offset() (x, y float64) {
	return v.offsetX, v.offsetY
}

// CanvasSize 当前画布尺寸（像素）
func (v *Viewport) CanvasSize() (w, h float64) {
	return v.canvasW, v.canvasH
}

// FitBounds 自适应视图
// 功能：调整缩放与偏移，使给定世界坐标边界框外扩10%后居中充满画布
// 参数：min/max-边界框的两个角点
// 算法说明：
// 1. 对宽高分别计算候选缩放：画布边长/(边界框边长*1.1)
// 2. 跳过退化的轴（边长为0），两轴都退化时不做任何修改
// 3. 取候选中的较小者作为缩放；不超过缩放下限时不做任何修改
// 4. 重算偏移使边界框中心落在画布中心
func (v *Viewport) FitBounds(min, max geometry.Point) {
	boxW := max.X - min.X
	boxH := max.Y - min.Y

	zoom := math.Inf(1)
	if boxW > 0 {
		zoom = math.Min(zoom, v.canvasW/(boxW*fitPadding))
	}
	if boxH > 0 {
		zoom = math.Min(zoom, v.canvasH/(boxH*fitPadding))
	}
	if math.IsInf(zoom, 1) || zoom <= minZoom {
		return
	}

	centerX := (min.X + max.X) / 2
	centerY := (min.Y + max.Y) / 2
	v.zoom = zoom
	v.offsetX = centerX - v.canvasW/(2*zoom)
	v.offsetY = centerY - v.canvasH/(2*zoom)
}
