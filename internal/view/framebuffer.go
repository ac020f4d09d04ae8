// framebuffer.go — 单槽帧缓冲: 最新帧胜出, 不积压。
package view

import "sync"

// Frame 一帧解码后的像素。
type Frame struct {
	RGBA   []byte
	Width  uint32
	Height uint32
}

// FrameBuffer 单槽帧缓冲。
//
// 生产者 (demux 循环) 覆盖写入, 消费者 (绘制路径) 随时取最新;
// 渲染快于绘制时中间帧被覆盖丢弃, 这是有意的 — UI 只关心最新画面。
type FrameBuffer struct {
	mu    sync.Mutex
	frame *Frame
	gen   uint64
}

// Store 覆盖存入新帧。
func (b *FrameBuffer) Store(f Frame) {
	b.mu.Lock()
	b.frame = &f
	b.gen++
	b.mu.Unlock()
}

// Latest 取最新帧, 不消费。ok=false 表示尚无帧。
func (b *FrameBuffer) Latest() (Frame, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frame == nil {
		return Frame{}, false
	}
	return *b.frame, true
}

// Generation 帧序号, 每次 Store 递增。绘制路径可据此跳过重复绘制。
func (b *FrameBuffer) Generation() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gen
}
