// frame.go — 线上帧: u32 小端长度前缀 + 载荷字节。
package protocol

import (
	"encoding/binary"
	"errors"
	"io"

	apperrors "github.com/webview-bridge/go-webview-v2/pkg/errors"
)

// MaxFrameSize 帧载荷 sanity 上限 (字节)。
//
// 声明长度超过该值按协议违例处理而非瞬时错误 — 通道必须拆除。
// 800x600 RGBA 一帧约 1.9MB, 4K 帧在 JSON/base64 放大后仍低于此值。
const MaxFrameSize = 10_000_000

// WriteFrame 将一帧 (长度前缀 + 载荷) 写入 w。
//
// 单次 Write 调用方需自行保证串行化 — 并发调用会在字节层交错,
// 破坏帧边界 (见 transport 包的单写者队列)。
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > MaxFrameSize {
		return apperrors.Wrapf(apperrors.ErrOversizedFrame, "Frame.Write", "payload %d bytes", len(payload))
	}
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return apperrors.Wrap(apperrors.ErrChannelClosed, "Frame.Write", err.Error())
	}
	if _, err := w.Write(payload); err != nil {
		return apperrors.Wrap(apperrors.ErrChannelClosed, "Frame.Write", err.Error())
	}
	return nil
}

// ReadFrame 从 r 读取一帧并返回载荷。
//
// 错误分类:
//   - 流在帧边界干净结束 → ErrChannelClosed (正常终止)
//   - 长度前缀被截断 / 载荷不足 → ErrProtocolViolation
//   - 声明长度 > MaxFrameSize → ErrOversizedFrame (读取前即拒绝, 不分配内存)
func ReadFrame(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, apperrors.Wrap(apperrors.ErrChannelClosed, "Frame.Read", "stream ended")
		}
		return nil, apperrors.Wrap(apperrors.ErrProtocolViolation, "Frame.Read", "truncated length prefix")
	}

	length := binary.LittleEndian.Uint32(lenBuf[:])
	if length > MaxFrameSize {
		return nil, apperrors.Wrapf(apperrors.ErrOversizedFrame, "Frame.Read", "declared %d bytes", length)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrProtocolViolation, "Frame.Read", "truncated payload")
	}
	return payload, nil
}
