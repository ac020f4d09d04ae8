package util

import "io"

// LimitedWriter 有界采集 writer: 透传前 limit 字节, 之后丢弃。
//
// 用途是收集 worker 子进程的 stderr — 进程失控刷屏时, 采集不能无限
// 吃内存。Write 对调用方始终报告 p 被完整消费: 截断若如实返回短写,
// exec.Cmd 的复制循环会以 ErrShortWrite 中止整条采集链。
type LimitedWriter struct {
	w       io.Writer
	limit   int
	written int
	dropped int
}

// NewLimitedWriter 包装 w, 采集上限 limit 字节。
func NewLimitedWriter(w io.Writer, limit int) *LimitedWriter {
	return &LimitedWriter{w: w, limit: limit}
}

// Write 透传至多剩余额度的字节, 其余计入丢弃。成功路径报告 len(p)。
func (lw *LimitedWriter) Write(p []byte) (int, error) {
	remain := lw.limit - lw.written
	if remain <= 0 {
		lw.dropped += len(p)
		return len(p), nil
	}
	keep := p
	if len(keep) > remain {
		keep = keep[:remain]
	}
	n, err := lw.w.Write(keep)
	lw.written += n
	lw.dropped += len(p) - n
	if err != nil {
		return n, err
	}
	return len(p), nil
}

// Overflow 返回额度是否已用尽 (后续写入全部丢弃)。
func (lw *LimitedWriter) Overflow() bool { return lw.written >= lw.limit }

// Written 实际透传的字节数。
func (lw *LimitedWriter) Written() int { return lw.written }

// Dropped 因超限被丢弃的字节数。
func (lw *LimitedWriter) Dropped() int { return lw.dropped }
