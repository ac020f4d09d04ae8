package util

import (
	"bytes"
	"testing"
)

func TestLimitedWriterPassesThroughUnderLimit(t *testing.T) {
	var buf bytes.Buffer
	lw := NewLimitedWriter(&buf, 10)

	n, err := lw.Write([]byte("hello"))
	if err != nil || n != 5 {
		t.Fatalf("Write = (%d, %v), want (5, nil)", n, err)
	}
	if buf.String() != "hello" {
		t.Fatalf("passed through %q, want %q", buf.String(), "hello")
	}
	if lw.Written() != 5 || lw.Dropped() != 0 {
		t.Errorf("written=%d dropped=%d", lw.Written(), lw.Dropped())
	}
}

// TestLimitedWriterTruncatesWithoutShortWrite 截断写入仍报告完整消费 —
// 短写会让 exec.Cmd 的复制循环以 ErrShortWrite 中止采集。
func TestLimitedWriterTruncatesWithoutShortWrite(t *testing.T) {
	var buf bytes.Buffer
	lw := NewLimitedWriter(&buf, 10)

	n, err := lw.Write([]byte("123456789012"))
	if err != nil || n != 12 {
		t.Fatalf("Write = (%d, %v), want (12, nil)", n, err)
	}
	if buf.String() != "1234567890" {
		t.Fatalf("captured %q, want first 10 bytes", buf.String())
	}
	if !lw.Overflow() || lw.Dropped() != 2 {
		t.Errorf("overflow=%v dropped=%d, want true/2", lw.Overflow(), lw.Dropped())
	}
}

func TestLimitedWriterDiscardsAfterLimit(t *testing.T) {
	var buf bytes.Buffer
	lw := NewLimitedWriter(&buf, 5)

	lw.Write([]byte("hello"))
	n, err := lw.Write([]byte("world"))
	if err != nil || n != 5 {
		t.Fatalf("post-limit Write = (%d, %v), want (5, nil)", n, err)
	}
	if buf.String() != "hello" {
		t.Fatalf("captured %q, want %q", buf.String(), "hello")
	}
	if lw.Dropped() != 5 {
		t.Errorf("dropped = %d, want 5", lw.Dropped())
	}
}
