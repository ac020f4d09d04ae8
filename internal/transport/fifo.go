// fifo.go — 无界 FIFO 队列: 入队永不阻塞, 出队可阻塞等待。
package transport

import "sync"

// fifo 多生产者/单消费者无界队列。
//
// Push 永不阻塞 (命令小而低频, 无界符合设计); Pop 阻塞直到有元素或
// 队列关闭; TryPop 非阻塞。关闭后 Push 为空操作, 剩余元素仍可取出。
type fifo[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []T
	closed bool
}

func newFIFO[T any]() *fifo[T] {
	q := &fifo[T]{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push 入队。队列已关闭时丢弃。
func (q *fifo[T]) Push(item T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.items = append(q.items, item)
	q.cond.Signal()
	return true
}

// Pop 阻塞出队。队列关闭且排空后返回 ok=false。
func (q *fifo[T]) Pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	item := q.items[0]
	q.items = q.items[1:]
	return item, true
}

// TryPop 非阻塞出队。
func (q *fifo[T]) TryPop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	item := q.items[0]
	q.items = q.items[1:]
	return item, true
}

// Close 关闭队列并唤醒所有等待者。幂等。
func (q *fifo[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.cond.Broadcast()
}

// Closed 返回队列是否已关闭。
func (q *fifo[T]) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Len 返回当前排队元素数。
func (q *fifo[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
