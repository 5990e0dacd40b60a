package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	queue "github.com/bestquark/ml-at-ml-log/internal/adapters/mq/queue"
	worker "github.com/bestquark/ml-at-ml-log/internal/adapters/mq/worker"
	model "github.com/bestquark/ml-at-ml-log/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

type mockQueue struct {
	ch chan queue.Message
}

func newMockQueue() *mockQueue {
	return &mockQueue{ch: make(chan queue.Message, 10)}
}

func (mq *mockQueue) Dequeue(context.Context) <-chan queue.Message { return mq.ch }

func (mq *mockQueue) Close() error {
	close(mq.ch)
	return nil
}

type mockSender struct {
	mu   sync.Mutex
	sent []string
	fail map[string]error
}

func newMockSender() *mockSender {
	return &mockSender{fail: make(map[string]error)}
}

func (ms *mockSender) Send(_ context.Context, n queue.Message) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if err, ok := ms.fail[n.Name]; ok {
		return err
	}
	ms.sent = append(ms.sent, n.Name)
	return nil
}

func (ms *mockSender) count() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return len(ms.sent)
}

type mockForgetter struct {
	mu   sync.Mutex
	keys []string
}

func (mf *mockForgetter) Unrecord(_ context.Context, key string) {
	mf.mu.Lock()
	defer mf.mu.Unlock()
	mf.keys = append(mf.keys, key)
}

func (mf *mockForgetter) forgotten() []string {
	mf.mu.Lock()
	defer mf.mu.Unlock()
	return append([]string(nil), mf.keys...)
}

func note(name string) queue.Message {
	return model.Notification{
		ID:   "n-" + name,
		Name: name,
		Date: time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC),
	}
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker reading from a queue", t, func() {
		q := newMockQueue()
		sender := newMockSender()
		forgetter := &mockForgetter{}
		w := worker.NewInMemoryWorker(q, sender, worker.WithName("test"), worker.WithForgetter(forgetter))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When notifications arrive", func() {
			q.ch <- note("Ada")
			q.ch <- note("Bob")

			convey.Convey("Then they are sent", func() {
				convey.So(func() bool {
					deadline := time.Now().Add(time.Second)
					for time.Now().Before(deadline) {
						if sender.count() == 2 {
							return true
						}
						time.Sleep(5 * time.Millisecond)
					}
					return false
				}(), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When sending fails", func() {
			sender.fail["Cy"] = errors.New("smtp down")
			q.ch <- note("Cy")
			q.ch <- note("Dee")

			convey.Convey("Then the dedupe key is forgotten and later messages still go out", func() {
				deadline := time.Now().Add(time.Second)
				for time.Now().Before(deadline) && sender.count() < 1 {
					time.Sleep(5 * time.Millisecond)
				}
				convey.So(sender.count(), convey.ShouldEqual, 1)
				convey.So(forgetter.forgotten(), convey.ShouldResemble, []string{"2025-01-08/Cy"})
			})
		})

		convey.Convey("When shutting down", func() {
			err := w.Shutdown(context.Background())

			convey.Convey("Then it stops and a second call is harmless", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(w.Shutdown(context.Background()), convey.ShouldBeNil)
			})
		})
	})

	convey.Convey("Given a worker whose context is cancelled", t, func() {
		q := newMockQueue()
		w := worker.NewInMemoryWorker(q, newMockSender())
		ctx, cancel := context.WithCancel(context.Background())
		go w.Run(ctx)
		cancel()

		convey.Convey("Then Run returns", func() {
			select {
			case <-w.Done():
			case <-time.After(time.Second):
				t.Fatal("worker did not stop")
			}
		})
	})
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a worker pool", t, func() {
		convey.Convey("When created with a non-positive count", func() {
			p := worker.NewPool(0, newMockQueue(), newMockSender())
			convey.So(p.Size(), convey.ShouldEqual, 2)
		})

		convey.Convey("When it processes a batch and shuts down", func() {
			q := queue.NewInMemoryQueue(queue.WithCapacity(100))
			sender := newMockSender()
			p := worker.NewPool(3, q, sender)
			p.Start(context.Background())

			for i := 0; i < 20; i++ {
				convey.So(q.Enqueue(context.Background(), note(fmt.Sprintf("p%d", i))), convey.ShouldBeNil)
			}
			err := p.Shutdown(context.Background())

			convey.Convey("Then every message is delivered before the workers exit", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(sender.count(), convey.ShouldEqual, 20)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})
	})
}
