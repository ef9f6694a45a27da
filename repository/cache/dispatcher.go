package cache

import "sync"

// Dispatcher decides which goroutine runs a read callback.
type Dispatcher interface {
	Dispatch(fn func())
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(fn func())

func (f DispatcherFunc) Dispatch(fn func()) {
	f(fn)
}

// Immediate runs callbacks on the goroutine that finished the read.
var Immediate Dispatcher = DispatcherFunc(func(fn func()) { fn() })

// SerialDispatcher runs callbacks one at a time, in submission order, on a
// single goroutine. A callback may dispatch again, but it must not call Close.
type SerialDispatcher struct {
	queue chan func()
	done  chan struct{}
	once  sync.Once
	wg    sync.WaitGroup
}

func NewSerialDispatcher(buffer int) *SerialDispatcher {
	if buffer <= 0 {
		buffer = 64
	}
	d := &SerialDispatcher{
		queue: make(chan func(), buffer),
		done:  make(chan struct{}),
	}
	d.wg.Add(1)
	go d.loop()
	return d
}

// Dispatch enqueues fn, waiting for room when the queue is full. Callbacks
// submitted after Close are dropped.
func (d *SerialDispatcher) Dispatch(fn func()) {
	select {
	case <-d.done:
		return
	default:
	}
	select {
	case d.queue <- fn:
	case <-d.done:
	}
}

// Close runs the callbacks already queued and stops the loop.
func (d *SerialDispatcher) Close() {
	d.once.Do(func() { close(d.done) })
	d.wg.Wait()
}

func (d *SerialDispatcher) loop() {
	defer d.wg.Done()
	for {
		select {
		case fn := <-d.queue:
			fn()
		case <-d.done:
			for {
				select {
				case fn := <-d.queue:
					fn()
				default:
					return
				}
			}
		}
	}
}
