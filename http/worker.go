package http

import "net"

// workerPool is a fixed set of long-lived workers fed over an unbuffered
// channel. Handing a connection over blocks until a worker is free, so the
// accept loop itself provides the backpressure bound; nothing queues behind
// the busy workers.
type workerPool struct {
	conns chan net.Conn
}

func newWorkerPool(size int, serve func(net.Conn)) *workerPool {
	pool := &workerPool{conns: make(chan net.Conn)}
	for i := 0; i < size; i++ {
		go pool.work(serve)
	}
	return pool
}

// dispatch hands conn to the next free worker, blocking until one is.
func (p *workerPool) dispatch(conn net.Conn) {
	p.conns <- conn
}

func (p *workerPool) work(serve func(net.Conn)) {
	for conn := range p.conns {
		serve(conn)
	}
}
