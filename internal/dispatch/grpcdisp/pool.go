package grpcdisp

import (
	"context"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// connPool keeps up to max idle dialed connections to one endpoint in a
// mutex-guarded slice, adapted from the teacher's grpctp.Transport connPool
// (lazy dial on first use). The number of connections dialed while all
// idle ones are taken is not bounded.
type connPool struct {
	endpoint string
	max      int

	mu    sync.Mutex
	conns []*grpc.ClientConn
}

func newConnPool(endpoint string, max int) *connPool {
	if max <= 0 {
		max = 4
	}
	return &connPool{endpoint: endpoint, max: max}
}

func (p *connPool) get(ctx context.Context) (*grpc.ClientConn, error) {
	p.mu.Lock()
	if len(p.conns) > 0 {
		c := p.conns[len(p.conns)-1]
		p.conns = p.conns[:len(p.conns)-1]
		p.mu.Unlock()
		return c, nil
	}
	p.mu.Unlock()
	return grpc.NewClient(p.endpoint, grpc.WithTransportCredentials(insecure.NewCredentials()))
}

func (p *connPool) put(c *grpc.ClientConn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.conns) >= p.max {
		c.Close()
		return
	}
	p.conns = append(p.conns, c)
}

// Pool is a Dialer keyed by endpoint, one connPool per endpoint.
type Pool struct {
	maxPerEndpoint int

	mu    sync.Mutex
	pools map[string]*connPool
}

func NewPool(maxPerEndpoint int) *Pool {
	return &Pool{maxPerEndpoint: maxPerEndpoint, pools: make(map[string]*connPool)}
}

func (p *Pool) Conn(ctx context.Context, endpoint string) (*grpc.ClientConn, func(), error) {
	p.mu.Lock()
	pool, ok := p.pools[endpoint]
	if !ok {
		pool = newConnPool(endpoint, p.maxPerEndpoint)
		p.pools[endpoint] = pool
	}
	p.mu.Unlock()

	conn, err := pool.get(ctx)
	if err != nil {
		return nil, func() {}, err
	}
	return conn, func() { pool.put(conn) }, nil
}
