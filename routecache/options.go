package routecache

import "time"

const (
	// 默认最大缓存条目数
	DEFAULT_SIZE = 10000
	// 默认空闲过期时间，自最后一次访问起计算
	DEFAULT_IDLE_TIMEOUT = 10 * time.Minute
)

type Options struct {
	Size        int
	IdleTimeout time.Duration // 0表示不过期
	Now         func() time.Time
}

func DefaultOptions() Options {
	return Options{
		Size:        DEFAULT_SIZE,
		IdleTimeout: DEFAULT_IDLE_TIMEOUT,
		Now:         time.Now,
	}
}

type Option func(*Options)

func WithSize(size int) Option {
	return func(o *Options) {
		o.Size = size
	}
}

func WithIdleTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.IdleTimeout = d
	}
}

// 替换时钟，用于测试
func WithClock(now func() time.Time) Option {
	return func(o *Options) {
		o.Now = now
	}
}
