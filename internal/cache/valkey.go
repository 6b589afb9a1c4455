package cache

import (
	"context"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"
)

// Valkey is a Backend on a Valkey (or Redis-compatible) server.
type Valkey struct {
	client valkey.Client
}

// NewValkey connects to addr, which is either host:port or a redis:// URL.
func NewValkey(addr string) (*Valkey, error) {
	opt, err := valkeyOptions(addr)
	if err != nil {
		return nil, err
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		return nil, err
	}
	return &Valkey{client: client}, nil
}

// NewValkeyFromClient wraps an existing client.
func NewValkeyFromClient(client valkey.Client) *Valkey {
	return &Valkey{client: client}
}

func valkeyOptions(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}

func (v *Valkey) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := v.client.Do(ctx, v.client.B().Get().Key(key).Build()).AsBytes()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return raw, true, nil
}

func (v *Valkey) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < time.Second {
		ttl = time.Second
	}
	cmd := v.client.B().Set().Key(key).Value(valkey.BinaryString(value)).Ex(ttl).Build()
	return v.client.Do(ctx, cmd).Error()
}

func (v *Valkey) Ping(ctx context.Context) error {
	return v.client.Do(ctx, v.client.B().Ping().Build()).Error()
}

// Close releases the client's connections.
func (v *Valkey) Close() error {
	v.client.Close()
	return nil
}
