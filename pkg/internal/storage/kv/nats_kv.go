package kv

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/yeisme/imagevault/pkg/configs"
)

// NATSKV 基于 JetStream KV bucket 的实现. bucket 级 TTL 作为兜底，按键 TTL 由 ttl.go 的包装实现.
type NATSKV struct {
	kv   jetstream.KeyValue
	conn *nats.Conn
	now  func() time.Time
}

// NewNATSKV 连接 NATS 并创建或更新 bucket.
func NewNATSKV(ctx context.Context, config any) (KVStore, error) {
	cfg, ok := config.(*configs.NATSKVConfig)
	if !ok {
		return nil, fmt.Errorf("invalid NATS config")
	}

	opts := []nats.Option{nats.Name("imagevault-kv")}
	if cfg.User != "" {
		opts = append(opts, nats.UserInfo(cfg.User, cfg.Password))
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      cfg.Bucket,
		Description: "imagevault cache",
		TTL:         cfg.TTL,
		MaxBytes:    cfg.MaxBytes,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create KV bucket %s: %w", cfg.Bucket, err)
	}

	return &NATSKV{kv: kv, conn: nc, now: time.Now}, nil
}

// Get 获取键的值.
func (n *NATSKV) Get(ctx context.Context, key string) ([]byte, error) {
	entry, err := n.kv.Get(ctx, natsKey(key))
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil, notFound(key)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get key: %w", err)
	}

	val, expired, err := unstamp(entry.Value(), n.now())
	if err != nil {
		return nil, err
	}

	if expired {
		_ = n.kv.Delete(ctx, natsKey(key))

		return nil, notFound(key)
	}

	return val, nil
}

// Set 设置键的值.
func (n *NATSKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	encoded, err := stamp(value, ttl, n.now())
	if err != nil {
		return err
	}

	if _, err := n.kv.Put(ctx, natsKey(key), encoded); err != nil {
		return fmt.Errorf("failed to set key: %w", err)
	}

	return nil
}

// Delete 删除键.
func (n *NATSKV) Delete(ctx context.Context, key string) error {
	err := n.kv.Delete(ctx, natsKey(key))
	if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete key: %w", err)
	}

	return nil
}

// Exists 检查键是否存在且未过期.
func (n *NATSKV) Exists(ctx context.Context, key string) (bool, error) {
	_, err := n.Get(ctx, key)
	if errors.Is(err, ErrKeyNotFound) {
		return false, nil
	}

	return err == nil, err
}

// Keys 列出匹配 pattern 的键，不读取值，因此可能包含已过期但尚未清理的键.
func (n *NATSKV) Keys(ctx context.Context, pattern string) ([]string, error) {
	lister, err := n.kv.ListKeys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return []string{}, nil
		}

		return nil, fmt.Errorf("failed to list keys: %w", err)
	}

	defer func() { _ = lister.Stop() }()

	out := make([]string, 0)

	for k := range lister.Keys() {
		key, ok := fromNATSKey(k)
		if ok && matchPattern(key, pattern) {
			out = append(out, key)
		}
	}

	return out, nil
}

// Close 关闭 NATS 连接.
func (n *NATSKV) Close() error {
	n.conn.Close()

	return nil
}

const natsEscape = '_'

// natsKey 把任意键编码为 JetStream KV 允许的字符集 [-/=.A-Za-z0-9_]：
// ':' 映射为 '.'，其余不允许的字节与 '_' 本身编码为 _XX.
func natsKey(key string) string {
	var b strings.Builder

	b.Grow(len(key))

	for i := 0; i < len(key); i++ {
		c := key[i]

		switch {
		case c == ':':
			b.WriteByte('.')
		case c == '.' || c == natsEscape || !natsSafe(c):
			fmt.Fprintf(&b, "%c%02X", natsEscape, c)
		default:
			b.WriteByte(c)
		}
	}

	return b.String()
}

// fromNATSKey 是 natsKey 的逆变换，遇到非本包写入的键返回 false.
func fromNATSKey(s string) (string, bool) {
	var b strings.Builder

	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]

		switch c {
		case '.':
			b.WriteByte(':')
		case natsEscape:
			if i+2 >= len(s) {
				return "", false
			}

			v, err := strconv.ParseUint(s[i+1:i+3], 16, 8)
			if err != nil {
				return "", false
			}

			b.WriteByte(byte(v))
			i += 2
		default:
			b.WriteByte(c)
		}
	}

	return b.String(), true
}

func natsSafe(c byte) bool {
	return c == '-' || c == '/' || c == '=' ||
		('0' <= c && c <= '9') || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func init() {
	RegisterKVFactory(KVTypeNATS, NewNATSKV)
}
