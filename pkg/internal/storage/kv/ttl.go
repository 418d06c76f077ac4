package kv

import (
	"bytes"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
)

// stampPrefix 标记带过期时间的值；memory、groupcache 与 NATS KV 没有按键 TTL，由此模拟.
var stampPrefix = []byte("IVTTL2:")

type stamped struct {
	Value    []byte `json:"v"`
	Deadline int64  `json:"d"` // unix 毫秒
}

// stamp 返回待写入的新切片：ttl<=0 时为 value 的副本，否则为带截止时间的包装.
func stamp(value []byte, ttl time.Duration, now time.Time) ([]byte, error) {
	if ttl <= 0 {
		return bytes.Clone(value), nil
	}

	b, err := sonic.Marshal(stamped{Value: value, Deadline: now.Add(ttl).UnixMilli()})
	if err != nil {
		return nil, fmt.Errorf("stamp value: %w", err)
	}

	return append(bytes.Clone(stampPrefix), b...), nil
}

// unstamp 解出原值；expired 为 true 时调用方应删除该键并按未命中处理.
func unstamp(raw []byte, now time.Time) (value []byte, expired bool, err error) {
	body, ok := bytes.CutPrefix(raw, stampPrefix)
	if !ok {
		return raw, false, nil
	}

	var s stamped
	if err := sonic.Unmarshal(body, &s); err != nil {
		return nil, false, fmt.Errorf("unstamp value: %w", err)
	}

	if now.UnixMilli() >= s.Deadline {
		return nil, true, nil
	}

	return s.Value, false, nil
}
