package mq

import (
	watermill "github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"
)

// NewLoggerAdapter 把 zerolog 桥接为 watermill.LoggerAdapter，所有日志带 component=mq.
// watermill 的 Info 日志（订阅、连接等）降为 Debug，避免每次订阅刷屏.
func NewLoggerAdapter(l *zerolog.Logger) watermill.LoggerAdapter {
	child := l.With().Str("component", "mq").Logger()

	return &zerologAdapter{l: child}
}

type zerologAdapter struct {
	l zerolog.Logger
}

func withFields(ev *zerolog.Event, fields watermill.LogFields) *zerolog.Event {
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}

	return ev
}

func (z *zerologAdapter) Error(msg string, err error, fields watermill.LogFields) {
	withFields(z.l.Error().Err(err), fields).Msg(msg)
}

func (z *zerologAdapter) Info(msg string, fields watermill.LogFields) {
	withFields(z.l.Debug(), fields).Msg(msg)
}

func (z *zerologAdapter) Debug(msg string, fields watermill.LogFields) {
	withFields(z.l.Debug(), fields).Msg(msg)
}

func (z *zerologAdapter) Trace(msg string, fields watermill.LogFields) {
	withFields(z.l.Trace(), fields).Msg(msg)
}

func (z *zerologAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	c := z.l.With()
	for k, v := range fields {
		c = c.Interface(k, v)
	}

	return &zerologAdapter{l: c.Logger()}
}
