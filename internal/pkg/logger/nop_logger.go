package logger

// NopLogger 丢弃全部日志，测试用
type NopLogger struct{}

func NewNopLogger() Logger {
	return &NopLogger{}
}

func (l *NopLogger) Debug(_ string, _ ...Field) {}

func (l *NopLogger) Info(_ string, _ ...Field) {}

func (l *NopLogger) Warn(_ string, _ ...Field) {}

func (l *NopLogger) Error(_ string, _ ...Field) {}

func (l *NopLogger) With(_ ...Field) Logger {
	return l
}
