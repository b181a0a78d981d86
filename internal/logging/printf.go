package logging

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// PrintfLogger adapts a Logger to libraries that log through Printf and
// Fatalf, such as goose. Printf lines are logged at Debug.
type PrintfLogger struct {
	logger Logger
	exit   func(code int)
}

func NewPrintfLogger(l Logger) *PrintfLogger {
	return &PrintfLogger{logger: l, exit: os.Exit}
}

func (p *PrintfLogger) Printf(format string, v ...any) {
	p.logger.Debug(context.Background(), strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Fatalf logs at Error and exits the process.
func (p *PrintfLogger) Fatalf(format string, v ...any) {
	p.logger.Error(context.Background(), strings.TrimSpace(fmt.Sprintf(format, v...)))
	p.exit(1)
}
