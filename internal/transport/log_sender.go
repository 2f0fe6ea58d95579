package transport

import (
	"context"

	"github.com/SimpleDioney/Amostras/internal/logger"
)

// LogSender writes outbound messages to the log instead of a channel. It is
// used for dry runs and when no channel is configured.
type LogSender struct{}

func (LogSender) SendText(_ context.Context, to, text string) error {
	logger.Info("outbound_text", "to", to, "text", text)
	return nil
}

func (LogSender) SendList(_ context.Context, to string, list ListMessage) error {
	rows := 0
	for _, s := range list.Sections {
		rows += len(s.Rows)
	}
	logger.Info("outbound_list", "to", to, "description", list.Description, "rows", rows)
	return nil
}

func (LogSender) SendFile(_ context.Context, to string, file File) error {
	logger.Info("outbound_file", "to", to, "name", file.Name, "bytes", len(file.Data))
	return nil
}
