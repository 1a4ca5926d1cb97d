// Package emailsvc holds the implementations of core.EmailService.
package emailsvc

import "github.com/trezcool/bolsa/core"

// NewService picks the console service in debug mode or without a SendGrid key.
func NewService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug || conf.SendgridAPIKey == "" {
		return NewConsoleService(conf, logger)
	}
	return NewSendgridService(conf, logger)
}
