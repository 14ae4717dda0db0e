package milestone

import (
	"github.com/go-playground/validator/v10"

	"github.com/whenitsdone1/capstone2024/core"
)

// NewServiceMock returns a Service sending its mails synchronously, with a fresh validator.
func NewServiceMock(backend Backend, dates DateSource, mailSvc core.EmailService, logger core.Logger, conf *core.Config) Service {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)

	return &service{
		backend:  backend,
		dates:    dates,
		cleaner:  NewCleaner(validate, translator),
		mailSvc:  mailSvc,
		logger:   logger,
		conf:     conf,
		syncMail: true,
	}
}
