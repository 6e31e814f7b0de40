package billing

import (
	fiberlog "github.com/gofiber/fiber/v2/log"
)

// stripeLogger routes the stripe-go client's leveled logging into fiber's logger.
// Debug and info lines carry full request and response bodies (emails, client
// secrets) and are only forwarded when verbose is set.
type stripeLogger struct {
	verbose bool
}

func (l stripeLogger) Debugf(format string, v ...interface{}) {
	if l.verbose {
		fiberlog.Debugf("[Stripe] "+format, v...)
	}
}

func (l stripeLogger) Infof(format string, v ...interface{}) {
	if l.verbose {
		fiberlog.Infof("[Stripe] "+format, v...)
	}
}

func (l stripeLogger) Warnf(format string, v ...interface{})  { fiberlog.Warnf("[Stripe] "+format, v...) }
func (l stripeLogger) Errorf(format string, v ...interface{}) { fiberlog.Errorf("[Stripe] "+format, v...) }
