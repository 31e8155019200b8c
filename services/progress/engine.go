// Package progress computes learner progress, drives the enrollment
// active → completed transition and issues completion certificates.
package progress

import (
	"context"
	"time"

	"lms/logger"
	courseModels "lms/models/course"
)

// Notifier receives completion side effects once a certificate has been created.
type Notifier interface {
	CertificateIssued(ctx context.Context, cert *courseModels.Certificate) error
}

type Engine struct {
	store    Store
	notifier Notifier
	log      *logger.Logger
	now      func() time.Time
	newCode  func(time.Time) string
}

// NewEngine builds an engine over store. notifier may be nil.
func NewEngine(store Store, notifier Notifier, log *logger.Logger) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	return &Engine{
		store:    store,
		notifier: notifier,
		log:      log.With("service", "ProgressEngine"),
		now:      func() time.Time { return time.Now().UTC() },
		newCode:  NewCertificateCode,
	}
}

// WithClock overrides the time source used for completion and issuance timestamps.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// WithCodeGenerator overrides certificate code generation.
func (e *Engine) WithCodeGenerator(gen func(time.Time) string) *Engine {
	e.newCode = gen
	return e
}

func (e *Engine) notify(ctx context.Context, cert *courseModels.Certificate) {
	if e.notifier == nil || cert == nil {
		return
	}
	if err := e.notifier.CertificateIssued(ctx, cert); err != nil {
		e.log.Warn("certificate notification failed", "certificate", cert.Code, "error", err)
	}
}
