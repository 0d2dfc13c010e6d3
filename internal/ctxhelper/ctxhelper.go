// Package ctxhelper provides helper functions for working with the context
package ctxhelper

import (
	"github.com/derWhity/turntable/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

var (
	// KeySession is the context key for storing the session associated with the current call
	KeySession = ctxKey("session")
	// KeyDJ is the context key for storing the DJ account associated with the current call
	KeyDJ = ctxKey("dj")
	// KeyLogger is the context key for storing the logger in the context
	KeyLogger = ctxKey("logger")
)

// internal context key
type ctxKey string

// Session returns the session from the current context, if available
func Session(ctx context.Context) *models.Session {
	if sess, ok := ctx.Value(KeySession).(models.Session); ok {
		return &sess
	}
	return nil
}

// DJ returns the logged-in DJ from the current context, if available
func DJ(ctx context.Context) *models.DJ {
	dj, ok := ctx.Value(KeyDJ).(models.DJ)
	if ok {
		return &dj
	}
	return nil
}

// Logger returns the logger from the current context. If no logger is available, it panics
func Logger(ctx context.Context) *logrus.Entry {
	logger, ok := ctx.Value(KeyLogger).(*logrus.Entry)
	if ok {
		return logger
	}
	panic("No logger in context")
}
