// Package notify decides when battery events deserve a user-facing
// notification and delivers them through a pluggable sink.
package notify

import (
	"fmt"
	"os/exec"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Notification is one user-facing message.
type Notification struct {
	Title string
	Body  string
}

// Sink delivers notifications.
type Sink interface {
	Notify(n Notification) error
}

// LogSink writes notifications to the log. Used when no display is
// available and as the test double.
type LogSink struct{}

func (LogSink) Notify(n Notification) error {
	logrus.WithFields(logrus.Fields{
		"title": n.Title,
		"body":  n.Body,
	}).Info("notification")
	return nil
}

// OsascriptSink posts a user notification through the scripting bridge. It
// needs no entitlements and no run loop, which keeps the daemon headless.
type OsascriptSink struct{}

func (OsascriptSink) Notify(n Notification) error {
	script := fmt.Sprintf("display notification %s with title %s",
		appleScriptString(n.Body), appleScriptString(n.Title))
	if err := exec.Command("/usr/bin/osascript", "-e", script).Run(); err != nil {
		return pkgerrors.Wrap(err, "failed to post notification")
	}
	return nil
}

func appleScriptString(s string) string {
	out := make([]byte, 0, len(s)+2)
	out = append(out, '"')
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"', '\\':
			out = append(out, '\\', s[i])
		default:
			out = append(out, s[i])
		}
	}
	out = append(out, '"')
	return string(out)
}
