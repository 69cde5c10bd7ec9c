package main

import (
	"github.com/willwade/dashergo/internal/screen"
	"github.com/willwade/dashergo/internal/session"
)

// headlessW and headlessH size the off-screen render target; headless
// runs still go through the full render path so frame accounting and
// box geometry match the terminal UI.
const (
	headlessW = 80
	headlessH = 24
)

// runHeadless drives the session for a fixed number of frames at a
// fixed frame interval, with no terminal attached, and returns the
// committed output. Scripted runs pair it with the demo filter.
func runHeadless(sess *session.Session, frames int, dtMS int64) (string, error) {
	sess.AttachRenderer(screen.NewCellScreen(headlessW, headlessH))
	if err := sess.Start(); err != nil {
		return "", err
	}
	sess.Resume(0)
	for i := 1; i <= frames; i++ {
		sess.Frame(int64(i) * dtMS)
	}
	sess.Stop()
	return sess.OutputText(), nil
}
