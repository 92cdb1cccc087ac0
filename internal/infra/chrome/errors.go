package chrome

import (
	"errors"
	"strings"

	"github.com/chromedp/chromedp"
)

var interruptMarkers = []string{
	"target closed",
	"browser closed",
	"websocket: close",
	"use of closed network connection",
	"connection reset by peer",
	"broken pipe",
}

// IsSessionInterrupted reports whether err means the browser or its tab went
// away, as opposed to a failure of the page itself.
func IsSessionInterrupted(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, chromedp.ErrChannelClosed) || errors.Is(err, chromedp.ErrInvalidContext) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, m := range interruptMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
