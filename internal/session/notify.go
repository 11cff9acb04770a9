package session

import "log"

// LogNotifier writes notifications to the process log. It stands in for
// the toast surface the browser client rendered.
type LogNotifier struct{}

func (LogNotifier) Success(title, description string) {
	log.Printf("notify: %s: %s", title, description)
}

func (LogNotifier) Error(title, description string) {
	log.Printf("notify: ERROR %s: %s", title, description)
}
