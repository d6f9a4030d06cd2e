package lifecycle

import (
	"os"
	"os/signal"
	"sync"
)

// NotifyInterrupt calls cancel on the first SIGINT. Listening stops right
// after that signal, so a second one gets the default action and kills the
// process. The returned function stops listening and waits for the
// watcher to exit.
func NotifyInterrupt(cancel func()) (stop func()) {
	return notifyInterrupt(cancel, signal.Notify, signal.Stop)
}

func notifyInterrupt(cancel func(), notify func(chan<- os.Signal, ...os.Signal), unnotify func(chan<- os.Signal)) func() {
	ch := make(chan os.Signal, 1)
	notify(ch, os.Interrupt)

	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		select {
		case <-ch:
			unnotify(ch)
			cancel()
		case <-done:
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			unnotify(ch)
			close(done)
			<-exited
		})
	}
}
