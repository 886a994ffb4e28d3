package device

import "log"

// LogProgress returns a Progress that logs the transmission position
// every interval bytes and once more on completion. It stands in for a
// terminal progress bar when the process runs as a service.
func LogProgress(interval int) Progress {
	if interval <= 0 {
		interval = 64
	}
	lastLogged := -1
	return func(written, total int) {
		if written >= total {
			log.Printf("[device] wrote %d/%d bytes", written, total)
			lastLogged = -1
			return
		}
		if lastLogged >= 0 && written-lastLogged < interval {
			return
		}
		log.Printf("[device] wrote %d/%d bytes", written, total)
		lastLogged = written
	}
}
