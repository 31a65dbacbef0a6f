package notify

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// LogDisplay writes notifier transitions to the global zerolog logger.
type LogDisplay struct {
	mu     sync.Mutex
	titles map[string]string
}

// NewLogDisplay returns a LogDisplay.
func NewLogDisplay() *LogDisplay {
	return &LogDisplay{titles: make(map[string]string)}
}

func (l *LogDisplay) Begin(id, title, _ string) {
	l.mu.Lock()
	l.titles[id] = title
	l.mu.Unlock()
	log.Info().Str("notification", id).Str("capture", title).Msg("Upload queued")
}

func (l *LogDisplay) Update(id string, percent int) {
	log.Debug().Str("notification", id).Str("capture", l.title(id)).Int("percent", percent).Msg("Upload progress")
}

func (l *LogDisplay) End(id string, ok bool, category, message string) {
	title := l.take(id)
	if ok {
		log.Info().Str("notification", id).Str("capture", title).Msg("Upload finished")
		return
	}
	log.Error().Str("notification", id).Str("capture", title).Str("category", category).Msg(message)
}

func (l *LogDisplay) Dismiss(id string) {
	log.Debug().Str("notification", id).Str("capture", l.take(id)).Msg("Notification dismissed")
}

func (l *LogDisplay) title(id string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.titles[id]
}

func (l *LogDisplay) take(id string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	t := l.titles[id]
	delete(l.titles, id)
	return t
}
