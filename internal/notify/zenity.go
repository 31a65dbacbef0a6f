package notify

import (
	"fmt"
	"sync"

	"github.com/ncruces/zenity"
	"github.com/rs/zerolog/log"
)

const appTitle = "Photo Uploader"

// ZenityDisplay shows a desktop progress dialog per upload and a system
// notification when it ends.
type ZenityDisplay struct {
	progress func(opts ...zenity.Option) (zenity.ProgressDialog, error)
	notify   func(text string, opts ...zenity.Option) error

	mu      sync.Mutex
	dialogs map[string]zenity.ProgressDialog
	titles  map[string]string
	icons   map[string]string
}

// NewZenityDisplay returns a display backed by the native dialog helpers.
func NewZenityDisplay() *ZenityDisplay {
	return &ZenityDisplay{
		progress: zenity.Progress,
		notify:   zenity.Notify,
		dialogs:  make(map[string]zenity.ProgressDialog),
		titles:   make(map[string]string),
		icons:    make(map[string]string),
	}
}

func (z *ZenityDisplay) Begin(id, title, icon string) {
	z.mu.Lock()
	z.titles[id] = title
	z.icons[id] = icon
	z.mu.Unlock()
}

// Update opens the dialog lazily so queued uploads do not each hold a window.
func (z *ZenityDisplay) Update(id string, percent int) {
	dlg := z.dialog(id)
	if dlg == nil {
		return
	}
	dlg.Value(percent)
	dlg.Text(fmt.Sprintf("Uploading %s (%d%%)", z.title(id), percent))
}

func (z *ZenityDisplay) End(id string, ok bool, category, message string) {
	title, icon := z.close(id, ok)

	text := "Uploaded " + title
	opts := []zenity.Option{zenity.Title(appTitle)}
	if ok {
		if icon != "" {
			opts = append(opts, zenity.Icon(icon))
		} else {
			opts = append(opts, zenity.InfoIcon)
		}
	} else {
		text = fmt.Sprintf("Upload of %s failed (%s)\n\n%s", title, category, message)
		opts = append(opts, zenity.ErrorIcon)
	}

	if err := z.notify(text, opts...); err != nil {
		log.Debug().Err(err).Msg("Desktop notification unavailable")
	}
}

func (z *ZenityDisplay) Dismiss(id string) {
	z.close(id, false)
}

func (z *ZenityDisplay) dialog(id string) zenity.ProgressDialog {
	z.mu.Lock()
	defer z.mu.Unlock()

	if dlg, ok := z.dialogs[id]; ok {
		return dlg
	}
	if _, ok := z.titles[id]; !ok {
		return nil
	}
	dlg, err := z.progress(
		zenity.Title(appTitle),
		zenity.MaxValue(100),
		zenity.NoCancel(),
	)
	if err != nil {
		log.Debug().Err(err).Msg("Progress dialog unavailable")
		// A nil entry marks the failed attempt; the upload gets no dialog.
		z.dialogs[id] = nil
		return nil
	}
	z.dialogs[id] = dlg
	return dlg
}

func (z *ZenityDisplay) title(id string) string {
	z.mu.Lock()
	defer z.mu.Unlock()
	return z.titles[id]
}

func (z *ZenityDisplay) close(id string, complete bool) (title, icon string) {
	z.mu.Lock()
	dlg := z.dialogs[id]
	title, icon = z.titles[id], z.icons[id]
	delete(z.dialogs, id)
	delete(z.titles, id)
	delete(z.icons, id)
	z.mu.Unlock()

	if dlg != nil {
		if complete {
			dlg.Complete()
		}
		dlg.Close()
	}
	return title, icon
}
