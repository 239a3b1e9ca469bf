package notification

import (
	"log"

	"fyne.io/fyne/v2"
)

const maxBodyLen = 200

// Notifier shows short desktop notifications through the fyne app. With a nil
// App it only logs, which keeps headless tools and tests quiet.
type Notifier struct {
	App fyne.App
}

func (n Notifier) Notify(title, body string) {
	if len(body) > maxBodyLen {
		body = body[:maxBodyLen] + "..."
	}
	log.Printf("notification: %s: %s", title, body)
	if n.App == nil {
		return
	}
	n.App.SendNotification(fyne.NewNotification(title, body))
}
