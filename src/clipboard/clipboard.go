package clipboard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"golang.design/x/clipboard"

	"xshot/src/export"
)

var (
	writeMu sync.Mutex
	initMu  sync.Mutex
	initErr error
	inited  bool
)

var ErrNotInitialized = errors.New("clipboard not initialized")

func Init() error {
	initMu.Lock()
	defer initMu.Unlock()
	initErr = clipboard.Init()
	inited = true
	return initErr
}

func ready() error {
	initMu.Lock()
	defer initMu.Unlock()
	if !inited {
		return ErrNotInitialized
	}
	return initErr
}

// Writer puts exported images on the system clipboard as PNG.
type Writer struct{}

// WriteImage performs a mutex-guarded clipboard write to prevent corruption under parallel writes.
func (Writer) WriteImage(ctx context.Context, buf export.PixelBuffer) (err error) {
	if err := ready(); err != nil {
		return err
	}
	data, err := buf.PNG()
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	writeMu.Lock()
	defer writeMu.Unlock()
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("clipboard write panicked: %v", p)
		}
	}()
	if changed := clipboard.Write(clipboard.FmtImage, data); changed == nil {
		return errors.New("clipboard rejected image")
	}
	log.Printf("clipboard: wrote %dx%d image (%d bytes PNG)", buf.Width, buf.Height, len(data))
	return nil
}
