package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"moooio/aio"

	"github.com/cespare/xxhash"
	"github.com/lmittmann/tint"
)

func main() {
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: time.TimeOnly,
	})))

	path := filepath.Join(os.TempDir(), "moooio.moo")
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	if err := run(path); err != nil {
		slog.Error("moooio", "err", err)
		os.Exit(1)
	}
}

func run(path string) error {
	c, err := aio.Open(path, aio.OpenCreate|aio.OpenWrite|aio.OpenTruncate)
	if err != nil {
		return err
	}
	defer c.Close()

	src := []byte("0123456789")
	wr := c.Write(0, src)
	if err := wr.Wait(); err != nil {
		return err
	}
	n, err := wr.Get()
	if err != nil {
		return err
	}
	slog.Info("write", "n", n, "xxh", xxhash.Sum64(src))

	dst := make([]byte, len(src))
	n, err = c.Read(0, dst).Get()
	if err != nil {
		return err
	}
	slog.Info("read", "n", n, "xxh", xxhash.Sum64(dst[:n]))

	if err := c.Sync(true); err != nil {
		return err
	}
	size, err := c.Size()
	if err != nil {
		return err
	}
	slog.Info("moooio", "path", c.Path(), "size", size, "opt", c.Options())
	return nil
}
