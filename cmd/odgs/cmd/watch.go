package cmd

import (
	"os"

	"github.com/odgs/odgs"
	"github.com/odgs/odgs/internal/adapters/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Reload a library directory on every change",
	Long: `Watches a directory holding the seven JSON documents. Every change to a
document reloads the whole bundle from the directory and logs its digest, or
the load error. Runs until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := args[0]
	reload := func(trigger string) {
		b, err := odgs.LoadFS(os.DirFS(dir))
		if err != nil {
			logger.Error("reload failed", zap.String("trigger", trigger), zap.Error(err))
			return
		}
		logger.Info("bundle reloaded",
			zap.String("trigger", trigger),
			zap.Int("documents", b.Len()),
			zap.String("digest", b.Digest()))
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Stop()

	if err := w.Watch(dir, reload); err != nil {
		return err
	}
	logger.Info("watching", zap.String("dir", dir))
	reload("startup")

	<-cmd.Context().Done()
	logger.Info("watch stopped", zap.String("dir", dir))
	return nil
}
