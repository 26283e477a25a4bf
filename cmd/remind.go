package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/revise/internal/notify"
)

var remindServe bool

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Send the due-topics digest",
	Long: `Send the digest of topics due for review. By default it is sent once and
the command exits; with --serve a background loop delivers it daily at the
configured hour until interrupted.

The digest goes to Telegram when TELEGRAM_TOKEN and TELEGRAM_CHAT_ID are
set, and to the log otherwise.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		notifier, err := buildNotifier()
		if err != nil {
			return err
		}

		scheduler := notify.New(notifier, log, loc, cfg.Reminder.Hour)
		if !remindServe {
			return scheduler.RunOnce(time.Now())
		}

		scheduler.Start()
		defer scheduler.Stop()
		log.Info("reminder loop started",
			zap.Int("hour", cfg.Reminder.Hour),
			zap.String("timezone", loc.String()))

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info("reminder loop stopped")
		return nil
	},
}

func buildNotifier() (notify.Notifier, error) {
	token := cfg.Reminder.TelegramToken
	chatID := cfg.Reminder.TelegramChatID
	if token != "" && chatID != 0 {
		return notify.NewTelegramNotifier(token, chatID)
	}
	if token != "" || chatID != 0 {
		return nil, fmt.Errorf("telegram delivery needs both TELEGRAM_TOKEN and TELEGRAM_CHAT_ID")
	}
	return notify.NewLogNotifier(log), nil
}

func init() {
	rootCmd.AddCommand(remindCmd)
	remindCmd.Flags().BoolVar(&remindServe, "serve", false, "Keep running and deliver the digest daily")
}
