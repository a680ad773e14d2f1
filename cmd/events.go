/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/todos-api/apiserver/config"
	"github.com/todos-api/apiserver/internal/logger"
	"github.com/todos-api/apiserver/internal/mq"
	"github.com/todos-api/apiserver/types"
	"go.uber.org/zap"
)

var eventsChannel string

// eventsCmd groups commands that work with lifecycle events.
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect lifecycle events",
}

var eventsListenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Log every event published on a channel",
	Long: `Subscribes to a channel on the configured MQ backend and logs each event.

	todos events listen --channel todos.deleted
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		if err := logger.InitLogger(cfg.LogLevel); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		defer logger.Sync()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		queue, err := mq.Open(ctx, cfg.MQ)
		if err != nil {
			return fmt.Errorf("open message queue: %w", err)
		}
		if queue == nil {
			return errors.New("MQ_BACKEND is not configured")
		}
		defer queue.Close()

		logger.Log.Info("listening for events", zap.String("channel", eventsChannel))
		err = queue.Subscribe(ctx, eventsChannel, logEvent)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsListenCmd)
	eventsListenCmd.Flags().StringVar(&eventsChannel, "channel", "", "channel to subscribe to")
	_ = eventsListenCmd.MarkFlagRequired("channel")
}

func logEvent(ctx context.Context, msg mq.Message) error {
	var event types.Event
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		// Malformed payloads are acknowledged so they are not redelivered.
		logger.Log.Warn("undecodable event", zap.String("id", msg.ID), zap.Error(err))
		return nil
	}
	logger.Log.Info("event",
		zap.String("id", msg.ID),
		zap.String("type", event.Type),
		zap.Int("user_id", event.UserID),
		zap.Int("todo_id", event.TodoID),
		zap.Int("count", event.Count),
		zap.Time("occurred_at", event.OccurredAt),
	)
	return nil
}
