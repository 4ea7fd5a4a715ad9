package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/mirthwood/worldevents/pkg/core"
	"github.com/mirthwood/worldevents/pkg/emitter"
	"github.com/mirthwood/worldevents/pkg/events"
	kafkaconfig "github.com/mirthwood/worldevents/pkg/messaging/kafka/config"
	"github.com/mirthwood/worldevents/pkg/messaging/kafka/producer"
)

type emitFlags struct {
	eventType     string
	scopeKey      string
	payload       string
	actorKind     string
	actorID       string
	correlationID string
	causationID   string
	operationID   string
	timeout       time.Duration
}

func newEmitCmd() *cobra.Command {
	flags := &emitFlags{}

	cmd := &cobra.Command{
		Use:   "emit",
		Short: "Publish a single world event",
		Long: `Build, validate and publish one world event to the queue.

Example:
  worldevents emit --type World.Location.Describe --scope loc:cavern-07 \
    --payload '{"locationId":"cavern-07","description":"a damp cave"}'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEmit(flags)
		},
	}

	cmd.Flags().StringVarP(&flags.eventType, "type", "t", "", "Event type (required)")
	cmd.Flags().StringVarP(&flags.scopeKey, "scope", "s", "", "Scope key, e.g. loc:cavern-07 (required)")
	cmd.Flags().StringVarP(&flags.payload, "payload", "p", "", "Payload as a JSON object (required)")
	cmd.Flags().StringVar(&flags.actorKind, "actor-kind", "system", "Actor kind: player, npc or system")
	cmd.Flags().StringVar(&flags.actorID, "actor-id", "", "Actor id (UUID v4)")
	cmd.Flags().StringVar(&flags.correlationID, "correlation-id", "", "Correlation id (UUID v4, generated if omitted)")
	cmd.Flags().StringVar(&flags.causationID, "causation-id", "", "Causation id (UUID v4)")
	cmd.Flags().StringVar(&flags.operationID, "operation-id", "", "Operation id carried as a message property")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 30*time.Second, "Publish timeout")

	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("scope")
	_ = cmd.MarkFlagRequired("payload")

	return cmd
}

func runEmit(flags *emitFlags) error {
	var payload map[string]any
	if err := json.Unmarshal([]byte(flags.payload), &payload); err != nil {
		return fmt.Errorf("payload must be a JSON object: %w", err)
	}

	var (
		em     *emitter.Emitter
		sender producer.Sender
		log    *zap.Logger
	)

	app := fx.New(
		core.NewCoreModule(),
		kafkaconfig.NewKafkaConfigModule(),
		producer.NewProducerModule(),
		fx.Provide(emitter.New),
		fx.Populate(&em, &sender, &log),
	)

	ctx, cancel := context.WithTimeout(context.Background(), flags.timeout)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer stopCancel()
		_ = app.Stop(stopCtx)
	}()

	result, err := em.Emit(emitter.Options{
		EventType:     events.EventType(flags.eventType),
		ScopeKey:      flags.scopeKey,
		Payload:       payload,
		Actor:         events.Actor{Kind: events.ActorKind(flags.actorKind), ID: flags.actorID},
		CorrelationID: flags.correlationID,
		CausationID:   flags.causationID,
		OperationID:   flags.operationID,
	})
	if err != nil {
		return fmt.Errorf("emission rejected: %w", err)
	}

	message := emitter.PrepareEnqueueMessage(result, nil)
	if err := sender.Send(ctx, message); err != nil {
		return err
	}

	log.Info("event published",
		zap.String("event_id", result.Envelope.EventID),
		zap.String("event_type", string(result.Envelope.Type)),
		zap.String("correlation_id", result.Envelope.CorrelationID))
	for _, warning := range result.Warnings {
		log.Warn(warning.Message, zap.String("code", warning.Code))
	}
	return nil
}
