package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/mirthwood/worldevents/pkg/core"
	"github.com/mirthwood/worldevents/pkg/core/worker"
	"github.com/mirthwood/worldevents/pkg/deadletter"
	"github.com/mirthwood/worldevents/pkg/handlers"
	"github.com/mirthwood/worldevents/pkg/idempotency"
	kafkaconfig "github.com/mirthwood/worldevents/pkg/messaging/kafka/config"
	"github.com/mirthwood/worldevents/pkg/messaging/kafka/consumer"
	"github.com/mirthwood/worldevents/pkg/persistence/mongo"
	"github.com/mirthwood/worldevents/pkg/persistence/mongo/migrations"
	"github.com/mirthwood/worldevents/pkg/processing"
	"github.com/mirthwood/worldevents/pkg/telemetry"
	"github.com/mirthwood/worldevents/pkg/world"
)

func newWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the world mutation worker",
		Long: `Run the consumer that applies world events from the queue:
envelope validation, idempotent application through the registered
handlers, dead-lettering of terminal failures.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fx.New(workerOptions()).Run()
			return nil
		},
	}
}

func workerOptions() fx.Option {
	return fx.Options(
		core.NewCoreModule(),
		mongo.NewMongoModule(),
		migrations.NewMigrationsModule(),
		telemetry.NewTelemetryModule(),
		idempotency.NewIdempotencyModule(),
		deadletter.NewDeadLetterModule(),
		world.NewWorldModule(),
		handlers.NewHandlersModule(),
		processing.NewProcessingModule(),
		kafkaconfig.NewKafkaConfigModule(),
		consumer.NewConsumerModule(),
		fx.Provide(
			worker.Register[*deadletter.Sweeper]("deadletter-sweeper", worker.WithReady()),
		),
		worker.Start(),
	)
}
