package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jingkaihe/skillstack/pkg/logger"
	"github.com/jingkaihe/skillstack/pkg/telemetry"
	"github.com/jingkaihe/skillstack/pkg/version"
)

var shutdownTracing telemetry.ShutdownFunc = func(context.Context) error { return nil }

// initTracing installs the tracer provider described by the tracing.* keys
func initTracing(ctx context.Context) error {
	shutdown, err := telemetry.InitTracer(ctx, telemetry.Config{
		Enabled:        viper.GetBool("tracing.enabled"),
		ServiceName:    viper.GetString("tracing.service_name"),
		ServiceVersion: version.Get().Version,
		SamplerType:    viper.GetString("tracing.sampler"),
		SamplerRatio:   viper.GetFloat64("tracing.sampler_ratio"),
	})
	if err != nil {
		return err
	}
	shutdownTracing = shutdown
	return nil
}

// withTracing wraps a command's Run in a cli.command span
func withTracing(cmd *cobra.Command) *cobra.Command {
	originalRun := cmd.Run

	cmd.Run = func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		if err := initTracing(ctx); err != nil {
			logger.G(ctx).WithError(err).Warn("failed to initialise tracing")
		}
		defer func() {
			if err := shutdownTracing(context.Background()); err != nil {
				logger.G(ctx).WithError(err).Warn("failed to flush traces")
			}
		}()

		attrs := []attribute.KeyValue{
			attribute.String("command.name", cmd.Name()),
			attribute.String("command.path", cmd.CommandPath()),
			attribute.Int("args.count", len(args)),
		}
		cmd.Flags().Visit(func(flag *pflag.Flag) {
			attrs = append(attrs, attribute.String("flag."+flag.Name, flag.Value.String()))
		})

		ctx, span := telemetry.Tracer().Start(ctx, "cli.command", trace.WithAttributes(attrs...))
		defer span.End()

		cmd.SetContext(ctx)
		originalRun(cmd, args)
		span.SetStatus(codes.Ok, "")
	}

	return cmd
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.Bool("tracing-enabled", false, "Enable OpenTelemetry tracing")
	flags.String("tracing-sampler", "ratio", "Tracing sampler type (always, never, ratio)")
	flags.Float64("tracing-ratio", 1, "Sampling ratio when using the ratio sampler")

	viper.BindPFlag("tracing.enabled", flags.Lookup("tracing-enabled"))
	viper.BindPFlag("tracing.sampler", flags.Lookup("tracing-sampler"))
	viper.BindPFlag("tracing.sampler_ratio", flags.Lookup("tracing-ratio"))
}
