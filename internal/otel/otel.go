package otel

import (
	"context"
	"sync"

	"github.com/txweave/txweave/internal/attempt"
	"github.com/txweave/txweave/internal/eventbus"
	"github.com/txweave/txweave/internal/events"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
)

// Setup configures OpenTelemetry and attaches eventbus subscribers that
// turn plan, signing and ledger events into spans.
// If endpoint is empty, no telemetry is configured.
func Setup(endpoint, service string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exp, err := otlptracegrpc.New(context.Background(),
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithDialOption(grpc.WithInsecure()))
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(service),
		)),
	)
	otel.SetTracerProvider(tp)

	sub := &subscriber{tracer: otel.Tracer("txweave")}
	sub.register()

	return tp.Shutdown, nil
}

// subscriber keys plan spans by attempt ID and everything below them by
// attempt ID plus unit path, since one attempt runs many units at once.
type subscriber struct {
	tracer      trace.Tracer
	planSpans   sync.Map // attempt -> trace.Span
	nodeSpans   sync.Map // attempt|unit -> trace.Span
	signSpans   sync.Map // attempt|unit -> trace.Span
	ledgerSpans sync.Map // attempt|unit -> trace.Span
}

func planKey(ctx context.Context) string {
	id, _ := attempt.FromContext(ctx)
	return id
}

func unitKey(ctx context.Context) string {
	id, _ := attempt.FromContext(ctx)
	unit, _ := attempt.UnitFromContext(ctx)
	return id + "|" + unit
}

// parent returns ctx rooted at the nearest live enclosing span.
func (s *subscriber) parent(ctx context.Context) context.Context {
	if v, ok := s.nodeSpans.Load(unitKey(ctx)); ok {
		return trace.ContextWithSpan(ctx, v.(trace.Span))
	}
	if v, ok := s.planSpans.Load(planKey(ctx)); ok {
		return trace.ContextWithSpan(ctx, v.(trace.Span))
	}
	return ctx
}

func (s *subscriber) register() {
	eventbus.Subscribe(func(ctx context.Context, e events.PlanStart) {
		_, span := s.tracer.Start(ctx, "plan.execute")
		span.SetAttributes(attribute.Int("plan.leaves", e.Leaves))
		s.planSpans.Store(planKey(ctx), span)
	})

	eventbus.Subscribe(func(ctx context.Context, e events.PlanFinish) {
		v, ok := s.planSpans.LoadAndDelete(planKey(ctx))
		if !ok {
			return
		}
		span := v.(trace.Span)
		span.SetAttributes(
			attribute.Int("plan.successful", e.Successful),
			attribute.Int("plan.failed", e.Failed),
			attribute.Int("plan.canceled", e.Canceled),
		)
		if e.Err != nil {
			span.RecordError(e.Err)
		}
		span.End()
	})

	eventbus.Subscribe(func(ctx context.Context, e events.NodeStart) {
		parent := ctx
		if v, ok := s.planSpans.Load(planKey(ctx)); ok {
			parent = trace.ContextWithSpan(ctx, v.(trace.Span))
		}
		_, span := s.tracer.Start(parent, "plan.unit")
		span.SetAttributes(attribute.String("plan.path", e.Path))
		s.nodeSpans.Store(unitKey(ctx), span)
	})

	eventbus.Subscribe(func(ctx context.Context, e events.NodeFinish) {
		v, ok := s.nodeSpans.LoadAndDelete(unitKey(ctx))
		if !ok {
			return
		}
		span := v.(trace.Span)
		span.SetAttributes(attribute.String("plan.status", e.Status))
		if e.Err != nil {
			span.RecordError(e.Err)
		}
		span.End()
	})

	eventbus.Subscribe(func(ctx context.Context, e events.SignStart) {
		_, span := s.tracer.Start(s.parent(ctx), "sign.pass")
		span.SetAttributes(attribute.Int("sign.parties", e.Parties))
		s.signSpans.Store(unitKey(ctx), span)
	})

	eventbus.Subscribe(func(ctx context.Context, e events.SignFinish) {
		v, ok := s.signSpans.LoadAndDelete(unitKey(ctx))
		if !ok {
			return
		}
		span := v.(trace.Span)
		if e.Err != nil {
			span.RecordError(e.Err)
		}
		span.End()
	})

	eventbus.Subscribe(func(ctx context.Context, e events.LedgerCallStart) {
		_, span := s.tracer.Start(s.parent(ctx), "ledger.client")
		span.SetAttributes(
			semconv.RPCServiceKey.String(e.Service),
			semconv.RPCMethodKey.String(e.Method),
			attribute.String("net.peer.name", e.Target),
		)
		s.ledgerSpans.Store(unitKey(ctx), span)
	})

	eventbus.Subscribe(func(ctx context.Context, e events.LedgerCallFinish) {
		v, ok := s.ledgerSpans.LoadAndDelete(unitKey(ctx))
		if !ok {
			return
		}
		span := v.(trace.Span)
		span.SetAttributes(attribute.String("rpc.grpc.code", e.Code.String()))
		if e.Err != nil {
			span.RecordError(e.Err)
		}
		span.End()
	})
}
