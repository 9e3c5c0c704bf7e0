package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/abhisek/fintutor/internal/logger"
	"github.com/abhisek/fintutor/internal/store"
)

// EventRecorder persists one row per model call.
type EventRecorder interface {
	AppendLLMRequest(ctx context.Context, data store.LLMRequestEventData) error
}

// LoggingProvider records every call as an llm_request_events row and a
// trace span, labelled with the request's purpose and session.
type LoggingProvider struct {
	inner  Provider
	events EventRecorder
	log    *logger.Logger
	tracer trace.Tracer
}

// WithLogging wraps p. A nil log discards recording failures.
func WithLogging(p Provider, events EventRecorder, log *logger.Logger) Provider {
	if log == nil {
		log = logger.Nop()
	}
	return &LoggingProvider{
		inner:  p,
		events: events,
		log:    log,
		tracer: otel.Tracer("github.com/abhisek/fintutor/internal/llm"),
	}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	name := ProviderName(l.inner)
	ctx, span := l.tracer.Start(ctx, "llm.generate", trace.WithAttributes(
		attribute.String("llm.provider", name),
		attribute.String("llm.model", l.inner.ModelID()),
		attribute.String("llm.purpose", string(req.Purpose)),
		attribute.String("llm.session_id", req.SessionID),
		attribute.Int("llm.messages", len(req.Messages)),
	))
	defer span.End()

	start := time.Now()
	resp, err := l.inner.Generate(ctx, req)

	data := store.LLMRequestEventData{
		Provider:    name,
		Model:       l.inner.ModelID(),
		Purpose:     string(req.Purpose),
		SessionID:   req.SessionID,
		LatencyMs:   time.Since(start).Milliseconds(),
		Success:     err == nil,
		RequestBody: transcript(req),
	}
	if resp != nil {
		data.InputTokens = resp.Usage.InputTokens
		data.OutputTokens = resp.Usage.OutputTokens
		if resp.Model != "" {
			data.Model = resp.Model
		}
		data.ResponseBody = resp.Text
		span.SetAttributes(
			attribute.Int("llm.input_tokens", resp.Usage.InputTokens),
			attribute.Int("llm.output_tokens", resp.Usage.OutputTokens),
			attribute.Bool("llm.truncated", resp.Truncated),
		)
	}
	if err != nil {
		kind := KindOf(err)
		data.FailureKind = string(kind)
		data.ErrorMessage = err.Error()
		span.SetAttributes(attribute.String("llm.failure_kind", string(kind)))
		span.RecordError(err)
		span.SetStatus(codes.Error, string(kind))
	}

	// Recording never fails the call; canceled calls are still recorded.
	if logErr := l.events.AppendLLMRequest(context.WithoutCancel(ctx), data); logErr != nil {
		l.log.Warn("failed to record llm request event", "purpose", req.Purpose, "error", logErr)
	}
	return resp, err
}

func (l *LoggingProvider) ModelID() string { return l.inner.ModelID() }

func (l *LoggingProvider) Name() string { return ProviderName(l.inner) }

// transcript renders req as readable text for the event log.
func transcript(req Request) string {
	var b strings.Builder
	if req.System != "" {
		fmt.Fprintf(&b, "[system]\n%s\n\n", req.System)
	}
	for _, m := range req.Messages {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", m.Role, m.Content)
	}
	return b.String()
}
