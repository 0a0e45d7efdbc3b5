package tracing

import (
	"context"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/dixel/internal/chain"
)

// Span attribute keys.
const (
	AttrOperation  = "dixel.operation"
	AttrTxID       = "tx.id"
	AttrSender     = "tx.sender"
	AttrTarget     = "tx.target"
	AttrValue      = "tx.value"
	AttrEventCount = "tx.events"
	AttrDirtyCount = "tx.dirty_accounts"
	AttrRevertKind = "revert.kind"
	AttrRevertCode = "revert.code"
	AttrEmitter    = "event.emitter"
	AttrStoreTable = "store.table"
	AttrStoreRows  = "store.rows"
)

// Span name prefixes.
const (
	SpanPrefixTx    = "tx."
	SpanPrefixStore = "store."
)

// Span event names.
const (
	EventReverted  = "tx.reverted"
	EventCommitted = "tx.committed"
	EventPrefix    = "event."
)

// Transaction runs a chain transaction inside a span named after op and
// records its outcome: the revert reason on failure, the emitted events on
// success.
func Transaction(ctx context.Context, tracer trace.Tracer, op string, call chain.Call, run func(ctx context.Context) (*chain.Receipt, error)) (*chain.Receipt, error) {
	ctx, span := tracer.Start(ctx, SpanPrefixTx+op, trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	span.SetAttributes(
		attribute.String(AttrOperation, op),
		attribute.String(AttrSender, call.From.String()),
		attribute.String(AttrTarget, call.To.String()),
		attribute.String(AttrValue, strconv.FormatUint(call.Value, 10)),
	)

	receipt, err := run(ctx)
	if err != nil {
		if r, ok := chain.AsRevert(err); ok {
			span.AddEvent(EventReverted, trace.WithAttributes(
				attribute.String(AttrRevertKind, r.Kind.String()),
				attribute.String(AttrRevertCode, r.Code),
			))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.String(AttrTxID, receipt.TxID),
		attribute.Int(AttrEventCount, len(receipt.Events)),
		attribute.Int(AttrDirtyCount, len(receipt.Dirty)),
	)
	for _, ev := range receipt.Events {
		span.AddEvent(EventPrefix+ev.Name, trace.WithAttributes(attribute.String(AttrEmitter, ev.Emitter.String())))
	}
	span.AddEvent(EventCommitted)
	span.SetStatus(codes.Ok, "")
	return receipt, nil
}

// StartStore opens a child span for a storage call.
func StartStore(ctx context.Context, tracer trace.Tracer, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, SpanPrefixStore+name, trace.WithAttributes(attrs...))
}

// End closes span, marking it failed when err is non-nil.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
