package fastpack

import (
	"context"
	"time"

	"github.com/zoobzio/capitan"
)

// Signals for codec events.
var (
	SignalProcessorCreated  = capitan.NewSignal("fastpack.processor.created", "Processor instantiated")
	SignalPackComplete      = capitan.NewSignal("fastpack.pack.complete", "Pack operation finished")
	SignalUnpackComplete    = capitan.NewSignal("fastpack.unpack.complete", "Unpack operation finished")
	SignalStreamComplete    = capitan.NewSignal("fastpack.stream.complete", "Stream operation finished")
	SignalRegistered        = capitan.NewSignal("fastpack.registry.registered", "Record type registered")
	SignalRegistryCleared   = capitan.NewSignal("fastpack.registry.cleared", "Registry cleared")
	SignalRecordFallback    = capitan.NewSignal("fastpack.record.fallback", "Unregistered record decoded as map")
	SignalAcceleratorMissed = capitan.NewSignal("fastpack.accelerator.missed", "Accelerator declined a value")
)

// Keys for typed event data.
var (
	KeyOperation = capitan.NewStringKey("operation")
	KeyTypeName  = capitan.NewStringKey("type_name")
	KeyNamespace = capitan.NewStringKey("namespace")
	KeyName      = capitan.NewStringKey("name")
	KeySize      = capitan.NewIntKey("size")
	KeyCount     = capitan.NewIntKey("count")
	KeyDuration  = capitan.NewDurationKey("duration")
	KeyError     = capitan.NewErrorKey("error")
)

// emitProcessorCreated emits an event when a processor is created.
func emitProcessorCreated(ctx context.Context, entries int, accelerated bool) {
	op := "full"
	if accelerated {
		op = "accelerated"
	}
	capitan.Emit(ctx, SignalProcessorCreated,
		KeyOperation.Field(op),
		KeyCount.Field(entries),
	)
}

// emitPackComplete emits an event when a pack finishes.
func emitPackComplete(ctx context.Context, typeName string, size int, duration time.Duration, err error) {
	fields := []capitan.Field{
		KeyTypeName.Field(typeName),
		KeySize.Field(size),
		KeyDuration.Field(duration),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalPackComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalPackComplete, fields...)
	}
}

// emitUnpackComplete emits an event when an unpack finishes.
func emitUnpackComplete(ctx context.Context, size int, duration time.Duration, err error) {
	fields := []capitan.Field{
		KeySize.Field(size),
		KeyDuration.Field(duration),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalUnpackComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalUnpackComplete, fields...)
	}
}

// emitStreamComplete emits an event when a multi-value operation finishes.
func emitStreamComplete(ctx context.Context, operation string, count, size int, duration time.Duration, err error) {
	fields := []capitan.Field{
		KeyOperation.Field(operation),
		KeyCount.Field(count),
		KeySize.Field(size),
		KeyDuration.Field(duration),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalStreamComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalStreamComplete, fields...)
	}
}

// emitRegistered emits an event when a record type is registered.
func emitRegistered(ctx context.Context, id Identity, typeName string) {
	capitan.Emit(ctx, SignalRegistered,
		KeyNamespace.Field(id.Namespace),
		KeyName.Field(id.Name),
		KeyTypeName.Field(typeName),
	)
}

// emitRegistryCleared emits an event when the registry is emptied.
func emitRegistryCleared(ctx context.Context, removed int) {
	capitan.Emit(ctx, SignalRegistryCleared,
		KeyCount.Field(removed),
	)
}

// emitRecordFallback emits an event when a record decodes without a registered type.
func emitRecordFallback(ctx context.Context, id Identity) {
	capitan.Emit(ctx, SignalRecordFallback,
		KeyNamespace.Field(id.Namespace),
		KeyName.Field(id.Name),
	)
}

// emitAcceleratorMissed emits an event when the accelerator hands a value back.
func emitAcceleratorMissed(ctx context.Context, operation string) {
	capitan.Emit(ctx, SignalAcceleratorMissed,
		KeyOperation.Field(operation),
	)
}
