// Package telemetry exposes Prometheus metrics and OpenTelemetry spans for
// connections speaking the protocol.
//
// Metrics are registered once per Metrics value:
//
//	m := telemetry.NewMetrics(telemetry.WithNamespace("lobby"))
//	m.FrameDecoded(protocol.StateLogin, len(frame.Body))
//
// Every method on a nil *Metrics or *Tracer is a no-op, so callers never
// need to check whether telemetry is configured.
package telemetry
