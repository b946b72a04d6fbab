// Package service owns the process-wide text generator and coordinates its
// lifecycle for the HTTP layer. It is structured into small files by concern:
//
//   - holder.go: Holder, the once-initialized generator slot.
//   - service.go: Service, Start/Generate/Ready/Close.
//   - config.go: Options and package defaults; New applies defaults.
//   - types.go: State, Snapshot, GenerationRequest/Result.
//   - status.go: Status/Snapshot reporting helpers.
//   - events.go: lifecycle events and publishers.
//   - metrics.go: Prometheus generation metrics.
//
// External packages should go through Service; the Generator itself is only
// reachable via Holder for one-shot callers like the CLI.
package service
