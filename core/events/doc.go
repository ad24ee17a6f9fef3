// Package events defines the simulation events emitted on the event bus.
//
// Available event types:
//   - RunEvent: run started or finished
//   - ShortfallEvent: missed load, firm dispatch or spinning reserve at a timestep
//   - ReplacementEvent: electrolyzer or fuel cell replaced after degradation
package events
