// Package alert provides [slotwatch.AlertSink] implementations.
//
// A [Pulser] repeats a short signal such as the terminal bell, [Log] writes
// the matches to a logger, [Ntfy] pushes a notification to an ntfy topic and
// [Email] sends an HTML summary over SMTP. [Multi] fans one alert out to
// several sinks.
//
// Every sink returns from Trigger immediately and does its work in the
// background, so a slow notification service never delays result
// processing.
package alert
