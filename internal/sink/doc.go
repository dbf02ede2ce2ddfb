// Package sink provides outputs for a multivibrator.
//
// Connector is the in-process observable value that downstream components
// read and subscribe to. Tee mirrors one output to several sinks. MQTT and
// GPIO forward the output to a broker topic and to a hardware line. Recorder
// keeps the full history and is meant for tests and diagnostics.
package sink
