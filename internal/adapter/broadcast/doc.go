// Package broadcast implements the live-update subscriber registry using the actor pattern.
//
// One goroutine owns the subscriber set and processes register, unregister and
// broadcast commands from a channel (no mutexes). Every subscriber gets its own
// writer goroutine with a bounded buffer, so one slow or broken socket never
// blocks delivery to the others. Commands are handled FIFO, which keeps an
// "added" fragment ahead of the "removed" fragment that follows it.
package broadcast
