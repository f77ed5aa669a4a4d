// Codechat is a cost-governed LLM gateway for coding agents.
//
// It routes each task to a model tier based on complexity, enforces
// persistent per-identity and global quotas backed by SQLite, and tracks
// daily spend against a configurable budget.
//
// Usage:
//
//	# Start the HTTP gateway with default configuration
//	codechat run
//
//	# Ask a one-shot question from the terminal
//	codechat ask "why does this test flake?" --role reviewer
//
//	# Show today's usage and remaining quota
//	codechat status
//
//	# Reset today's counters
//	codechat reset
//
//	# Show version information
//	codechat version
package main

func main() {
	Execute()
}
