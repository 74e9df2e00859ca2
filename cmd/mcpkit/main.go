// Command mcpkit is the CLI for running, checking, and distributing
// sandboxed MCP server modules.
package main

func main() {
	Execute()
}
