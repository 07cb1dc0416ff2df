// Package mcp exposes the warehouse simulator to AI agents over the Model
// Context Protocol.
//
// Client is a thin proxy: every tool call becomes a REST request against the
// api package, so stdio and HTTP MCP transports see exactly the same state as
// REST and websocket clients.
//
// Tools:
//   - create_session, list_sessions, get_session
//   - warehouse_state, describe_cell
//   - push, bulk_push, run_instructions, play_script, reset_warehouse
//   - push_history, list_configs, warehouse_rules
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
