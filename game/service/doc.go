// Package service provides the business logic layer for the warehouse simulator.
//
// The service package implements:
//   - Multi-session warehouse management
//   - Single pushes, bulk pushes and instruction streams
//   - Scenario loading and saving through a ConfigManager
//   - Paginated push history
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages scenario loading and validation.
//
// Architecture:
//
// The service layer sits between the transports (HTTP, WebSocket, MCP) and
// the engine. Access to every engine is serialized by the service mutex, so
// each simulation stays single-writer even when many clients share a server.
// Every call opens an OpenTelemetry span; events carry UUIDv7 identifiers so
// they sort by creation time.
//
// Bulk operations parse their whole input before pushing anything: a
// malformed direction or instruction character returns ErrInvalidMoves and
// leaves the session untouched. Rejected pushes do not stop a sequence.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr)
//
//	info, err := gameService.CreateSession(ctx, "reference")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.PlayScript(ctx, info.ID, false)
//	fmt.Println(result.EndGPS)
package service
