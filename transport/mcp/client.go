package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/mcp-training/warehouse/game/engine"
	"github.com/wricardo/mcp-training/warehouse/game/service"
)

const (
	ServerName    = "Warehouse Push Simulator"
	ServerVersion = "1.0.0"

	// maxListedSteps caps the per-step trace printed for a bulk call.
	maxListedSteps = 20
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API at baseURL.
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithToolCapabilities(true),
		server.WithInstructions(`Warehouse Push Simulator - MCP Interface

This is a thin client that proxies all requests to the REST API server.

An actor (@) walks a walled warehouse and pushes boxes (O, or [] in doubled
warehouses). A push moves every box in the lane ahead; if any of them would
hit a wall (#) nothing moves at all. The score is the GPS sum: 100*row + col
over every box (left half for [] boxes).

AVAILABLE TOOLS:
- create_session / list_sessions / get_session: manage sessions
- warehouse_state: current grid, actor position and GPS sum
- push: a single push (up/down/left/right or ^ v < >)
- bulk_push: a list of pushes, rejected pushes do not stop the sequence
- run_instructions: a raw instruction stream such as "<^^>\nvv"
- play_script: run the scenario's own instruction stream
- reset_warehouse: restore the initial layout
- push_history: paginated push attempts
- list_configs: available scenarios
- warehouse_rules: the full rules
- describe_cell: what occupies one cell`),
	)

	c.registerTools()
}

func sessionParam() mcp.ToolOption {
	return mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID"))
}

func resetParam() mcp.ToolOption {
	return mcp.WithBoolean("reset", mcp.Description("Restore the initial layout before pushing"))
}

func (c *Client) registerTools() {
	// Sessions
	c.mcpServer.AddTool(mcp.NewTool("create_session",
		mcp.WithDescription("Create a new warehouse session, optionally from a named scenario"),
		mcp.WithString("config_name", mcp.Description("Scenario to load (see list_configs). Defaults to the server default")),
	), c.handleCreateSession)

	c.mcpServer.AddTool(mcp.NewTool("list_sessions",
		mcp.WithDescription("List active warehouse sessions"),
	), c.handleListSessions)

	c.mcpServer.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Get details of a specific session"),
		sessionParam(),
	), c.handleGetSession)

	// Warehouse
	c.mcpServer.AddTool(mcp.NewTool("warehouse_state",
		mcp.WithDescription("Get the current warehouse grid, actor position and GPS sum"),
		sessionParam(),
	), c.handleWarehouseState)

	c.mcpServer.AddTool(mcp.NewTool("push",
		mcp.WithDescription("Push once in a direction. A blocked push is rejected and changes nothing"),
		sessionParam(),
		mcp.WithString("direction",
			mcp.Required(),
			mcp.Enum("up", "down", "left", "right", "^", "v", "<", ">"),
			mcp.Description("Direction to push"),
		),
		mcp.WithString("intent", mcp.Description("Brief explanation of why you are making this push")),
		resetParam(),
	), c.handlePush)

	c.mcpServer.AddTool(mcp.NewTool("bulk_push",
		mcp.WithDescription("Push through a sequence of directions. Rejected pushes are counted and the sequence continues"),
		sessionParam(),
		mcp.WithArray("moves",
			mcp.Required(),
			mcp.Items(map[string]any{"type": "string"}),
			mcp.Description("Directions in order (up/down/left/right or ^ v < >)"),
		),
		mcp.WithString("intent", mcp.Description("Brief explanation of the sequence")),
		resetParam(),
	), c.handleBulkPush)

	c.mcpServer.AddTool(mcp.NewTool("run_instructions",
		mcp.WithDescription("Run a raw instruction stream of ^ v < > characters. Newlines are ignored"),
		sessionParam(),
		mcp.WithString("instructions", mcp.Required(), mcp.Description("Instruction stream")),
		resetParam(),
	), c.handleRunInstructions)

	c.mcpServer.AddTool(mcp.NewTool("play_script",
		mcp.WithDescription("Run the instruction stream bundled with the session's scenario"),
		sessionParam(),
		resetParam(),
	), c.handlePlayScript)

	c.mcpServer.AddTool(mcp.NewTool("reset_warehouse",
		mcp.WithDescription("Restore the warehouse to its initial layout"),
		sessionParam(),
	), c.handleReset)

	c.mcpServer.AddTool(mcp.NewTool("push_history",
		mcp.WithDescription("Get the push history for a session"),
		sessionParam(),
		mcp.WithNumber("page", mcp.Description("Page number"), mcp.Min(1)),
		mcp.WithNumber("limit", mcp.Description("Items per page"), mcp.Min(1)),
		mcp.WithString("order", mcp.Enum("asc", "desc"), mcp.Description("Oldest or newest first")),
	), c.handlePushHistory)

	// Scenarios and rules
	c.mcpServer.AddTool(mcp.NewTool("list_configs",
		mcp.WithDescription("List available warehouse scenarios"),
	), c.handleListConfigs)

	c.mcpServer.AddTool(mcp.NewTool("warehouse_rules",
		mcp.WithDescription("Get the complete push rules and scoring"),
	), c.handleWarehouseRules)

	c.mcpServer.AddTool(mcp.NewTool("describe_cell",
		mcp.WithDescription("Describe a single grid cell, including what a push into it would hit"),
		sessionParam(),
		mcp.WithNumber("row", mcp.Required(), mcp.Description("Row (0-based, 0 is the top)")),
		mcp.WithNumber("col", mcp.Required(), mcp.Description("Column (0-based)")),
	), c.handleDescribeCell)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// apiCall performs a JSON request against the REST API and decodes the
// response into result when it is non-nil.
func (c *Client) apiCall(ctx context.Context, method, path string, body, result any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&errResp) == nil && errResp.Error != "" {
			return fmt.Errorf("%s", errResp.Error)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

type sessionArgs struct {
	SessionID string `json:"session_id"`
}

type pushArgs struct {
	SessionID string `json:"session_id"`
	Direction string `json:"direction"`
	Intent    string `json:"intent,omitempty"`
	Reset     bool   `json:"reset,omitempty"`
}

type bulkPushArgs struct {
	SessionID string   `json:"session_id"`
	Moves     []string `json:"moves"`
	Intent    string   `json:"intent,omitempty"`
	Reset     bool     `json:"reset,omitempty"`
}

type runArgs struct {
	SessionID    string `json:"session_id"`
	Instructions string `json:"instructions"`
	Reset        bool   `json:"reset,omitempty"`
}

type historyArgs struct {
	SessionID string `json:"session_id"`
	Page      int    `json:"page,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	Order     string `json:"order,omitempty"`
}

type cellArgs struct {
	SessionID string `json:"session_id"`
	Row       *int   `json:"row"`
	Col       *int   `json:"col"`
}

func bindSession(request mcp.CallToolRequest) (string, *mcp.CallToolResult) {
	var args sessionArgs
	if err := request.BindArguments(&args); err != nil {
		return "", mcp.NewToolResultErrorFromErr("invalid arguments", err)
	}
	if args.SessionID == "" {
		return "", mcp.NewToolResultError("session_id is required")
	}
	return args.SessionID, nil
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		ConfigName string `json:"config_name"`
	}
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultErrorFromErr("invalid arguments", err), nil
	}

	body := map[string]string{}
	if args.ConfigName != "" {
		body["config_id"] = args.ConfigName
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, http.MethodPost, "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Created session: %s\nConfig: %s\n\n%s",
		session.ID, session.ConfigName, formatGameState(session.GameState))), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}
	if err := c.apiCall(ctx, http.MethodGet, "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		gps := 0
		if s.GameState != nil {
			gps = s.GameState.GPSSum
		}
		fmt.Fprintf(&b, "- %s (Config: %s, GPS: %d, Last used: %s)\n",
			s.ID, s.ConfigName, gps, s.LastAccessedAt.Format("15:04:05"))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, errResult := bindSession(request)
	if errResult != nil {
		return errResult, nil
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, http.MethodGet, sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleWarehouseState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, errResult := bindSession(request)
	if errResult != nil {
		return errResult, nil
	}

	var state engine.GameState
	if err := c.apiCall(ctx, http.MethodGet, sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handlePush(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args pushArgs
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultErrorFromErr("invalid arguments", err), nil
	}
	if args.SessionID == "" || args.Direction == "" {
		return mcp.NewToolResultError("session_id and direction are required"), nil
	}

	body := map[string]any{"direction": args.Direction, "reset": args.Reset}

	var result service.PushResult
	if err := c.apiCall(ctx, http.MethodPost, sessionPath(args.SessionID, "/push"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatPushResult(&result)), nil
}

func (c *Client) handleBulkPush(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args bulkPushArgs
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultErrorFromErr("invalid arguments", err), nil
	}
	if args.SessionID == "" {
		return mcp.NewToolResultError("session_id is required"), nil
	}

	body := map[string]any{"moves": args.Moves, "reset": args.Reset}

	var result service.BulkPushResult
	if err := c.apiCall(ctx, http.MethodPost, sessionPath(args.SessionID, "/bulk-push"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatBulkPushResult(args.SessionID, &result)), nil
}

func (c *Client) handleRunInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args runArgs
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultErrorFromErr("invalid arguments", err), nil
	}
	if args.SessionID == "" {
		return mcp.NewToolResultError("session_id is required"), nil
	}

	body := map[string]any{"instructions": args.Instructions, "reset": args.Reset}

	var result service.BulkPushResult
	if err := c.apiCall(ctx, http.MethodPost, sessionPath(args.SessionID, "/run"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatBulkPushResult(args.SessionID, &result)), nil
}

func (c *Client) handlePlayScript(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		SessionID string `json:"session_id"`
		Reset     bool   `json:"reset,omitempty"`
	}
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultErrorFromErr("invalid arguments", err), nil
	}
	if args.SessionID == "" {
		return mcp.NewToolResultError("session_id is required"), nil
	}

	var result service.BulkPushResult
	body := map[string]any{"reset": args.Reset}
	if err := c.apiCall(ctx, http.MethodPost, sessionPath(args.SessionID, "/play"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatBulkPushResult(args.SessionID, &result)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, errResult := bindSession(request)
	if errResult != nil {
		return errResult, nil
	}

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	if err := c.apiCall(ctx, http.MethodPost, sessionPath(sessionID, "/reset"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))), nil
}

func (c *Client) handlePushHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args historyArgs
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultErrorFromErr("invalid arguments", err), nil
	}
	if args.SessionID == "" {
		return mcp.NewToolResultError("session_id is required"), nil
	}

	query := url.Values{}
	if args.Page > 0 {
		query.Set("page", fmt.Sprint(args.Page))
	}
	if args.Limit > 0 {
		query.Set("limit", fmt.Sprint(args.Limit))
	}
	if args.Order != "" {
		query.Set("order", args.Order)
	}
	path := sessionPath(args.SessionID, "/history")
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, http.MethodGet, path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, http.MethodGet, "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Scenarios:\n\n")
	for _, config := range configs {
		mode := "single"
		if config.Doubled {
			mode = "doubled"
		}
		fmt.Fprintf(&b, "• %s (%s)\n", config.ConfigID, config.Name)
		if config.Description != "" {
			fmt.Fprintf(&b, "  %s\n", config.Description)
		}
		fmt.Fprintf(&b, "  Grid: %dx%d %s, Boxes: %d, Script: %v\n\n",
			config.Rows, config.Cols, mode, config.Boxes, config.HasInstructions)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleWarehouseRules(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(rulesText), nil
}

const rulesText = `Warehouse Push Simulator - Rules

GRID LEGEND:
• @ - the actor (exactly one)
• # - wall (never moves)
• O - a single box
• [ ] - the two halves of a wide box (doubled warehouses only)
• . - empty floor

PUSHING:
• Every push moves the actor one cell in a direction: up (^), down (v), left (<), right (>).
• The actor pushes the whole lane of boxes in front of it.
• If any box in the lane would move into a wall, the push is rejected and NOTHING moves.
• A rejected push still counts as an attempt and is recorded in the history.

WIDE BOXES:
• In a doubled warehouse each tile is two cells wide: # becomes ##, O becomes [], . becomes .. and @ becomes @.
• Pushing a [] sideways moves it like two boxes in a row.
• Pushing a [] up or down moves both halves, and every box either half touches, fanning out.
• If any cell of that fan is blocked, the entire push is rejected.

SCORE:
• GPS coordinate of a box = 100 * row + col (for [] boxes, use the [ cell).
• The GPS sum is the total over all boxes. Row 0 is the top wall.

INSTRUCTION STREAMS:
• run_instructions accepts ^ v < > characters. Newlines are ignored.
• Any other character rejects the whole stream before anything is applied.
• play_script runs the stream bundled with the scenario.

TIPS:
• Use describe_cell to check what a push in each direction would hit.
• Use bulk_push or run_instructions rather than many single pushes.
• reset: true restores the initial layout before pushing.`

// directions lists every push direction in a stable order.
var directions = []engine.Delta{engine.Up, engine.Down, engine.Left, engine.Right}

func (c *Client) handleDescribeCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args cellArgs
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultErrorFromErr("invalid arguments", err), nil
	}
	if args.SessionID == "" || args.Row == nil || args.Col == nil {
		return mcp.NewToolResultError("session_id, row and col are required"), nil
	}

	var state engine.GameState
	if err := c.apiCall(ctx, http.MethodGet, sessionPath(args.SessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if state.Grid == nil {
		return mcp.NewToolResultError("session has no grid"), nil
	}

	pos := engine.Position{Row: *args.Row, Col: *args.Col}
	kind, ok := state.Grid.Get(pos)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("Cell (%d, %d) is out of bounds. Grid is %d rows x %d cols",
			pos.Row, pos.Col, state.Grid.Rows(), state.Grid.Cols())), nil
	}

	return mcp.NewToolResultText(describeCell(&state, pos, kind)), nil
}

func describeCell(state *engine.GameState, pos engine.Position, kind engine.CellKind) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Cell at row %d, col %d:\n", pos.Row, pos.Col)
	fmt.Fprintf(&b, "Character: %c\nKind: %s\n", kind.Rune(), kind)

	switch kind {
	case engine.Wall:
		b.WriteString("Walls never move. Any push whose lane reaches this cell is rejected.\n")
	case engine.Empty:
		b.WriteString("Empty floor. The actor or a box can move here.\n")
	case engine.Movable:
		fmt.Fprintf(&b, "Box. GPS coordinate: %d\n", 100*pos.Row+pos.Col)
	case engine.PairLeft:
		fmt.Fprintf(&b, "Left half of a wide box; its partner is at col %d. GPS coordinate: %d\n",
			pos.Col+1, 100*pos.Row+pos.Col)
	case engine.PairRight:
		fmt.Fprintf(&b, "Right half of a wide box; its partner is at col %d (which carries the GPS coordinate)\n", pos.Col-1)
	case engine.Actor:
		b.WriteString("The actor. Pushes from here:\n")
		for _, d := range directions {
			scan := engine.Scan(state.Grid, pos, d)
			verdict := "rejected"
			if scan.Feasible {
				verdict = fmt.Sprintf("commits, moving %d box cells", len(scan.Moves))
			} else if scan.BlockedAt != nil {
				verdict = fmt.Sprintf("rejected, %s at (%d,%d)", scan.Blocker, scan.BlockedAt.Row, scan.BlockedAt.Col)
			}
			fmt.Fprintf(&b, "  %-5s %s %s\n", d.Name(), d.Symbol(), verdict)
		}
	}
	return b.String()
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nConfig: %s\nCreated: %s\nLast used: %s\n\n%s",
		session.ID, session.ConfigName,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		session.LastAccessedAt.Format("2006-01-02 15:04:05"),
		formatGameState(session.GameState))
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No warehouse state available"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Actor: (%d,%d) | GPS: %d | Committed: %d | Rejected: %d | Pushes: %d\n",
		state.ActorPos.Row, state.ActorPos.Col,
		state.GPSSum, state.Committed, state.Rejected, state.TotalMoves)
	if state.Doubled {
		b.WriteString("Mode: doubled\n")
	}
	b.WriteString("\n")

	if len(state.LocalView3x3) == 3 {
		b.WriteString("Local 3x3:\n")
		for _, line := range state.LocalView3x3 {
			b.WriteString(line + "\n")
		}
		b.WriteString("\n")
	}

	if state.Grid != nil {
		b.WriteString(state.Grid.String())
	}

	if state.Message != "" {
		fmt.Fprintf(&b, "\nMessage: %s", state.Message)
	}
	return b.String()
}

func outcomeMark(outcome engine.Outcome) string {
	if outcome == engine.Committed {
		return "✓"
	}
	return "✗"
}

func formatPushResult(result *service.PushResult) string {
	var b strings.Builder
	if result.Outcome == engine.Committed {
		b.WriteString("✓ Push committed\n")
	} else {
		b.WriteString("✗ Push rejected\n")
	}

	if s := result.Step; s != nil {
		fmt.Fprintf(&b, "Step: %s (%d,%d)→(%d,%d) cells moved=%d gps=%d %s\n",
			s.Dir, s.From.Row, s.From.Col, s.To.Row, s.To.Col, s.CellsMoved, s.GPSAfter, outcomeMark(s.Outcome))
	}
	if blk := result.BlockedBy; blk != nil {
		fmt.Fprintf(&b, "Blocked by %s '%s' at (%d,%d)\n", blk.Kind, blk.Char, blk.Row, blk.Col)
	}

	if len(result.Events) > 0 {
		b.WriteString("Events:\n")
		for _, event := range result.Events {
			fmt.Fprintf(&b, "- %s: %s\n", event.Type, event.Message)
		}
	}

	b.WriteString("\n" + formatGameState(result.GameState))
	return b.String()
}

func formatBulkPushResult(sessionID string, result *service.BulkPushResult) string {
	var b strings.Builder

	configName := ""
	if result.GameState != nil {
		configName = result.GameState.ConfigName
	}
	fmt.Fprintf(&b, "Session: %s • Config: %s\n", sessionID, configName)
	fmt.Fprintf(&b, "Pushes: %d requested, %d committed, %d rejected\n",
		result.RequestedPushes, result.Committed, result.Rejected)
	fmt.Fprintf(&b, "GPS: %d → %d (%+d)\n", result.StartGPS, result.EndGPS, result.GPSDelta)
	if result.Truncated {
		fmt.Fprintf(&b, "Truncated at %d pushes\n", result.Limit)
	}

	if result.FirstRejectedOn > 0 {
		fmt.Fprintf(&b, "First rejection on push %d", result.FirstRejectedOn)
		if blk := result.BlockedBy; blk != nil {
			fmt.Fprintf(&b, ": %s '%s' at (%d,%d)", blk.Kind, blk.Char, blk.Row, blk.Col)
		}
		b.WriteString("\n")
	}

	if len(result.Steps) > 0 {
		steps := result.Steps
		if len(steps) > maxListedSteps {
			steps = steps[len(steps)-maxListedSteps:]
			fmt.Fprintf(&b, "\nLast %d steps:\n", maxListedSteps)
		} else {
			b.WriteString("\nSteps:\n")
		}
		for _, s := range steps {
			fmt.Fprintf(&b, "%d. %s (%d,%d)→(%d,%d) moved=%d gps=%d %s\n",
				s.Idx, s.Dir, s.From.Row, s.From.Col, s.To.Row, s.To.Col, s.CellsMoved, s.GPSAfter, outcomeMark(s.Outcome))
		}
	}

	if len(result.PossibleMoves) > 0 {
		fmt.Fprintf(&b, "\nPossible pushes: %s\n", strings.Join(result.PossibleMoves, ","))
	}
	if result.Message != "" {
		fmt.Fprintf(&b, "%s\n", result.Message)
	}

	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Push History (Page %d/%d), Total: %d\n\n",
		history.Page, history.TotalPages, history.TotalMoves)

	for _, move := range history.Moves {
		fmt.Fprintf(&b, "%d. %s %s (%d,%d)→(%d,%d) moved=%d %s\n",
			move.MoveNumber, move.Action, move.Symbol,
			move.FromPosition.Row, move.FromPosition.Col,
			move.ToPosition.Row, move.ToPosition.Col,
			move.CellsMoved, outcomeMark(move.Outcome))
	}
	if len(history.Moves) == 0 {
		b.WriteString("(no pushes yet)\n")
	}
	return b.String()
}
