package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	bookhttp "github.com/jgbooks/bookstore/go/http"
)

// Tool names
const (
	ToolListItems        = "list_items"
	ToolWalletState      = "wallet_state"
	ToolPendingPurchases = "pending_purchases"
	ToolPurchaseItem     = "purchase_item"
	ToolClaimTokens      = "claim_tokens"
	ToolSetItemMetadata  = "set_item_metadata"
	ToolAdminCommand     = "admin_command"
)

// Options configures the MCP server
type Options struct {
	Name    string
	Version string
	Logger  *slog.Logger

	// ReadOnly hides every tool that submits a transaction or writes metadata
	ReadOnly bool
}

// ToolHandler serves one tool call with its raw JSON arguments
type ToolHandler func(ctx context.Context, args []byte) bookhttp.Response

type toolSpec struct {
	name        string
	description string
	schema      []byte
	mutating    bool
	handler     ToolHandler
}

// NewServer creates an MCP server whose tools call svc.
func NewServer(svc *bookhttp.Service, options Options) *mcpsdk.Server {
	if options.Name == "" {
		options.Name = "bookstore"
	}
	if options.Version == "" {
		options.Version = "1.0.0"
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	server := mcpsdk.NewServer(&mcpsdk.Implementation{
		Name:    options.Name,
		Version: options.Version,
	}, nil)

	for _, spec := range tools(svc) {
		if options.ReadOnly && spec.mutating {
			continue
		}
		server.AddTool(&mcpsdk.Tool{
			Name:        spec.name,
			Description: spec.description,
			InputSchema: json.RawMessage(spec.schema),
		}, wrap(spec, options.Logger))
	}
	return server
}

// SSEHandler serves server over the SSE transport.
func SSEHandler(server *mcpsdk.Server) http.Handler {
	return mcpsdk.NewSSEHandler(func(*http.Request) *mcpsdk.Server {
		return server
	}, &mcpsdk.SSEOptions{})
}

func tools(svc *bookhttp.Service) []toolSpec {
	return []toolSpec{
		{
			name:        ToolListItems,
			description: "List every tracked item with its name, prices, ownership and pending purchase",
			schema:      bookhttp.SchemaEmpty,
			handler: func(context.Context, []byte) bookhttp.Response {
				return svc.Catalog()
			},
		},
		{
			name:        ToolWalletState,
			description: "Show the connected caller, token balance, owned items and whether the caller is the store admin",
			schema:      bookhttp.SchemaEmpty,
			handler: func(context.Context, []byte) bookhttp.Response {
				return svc.State()
			},
		},
		{
			name:        ToolPendingPurchases,
			description: "List purchases that are still waiting for confirmation",
			schema:      bookhttp.SchemaEmpty,
			handler: func(context.Context, []byte) bookhttp.Response {
				return svc.Pending()
			},
		},
		{
			name:        ToolPurchaseItem,
			description: "Buy an item with the native currency or with the token. Token purchases approve the store first when the allowance is too low",
			schema:      bookhttp.SchemaPurchase,
			mutating:    true,
			handler:     svc.Purchase,
		},
		{
			name:        ToolClaimTokens,
			description: "Claim test tokens from the token faucet",
			schema:      bookhttp.SchemaEmpty,
			mutating:    true,
			handler: func(ctx context.Context, _ []byte) bookhttp.Response {
				return svc.Claim(ctx)
			},
		},
		{
			name:        ToolSetItemMetadata,
			description: "Save a display name for an item and start tracking it",
			schema:      bookhttp.SchemaMetadata,
			mutating:    true,
			handler:     svc.SaveMetadata,
		},
		{
			name:        ToolAdminCommand,
			description: "Run a store admin command: set_price, withdraw_native, withdraw_token or set_token_contract",
			schema:      bookhttp.SchemaAdmin,
			mutating:    true,
			handler:     svc.Admin,
		},
	}
}

func wrap(spec toolSpec, logger *slog.Logger) mcpsdk.ToolHandler {
	return func(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
		args := req.Params.Arguments
		if len(args) == 0 || string(args) == "null" {
			args = json.RawMessage(`{}`)
		}

		resp := spec.handler(ctx, args)
		if resp.Status >= http.StatusBadRequest {
			logger.Warn("mcp tool failed", slog.String("tool", spec.name), slog.Int("status", resp.Status))
		}
		return toResult(resp)
	}
}

func toResult(resp bookhttp.Response) (*mcpsdk.CallToolResult, error) {
	text, err := json.Marshal(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tool result: %w", err)
	}
	return &mcpsdk.CallToolResult{
		IsError: resp.Status >= http.StatusBadRequest,
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(text)},
		},
	}, nil
}
