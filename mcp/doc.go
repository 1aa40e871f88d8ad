// Package mcp exposes a bookstore client as MCP (Model Context Protocol) tools.
//
// Tools return the same JSON bodies as the HTTP API and flag failures with
// IsError, so an agent sees the error code of a refused purchase or admin
// command.
//
// # Usage
//
//	import (
//	    bookhttp "github.com/jgbooks/bookstore/go/http"
//	    "github.com/jgbooks/bookstore/go/mcp"
//	)
//
//	svc := bookhttp.NewService(client)
//	server := mcp.NewServer(svc, mcp.Options{Version: "1.0.0"})
//	mux.Handle("/sse", mcp.SSEHandler(server))
//	mux.Handle("/messages", mcp.SSEHandler(server))
package mcp
