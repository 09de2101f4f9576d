// Package model defines the provider agnostic boundary between the tool calling
// client and concrete language model backends.
//
// Core goals:
//   - Keep request/response shapes minimal and transport independent
//   - Normalize tool call representation across vendors (ToolCall)
//   - Carry the monetary cost of a call, or nil when the backend cannot price it
//   - Facilitate lightweight mocking for tests and offline runs (MockBackend)
//
// Providers (see the openai and anthropic subpackages) implement Backend so the
// client and agents remain decoupled from vendor SDKs.
package model
