// Package tools defines the tool contract for LLM agents: typed and validated input,
// a single execution function, a uniform success/failure result envelope,
// and the Registry used by the orchestration loop to dispatch tool calls by name.
package tools
