// Package mcp exposes a Plotline engine as a Model Context Protocol server.
//
// Tools: list_plans, describe_plan, turn and inspect_session.
// Resources: plotline://plans.
package mcp
