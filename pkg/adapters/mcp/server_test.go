package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/aretw0/plotline"
	"github.com/aretw0/plotline/pkg/adapters/memory"
	"github.com/aretw0/plotline/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	loader := memory.NewLoader(domain.FormDefinition(domain.SimpleFormDefinition{
		Name:          "hotel",
		RequiredSlots: map[string]string{"city": "text"},
		FinishAction:  "utter_booked",
	}))
	eng, err := plotline.New(plotline.WithLoader(loader))
	require.NoError(t, err)
	return NewServer(eng)
}

// call sends a JSON-RPC tools/call request and returns the marshaled response.
func call(t *testing.T, s *Server, tool string, args map[string]any) string {
	t.Helper()
	params, err := json.Marshal(map[string]any{"name": tool, "arguments": args})
	require.NoError(t, err)
	msg := fmt.Sprintf(`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":%s}`, params)

	resp := s.MCPServer().HandleMessage(context.Background(), json.RawMessage(msg))
	out, err := json.Marshal(resp)
	require.NoError(t, err)
	return string(out)
}

func TestServer_ListTools(t *testing.T) {
	s := newTestServer(t)

	resp := s.MCPServer().HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	out, err := json.Marshal(resp)
	require.NoError(t, err)

	for _, name := range []string{"list_plans", "describe_plan", "turn", "inspect_session"} {
		assert.Contains(t, string(out), `"name":"`+name+`"`)
	}
}

func TestServer_PlanTools(t *testing.T) {
	s := newTestServer(t)

	out := call(t, s, "list_plans", nil)
	assert.Contains(t, out, `[\"hotel\"]`)

	out = call(t, s, "describe_plan", map[string]any{"name": "hotel"})
	assert.Contains(t, out, "utter_ask_city")
	assert.NotContains(t, out, `"isError":true`)

	out = call(t, s, "describe_plan", map[string]any{"name": "castle"})
	assert.Contains(t, out, `"isError":true`)
	assert.Contains(t, out, "unknown plan")
}

func TestServer_TurnAndInspect(t *testing.T) {
	s := newTestServer(t)

	res, err := s.handleTurn(context.Background(), mcp.CallToolRequest{}, TurnArgs{
		SessionID: "s1",
		Intent:    "book",
		Plan:      "hotel",
	})
	require.NoError(t, err)
	require.Len(t, res.Actions, 2)
	assert.Equal(t, domain.ActionActivatePlan, res.Actions[0].Action)
	assert.Equal(t, "utter_ask_city", res.Actions[1].Action)

	out := call(t, s, "turn", map[string]any{
		"session_id": "s1",
		"intent":     "inform",
		"slots":      map[string]any{"city": "Porto"},
	})
	assert.Contains(t, out, "utter_booked")

	out = call(t, s, "inspect_session", map[string]any{"session_id": "s1"})
	assert.Contains(t, out, "Porto")

	out = call(t, s, "inspect_session", map[string]any{"session_id": "nobody"})
	assert.Contains(t, out, `"isError":true`)

	_, err = s.handleTurn(context.Background(), mcp.CallToolRequest{}, TurnArgs{Intent: "book"})
	assert.Error(t, err)
}

func TestServer_PlansResource(t *testing.T) {
	s := newTestServer(t)

	msg := fmt.Sprintf(`{"jsonrpc":"2.0","id":1,"method":"resources/read","params":{"uri":%q}}`, PlansURI)
	resp := s.MCPServer().HandleMessage(context.Background(), json.RawMessage(msg))
	out, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(out), `\"name\":\"hotel\"`)
	assert.Contains(t, string(out), `\"kind\":\"SimpleForm\"`)
}
