/*
Package plotline is a plan execution engine for conversational agents.

A plan is a small program that, given the state of a conversation, decides the
next action the agent should take. Plotline ships two kinds of plans:

  - TreePlan: a graph of branches. Each branch emits opcodes (enter another
    branch, invoke an action, ask for a slot, quit, mark complete) that the
    plan interprets one decision at a time.
  - SimpleForm: a slot-filling form whose required slots grow and shrink with
    declarative rules over slot values.

Both honour the same interception guards (exit intents, chitchat intents and
clarification requests) and are activated and completed through lifecycle
actions that write the active_plan and plan_complete slots.

# Usage

Load definitions from a directory of Markdown/YAML documents (Loam) or from a
YAML/JSON bundle file, then drive conversations one turn at a time:

	eng, err := plotline.New(plotline.WithDefinitionsFile("plans.yaml"))
	if err != nil {
		log.Fatal(err)
	}

	res, err := eng.Turn(ctx, "session-123", domain.TurnInput{
		Intent: "book_hotel",
		Plan:   "hotel",
	})
	if err != nil {
		log.Fatal(err)
	}
	for _, a := range res.Actions {
		fmt.Println(a.Action) // utter_ask_city
	}

Hosts that run their own dialogue loop can use Decide and Execute directly
with a tracker.Conversation, or embed pkg/plan without the engine at all.
*/
package plotline
