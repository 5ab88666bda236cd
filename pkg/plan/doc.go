/*
Package plan implements the plan interpreters that decide a conversational agent's
next action while a multi-step plan is active.

Two variants are provided:

  - TreePlan walks a graph of Branches. Each branch produces a queue of
    instructions (enter another branch, invoke an action, ask for a slot, quit,
    mark complete) which the plan consumes one decision at a time.
  - SimpleForm collects slots. The set of required slots is recomputed on every
    decision from the declared requirement rules and the current slot values.

Both variants share the same guard sequence, so a user can always leave a plan
(exit intents) or talk around it (chitchat and details intents) regardless of
where the interpreter sits.

Plans are stateful and belong to exactly one conversation. A Catalog builds a
fresh instance for each activation; ActivateAction and CompleteAction produce
the lifecycle events that install and remove it.
*/
package plan
