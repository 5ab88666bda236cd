/*
Package domain contains the core data model of the plotline plan engine.

It defines the values that flow between plans, hosts and adapters, and is kept
free of I/O so that every other package can depend on it.

# Key Entities

  - Instruction: a tagged opcode emitted by a branch (enter branch, invoke action,
    ask slot, quit plan, plan complete).
  - PlanDefinition: the declarative field set of a TreePlan or SimpleForm, with
    YAML/JSON codecs keyed on the "type" discriminator.
  - BranchDefinition: a branch authored as data, made of guarded steps.
  - ConversationSnapshot / PlanSnapshot: the persisted form of a session.
  - LifecycleHooks: observability callbacks for decisions and plan lifecycle.
*/
package domain
