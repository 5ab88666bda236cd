/*
Package dsl provides a Go DSL for programmatically constructing Plotline plans.

It allows developers to define forms, tree plans and their branches using a
fluent builder instead of relying on external YAML or JSON files. This is
particularly useful for unit testing and for hosts that generate plans.

Example usage:

	b := dsl.New()

	b.Form("hotel").
		Require("city", "text").
		Require("nights", "int").
		Finish("utter_booked").
		Exit("stop", "utter_stopped")

	b.Tree("onboarding").
		Branches("greet").
		Start("greet").
		Finish("utter_bye")

	b.Branch("greet").
		Do(domain.Invoke("utter_hello"), domain.Ask("name")).
		When("slots.name != nil", domain.Complete())

	// The resulting loader can be passed to plotline.WithLoader(...)
	loader, err := b.Build()
*/
package dsl
