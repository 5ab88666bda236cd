/*
Package loam loads plan definitions from a Loam repository of Markdown,
YAML and JSON documents.

A plan document carries its definition in frontmatter and its description
in the body:

	---
	type: SimpleForm
	name: hotel
	finish_action: utter_booked
	required_slots:
	  city: text
	  nights: int
	---
	Books a hotel room.

Branch documents set `kind: branch` and list guarded steps; action
documents set `kind: actions` and list extra action names.
*/
package loam
