// Package role resolves effective permission sets over a single-parent
// role inheritance graph.
//
// Roles are plain records looked up through a [Source]; resolution is a
// pure bounded walk computed fresh per call, so permission edits propagate
// to newly issued tokens immediately. The walk maintains a visited set and
// rejects cycles rather than truncating them, and cross-realm inheritance
// is rejected at edit time via [Graph.ValidateParent].
package role
