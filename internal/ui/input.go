package ui

import (
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"
)

const inputBase = "input flex h-9 w-full rounded-md border bg-white px-3 py-2 text-sm shadow-sm outline-none placeholder:text-neutral-400 focus:ring-1 disabled:cursor-not-allowed disabled:opacity-50"

type InputProps struct {
	ID    string
	Name  string
	Type  string // defaults to "text"
	Value string
	Class string
	// Disabled inputs are left out of form submission by the browser.
	Disabled bool
}

func Input(p InputProps, children ...g.Node) g.Node {
	typ := p.Type
	if typ == "" {
		typ = "text"
	}
	return h.Input(
		h.Type(typ),
		h.Class(cn(inputBase, p.Class)),
		g.If(p.ID != "", h.ID(p.ID)),
		g.If(p.Name != "", h.Name(p.Name)),
		g.If(p.Value != "", h.Value(p.Value)),
		g.If(p.Disabled, h.Disabled()),
		g.Group(children),
	)
}

// Label renders a label bound to the input with id htmlFor.
func Label(htmlFor, class string, children ...g.Node) g.Node {
	return h.Label(
		h.Class(cn("label text-sm font-medium leading-none", class)),
		g.If(htmlFor != "", h.For(htmlFor)),
		g.Group(children),
	)
}
