package ui

import (
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"
)

type ButtonVariant string

const (
	ButtonDefault ButtonVariant = "default"
	ButtonGhost   ButtonVariant = "ghost"
	ButtonOutline ButtonVariant = "outline"
)

var buttonVariants = map[ButtonVariant]string{
	ButtonDefault: "btn-default bg-neutral-900 text-white shadow hover:bg-neutral-800",
	ButtonGhost:   "btn-ghost hover:bg-neutral-100",
	ButtonOutline: "btn-outline border bg-white shadow-sm hover:bg-neutral-100",
}

const buttonBase = "btn inline-flex h-9 items-center justify-center gap-2 rounded-md px-4 py-2 text-sm font-medium disabled:pointer-events-none disabled:opacity-50"

type ButtonProps struct {
	Variant ButtonVariant
	// Type defaults to "button".
	Type     string
	Class    string
	Name     string
	Value    string
	Disabled bool
	// FormAction posts the enclosing form to this URL instead of its action.
	FormAction string
}

func Button(p ButtonProps, children ...g.Node) g.Node {
	variant, ok := buttonVariants[p.Variant]
	if !ok {
		variant = buttonVariants[ButtonDefault]
	}
	typ := p.Type
	if typ == "" {
		typ = "button"
	}
	return h.Button(
		h.Type(typ),
		h.Class(cn(buttonBase, variant, p.Class)),
		g.If(p.Name != "", h.Name(p.Name)),
		g.If(p.Value != "", h.Value(p.Value)),
		g.If(p.FormAction != "", g.Attr("formaction", p.FormAction)),
		// state transitions must not trip the browser's required-field checks
		g.If(p.FormAction != "", g.Attr("formnovalidate")),
		g.If(p.Disabled, h.Disabled()),
		g.Group(children),
	)
}
