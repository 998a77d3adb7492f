package ui

import (
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"
)

func Card(class string, children ...g.Node) g.Node {
	return h.Div(h.Class(cn("card rounded-xl border bg-white shadow", class)), g.Group(children))
}

func CardHeader(class string, children ...g.Node) g.Node {
	return h.Div(h.Class(cn("card-header flex flex-col gap-1.5 p-6", class)), g.Group(children))
}

func CardTitle(class string, children ...g.Node) g.Node {
	return h.H3(h.Class(cn("card-title font-semibold leading-none tracking-tight", class)), g.Group(children))
}

func CardDescription(class string, children ...g.Node) g.Node {
	return h.P(h.Class(cn("card-description text-sm text-neutral-500", class)), g.Group(children))
}

func CardContent(class string, children ...g.Node) g.Node {
	return h.Div(h.Class(cn("card-content p-6 pt-0", class)), g.Group(children))
}
