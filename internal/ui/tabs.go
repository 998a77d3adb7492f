package ui

import (
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"
)

func state(active bool) string {
	if active {
		return "active"
	}
	return "inactive"
}

// Tabs wraps a tab list and its panels. value is the selected tab.
func Tabs(value, class string, children ...g.Node) g.Node {
	return h.Div(
		h.Class(cn("tabs flex flex-col gap-2", class)),
		h.Data("value", value),
		g.Group(children),
	)
}

func TabsList(class string, children ...g.Node) g.Node {
	return h.Div(
		h.Role("tablist"),
		h.Class(cn("tabs-list inline-flex h-9 items-center justify-center rounded-lg bg-neutral-100 p-1 text-neutral-500", class)),
		g.Group(children),
	)
}

// TabsTrigger is a submit button that posts name=value to formAction, so
// switching tabs works without scripts.
type TabsTriggerProps struct {
	Name       string
	Value      string
	Active     bool
	FormAction string
	Class      string
}

func TabsTrigger(p TabsTriggerProps, children ...g.Node) g.Node {
	return h.Button(
		h.Type("submit"),
		h.Role("tab"),
		h.ID("tab-"+p.Value),
		h.Name(p.Name),
		h.Value(p.Value),
		g.If(p.FormAction != "", g.Attr("formaction", p.FormAction)),
		g.Attr("formnovalidate"),
		h.Aria("selected", boolAttr(p.Active)),
		h.Aria("controls", "panel-"+p.Value),
		h.Data("state", state(p.Active)),
		h.Class(cn("tabs-trigger inline-flex flex-1 items-center justify-center rounded-md px-3 py-1 text-sm font-medium", p.Class)),
		g.Group(children),
	)
}

// TabsContent renders every panel; inactive ones are hidden.
func TabsContent(value string, active bool, class string, children ...g.Node) g.Node {
	return h.Div(
		h.Role("tabpanel"),
		h.ID("panel-"+value),
		h.Aria("labelledby", "tab-"+value),
		h.Data("state", state(active)),
		h.Data("value", value),
		g.If(!active, g.Attr("hidden")),
		h.Class(cn("tabs-content mt-2", class)),
		g.Group(children),
	)
}

func boolAttr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
