package ui

import (
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"
)

// Command is a filterable list. login.js filters items by the text typed
// into CommandInput; without scripts the whole list is shown.
func Command(class string, children ...g.Node) g.Node {
	return h.Div(
		h.Data("command", ""),
		h.Class(cn("command flex h-72 w-full flex-col overflow-hidden rounded-md border", class)),
		g.Group(children),
	)
}

func CommandInput(class string, children ...g.Node) g.Node {
	return h.Div(
		h.Class("command-input-wrap flex items-center border-b px-3"),
		h.Input(
			h.Type("search"),
			h.Data("command-input", ""),
			h.AutoComplete("off"),
			h.Class(cn("command-input flex h-9 w-full rounded-md bg-transparent py-3 text-sm outline-none placeholder:text-neutral-400 disabled:cursor-not-allowed disabled:opacity-50", class)),
			g.Group(children),
		),
	)
}

func CommandList(class string, children ...g.Node) g.Node {
	return h.Div(
		h.Role("listbox"),
		h.Class(cn("command-list max-h-64 overflow-y-auto p-1", class)),
		g.Group(children),
	)
}

// CommandEmpty is shown by login.js when no item matches.
func CommandEmpty(class string, children ...g.Node) g.Node {
	return h.Div(
		h.Data("command-empty", ""),
		g.Attr("hidden"),
		h.Class(cn("command-empty py-6 text-center text-sm", class)),
		g.Group(children),
	)
}

func CommandGroup(heading, class string, children ...g.Node) g.Node {
	return h.Div(
		h.Role("group"),
		h.Class(cn("command-group overflow-hidden p-1 text-sm", class)),
		g.If(heading != "", h.Div(h.Class("command-group-heading px-2 py-1.5 text-xs font-medium text-neutral-500"), g.Text(heading))),
		g.Group(children),
	)
}

// CommandItem carries its search text in data-search.
func CommandItem(search string, selected bool, class string, children ...g.Node) g.Node {
	return h.Div(
		h.Role("option"),
		h.Data("command-item", ""),
		h.Data("search", search),
		h.Aria("selected", boolAttr(selected)),
		h.Class(cn("command-item flex cursor-pointer select-none items-center gap-2 rounded-sm px-2 py-1.5 text-sm aria-selected:bg-neutral-100", class)),
		g.Group(children),
	)
}
