package ui

import (
	"strings"

	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"

	"github.com/ovaphlow/pitchfork/service-login-go/internal/identify"
)

type CountryDropdownProps struct {
	// Name of the posted field carrying the alpha-3 code.
	Name      string
	Selected  string
	Countries []identify.Country
	// FormAction receives the pick; each option is a submit button.
	FormAction string
	// Slim shows only the flag in the closed state.
	Slim     bool
	Disabled bool
	Class    string
}

// CountryDropdown is a command palette over the country catalog. Countries
// without calling codes are listed but never change the dial code.
func CountryDropdown(p CountryDropdownProps) g.Node {
	selected, ok := identify.LookupCountry(p.Selected)
	var summary g.Node
	switch {
	case !ok:
		summary = h.Span(g.Text("Select country"))
	case p.Slim:
		summary = h.Span(h.Title(selected.Name), g.Text(selected.Emoji))
	default:
		summary = g.Group{h.Span(g.Text(selected.Emoji)), h.Span(h.Class("truncate"), g.Text(selected.Name))}
	}

	return h.Details(
		h.Class(cn("country-dropdown relative", p.Class)),
		h.Data("country-dropdown", ""),
		h.Summary(
			h.Class(cn(buttonBase, buttonVariants[ButtonOutline], "country-dropdown-trigger")),
			h.Aria("label", "Country"),
			g.If(p.Disabled, h.Aria("disabled", "true")),
			summary,
		),
		Command("country-dropdown-panel absolute z-10 mt-1 w-72 bg-white",
			CommandInput("", h.Placeholder("Search country..."), g.If(p.Disabled, h.Disabled())),
			CommandList("",
				CommandEmpty("", g.Text("No country found.")),
				CommandGroup("", "",
					g.Map(p.Countries, func(c identify.Country) g.Node {
						return countryItem(p, c, ok && c.Alpha3 == selected.Alpha3)
					}),
				),
			),
		),
	)
}

func countryItem(p CountryDropdownProps, c identify.Country, selected bool) g.Node {
	search := strings.ToLower(strings.Join(append([]string{c.Name, c.Alpha2, c.Alpha3}, c.CallingCodes...), " "))
	return CommandItem(search, selected, "",
		h.Button(
			h.Type("submit"),
			h.Name(p.Name),
			h.Value(c.Alpha3),
			g.If(p.FormAction != "", g.Attr("formaction", p.FormAction)),
			g.Attr("formnovalidate"),
			g.If(p.Disabled, h.Disabled()),
			h.Data("dial-code", c.DialCode()),
			h.Class("country-option flex w-full items-center gap-2 text-left"),
			h.Span(g.Text(c.Emoji)),
			h.Span(h.Class("flex-1 truncate"), g.Text(c.Name)),
			g.If(c.DialCode() != "", h.Span(h.Class("text-xs text-neutral-500"), g.Text(c.DialCode()))),
		),
	)
}
