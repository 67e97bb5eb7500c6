// Package templates renders the HTML fragments returned to HTMX clients.
//
// Components are written in alerts.templ; alerts_templ.go is generated from
// it with `templ generate` and must not be edited by hand.
package templates
