// Package assets embeds the email and admin page templates.
package assets

import "embed"

const (
	EmailTemplatesDir = "templates/email"
	AdminTemplatesDir = "templates/admin"
)

//go:embed all:templates
var FS embed.FS
