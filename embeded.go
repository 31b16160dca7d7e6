package accounts

import "embed"

//go:embed migrations/*.sql
var Migrations embed.FS

//go:embed locales/*.toml
var Locales embed.FS

//go:embed templates/mail/*.html
var MailTemplates embed.FS
