// Package email sends billing notices through Postmark, or writes them to a
// local directory during development.
//
//	sender, err := email.New(cfg)
//	...
//	body, err := templates.Render(ctx, templates.DowngradeScheduled, data)
//	err = sender.SendEmail(ctx, email.SendEmailParams{
//		SendTo:   user.Email,
//		Subject:  "Your plan change is scheduled",
//		BodyHTML: body,
//		Tag:      "downgrade_scheduled",
//	})
//
// Templates live in the templates subpackage and are rendered with
// html/template so user-provided names are escaped.
package email
