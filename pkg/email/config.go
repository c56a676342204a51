package email

// Config selects the sender. Without a Postmark server token, mail is written
// to DevDir instead of being sent.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL" envDefault:"billing@tutorhub.local"`
	SupportEmail         string `env:"SUPPORT_EMAIL" envDefault:"support@tutorhub.local"`
	DevDir               string `env:"EMAIL_DEV_DIR" envDefault:"tmp/emails"`
}

// PostmarkEnabled reports whether a Postmark server token is configured.
func (c Config) PostmarkEnabled() bool { return c.PostmarkServerToken != "" }
