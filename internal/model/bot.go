package model

// Bot is a well-known automation account that a declared repository can
// grant collaborator access to. Most bots map to a fixed Provider username;
// a few (Renovate) are GitHub Apps with no user account and are skipped
// during collaborator reconciliation (invariant B4).
type Bot string

const (
	BotBors        Bot = "bors"
	BotHighfive    Bot = "highfive"
	BotRustTimer   Bot = "rust_timer"
	BotRustbot     Bot = "rustbot"
	BotRfcbot      Bot = "rfcbot"
	BotCraterbot   Bot = "craterbot"
	BotGlacierbot  Bot = "glacierbot"
	BotLogAnalyzer Bot = "log_analyzer"
	BotRenovate    Bot = "renovate"
)

// botUsernames maps each bot variant to its fixed Provider login. Bots
// absent from this map (Renovate) are GitHub Apps: they have no collaborator
// identity to reconcile and are skipped wherever this map is consulted.
var botUsernames = map[Bot]string{
	BotBors:        "bors",
	BotHighfive:    "rust-highfive",
	BotRustTimer:   "rust-timer",
	BotRustbot:     "rustbot",
	BotRfcbot:      "rfcbot",
	BotCraterbot:   "craterbot",
	BotGlacierbot:  "rust-lang-glacier-bot",
	BotLogAnalyzer: "rust-log-analyzer",
	// BotRenovate intentionally has no entry: it is a Provider App, not a
	// user, and is never reconciled as a collaborator.
}

// Username returns the bot's fixed Provider login and true, or ("", false)
// if the bot is a Provider App with no collaborator identity (invariant B4).
func (b Bot) Username() (string, bool) {
	name, ok := botUsernames[b]
	return name, ok
}

// MergeBot is an automation account that force-pushes merges directly to a
// protected branch and is therefore granted a push allowance rather than
// collaborator access.
type MergeBot string

const (
	MergeBotHomu      MergeBot = "homu"
	MergeBotRustTimer MergeBot = "rust_timer"
)

// mergeBotUsernames maps each merge bot to the login used as a push
// allowance actor on a branch protection rule.
var mergeBotUsernames = map[MergeBot]string{
	MergeBotHomu:      "bors",
	MergeBotRustTimer: "rust-timer",
}

// Username returns the merge bot's push-allowance login.
func (m MergeBot) Username() string {
	return mergeBotUsernames[m]
}
